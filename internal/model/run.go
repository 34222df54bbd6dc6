package model

import "time"

// Run is one timed attempt at a structure by a reservation's group.  Score
// is derived from the outcome flags when the run is written and persisted
// alongside them.
type Run struct {
	ID                uint64    `json:"id"`                 // runs.id
	ReservationID     uint64    `json:"reservation_id"`     // runs.reservation_id
	RunNumber         int       `json:"run_number"`         // runs.run_number
	Structure         string    `json:"structure"`          // runs.structure
	Visual            string    `json:"visual"`             // runs.visual (V, C, S, CS, B)
	Cranked           bool      `json:"cranked"`            // runs.cranked (audio mode)
	TargetsEliminated bool      `json:"targets_eliminated"` // runs.targets_eliminated
	ObjectiveComplete bool      `json:"objective_complete"` // runs.objective_complete
	ElapsedSeconds    int       `json:"elapsed_seconds"`    // runs.elapsed_seconds
	Score             int       `json:"score"`              // runs.score
	ScoredBy          *uint64   `json:"scored_by"`          // runs.scored_by (nullable)
	CreatedAt         time.Time `json:"created_at"`         // runs.created_at
}

// LeaderboardEntry is one row of the leaderboard view.
type LeaderboardEntry struct {
	RunID          uint64 `json:"run_id"`
	ReservationID  uint64 `json:"reservation_id"`
	CustomerName   string `json:"customer_name"`
	Date           string `json:"date"`
	Structure      string `json:"structure"`
	Score          int    `json:"score"`
	ElapsedSeconds int    `json:"elapsed_seconds"`
}
