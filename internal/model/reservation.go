package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reservation statuses.  A reservation starts confirmed, moves to arrived
// when the party checks in, to sent when the slot is dispatched and to
// completed after the run.  Cancelled reservations are ignored by every
// lane computation.
const (
	StatusConfirmed = "confirmed"
	StatusArrived   = "arrived"
	StatusReady     = "ready"
	StatusNoShow    = "no-show"
	StatusSent      = "sent"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Reservation is a booking of one reservation type for a (date, start time)
// slot.  Date and StartTime are kept as the strings the venue schedules by
// ("2006-01-02" and "15:04") since the slot key is a wall-clock time at the
// venue, not an instant.
//
// Fields:
//
//	ID             – primary key; creation order follows ID order.
//	TypeID         – reservation type booked.
//	UserID         – booking customer (nil for anonymous bookings).
//	CustomerName   – display name of the booking party.
//	Date           – calendar day of the slot.
//	StartTime      – slot start time.
//	PlayerCount    – seats (open play) or party size (private).
//	Amount         – total charged for this reservation.
//	Paid           – whether Amount has been collected.
//	Status         – lifecycle status, see Status* constants.
//	IdempotencyKey – client key that makes creation safe to retry.
//	Players        – enrolled participants in enrolment order.
type Reservation struct {
	ID             uint64          `json:"id"`              // reservations.id
	TypeID         uint64          `json:"type_id"`         // reservations.type_id
	UserID         *uint64         `json:"user_id"`         // reservations.user_id (nullable)
	CustomerName   string          `json:"customer_name"`   // reservations.customer_name
	Date           string          `json:"date"`            // reservations.date
	StartTime      string          `json:"start_time"`      // reservations.start_time
	PlayerCount    int             `json:"player_count"`    // reservations.player_count
	Amount         decimal.Decimal `json:"amount"`          // reservations.amount
	Paid           bool            `json:"paid"`            // reservations.paid
	Status         string          `json:"status"`          // reservations.status
	IdempotencyKey string          `json:"-"`               // reservations.idempotency_key
	Players        []Player        `json:"players"`         // reservation_players rows
	CreatedAt      time.Time       `json:"created_at"`      // reservations.created_at
}

// SeatCount returns the number of seats the reservation takes in a lane.
// Rows written before player counts were mandatory carry zero and are
// counted as a single player.
func (r Reservation) SeatCount() int {
	if r.PlayerCount <= 0 {
		return 1
	}
	return r.PlayerCount
}

// InSlot reports whether the reservation belongs to the given slot.
func (r Reservation) InSlot(date, startTime string) bool {
	return r.Date == date && r.StartTime == startTime
}

// Player is a participant enrolled in a reservation.  A nil UserID marks a
// guest with no account.
type Player struct {
	ID            uint64  `json:"id"`             // reservation_players.id
	ReservationID uint64  `json:"reservation_id"` // reservation_players.reservation_id
	UserID        *uint64 `json:"user_id"`        // reservation_players.user_id (nullable)
	Name          string  `json:"name"`           // reservation_players.name
	Phone         string  `json:"phone"`          // reservation_players.phone
}

// ReservationPatch carries a partial update.  Nil fields are left untouched.
type ReservationPatch struct {
	Status      *string
	PlayerCount *int
	Amount      *decimal.Decimal
	Paid        *bool
	Date        *string
	StartTime   *string
	TypeID      *uint64
}

// Apply copies the set fields of p onto r.
func (p ReservationPatch) Apply(r *Reservation) {
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.PlayerCount != nil {
		r.PlayerCount = *p.PlayerCount
	}
	if p.Amount != nil {
		r.Amount = *p.Amount
	}
	if p.Paid != nil {
		r.Paid = *p.Paid
	}
	if p.Date != nil {
		r.Date = *p.Date
	}
	if p.StartTime != nil {
		r.StartTime = *p.StartTime
	}
	if p.TypeID != nil {
		r.TypeID = *p.TypeID
	}
}
