package ops

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/lane-ops/internal/model"
	"github.com/iliyamo/lane-ops/internal/scoring"
)

// RunInput is the outcome of a run as staff record it.
type RunInput struct {
	ReservationID     uint64 `json:"reservation_id"`
	RunNumber         int    `json:"run_number"`
	Structure         string `json:"structure"`
	Visual            string `json:"visual"`
	Cranked           bool   `json:"cranked"`
	TargetsEliminated bool   `json:"targets_eliminated"`
	ObjectiveComplete bool   `json:"objective_complete"`
	ElapsedSeconds    int    `json:"elapsed_seconds"`
}

func (in RunInput) validate() error {
	if strings.TrimSpace(in.Structure) == "" {
		return invalid("structure is required")
	}
	if in.RunNumber < 1 {
		return invalid("run number must be at least 1")
	}
	if in.ElapsedSeconds < 0 {
		return invalid("elapsed seconds cannot be negative")
	}
	return nil
}

func (in RunInput) run(actorID uint64) model.Run {
	visual := strings.ToUpper(strings.TrimSpace(in.Visual))
	return model.Run{
		ReservationID:     in.ReservationID,
		RunNumber:         in.RunNumber,
		Structure:         strings.TrimSpace(in.Structure),
		Visual:            visual,
		Cranked:           in.Cranked,
		TargetsEliminated: in.TargetsEliminated,
		ObjectiveComplete: in.ObjectiveComplete,
		ElapsedSeconds:    in.ElapsedSeconds,
		Score:             scoring.Score(visual, in.Cranked, in.TargetsEliminated, in.ObjectiveComplete),
		ScoredBy:          &actorID,
	}
}

// RecordRun scores and stores a run for a reservation.
func (c *Console) RecordRun(ctx context.Context, actorID uint64, in RunInput) (model.Run, error) {
	if err := in.validate(); err != nil {
		return model.Run{}, err
	}
	if _, err := c.store.GetReservation(ctx, in.ReservationID); err != nil {
		return model.Run{}, fmt.Errorf("get reservation: %w", err)
	}
	run, err := c.store.CreateRun(ctx, in.run(actorID))
	if err != nil {
		return model.Run{}, fmt.Errorf("create run: %w", err)
	}
	c.logger.Info("run recorded", zap.Uint64("run_id", run.ID), zap.Uint64("reservation_id", run.ReservationID), zap.Int("score", run.Score))
	return run, nil
}

// UpdateRun re-scores an existing run.  The reservation a run belongs to
// never changes.
func (c *Console) UpdateRun(ctx context.Context, actorID, id uint64, in RunInput) (model.Run, error) {
	cur, err := c.store.GetRun(ctx, id)
	if err != nil {
		return model.Run{}, fmt.Errorf("get run: %w", err)
	}
	in.ReservationID = cur.ReservationID
	if err := in.validate(); err != nil {
		return model.Run{}, err
	}
	next := in.run(actorID)
	next.ID = id
	run, err := c.store.UpdateRun(ctx, next)
	if err != nil {
		return model.Run{}, fmt.Errorf("update run: %w", err)
	}
	return run, nil
}

// DeleteRun removes a run.
func (c *Console) DeleteRun(ctx context.Context, id uint64) error {
	if err := c.store.DeleteRun(ctx, id); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return nil
}

// ListRuns returns a reservation's runs in run order.
func (c *Console) ListRuns(ctx context.Context, reservationID uint64) ([]model.Run, error) {
	runs, err := c.store.ListRuns(ctx, reservationID)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Leaderboard returns the top runs, optionally for one structure.
func (c *Console) Leaderboard(ctx context.Context, structure string, limit int) ([]model.LeaderboardEntry, error) {
	out, err := c.store.Leaderboard(ctx, strings.TrimSpace(structure), limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	return out, nil
}
