package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/lane-ops/internal/model"
)

// RunRepo stores scored runs and serves the leaderboard.
type RunRepo struct {
	db *sql.DB
}

func NewRunRepo(db *sql.DB) *RunRepo { return &RunRepo{db: db} }

const runColumns = `id, reservation_id, run_number, structure, visual, cranked, targets_eliminated,
	objective_complete, elapsed_seconds, score, scored_by, created_at`

func scanRun(s scanner) (model.Run, error) {
	var (
		run      model.Run
		scoredBy sql.NullInt64
	)
	if err := s.Scan(&run.ID, &run.ReservationID, &run.RunNumber, &run.Structure, &run.Visual,
		&run.Cranked, &run.TargetsEliminated, &run.ObjectiveComplete, &run.ElapsedSeconds,
		&run.Score, &scoredBy, &run.CreatedAt); err != nil {
		return model.Run{}, err
	}
	run.ScoredBy = uintPtr(scoredBy)
	return run, nil
}

// CreateRun inserts run.  A duplicate run number for the reservation yields
// ErrConflict; an unknown reservation yields ErrNotFound.
func (r *RunRepo) CreateRun(ctx context.Context, run model.Run) (model.Run, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO runs (reservation_id, run_number, structure, visual, cranked, targets_eliminated,
		 objective_complete, elapsed_seconds, score, scored_by) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ReservationID, run.RunNumber, run.Structure, run.Visual, run.Cranked, run.TargetsEliminated,
		run.ObjectiveComplete, run.ElapsedSeconds, run.Score, nullUint(run.ScoredBy))
	switch {
	case isDuplicate(err):
		return model.Run{}, ErrConflict
	case isMissingParent(err):
		return model.Run{}, ErrNotFound
	case err != nil:
		return model.Run{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Run{}, err
	}
	return r.GetRun(ctx, uint64(id))
}

// UpdateRun rewrites the outcome fields of run.ID.
func (r *RunRepo) UpdateRun(ctx context.Context, run model.Run) (model.Run, error) {
	if _, err := r.GetRun(ctx, run.ID); err != nil {
		return model.Run{}, err
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE runs SET run_number = ?, structure = ?, visual = ?, cranked = ?, targets_eliminated = ?,
		 objective_complete = ?, elapsed_seconds = ?, score = ?, scored_by = ? WHERE id = ?`,
		run.RunNumber, run.Structure, run.Visual, run.Cranked, run.TargetsEliminated,
		run.ObjectiveComplete, run.ElapsedSeconds, run.Score, nullUint(run.ScoredBy), run.ID)
	if isDuplicate(err) {
		return model.Run{}, ErrConflict
	}
	if err != nil {
		return model.Run{}, err
	}
	return r.GetRun(ctx, run.ID)
}

// DeleteRun removes a run.
func (r *RunRepo) DeleteRun(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetRun fetches one run.
func (r *RunRepo) GetRun(ctx context.Context, id uint64) (model.Run, error) {
	run, err := scanRun(r.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if err != nil {
		return model.Run{}, notFound(err)
	}
	return run, nil
}

// ListRuns returns the runs of a reservation in run order.
func (r *RunRepo) ListRuns(ctx context.Context, reservationID uint64) ([]model.Run, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE reservation_id = ? ORDER BY run_number`, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// Leaderboard returns the best runs by score, ties broken by the faster
// time.  An empty structure ranks every structure together.
func (r *RunRepo) Leaderboard(ctx context.Context, structure string, limit int) ([]model.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	q := `SELECT ru.id, ru.reservation_id, re.customer_name, re.date, ru.structure, ru.score, ru.elapsed_seconds
	      FROM runs ru JOIN reservations re ON re.id = ru.reservation_id`
	var args []any
	if structure != "" {
		q += ` WHERE ru.structure = ?`
		args = append(args, structure)
	}
	q += ` ORDER BY ru.score DESC, ru.elapsed_seconds ASC, ru.id ASC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.LeaderboardEntry{}
	for rows.Next() {
		var (
			e    model.LeaderboardEntry
			date sql.NullTime
		)
		if err := rows.Scan(&e.RunID, &e.ReservationID, &e.CustomerName, &date, &e.Structure, &e.Score, &e.ElapsedSeconds); err != nil {
			return nil, err
		}
		if date.Valid {
			e.Date = date.Time.Format("2006-01-02")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
