package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/lane-ops/internal/model"
)

// ReservationRepo provides CRUD operations for reservations and their
// enrolled players.  Players live in reservation_players and are deleted
// with their reservation.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, type_id, user_id, customer_name, date, start_time, player_count, amount, paid, status, idempotency_key, created_at`

func scanReservation(s scanner) (model.Reservation, error) {
	var (
		r       model.Reservation
		userID  sql.NullInt64
		date    time.Time
		idemKey sql.NullString
	)
	if err := s.Scan(&r.ID, &r.TypeID, &userID, &r.CustomerName, &date, &r.StartTime,
		&r.PlayerCount, &r.Amount, &r.Paid, &r.Status, &idemKey, &r.CreatedAt); err != nil {
		return model.Reservation{}, err
	}
	r.UserID = uintPtr(userID)
	r.Date = date.Format("2006-01-02")
	r.IdempotencyKey = idemKey.String
	r.Players = []model.Player{}
	return r, nil
}

// ListReservations returns the reservations of date in creation order with
// their players attached.  An empty date lists every reservation.
func (r *ReservationRepo) ListReservations(ctx context.Context, date string) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations`
	var args []any
	if date != "" {
		q += ` WHERE date = ?`
		args = append(args, date)
	}
	q += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachPlayers(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetReservation returns one reservation with its players.
func (r *ReservationRepo) GetReservation(ctx context.Context, id uint64) (model.Reservation, error) {
	res, err := scanReservation(r.db.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id))
	if err != nil {
		return model.Reservation{}, notFound(err)
	}
	list := []model.Reservation{res}
	if err := r.attachPlayers(ctx, list); err != nil {
		return model.Reservation{}, err
	}
	return list[0], nil
}

func (r *ReservationRepo) attachPlayers(ctx context.Context, list []model.Reservation) error {
	if len(list) == 0 {
		return nil
	}
	idx := make(map[uint64]int, len(list))
	args := make([]any, 0, len(list))
	for i, res := range list {
		idx[res.ID] = i
		args = append(args, res.ID)
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, reservation_id, user_id, name, phone FROM reservation_players
		 WHERE reservation_id IN (`+placeholders(len(args))+`) ORDER BY id`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return err
		}
		if i, ok := idx[p.ReservationID]; ok {
			list[i].Players = append(list[i].Players, p)
		}
	}
	return rows.Err()
}

func scanPlayer(s scanner) (model.Player, error) {
	var (
		p      model.Player
		userID sql.NullInt64
		phone  sql.NullString
	)
	if err := s.Scan(&p.ID, &p.ReservationID, &userID, &p.Name, &phone); err != nil {
		return model.Player{}, err
	}
	p.UserID = uintPtr(userID)
	p.Phone = phone.String
	return p, nil
}

// CreateReservation inserts res.  When res carries an idempotency key that
// was already used, the existing reservation is returned instead of a new
// one, so a retried batch never books twice.
func (r *ReservationRepo) CreateReservation(ctx context.Context, res model.Reservation) (model.Reservation, error) {
	status := res.Status
	if status == "" {
		status = model.StatusConfirmed
	}
	const q = `INSERT INTO reservations
		(type_id, user_id, customer_name, date, start_time, player_count, amount, paid, status, idempotency_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)`
	result, err := r.db.ExecContext(ctx, q,
		res.TypeID, nullUint(res.UserID), res.CustomerName, res.Date, res.StartTime,
		res.PlayerCount, res.Amount, res.Paid, status, nullString(res.IdempotencyKey))
	if err != nil {
		return model.Reservation{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return model.Reservation{}, err
	}
	return r.GetReservation(ctx, uint64(id))
}

// UpdateReservation applies the set fields of patch and returns the row as
// stored afterwards.
func (r *ReservationRepo) UpdateReservation(ctx context.Context, id uint64, patch model.ReservationPatch) (model.Reservation, error) {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.PlayerCount != nil {
		add("player_count", *patch.PlayerCount)
	}
	if patch.Amount != nil {
		add("amount", *patch.Amount)
	}
	if patch.Paid != nil {
		add("paid", *patch.Paid)
	}
	if patch.Date != nil {
		add("date", *patch.Date)
	}
	if patch.StartTime != nil {
		add("start_time", *patch.StartTime)
	}
	if patch.TypeID != nil {
		add("type_id", *patch.TypeID)
	}
	if len(sets) == 0 {
		return r.GetReservation(ctx, id)
	}

	args = append(args, id)
	// MySQL reports zero affected rows when the values did not change, so
	// existence is confirmed by the read below.
	if _, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
		return model.Reservation{}, err
	}
	return r.GetReservation(ctx, id)
}

// AddPlayer enrols p in the reservation and returns it with its id.
func (r *ReservationRepo) AddPlayer(ctx context.Context, reservationID uint64, p model.Player) (model.Player, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO reservation_players (reservation_id, user_id, name, phone) VALUES (?, ?, ?, ?)`,
		reservationID, nullUint(p.UserID), p.Name, nullString(p.Phone))
	if err != nil {
		if isMissingParent(err) {
			return model.Player{}, ErrNotFound
		}
		return model.Player{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return model.Player{}, err
	}
	p.ID = uint64(id)
	p.ReservationID = reservationID
	return p, nil
}

// RemovePlayer deletes one player of the reservation.
func (r *ReservationRepo) RemovePlayer(ctx context.Context, reservationID, playerID uint64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM reservation_players WHERE id = ? AND reservation_id = ?`, playerID, reservationID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplacePlayers swaps the whole player list of a reservation in one
// transaction and returns the stored list.
func (r *ReservationRepo) ReplacePlayers(ctx context.Context, reservationID uint64, players []model.Player) (out []model.Player, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var exists int
	if err = tx.QueryRowContext(ctx, `SELECT 1 FROM reservations WHERE id = ? FOR UPDATE`, reservationID).Scan(&exists); err != nil {
		return nil, notFound(err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM reservation_players WHERE reservation_id = ?`, reservationID); err != nil {
		return nil, err
	}
	out = make([]model.Player, 0, len(players))
	for _, p := range players {
		var result sql.Result
		result, err = tx.ExecContext(ctx,
			`INSERT INTO reservation_players (reservation_id, user_id, name, phone) VALUES (?, ?, ?, ?)`,
			reservationID, nullUint(p.UserID), p.Name, nullString(p.Phone))
		if err != nil {
			return nil, fmt.Errorf("insert player %q: %w", p.Name, err)
		}
		var id int64
		if id, err = result.LastInsertId(); err != nil {
			return nil, err
		}
		p.ID = uint64(id)
		p.ReservationID = reservationID
		out = append(out, p)
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}
