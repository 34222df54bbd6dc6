package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/lane-ops/internal/model"
)

// UserRepo stores venue users and their waiver signatures.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, name, phone, email, access, needs_rewaiver_doc_id, created_by, created_at`

func scanUser(s scanner) (model.User, error) {
	var (
		u         model.User
		phone     sql.NullString
		email     sql.NullString
		rewaiver  sql.NullInt64
		createdBy sql.NullInt64
	)
	if err := s.Scan(&u.ID, &u.Name, &phone, &email, &u.Access, &rewaiver, &createdBy, &u.CreatedAt); err != nil {
		return model.User{}, err
	}
	if phone.Valid {
		u.Phone = &phone.String
	}
	if email.Valid {
		u.Email = &email.String
	}
	u.NeedsRewaiverDocID = uintPtr(rewaiver)
	u.CreatedBy = uintPtr(createdBy)
	u.Waivers = []model.WaiverSignature{}
	return u, nil
}

// GetUserByPhone fetches a user by normalized ten-digit phone.
func (r *UserRepo) GetUserByPhone(ctx context.Context, phone string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE phone = ? LIMIT 1`, phone))
	if err != nil {
		return model.User{}, notFound(err)
	}
	return r.withWaivers(ctx, u)
}

// GetUser fetches a user by id.
func (r *UserRepo) GetUser(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ? LIMIT 1`, id))
	if err != nil {
		return model.User{}, notFound(err)
	}
	return r.withWaivers(ctx, u)
}

// ListUsers fetches the users with the given ids.  Unknown ids are skipped.
func (r *UserRepo) ListUsers(ctx context.Context, ids []uint64) ([]model.User, error) {
	out := []model.User{}
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id IN (`+placeholders(len(ids))+`) ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	idx := map[uint64]int{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		idx[u.ID] = len(out)
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	found := make([]any, 0, len(out))
	for _, u := range out {
		found = append(found, u.ID)
	}
	wrows, err := r.DB.QueryContext(ctx,
		`SELECT user_id, signed_at, signed_name, waiver_doc_id FROM user_waivers
		 WHERE user_id IN (`+placeholders(len(found))+`) ORDER BY id`, found...)
	if err != nil {
		return nil, err
	}
	defer wrows.Close()
	for wrows.Next() {
		var (
			uid uint64
			w   model.WaiverSignature
		)
		if err := wrows.Scan(&uid, &w.SignedAt, &w.SignedName, &w.WaiverDocID); err != nil {
			return nil, err
		}
		if i, ok := idx[uid]; ok {
			out[i].Waivers = append(out[i].Waivers, w)
		}
	}
	return out, wrows.Err()
}

func (r *UserRepo) withWaivers(ctx context.Context, u model.User) (model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT signed_at, signed_name, waiver_doc_id FROM user_waivers WHERE user_id = ? ORDER BY id`, u.ID)
	if err != nil {
		return model.User{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var w model.WaiverSignature
		if err := rows.Scan(&w.SignedAt, &w.SignedName, &w.WaiverDocID); err != nil {
			return model.User{}, err
		}
		u.Waivers = append(u.Waivers, w)
	}
	return u, rows.Err()
}

// CreateGuestUser inserts a customer record created at the desk by the
// staff member createdBy.  A phone already on file yields ErrConflict.
func (r *UserRepo) CreateGuestUser(ctx context.Context, name, phone string, createdBy uint64) (model.User, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (name, phone, access, created_by) VALUES (?, ?, ?, ?)`,
		name, nullString(phone), model.AccessCustomer, createdBy)
	if err != nil {
		if isDuplicate(err) {
			return model.User{}, ErrConflict
		}
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return r.GetUser(ctx, uint64(id))
}

// SignWaiver records a signature of docID by the user and clears a pending
// re-sign flag for that document.
func (r *UserRepo) SignWaiver(ctx context.Context, userID uint64, signedName string, docID uint64, at time.Time) (u model.User, err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.User{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO user_waivers (user_id, waiver_doc_id, signed_name, signed_at) VALUES (?, ?, ?, ?)`,
		userID, docID, signedName, at.UTC()); err != nil {
		if isMissingParent(err) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, err
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE users SET needs_rewaiver_doc_id = NULL WHERE id = ? AND needs_rewaiver_doc_id = ?`,
		userID, docID); err != nil {
		return model.User{}, err
	}
	if err = tx.Commit(); err != nil {
		return model.User{}, err
	}
	return r.GetUser(ctx, userID)
}
