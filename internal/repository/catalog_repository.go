package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/lane-ops/internal/model"
)

// CatalogRepo serves the venue's reference data: reservation types, the
// weekly session templates and waiver documents.
type CatalogRepo struct {
	db *sql.DB
}

func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

// ListReservationTypes returns every reservation type ordered by id.
func (r *CatalogRepo) ListReservationTypes(ctx context.Context) ([]model.ReservationType, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, mode, style, pricing_mode, price, max_players, description, active, available_for_booking
		 FROM reservation_types ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ReservationType{}
	for rows.Next() {
		var (
			t    model.ReservationType
			maxP sql.NullInt64
			desc sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.Name, &t.Mode, &t.Style, &t.PricingMode, &t.Price,
			&maxP, &desc, &t.Active, &t.AvailableForBooking); err != nil {
			return nil, err
		}
		if maxP.Valid {
			n := int(maxP.Int64)
			t.MaxPlayers = &n
		}
		t.Description = desc.String
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpsertReservationType inserts t when its id is zero and updates it
// otherwise.
func (r *CatalogRepo) UpsertReservationType(ctx context.Context, t model.ReservationType) (model.ReservationType, error) {
	var maxP sql.NullInt64
	if t.MaxPlayers != nil {
		maxP = sql.NullInt64{Int64: int64(*t.MaxPlayers), Valid: true}
	}
	if t.ID == 0 {
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO reservation_types (name, mode, style, pricing_mode, price, max_players, description, active, available_for_booking)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.Name, t.Mode, t.Style, t.PricingMode, t.Price, maxP, t.Description, t.Active, t.AvailableForBooking)
		if err != nil {
			return model.ReservationType{}, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return model.ReservationType{}, err
		}
		t.ID = uint64(id)
		return t, nil
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE reservation_types SET name = ?, mode = ?, style = ?, pricing_mode = ?, price = ?, max_players = ?,
		 description = ?, active = ?, available_for_booking = ? WHERE id = ?`,
		t.Name, t.Mode, t.Style, t.PricingMode, t.Price, maxP, t.Description, t.Active, t.AvailableForBooking, t.ID)
	if err != nil {
		return model.ReservationType{}, err
	}
	if err := r.ensureRow(ctx, res, "reservation_types", t.ID); err != nil {
		return model.ReservationType{}, err
	}
	return t, nil
}

// ListSessionTemplates returns every template ordered by day and time.
func (r *CatalogRepo) ListSessionTemplates(ctx context.Context) ([]model.SessionTemplate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, day_of_week, start_time, max_sessions, active FROM session_templates ORDER BY day_of_week, start_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.SessionTemplate{}
	for rows.Next() {
		var t model.SessionTemplate
		if err := rows.Scan(&t.ID, &t.DayOfWeek, &t.StartTime, &t.MaxSessions, &t.Active); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpsertSessionTemplate inserts or updates a template.  A second template
// for the same day and start time yields ErrConflict.
func (r *CatalogRepo) UpsertSessionTemplate(ctx context.Context, t model.SessionTemplate) (model.SessionTemplate, error) {
	if t.ID == 0 {
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO session_templates (day_of_week, start_time, max_sessions, active) VALUES (?, ?, ?, ?)`,
			t.DayOfWeek, t.StartTime, t.MaxSessions, t.Active)
		if err != nil {
			if isDuplicate(err) {
				return model.SessionTemplate{}, ErrConflict
			}
			return model.SessionTemplate{}, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return model.SessionTemplate{}, err
		}
		t.ID = uint64(id)
		return t, nil
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE session_templates SET day_of_week = ?, start_time = ?, max_sessions = ?, active = ? WHERE id = ?`,
		t.DayOfWeek, t.StartTime, t.MaxSessions, t.Active, t.ID)
	if err != nil {
		if isDuplicate(err) {
			return model.SessionTemplate{}, ErrConflict
		}
		return model.SessionTemplate{}, err
	}
	if err := r.ensureRow(ctx, res, "session_templates", t.ID); err != nil {
		return model.SessionTemplate{}, err
	}
	return t, nil
}

// ListWaiverDocs returns every waiver document, newest first.
func (r *CatalogRepo) ListWaiverDocs(ctx context.Context) ([]model.WaiverDoc, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, version, body, active, created_at FROM waiver_docs ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.WaiverDoc{}
	for rows.Next() {
		var d model.WaiverDoc
		if err := rows.Scan(&d.ID, &d.Name, &d.Version, &d.Body, &d.Active, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// SetActiveWaiverDoc makes id the only active document and flags every
// customer to re-sign it.
func (r *CatalogRepo) SetActiveWaiverDoc(ctx context.Context, id uint64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var exists int
	if err = tx.QueryRowContext(ctx, `SELECT 1 FROM waiver_docs WHERE id = ? FOR UPDATE`, id).Scan(&exists); err != nil {
		return notFound(err)
	}
	if _, err = tx.ExecContext(ctx, `UPDATE waiver_docs SET active = (id = ?)`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE users SET needs_rewaiver_doc_id = ? WHERE access = ?`, id, model.AccessCustomer); err != nil {
		return err
	}
	return tx.Commit()
}

// ensureRow turns a zero-row UPDATE into ErrNotFound when the row is
// missing.  MySQL reports zero rows for no-op updates too, so the row is
// looked up before failing.
func (r *CatalogRepo) ensureRow(ctx context.Context, res sql.Result, table string, id uint64) error {
	n, err := res.RowsAffected()
	if err != nil || n > 0 {
		return err
	}
	var one int
	return notFound(r.db.QueryRowContext(ctx, `SELECT 1 FROM `+table+` WHERE id = ?`, id).Scan(&one))
}
