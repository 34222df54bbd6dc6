package ops

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/lane-ops/internal/lanes"
	"github.com/iliyamo/lane-ops/internal/model"
	"github.com/iliyamo/lane-ops/internal/queue"
)

// ReservationTypes lists the catalog of reservation types.
func (c *Console) ReservationTypes(ctx context.Context) ([]model.ReservationType, error) {
	out, err := c.store.ListReservationTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reservation types: %w", err)
	}
	return out, nil
}

// SessionTemplates lists the weekly session templates.
func (c *Console) SessionTemplates(ctx context.Context) ([]model.SessionTemplate, error) {
	out, err := c.store.ListSessionTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list session templates: %w", err)
	}
	return out, nil
}

// WaiverDocs lists every waiver document version.
func (c *Console) WaiverDocs(ctx context.Context) ([]model.WaiverDoc, error) {
	out, err := c.store.ListWaiverDocs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list waiver docs: %w", err)
	}
	return out, nil
}

// SaveReservationType creates a type (ID zero) or replaces one.
func (c *Console) SaveReservationType(ctx context.Context, t model.ReservationType) (model.ReservationType, error) {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return model.ReservationType{}, invalid("name is required")
	}
	if t.Mode != model.ModeCoop && t.Mode != model.ModeVersus {
		return model.ReservationType{}, invalid("mode must be %s or %s", model.ModeCoop, model.ModeVersus)
	}
	if t.Style != model.StyleOpen && t.Style != model.StylePrivate {
		return model.ReservationType{}, invalid("style must be %s or %s", model.StyleOpen, model.StylePrivate)
	}
	if t.Price.IsNegative() {
		return model.ReservationType{}, invalid("price cannot be negative")
	}
	if t.MaxPlayers != nil && (*t.MaxPlayers < 1 || *t.MaxPlayers > lanes.Capacity(t.Mode)) {
		return model.ReservationType{}, invalid("max players must be between 1 and %d", lanes.Capacity(t.Mode))
	}
	out, err := c.store.UpsertReservationType(ctx, t)
	if err != nil {
		return model.ReservationType{}, fmt.Errorf("save reservation type: %w", err)
	}
	c.update(func(s *Snapshot) {
		s.Types = upsertByID(s.Types, out, func(x model.ReservationType) uint64 { return x.ID })
	})
	return out, nil
}

// SaveSessionTemplate creates a template (ID zero) or replaces one.
func (c *Console) SaveSessionTemplate(ctx context.Context, t model.SessionTemplate) (model.SessionTemplate, error) {
	if !validWeekday(t.DayOfWeek) {
		return model.SessionTemplate{}, invalid("day of week %q is not a weekday name", t.DayOfWeek)
	}
	if !validClock(t.StartTime) {
		return model.SessionTemplate{}, invalid("start time %q must be HH:MM", t.StartTime)
	}
	if t.MaxSessions < 0 {
		return model.SessionTemplate{}, invalid("max sessions cannot be negative")
	}
	out, err := c.store.UpsertSessionTemplate(ctx, t)
	if err != nil {
		return model.SessionTemplate{}, fmt.Errorf("save session template: %w", err)
	}
	c.update(func(s *Snapshot) {
		s.Templates = upsertByID(s.Templates, out, func(x model.SessionTemplate) uint64 { return x.ID })
	})
	return out, nil
}

// ActivateWaiverDoc makes id the only active waiver document.  Every
// customer is flagged to sign it again.
func (c *Console) ActivateWaiverDoc(ctx context.Context, actorID, id uint64) error {
	release, err := c.begin(ctx, "activate waiver")
	if err != nil {
		return err
	}
	defer release()

	if err := c.store.SetActiveWaiverDoc(ctx, id); err != nil {
		return fmt.Errorf("activate waiver doc: %w", err)
	}
	if s := c.Snapshot(); s != nil {
		c.reconcile(ctx, s.Date)
	}
	c.logger.Info("waiver doc activated", zap.Uint64("waiver_doc_id", id))
	c.publish(ctx, queue.Event{Kind: queue.KindWaiverActivated, ActorID: actorID, WaiverDocID: id})
	return nil
}

var weekdays = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

func validWeekday(s string) bool {
	for _, d := range weekdays {
		if d == s {
			return true
		}
	}
	return false
}

func validClock(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil && len(s) == 5
}

func upsertByID[T any](list []T, v T, id func(T) uint64) []T {
	out := append([]T(nil), list...)
	for i := range out {
		if id(out[i]) == id(v) {
			out[i] = v
			return out
		}
	}
	return append(out, v)
}
