// Package ops is the operations console: it keeps the working snapshot of
// a day's reservations and runs the multi-step front desk workflows
// (walk-ins, check-in, waiver signing, dispatching a slot) against the
// store.
//
// Every workflow runs inside the work-in-progress gate so the background
// poller never swaps the snapshot out from under it, and every workflow
// ends by re-reading what it wrote.
package ops

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/lane-ops/internal/gate"
	"github.com/iliyamo/lane-ops/internal/lanes"
	"github.com/iliyamo/lane-ops/internal/model"
	"github.com/iliyamo/lane-ops/internal/queue"
)

// Snapshot is the console's view of one day.  A Snapshot is never mutated
// after it is published; changes produce a new one.
type Snapshot struct {
	Date         string                  `json:"date"`
	Reservations []model.Reservation     `json:"reservations"`
	Types        []model.ReservationType `json:"types"`
	Templates    []model.SessionTemplate `json:"templates"`
	WaiverDocs   []model.WaiverDoc       `json:"waiver_docs"`
	Users        map[uint64]model.User   `json:"-"`
	LoadedAt     time.Time               `json:"loaded_at"`
}

// ActiveWaiverDoc returns the active waiver document, if any.
func (s *Snapshot) ActiveWaiverDoc() *model.WaiverDoc { return model.ActiveWaiverDoc(s.WaiverDocs) }

// Allocate projects one slot of the snapshot onto its lanes.
func (s *Snapshot) Allocate(startTime string) lanes.Allocation {
	return lanes.Allocate(s.Date, startTime, s.Reservations, s.Types, s.Templates)
}

func (s *Snapshot) clone() *Snapshot {
	c := *s
	c.Reservations = append([]model.Reservation(nil), s.Reservations...)
	c.Users = make(map[uint64]model.User, len(s.Users))
	for id, u := range s.Users {
		c.Users[id] = u
	}
	return &c
}

// Console runs operator workflows.  It is safe for concurrent use.
type Console struct {
	store     Store
	gate      gate.Gate
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
	loc       *time.Location

	mu      sync.RWMutex
	snap    *Snapshot
	version uint64
}

// Option configures a Console.
type Option func(*Console)

// WithGate sets the work-in-progress gate.  The default is a LocalGate.
func WithGate(g gate.Gate) Option { return func(c *Console) { c.gate = g } }

// WithPublisher sets where operations events are published.
func WithPublisher(p Publisher) Option { return func(c *Console) { c.publisher = p } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(c *Console) { c.logger = l } }

// WithClock sets the clock used for "today", slot history and waiver
// expiry.
func WithClock(now func() time.Time) Option { return func(c *Console) { c.now = now } }

// WithLocation sets the venue's time zone.
func WithLocation(loc *time.Location) Option { return func(c *Console) { c.loc = loc } }

// NewConsole returns a Console over store.
func NewConsole(store Store, opts ...Option) *Console {
	c := &Console{
		store:  store,
		gate:   gate.NewLocalGate(),
		logger: zap.NewNop(),
		now:    time.Now,
		loc:    time.Local,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Gate returns the console's work-in-progress gate.
func (c *Console) Gate() gate.Gate { return c.gate }

// Now returns the console clock in the venue's time zone.
func (c *Console) Now() time.Time { return c.now().In(c.loc) }

// Today returns the venue's current date.
func (c *Console) Today() string { return c.Now().Format(lanes.DateLayout) }

// Snapshot returns the current snapshot, or nil before the first load.
func (c *Console) Snapshot() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Load fetches the day's reservations together with the reference data
// and the users they refer to, and publishes the result as the current
// snapshot.
func (c *Console) Load(ctx context.Context, date string) (*Snapshot, error) {
	snap, err := c.fetch(ctx, date)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.snap = snap
	c.version++
	c.mu.Unlock()
	return snap, nil
}

// Refresh reloads the current snapshot's date, or today before the first
// load.  A refresh that raced with a workflow is discarded rather than
// overwrite the workflow's result.
func (c *Console) Refresh(ctx context.Context) error {
	c.mu.RLock()
	date, start := c.Today(), c.version
	if c.snap != nil {
		date = c.snap.Date
	}
	c.mu.RUnlock()

	snap, err := c.fetch(ctx, date)
	if err != nil {
		return err
	}
	if c.gate.Busy(ctx) {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.version != start {
		return nil
	}
	c.snap = snap
	c.version++
	return nil
}

func (c *Console) fetch(ctx context.Context, date string) (*Snapshot, error) {
	if _, ok := lanes.Weekday(date); !ok {
		return nil, invalid("date %q must be YYYY-MM-DD", date)
	}
	snap := &Snapshot{Date: date}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rs, err := c.store.ListReservations(gctx, date)
		if err != nil {
			return fmt.Errorf("list reservations: %w", err)
		}
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].ID < rs[j].ID })
		snap.Reservations = rs
		return nil
	})
	g.Go(func() error {
		ts, err := c.store.ListReservationTypes(gctx)
		if err != nil {
			return fmt.Errorf("list reservation types: %w", err)
		}
		snap.Types = ts
		return nil
	})
	g.Go(func() error {
		ts, err := c.store.ListSessionTemplates(gctx)
		if err != nil {
			return fmt.Errorf("list session templates: %w", err)
		}
		snap.Templates = ts
		return nil
	})
	g.Go(func() error {
		ds, err := c.store.ListWaiverDocs(gctx)
		if err != nil {
			return fmt.Errorf("list waiver docs: %w", err)
		}
		snap.WaiverDocs = ds
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	users, err := c.store.ListUsers(ctx, referencedUsers(snap.Reservations))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	snap.Users = make(map[uint64]model.User, len(users))
	for _, u := range users {
		snap.Users[u.ID] = u
	}
	snap.LoadedAt = c.now()
	return snap, nil
}

func referencedUsers(rs []model.Reservation) []uint64 {
	seen := map[uint64]struct{}{}
	var ids []uint64
	add := func(id *uint64) {
		if id == nil {
			return
		}
		if _, ok := seen[*id]; !ok {
			seen[*id] = struct{}{}
			ids = append(ids, *id)
		}
	}
	for _, r := range rs {
		add(r.UserID)
		for _, p := range r.Players {
			add(p.UserID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// snapshotFor returns the snapshot of date, reusing the console's own
// snapshot when it is for that date.
func (c *Console) snapshotFor(ctx context.Context, date string) (*Snapshot, error) {
	if s := c.Snapshot(); s != nil && s.Date == date {
		return s, nil
	}
	return c.fresh(ctx, date)
}

// fresh reads date from the store.  Only the working day, the date on show
// or today, is published as the console's snapshot; looking at another day
// leaves the snapshot, and with it the poller, on the working day.
func (c *Console) fresh(ctx context.Context, date string) (*Snapshot, error) {
	if c.working(date) {
		return c.Load(ctx, date)
	}
	return c.fetch(ctx, date)
}

func (c *Console) working(date string) bool {
	if s := c.Snapshot(); s != nil && s.Date == date {
		return true
	}
	return date == c.Today()
}

// update applies fn to a copy of the current snapshot and publishes it.
// Nothing happens before the first load.
func (c *Console) update(fn func(s *Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap == nil {
		return
	}
	next := c.snap.clone()
	fn(next)
	c.snap = next
	c.version++
}

// reconcileReservation re-reads one reservation and the users it refers
// to into the snapshot.
func (c *Console) reconcileReservation(ctx context.Context, id uint64) (model.Reservation, error) {
	r, err := c.store.GetReservation(ctx, id)
	if err != nil {
		return model.Reservation{}, err
	}
	users, err := c.store.ListUsers(ctx, referencedUsers([]model.Reservation{r}))
	if err != nil {
		c.logger.Warn("reconcile users", zap.Uint64("reservation_id", id), zap.Error(err))
	}
	c.update(func(s *Snapshot) {
		for _, u := range users {
			s.Users[u.ID] = u
		}
		for i := range s.Reservations {
			if s.Reservations[i].ID == id {
				if r.Date == s.Date {
					s.Reservations[i] = r
				} else {
					s.Reservations = append(s.Reservations[:i], s.Reservations[i+1:]...)
				}
				return
			}
		}
		if r.Date == s.Date {
			s.Reservations = append(s.Reservations, r)
			sort.SliceStable(s.Reservations, func(i, j int) bool { return s.Reservations[i].ID < s.Reservations[j].ID })
		}
	})
	return r, nil
}

// reconcile reloads date after a batch.  Errors are logged; the caller
// already has a result to report.
func (c *Console) reconcile(ctx context.Context, date string) {
	if !c.working(date) {
		return
	}
	if _, err := c.Load(context.WithoutCancel(ctx), date); err != nil {
		c.logger.Warn("reconcile snapshot", zap.String("date", date), zap.Error(err))
	}
}

// begin enters the work-in-progress gate for a named workflow.
func (c *Console) begin(ctx context.Context, name string) (func(), error) {
	release, err := c.gate.Begin(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return release, nil
}

func (c *Console) publish(ctx context.Context, ev queue.Event) {
	if c.publisher == nil {
		return
	}
	ev.ID = uuid.NewString()
	ev.OccurredAt = c.now().UTC()
	if err := c.publisher.Publish(ctx, ev); err != nil {
		c.logger.Warn("publish event", zap.String("kind", ev.Kind), zap.Error(err))
	}
}

// activeWaiverDoc returns the active document from the snapshot, or from
// the store before the first load.
func (c *Console) activeWaiverDoc(ctx context.Context) (*model.WaiverDoc, error) {
	if s := c.Snapshot(); s != nil {
		return s.ActiveWaiverDoc(), nil
	}
	docs, err := c.store.ListWaiverDocs(ctx)
	if err != nil {
		return nil, err
	}
	return model.ActiveWaiverDoc(docs), nil
}

// reservationTypes returns the catalog from the snapshot or the store.
func (c *Console) reservationTypes(ctx context.Context) ([]model.ReservationType, error) {
	if s := c.Snapshot(); s != nil {
		return s.Types, nil
	}
	return c.store.ListReservationTypes(ctx)
}
