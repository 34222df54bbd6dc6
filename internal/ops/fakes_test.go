package ops

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/lane-ops/internal/model"
	"github.com/iliyamo/lane-ops/internal/queue"
	"github.com/iliyamo/lane-ops/internal/repository"
)

// fakeStore is an in-memory Store.  failCreateAt and failUpdateAt make the
// n-th call (1-based) of CreateReservation or UpdateReservation fail.
type fakeStore struct {
	mu sync.Mutex

	nextID       uint64
	reservations map[uint64]model.Reservation
	byKey        map[string]uint64
	users        map[uint64]model.User
	types        []model.ReservationType
	templates    []model.SessionTemplate
	docs         []model.WaiverDoc
	runs         map[uint64]model.Run

	failCreateAt int
	failUpdateAt int
	addPlayerErr error
	listErr      error
	creates      int
	updates      int
}

var (
	_ Store = (*fakeStore)(nil)
	_ Store = (*repository.Store)(nil)
)

func newFakeStore() *fakeStore {
	six := 6
	return &fakeStore{
		nextID:       100,
		reservations: map[uint64]model.Reservation{},
		byKey:        map[string]uint64{},
		users:        map[uint64]model.User{},
		runs:         map[uint64]model.Run{},
		types: []model.ReservationType{
			{ID: typeCoopOpen, Name: "Open Co-op", Mode: model.ModeCoop, Style: model.StyleOpen, Price: decimal.NewFromInt(25), Active: true, AvailableForBooking: true},
			{ID: typeVersusOpen, Name: "Open Versus", Mode: model.ModeVersus, Style: model.StyleOpen, Price: decimal.NewFromInt(30), Active: true, AvailableForBooking: true},
			{ID: typeCoopPrivate, Name: "Private Co-op", Mode: model.ModeCoop, Style: model.StylePrivate, Price: decimal.NewFromInt(150), MaxPlayers: &six, Active: true, AvailableForBooking: true},
			{ID: typeRetired, Name: "Retired", Mode: model.ModeCoop, Style: model.StyleOpen, Active: true},
		},
		templates: []model.SessionTemplate{
			{ID: 1, DayOfWeek: "Saturday", StartTime: "10:00", MaxSessions: 2, Active: true},
			{ID: 2, DayOfWeek: "Saturday", StartTime: testTime, MaxSessions: 2, Active: true},
			{ID: 3, DayOfWeek: "Saturday", StartTime: "20:00", MaxSessions: 2, Active: true},
		},
		docs: []model.WaiverDoc{
			{ID: 1, Name: "Waiver", Version: "1", Active: false},
			{ID: 2, Name: "Waiver", Version: "2", Active: true},
		},
	}
}

func (f *fakeStore) id() uint64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) addUser(u model.User) model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == 0 {
		u.ID = f.id()
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeStore) addReservation(r model.Reservation) model.Reservation {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.ID == 0 {
		r.ID = f.id()
	}
	if r.Date == "" {
		r.Date = testDate
	}
	if r.StartTime == "" {
		r.StartTime = testTime
	}
	for i := range r.Players {
		if r.Players[i].ID == 0 {
			r.Players[i].ID = f.id()
		}
		r.Players[i].ReservationID = r.ID
	}
	f.reservations[r.ID] = r
	return r
}

func (f *fakeStore) reservation(id uint64) model.Reservation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reservations[id]
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reservations)
}

func copyReservation(r model.Reservation) model.Reservation {
	r.Players = append([]model.Player{}, r.Players...)
	return r
}

func (f *fakeStore) ListReservations(_ context.Context, date string) ([]model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []model.Reservation{}
	for _, r := range f.reservations {
		if r.Date == date {
			out = append(out, copyReservation(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) GetReservation(_ context.Context, id uint64) (model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	if !ok {
		return model.Reservation{}, repository.ErrNotFound
	}
	return copyReservation(r), nil
}

func (f *fakeStore) CreateReservation(_ context.Context, r model.Reservation) (model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.failCreateAt == f.creates {
		return model.Reservation{}, errBoom
	}
	if id, ok := f.byKey[r.IdempotencyKey]; ok && r.IdempotencyKey != "" {
		return copyReservation(f.reservations[id]), nil
	}
	r.ID = f.id()
	r.Players = []model.Player{}
	f.reservations[r.ID] = r
	if r.IdempotencyKey != "" {
		f.byKey[r.IdempotencyKey] = r.ID
	}
	return copyReservation(r), nil
}

func (f *fakeStore) UpdateReservation(_ context.Context, id uint64, patch model.ReservationPatch) (model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if f.failUpdateAt == f.updates {
		return model.Reservation{}, errBoom
	}
	r, ok := f.reservations[id]
	if !ok {
		return model.Reservation{}, repository.ErrNotFound
	}
	patch.Apply(&r)
	f.reservations[id] = r
	return copyReservation(r), nil
}

func (f *fakeStore) AddPlayer(_ context.Context, reservationID uint64, p model.Player) (model.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addPlayerErr != nil {
		return model.Player{}, f.addPlayerErr
	}
	r, ok := f.reservations[reservationID]
	if !ok {
		return model.Player{}, repository.ErrNotFound
	}
	p.ID = f.id()
	p.ReservationID = reservationID
	r.Players = append(r.Players, p)
	f.reservations[reservationID] = r
	return p, nil
}

func (f *fakeStore) RemovePlayer(_ context.Context, reservationID, playerID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[reservationID]
	if !ok {
		return repository.ErrNotFound
	}
	for i, p := range r.Players {
		if p.ID == playerID {
			r.Players = append(r.Players[:i:i], r.Players[i+1:]...)
			f.reservations[reservationID] = r
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeStore) ReplacePlayers(_ context.Context, reservationID uint64, players []model.Player) ([]model.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[reservationID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := make([]model.Player, len(players))
	for i, p := range players {
		p.ID = f.id()
		p.ReservationID = reservationID
		out[i] = p
	}
	r.Players = out
	f.reservations[reservationID] = r
	return append([]model.Player{}, out...), nil
}

func (f *fakeStore) GetUserByPhone(_ context.Context, phone string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Phone != nil && *u.Phone == phone {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeStore) GetUser(_ context.Context, id uint64) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) ListUsers(_ context.Context, ids []uint64) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.User{}
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateGuestUser(_ context.Context, name, phone string, createdBy uint64) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := model.User{ID: f.id(), Name: name, Access: model.AccessCustomer, CreatedBy: &createdBy}
	if phone != "" {
		for _, x := range f.users {
			if x.Phone != nil && *x.Phone == phone {
				return model.User{}, repository.ErrConflict
			}
		}
		u.Phone = &phone
	}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeStore) SignWaiver(_ context.Context, userID uint64, signedName string, docID uint64, at time.Time) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	u.Waivers = append(u.Waivers, model.WaiverSignature{SignedAt: at, SignedName: signedName, WaiverDocID: docID})
	if u.NeedsRewaiverDocID != nil && *u.NeedsRewaiverDocID == docID {
		u.NeedsRewaiverDocID = nil
	}
	f.users[userID] = u
	return u, nil
}

func (f *fakeStore) ListReservationTypes(context.Context) ([]model.ReservationType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.ReservationType{}, f.types...), nil
}

func (f *fakeStore) UpsertReservationType(_ context.Context, t model.ReservationType) (model.ReservationType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.ID == 0 {
		t.ID = f.id()
	}
	f.types = upsertByID(f.types, t, func(x model.ReservationType) uint64 { return x.ID })
	return t, nil
}

func (f *fakeStore) ListSessionTemplates(context.Context) ([]model.SessionTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.SessionTemplate{}, f.templates...), nil
}

func (f *fakeStore) UpsertSessionTemplate(_ context.Context, t model.SessionTemplate) (model.SessionTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.ID == 0 {
		t.ID = f.id()
	}
	f.templates = upsertByID(f.templates, t, func(x model.SessionTemplate) uint64 { return x.ID })
	return t, nil
}

func (f *fakeStore) ListWaiverDocs(context.Context) ([]model.WaiverDoc, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.WaiverDoc{}, f.docs...), nil
}

func (f *fakeStore) SetActiveWaiverDoc(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !hasDoc(f.docs, id) {
		return repository.ErrNotFound
	}
	for i := range f.docs {
		f.docs[i].Active = f.docs[i].ID == id
	}
	for uid, u := range f.users {
		if u.Access == model.AccessCustomer {
			doc := id
			u.NeedsRewaiverDocID = &doc
			f.users[uid] = u
		}
	}
	return nil
}

func (f *fakeStore) CreateRun(_ context.Context, run model.Run) (model.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.runs {
		if x.ReservationID == run.ReservationID && x.RunNumber == run.RunNumber {
			return model.Run{}, repository.ErrConflict
		}
	}
	run.ID = f.id()
	f.runs[run.ID] = run
	return run, nil
}

func (f *fakeStore) UpdateRun(_ context.Context, run model.Run) (model.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.runs[run.ID]; !ok {
		return model.Run{}, repository.ErrNotFound
	}
	f.runs[run.ID] = run
	return run, nil
}

func (f *fakeStore) DeleteRun(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.runs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.runs, id)
	return nil
}

func (f *fakeStore) GetRun(_ context.Context, id uint64) (model.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[id]
	if !ok {
		return model.Run{}, repository.ErrNotFound
	}
	return run, nil
}

func (f *fakeStore) ListRuns(_ context.Context, reservationID uint64) ([]model.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Run{}
	for _, run := range f.runs {
		if run.ReservationID == reservationID {
			out = append(out, run)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RunNumber < out[j].RunNumber })
	return out, nil
}

func (f *fakeStore) Leaderboard(_ context.Context, structure string, limit int) ([]model.LeaderboardEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.LeaderboardEntry
	for _, run := range f.runs {
		if structure != "" && run.Structure != structure {
			continue
		}
		r := f.reservations[run.ReservationID]
		out = append(out, model.LeaderboardEntry{
			RunID: run.ID, ReservationID: run.ReservationID, CustomerName: r.CustomerName,
			Date: r.Date, Structure: run.Structure, Score: run.Score, ElapsedSeconds: run.ElapsedSeconds,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].ElapsedSeconds != out[j].ElapsedSeconds {
			return out[i].ElapsedSeconds < out[j].ElapsedSeconds
		}
		return out[i].RunID < out[j].RunID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// fakePublisher records published events.
type fakePublisher struct {
	mu     sync.Mutex
	events []queue.Event
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, ev queue.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *fakePublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Kind
	}
	return out
}

// busyGate is a gate that always reports work in progress.
type busyGate struct{}

func (busyGate) Begin(context.Context, string) (func(), error) { return func() {}, nil }
func (busyGate) Busy(context.Context) bool                     { return true }

func hasDoc(docs []model.WaiverDoc, id uint64) bool {
	for _, d := range docs {
		if d.ID == id {
			return true
		}
	}
	return false
}
