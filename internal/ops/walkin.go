package ops

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/lane-ops/internal/lanes"
	"github.com/iliyamo/lane-ops/internal/model"
	"github.com/iliyamo/lane-ops/internal/queue"
	"github.com/iliyamo/lane-ops/internal/repository"
)

// SlotRequest is one slot of a walk-in.  SecondLane books a second private
// lane for the same party in that slot.
type SlotRequest struct {
	StartTime  string `json:"start_time"`
	SecondLane bool   `json:"second_lane"`
}

// WalkInRequest books a party that turned up at the desk.  The booker is
// the user with UserID, the user on file for Phone, or a new guest named
// CustomerName.
type WalkInRequest struct {
	UserID       *uint64 `json:"user_id"`
	Phone        string  `json:"phone"`
	CustomerName string  `json:"customer_name"`
	TypeID       uint64  `json:"type_id"`
	// PlayerCount is the party size of an open booking; private bookings
	// take the type's party cap.
	PlayerCount int    `json:"player_count"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	SecondLane  bool   `json:"second_lane"`
	// SplitA divides an open party across two lanes: SplitA players in the
	// first, the rest in the second.  Zero means no split.
	SplitA       int           `json:"split_a"`
	ExtraSlots   []SlotRequest `json:"extra_slots"`
	EnrollBooker bool          `json:"enroll_booker"`
	// IdempotencyKey makes the request safe to retry: resending it after a
	// partial failure books only what is missing and reuses the booker.
	// Empty means a fresh key per call.
	IdempotencyKey string `json:"idempotency_key"`
}

func (r WalkInRequest) slots() []SlotRequest {
	return append([]SlotRequest{{StartTime: r.StartTime, SecondLane: r.SecondLane}}, r.ExtraSlots...)
}

// WalkInResult is what a walk-in booked.
type WalkInResult struct {
	Booker       model.User          `json:"booker"`
	Reservations []model.Reservation `json:"reservations"`
}

// CapacityCheck is the planner's answer for a candidate booking in one
// slot.
type CapacityCheck struct {
	StartTime string     `json:"start_time"`
	Style     string     `json:"style"`
	Mode      string     `json:"mode"`
	Players   int        `json:"players"`
	Plan      lanes.Plan `json:"plan"`
}

// CheckCapacity classifies a booking of typeID for players at a slot.
func (c *Console) CheckCapacity(ctx context.Context, date, startTime string, typeID uint64, players int, secondLane bool) (CapacityCheck, error) {
	snap, err := c.snapshotFor(ctx, date)
	if err != nil {
		return CapacityCheck{}, err
	}
	t, ok := model.FindType(snap.Types, typeID)
	if !ok || !t.Bookable() {
		return CapacityCheck{}, ErrUnknownType
	}
	return planSlot(snap, t, startTime, players, secondLane), nil
}

func planSlot(snap *Snapshot, t model.ReservationType, startTime string, players int, secondLane bool) CapacityCheck {
	a := snap.Allocate(startTime)
	check := CapacityCheck{StartTime: startTime, Style: t.Style, Mode: t.Mode}
	if t.Style == model.StylePrivate {
		check.Players = privatePartySize(t)
		check.Plan = lanes.PlanPrivate(a.Lanes, secondLane)
		return check
	}
	check.Players = players
	check.Plan = lanes.PlanOpen(t.Mode, a.Lanes, players)
	return check
}

// CreateWalkIn books a walk-in into one or more slots of a day.  Every
// slot is checked before anything is written, so a full slot rejects the
// whole request.  Writes then run as an idempotent batch keyed by
// req.IdempotencyKey; the booker is
// enrolled as first player of the first reservation of each slot when
// EnrollBooker is set, and a failed enrolment does not fail the walk-in.
func (c *Console) CreateWalkIn(ctx context.Context, actorID uint64, req WalkInRequest) (WalkInResult, error) {
	release, err := c.begin(ctx, "walk-in")
	if err != nil {
		return WalkInResult{}, err
	}
	defer release()

	if req.Date == "" {
		req.Date = c.Today()
	}
	batch := strings.TrimSpace(req.IdempotencyKey)
	if batch == "" {
		batch = uuid.NewString()
	}

	snap, err := c.fresh(ctx, req.Date)
	if err != nil {
		return WalkInResult{}, err
	}
	t, ok := model.FindType(snap.Types, req.TypeID)
	if !ok || !t.Bookable() {
		return WalkInResult{}, ErrUnknownType
	}
	// A retry is planned as if its earlier writes had not happened; the
	// store hands those rows back by key.
	prior := batchReservations(snap.Reservations, batch)
	plan, err := c.planWalkIn(withoutReservations(snap, prior), t, req)
	if err != nil {
		return WalkInResult{}, err
	}

	booker, err := c.priorBooker(ctx, prior)
	if err != nil {
		return WalkInResult{}, err
	}
	if booker == nil {
		u, err := c.resolveBooker(ctx, actorID, req)
		if err != nil {
			return WalkInResult{}, err
		}
		booker = &u
	}

	res := WalkInResult{Booker: *booker, Reservations: make([]model.Reservation, 0, len(plan))}
	defer c.reconcile(ctx, req.Date)
	for i, p := range plan {
		p.res.UserID = &booker.ID
		p.res.CustomerName = booker.Name
		p.res.IdempotencyKey = fmt.Sprintf("%s:%d", batch, i)
		created, err := c.store.CreateReservation(ctx, p.res)
		if err != nil {
			c.logger.Warn("walk-in stopped", zap.String("batch", batch), zap.Int("done", i), zap.Int("total", len(plan)), zap.Error(err))
			return res, &BatchError{Op: "walk-in", Done: i, Total: len(plan), Err: err}
		}
		if p.enrol && req.EnrollBooker && !enrolled(created, booker.ID) {
			pl := model.Player{UserID: &booker.ID, Name: booker.Name}
			if booker.Phone != nil {
				pl.Phone = *booker.Phone
			}
			if added, err := c.store.AddPlayer(ctx, created.ID, pl); err != nil {
				c.logger.Warn("walk-in booker not enrolled", zap.Uint64("reservation_id", created.ID), zap.Error(err))
			} else {
				created.Players = append(created.Players, added)
			}
		}
		res.Reservations = append(res.Reservations, created)
	}

	c.logger.Info("walk-in created", zap.String("date", req.Date), zap.String("batch", batch),
		zap.Uint64("type_id", t.ID), zap.Int("reservations", len(res.Reservations)))
	for _, slot := range bySlot(res.Reservations) {
		c.publish(ctx, queue.Event{
			Kind:           queue.KindWalkInCreated,
			ActorID:        actorID,
			Date:           req.Date,
			StartTime:      slot.startTime,
			ReservationIDs: slot.ids,
			CustomerName:   booker.Name,
		})
	}
	return res, nil
}

// batchReservations returns the reservations already written under batch.
func batchReservations(rs []model.Reservation, batch string) []model.Reservation {
	var out []model.Reservation
	for _, r := range rs {
		if strings.HasPrefix(r.IdempotencyKey, batch+":") {
			out = append(out, r)
		}
	}
	return out
}

// withoutReservations returns snap minus drop, leaving snap untouched.
func withoutReservations(snap *Snapshot, drop []model.Reservation) *Snapshot {
	if len(drop) == 0 {
		return snap
	}
	skip := make(map[uint64]bool, len(drop))
	for _, r := range drop {
		skip[r.ID] = true
	}
	out := *snap
	out.Reservations = make([]model.Reservation, 0, len(snap.Reservations))
	for _, r := range snap.Reservations {
		if !skip[r.ID] {
			out.Reservations = append(out.Reservations, r)
		}
	}
	return &out
}

// priorBooker returns the booker of an earlier attempt of the same batch,
// or nil when nothing was written yet.
func (c *Console) priorBooker(ctx context.Context, prior []model.Reservation) (*model.User, error) {
	for _, r := range prior {
		if r.UserID == nil {
			continue
		}
		u, err := c.store.GetUser(ctx, *r.UserID)
		if err != nil {
			return nil, fmt.Errorf("get booker: %w", err)
		}
		return &u, nil
	}
	return nil, nil
}

func enrolled(r model.Reservation, userID uint64) bool {
	for _, p := range r.Players {
		if p.UserID != nil && *p.UserID == userID {
			return true
		}
	}
	return false
}

type slotIDs struct {
	startTime string
	ids       []uint64
}

// bySlot groups reservation ids by start time in booking order.
func bySlot(rs []model.Reservation) []slotIDs {
	var out []slotIDs
	for _, r := range rs {
		if n := len(out); n > 0 && out[n-1].startTime == r.StartTime {
			out[n-1].ids = append(out[n-1].ids, r.ID)
			continue
		}
		out = append(out, slotIDs{startTime: r.StartTime, ids: []uint64{r.ID}})
	}
	return out
}

type plannedReservation struct {
	res   model.Reservation
	enrol bool
}

// planWalkIn validates every slot of req against the snapshot and returns
// the reservations to create, in order.
func (c *Console) planWalkIn(snap *Snapshot, t model.ReservationType, req WalkInRequest) ([]plannedReservation, error) {
	private := t.Style == model.StylePrivate
	players := req.PlayerCount
	if private {
		players = privatePartySize(t)
	} else if players < 1 {
		return nil, invalid("player count must be at least 1")
	}
	split := !private && req.SplitA > 0

	now := c.Now()
	today := c.Today()
	if req.Date < today {
		return nil, fmt.Errorf("%w: %s is in the past", ErrSlotClosed, req.Date)
	}

	var out []plannedReservation
	seen := map[string]bool{}
	for _, s := range req.slots() {
		if s.StartTime == "" {
			return nil, invalid("start time is required")
		}
		if seen[s.StartTime] {
			return nil, invalid("slot %s requested twice", s.StartTime)
		}
		seen[s.StartTime] = true
		if req.Date == today && c.isHistory(req.Date, s.StartTime, now) {
			return nil, fmt.Errorf("%w: %s", ErrSlotClosed, s.StartTime)
		}

		check := planSlot(snap, t, s.StartTime, players, s.SecondLane)
		if check.Plan.Fit == lanes.FitFull {
			return nil, fmt.Errorf("%w: %s", ErrCapacityFull, s.StartTime)
		}
		base := model.Reservation{
			TypeID:    t.ID,
			Date:      req.Date,
			StartTime: s.StartTime,
			Status:    model.StatusConfirmed,
			Paid:      true,
		}

		switch {
		case private:
			base.PlayerCount = players
			base.Amount = t.Price
			out = append(out, plannedReservation{res: base, enrol: true})
			if s.SecondLane {
				out = append(out, plannedReservation{res: base})
			}
		case split:
			if err := lanes.ValidateSplit(check.Plan.Capacity, players, req.SplitA); err != nil {
				return nil, fmt.Errorf("%s: %w", s.StartTime, err)
			}
			a, b := base, base
			a.PlayerCount, a.Amount = req.SplitA, t.Price.Mul(decimal.NewFromInt(int64(req.SplitA)))
			rest := players - req.SplitA
			b.PlayerCount, b.Amount = rest, t.Price.Mul(decimal.NewFromInt(int64(rest)))
			out = append(out, plannedReservation{res: a, enrol: true}, plannedReservation{res: b})
		default:
			if check.Plan.Fit == lanes.FitSplit {
				return nil, fmt.Errorf("%w: %s needs a split, largest lane has %d spots",
					ErrInvalidSplit, s.StartTime, check.Plan.Capacity.MaxSingle())
			}
			base.PlayerCount = players
			base.Amount = t.Price.Mul(decimal.NewFromInt(int64(players)))
			out = append(out, plannedReservation{res: base, enrol: true})
		}
	}
	return out, nil
}

// resolveBooker finds or creates the user a walk-in is booked for.
func (c *Console) resolveBooker(ctx context.Context, actorID uint64, req WalkInRequest) (model.User, error) {
	if req.UserID != nil {
		u, err := c.store.GetUser(ctx, *req.UserID)
		if err != nil {
			return model.User{}, fmt.Errorf("get booker: %w", err)
		}
		return u, nil
	}
	phone := NormalizePhone(req.Phone)
	if validPhone(phone) {
		u, err := c.store.GetUserByPhone(ctx, phone)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return model.User{}, fmt.Errorf("lookup booker: %w", err)
		}
	} else {
		phone = ""
	}
	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		return model.User{}, invalid("customer name is required")
	}
	u, err := c.store.CreateGuestUser(ctx, name, phone, actorID)
	if err != nil {
		return model.User{}, fmt.Errorf("create guest: %w", err)
	}
	return u, nil
}
