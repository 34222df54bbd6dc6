package ops

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/lane-ops/internal/lanes"
	"github.com/iliyamo/lane-ops/internal/model"
	"github.com/iliyamo/lane-ops/internal/repository"
)

// NormalizePhone strips everything but digits.
func NormalizePhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func validPhone(s string) bool { return len(s) == 10 }

// Lookup outcomes.
const (
	LookupFound     = "found"
	LookupNotFound  = "notfound"
	LookupDuplicate = "duplicate"
)

// LookupResult is the outcome of a phone lookup at the desk.  A miss is a
// result, not an error: the desk goes on to add a guest.
type LookupResult struct {
	Status string      `json:"status"`
	User   *model.User `json:"user,omitempty"`
}

// LookupPlayer finds a user by phone.  When reservationID is non-zero the
// user is also checked against the players already in that reservation's
// slot.
func (c *Console) LookupPlayer(ctx context.Context, phone string, reservationID uint64) (LookupResult, error) {
	phone = NormalizePhone(phone)
	if !validPhone(phone) {
		return LookupResult{}, ErrPhoneRequired
	}
	u, err := c.store.GetUserByPhone(ctx, phone)
	if errors.Is(err, repository.ErrNotFound) {
		return LookupResult{Status: LookupNotFound}, nil
	}
	if err != nil {
		return LookupResult{}, fmt.Errorf("lookup phone: %w", err)
	}
	res := LookupResult{Status: LookupFound, User: &u}
	if reservationID != 0 {
		r, err := c.store.GetReservation(ctx, reservationID)
		if err != nil {
			return LookupResult{}, fmt.Errorf("get reservation: %w", err)
		}
		inSlot, err := c.slotParticipants(ctx, r, 0)
		if err != nil {
			return LookupResult{}, err
		}
		if _, dup := inSlot[u.ID]; dup {
			res.Status = LookupDuplicate
		}
	}
	return res, nil
}

// AddPlayerRequest identifies the person to enrol.  UserID or a phone on
// file selects an existing user; otherwise Name and a 10-digit Phone
// create a guest.
type AddPlayerRequest struct {
	UserID *uint64 `json:"user_id"`
	Name   string  `json:"name"`
	Phone  string  `json:"phone"`
}

// AddPlayer enrols a person in a reservation.  Guests are created on the
// fly and attributed to actorID.
func (c *Console) AddPlayer(ctx context.Context, actorID, reservationID uint64, req AddPlayerRequest) (model.Player, error) {
	release, err := c.begin(ctx, "add player")
	if err != nil {
		return model.Player{}, err
	}
	defer release()

	r, err := c.store.GetReservation(ctx, reservationID)
	if err != nil {
		return model.Player{}, fmt.Errorf("get reservation: %w", err)
	}
	if r.Status == model.StatusCancelled {
		return model.Player{}, invalid("reservation %d is cancelled", r.ID)
	}
	limit, err := c.playerLimit(ctx, r)
	if err != nil {
		return model.Player{}, err
	}
	if len(r.Players) >= limit {
		return model.Player{}, ErrReservationFull
	}

	phone := NormalizePhone(req.Phone)
	var user *model.User
	switch {
	case req.UserID != nil:
		u, err := c.store.GetUser(ctx, *req.UserID)
		if err != nil {
			return model.Player{}, fmt.Errorf("get user: %w", err)
		}
		user = &u
	case validPhone(phone):
		u, err := c.store.GetUserByPhone(ctx, phone)
		if err == nil {
			user = &u
		} else if !errors.Is(err, repository.ErrNotFound) {
			return model.Player{}, fmt.Errorf("lookup phone: %w", err)
		}
	}

	if user != nil {
		inSlot, err := c.slotParticipants(ctx, r, 0)
		if err != nil {
			return model.Player{}, err
		}
		if _, dup := inSlot[user.ID]; dup {
			return model.Player{}, fmt.Errorf("%w: %s", ErrDuplicateParticipant, user.Name)
		}
	} else {
		name := strings.TrimSpace(req.Name)
		if name == "" {
			return model.Player{}, invalid("player name is required")
		}
		if !validPhone(phone) {
			return model.Player{}, ErrPhoneRequired
		}
		u, err := c.store.CreateGuestUser(ctx, name, phone, actorID)
		if err != nil {
			return model.Player{}, fmt.Errorf("create guest: %w", err)
		}
		user = &u
	}

	p := model.Player{UserID: &user.ID, Name: user.Name}
	if user.Phone != nil {
		p.Phone = *user.Phone
	}
	out, err := c.store.AddPlayer(ctx, r.ID, p)
	if err != nil {
		return model.Player{}, fmt.Errorf("add player: %w", err)
	}
	if _, err := c.reconcileReservation(ctx, r.ID); err != nil {
		return out, fmt.Errorf("reload reservation: %w", err)
	}
	return out, nil
}

// RemovePlayer takes a player off a reservation.
func (c *Console) RemovePlayer(ctx context.Context, reservationID, playerID uint64) error {
	release, err := c.begin(ctx, "remove player")
	if err != nil {
		return err
	}
	defer release()

	if err := c.store.RemovePlayer(ctx, reservationID, playerID); err != nil {
		return fmt.Errorf("remove player: %w", err)
	}
	if _, err := c.reconcileReservation(ctx, reservationID); err != nil {
		return fmt.Errorf("reload reservation: %w", err)
	}
	return nil
}

// ReplacePlayers swaps a reservation's whole player list.  The list obeys
// the same limit and slot-uniqueness rules as AddPlayer.
func (c *Console) ReplacePlayers(ctx context.Context, reservationID uint64, players []model.Player) ([]model.Player, error) {
	release, err := c.begin(ctx, "replace players")
	if err != nil {
		return nil, err
	}
	defer release()

	r, err := c.store.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	limit, err := c.playerLimit(ctx, r)
	if err != nil {
		return nil, err
	}
	if len(players) > limit {
		return nil, fmt.Errorf("%w: %d players, limit %d", ErrReservationFull, len(players), limit)
	}

	others, err := c.slotParticipants(ctx, r, r.ID)
	if err != nil {
		return nil, err
	}
	seen := map[uint64]struct{}{}
	for i, p := range players {
		players[i].Name = strings.TrimSpace(p.Name)
		players[i].Phone = NormalizePhone(p.Phone)
		if players[i].Name == "" {
			return nil, invalid("player %d has no name", i+1)
		}
		if p.UserID == nil {
			continue
		}
		if _, dup := others[*p.UserID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateParticipant, players[i].Name)
		}
		if _, dup := seen[*p.UserID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateParticipant, players[i].Name)
		}
		seen[*p.UserID] = struct{}{}
	}

	out, err := c.store.ReplacePlayers(ctx, r.ID, players)
	if err != nil {
		return nil, fmt.Errorf("replace players: %w", err)
	}
	if _, err := c.reconcileReservation(ctx, r.ID); err != nil {
		return out, fmt.Errorf("reload reservation: %w", err)
	}
	return out, nil
}

// SignWaiver records a signature of the active waiver document for a user.
func (c *Console) SignWaiver(ctx context.Context, userID uint64, signedName string) (model.User, error) {
	release, err := c.begin(ctx, "sign waiver")
	if err != nil {
		return model.User{}, err
	}
	defer release()

	signedName = strings.TrimSpace(signedName)
	if signedName == "" {
		return model.User{}, invalid("signed name is required")
	}
	active, err := c.activeWaiverDoc(ctx)
	if err != nil {
		return model.User{}, fmt.Errorf("load waiver docs: %w", err)
	}
	if active == nil {
		return model.User{}, ErrNoActiveWaiver
	}
	u, err := c.store.SignWaiver(ctx, userID, signedName, active.ID, c.now())
	if err != nil {
		return model.User{}, fmt.Errorf("sign waiver: %w", err)
	}
	c.update(func(s *Snapshot) { s.Users[u.ID] = u })
	return u, nil
}

// openPlayerFallback bounds an open reservation that never recorded a
// player count.
const openPlayerFallback = 99

// playerLimit is how many players a reservation may enrol: the party cap
// of a private type (or its lane capacity) and the booked player count of
// an open one.
func (c *Console) playerLimit(ctx context.Context, r model.Reservation) (int, error) {
	types, err := c.reservationTypes(ctx)
	if err != nil {
		return 0, fmt.Errorf("list reservation types: %w", err)
	}
	t, ok := model.FindType(types, r.TypeID)
	if !ok {
		return 0, ErrUnknownType
	}
	if t.Style == model.StylePrivate {
		return privatePartySize(t), nil
	}
	if r.PlayerCount <= 0 {
		return openPlayerFallback, nil
	}
	return r.PlayerCount, nil
}

func privatePartySize(t model.ReservationType) int {
	if t.MaxPlayers != nil && *t.MaxPlayers > 0 {
		return *t.MaxPlayers
	}
	return lanes.Capacity(t.Mode)
}

// slotParticipants returns the user ids enrolled in r's slot, ignoring
// cancelled reservations and the reservation skip.
func (c *Console) slotParticipants(ctx context.Context, r model.Reservation, skip uint64) (map[uint64]struct{}, error) {
	rs, err := c.store.ListReservations(ctx, r.Date)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	out := map[uint64]struct{}{}
	for _, x := range lanes.SlotReservations(r.Date, r.StartTime, rs) {
		if x.ID == skip {
			continue
		}
		for _, p := range x.Players {
			if p.UserID != nil {
				out[*p.UserID] = struct{}{}
			}
		}
	}
	return out, nil
}
