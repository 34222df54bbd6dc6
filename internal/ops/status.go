package ops

import (
	"context"
	"fmt"

	"github.com/iliyamo/lane-ops/internal/model"
	"github.com/iliyamo/lane-ops/internal/queue"
)

// transitions lists the status changes staff may make one reservation at a
// time.  Dispatching (arrived or ready to sent) only happens through
// SendGroup.
var transitions = map[string][]string{
	model.StatusConfirmed: {model.StatusArrived, model.StatusNoShow, model.StatusCancelled},
	model.StatusArrived:   {model.StatusConfirmed},
	model.StatusReady:     {model.StatusConfirmed},
	model.StatusNoShow:    {model.StatusConfirmed},
	model.StatusSent:      {model.StatusCompleted},
}

// CanTransition reports whether a reservation may move from one status to
// another through SetStatus.
func CanTransition(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// SetStatus changes the status of one reservation.  Marking a party
// arrived requires every enrolled player to hold a current waiver.
func (c *Console) SetStatus(ctx context.Context, actorID, id uint64, status string) (model.Reservation, error) {
	release, err := c.begin(ctx, "set status")
	if err != nil {
		return model.Reservation{}, err
	}
	defer release()

	r, err := c.store.GetReservation(ctx, id)
	if err != nil {
		return model.Reservation{}, fmt.Errorf("get reservation: %w", err)
	}
	if !CanTransition(r.Status, status) {
		return model.Reservation{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, r.Status, status)
	}
	if status == model.StatusArrived {
		if err := c.checkWaivers(ctx, r); err != nil {
			return model.Reservation{}, err
		}
	}

	if _, err := c.store.UpdateReservation(ctx, id, model.ReservationPatch{Status: &status}); err != nil {
		return model.Reservation{}, fmt.Errorf("update reservation: %w", err)
	}
	out, err := c.reconcileReservation(ctx, id)
	if err != nil {
		return model.Reservation{}, fmt.Errorf("reload reservation: %w", err)
	}
	c.publish(ctx, queue.Event{
		Kind:           queue.KindReservationState,
		ActorID:        actorID,
		Date:           out.Date,
		StartTime:      out.StartTime,
		ReservationIDs: []uint64{id},
		CustomerName:   out.CustomerName,
		Status:         status,
	})
	return out, nil
}

func (c *Console) checkWaivers(ctx context.Context, r model.Reservation) error {
	if len(r.Players) == 0 {
		return nil
	}
	active, err := c.activeWaiverDoc(ctx)
	if err != nil {
		return fmt.Errorf("load waiver docs: %w", err)
	}
	users, err := c.store.ListUsers(ctx, referencedUsers([]model.Reservation{{Players: r.Players}}))
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	byID := make(map[uint64]model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	now := c.now()
	for _, p := range r.Players {
		if !playerWaiverOK(byID, p, active, now) {
			return fmt.Errorf("%w: %s", ErrWaiverRequired, p.Name)
		}
	}
	return nil
}
