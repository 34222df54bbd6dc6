package ops

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/lane-ops/internal/lanes"
	"github.com/iliyamo/lane-ops/internal/model"
	"github.com/iliyamo/lane-ops/internal/queue"
)

// SendResult lists the reservations dispatched by SendGroup.
type SendResult struct {
	Date      string   `json:"date"`
	StartTime string   `json:"start_time"`
	Sent      []uint64 `json:"sent"`
}

// SendGroup dispatches a slot to the training room: every arrived or ready
// reservation becomes sent, no-shows are left alone.  The slot is judged
// on freshly loaded data.  The writes are independent, so a failure part
// way leaves the slot partly sent and is reported as a *BatchError.
func (c *Console) SendGroup(ctx context.Context, actorID uint64, date, startTime string) (SendResult, error) {
	release, err := c.begin(ctx, "send group")
	if err != nil {
		return SendResult{}, err
	}
	defer release()

	snap, err := c.fresh(ctx, date)
	if err != nil {
		return SendResult{}, err
	}
	a := snap.Allocate(startTime)
	if !lanes.IsSlotSendable(a) {
		return SendResult{}, ErrSlotNotSendable
	}

	targets := lanes.SendTargets(a)
	res := SendResult{Date: date, StartTime: startTime, Sent: make([]uint64, 0, len(targets))}
	defer c.reconcile(ctx, date)

	sent := model.StatusSent
	for i, r := range targets {
		if _, err := c.store.UpdateReservation(ctx, r.ID, model.ReservationPatch{Status: &sent}); err != nil {
			c.logger.Warn("send group stopped",
				zap.String("date", date), zap.String("start_time", startTime),
				zap.Int("done", i), zap.Int("total", len(targets)), zap.Error(err))
			return res, &BatchError{Op: "send group", Done: i, Total: len(targets), Err: fmt.Errorf("reservation %d: %w", r.ID, err)}
		}
		res.Sent = append(res.Sent, r.ID)
	}

	c.logger.Info("group sent", zap.String("date", date), zap.String("start_time", startTime), zap.Int("reservations", len(res.Sent)))
	c.publish(ctx, queue.Event{
		Kind:           queue.KindGroupSent,
		ActorID:        actorID,
		Date:           date,
		StartTime:      startTime,
		ReservationIDs: res.Sent,
	})
	return res, nil
}
