package ops

import (
	"context"
	"time"

	"github.com/iliyamo/lane-ops/internal/lanes"
	"github.com/iliyamo/lane-ops/internal/model"
	"github.com/iliyamo/lane-ops/internal/waiver"
)

// HistoryAfter is how long after its start a slot moves to history.
const HistoryAfter = 75 * time.Minute

// LaneView is a lane with its readiness.
type LaneView struct {
	lanes.Lane
	Capacity int  `json:"capacity"`
	Ready    bool `json:"ready"`
}

// SlotView is everything the desk needs to run one slot.
type SlotView struct {
	Date      string                 `json:"date"`
	StartTime string                 `json:"start_time"`
	Template  *model.SessionTemplate `json:"template"`
	Lanes     []LaneView             `json:"lanes"`
	// Unplaced reservations are overbooked or orphaned and need staff.
	Unplaced  []model.Reservation `json:"unplaced"`
	Sendable  bool                `json:"sendable"`
	ToSend    int                 `json:"to_send"`
	HasRoom   bool                `json:"has_room"`
	History   bool                `json:"history"`
	// Waivers maps player id to whether the player's waiver is current.
	Waivers map[uint64]bool `json:"waivers"`
}

// Board is the day view: slots still to run, then slots already run with
// the most recent first.
type Board struct {
	Date            string           `json:"date"`
	Today           bool             `json:"today"`
	ActiveWaiverDoc *model.WaiverDoc `json:"active_waiver_doc"`
	Active          []SlotView       `json:"active"`
	History         []SlotView       `json:"history"`
	LoadedAt        time.Time        `json:"loaded_at"`
}

// Board returns the day view for date.  The console's snapshot is reused
// when it is for the same date.
func (c *Console) Board(ctx context.Context, date string) (Board, error) {
	if date == "" {
		date = c.Today()
	}
	snap, err := c.snapshotFor(ctx, date)
	if err != nil {
		return Board{}, err
	}
	now := c.Now()
	b := Board{
		Date:            date,
		Today:           date == c.Today(),
		ActiveWaiverDoc: snap.ActiveWaiverDoc(),
		Active:          []SlotView{},
		History:         []SlotView{},
		LoadedAt:        snap.LoadedAt,
	}
	for _, t := range lanes.SlotTimes(date, snap.Templates, snap.Reservations) {
		v := c.slotView(snap, t, now)
		if v.History {
			b.History = append(b.History, v)
		} else {
			b.Active = append(b.Active, v)
		}
	}
	for i, j := 0, len(b.History)-1; i < j; i, j = i+1, j-1 {
		b.History[i], b.History[j] = b.History[j], b.History[i]
	}
	return b, nil
}

// Slot returns the view of one slot.
func (c *Console) Slot(ctx context.Context, date, startTime string) (SlotView, error) {
	snap, err := c.snapshotFor(ctx, date)
	if err != nil {
		return SlotView{}, err
	}
	return c.slotView(snap, startTime, c.Now()), nil
}

func (c *Console) slotView(snap *Snapshot, startTime string, now time.Time) SlotView {
	a := snap.Allocate(startTime)
	v := SlotView{
		Date:      snap.Date,
		StartTime: startTime,
		Template:  a.Template,
		Lanes:     make([]LaneView, 0, len(a.Lanes)),
		Unplaced:  a.Unplaced,
		Sendable:  lanes.IsSlotSendable(a),
		ToSend:    len(lanes.SendTargets(a)),
		HasRoom:   lanes.HasRoom(a),
		History:   c.isHistory(snap.Date, startTime, now),
		Waivers:   map[uint64]bool{},
	}
	if v.Unplaced == nil {
		v.Unplaced = []model.Reservation{}
	}
	for _, l := range a.Lanes {
		lv := LaneView{Lane: l, Ready: lanes.IsLaneReady(l)}
		if l.Assigned() {
			lv.Capacity = lanes.Capacity(l.Mode)
		}
		v.Lanes = append(v.Lanes, lv)
	}
	active := snap.ActiveWaiverDoc()
	for _, r := range a.Reservations() {
		for _, p := range r.Players {
			v.Waivers[p.ID] = playerWaiverOK(snap.Users, p, active, now)
		}
	}
	return v
}

// isHistory reports whether the slot started at least HistoryAfter ago.
func (c *Console) isHistory(date, startTime string, now time.Time) bool {
	start, err := time.ParseInLocation(lanes.DateLayout+" 15:04", date+" "+startTime, c.loc)
	if err != nil {
		return false
	}
	return !now.Before(start.Add(HistoryAfter))
}

func playerWaiverOK(users map[uint64]model.User, p model.Player, active *model.WaiverDoc, now time.Time) bool {
	if p.UserID == nil {
		return false
	}
	u, ok := users[*p.UserID]
	if !ok {
		return false
	}
	return waiver.IsValid(&u, active, now)
}
