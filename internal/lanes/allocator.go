// Package lanes projects a slot's reservations onto its physical lanes.
//
// Nothing here is persisted or cached: an Allocation is rebuilt from the
// reservation list, the reservation types and the session templates on
// every call, so callers can recompute it as often as they refresh.
package lanes

import (
	"sort"
	"time"

	"github.com/iliyamo/lane-ops/internal/model"
)

// Lane types.  An unassigned lane has an empty Type.
const (
	TypePrivate = model.StylePrivate
	TypeOpen    = model.StyleOpen
)

// DateLayout is the layout of reservation and slot dates.
const DateLayout = "2006-01-02"

// Lane is one physical lane of a slot.
type Lane struct {
	LaneNum      int                 `json:"lane_num"`
	Type         string              `json:"type"`
	Mode         string              `json:"mode"`
	Reservations []model.Reservation `json:"reservations"`
	PlayerCount  int                 `json:"player_count"`
}

// Assigned reports whether the lane has been branded with a type.
func (l Lane) Assigned() bool { return l.Type != "" }

// Allocation is the lane view of one slot.  Unplaced holds live
// reservations of the slot that could not be given a lane: the slot has no
// template, every lane is taken, or the reservation's type is unknown.
// They are overbooked or orphaned and must be resolved by staff.
type Allocation struct {
	Template *model.SessionTemplate `json:"template"`
	Lanes    []Lane                 `json:"lanes"`
	Unplaced []model.Reservation    `json:"unplaced"`
}

// Capacity returns the per-lane player capacity of a game mode.
func Capacity(mode string) int {
	if mode == model.ModeVersus {
		return 12
	}
	return 6
}

// Weekday returns the English weekday name of a "2006-01-02" date.
func Weekday(date string) (string, bool) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", false
	}
	return d.Weekday().String(), true
}

// SessionsForDate returns the active templates that run on date's weekday.
func SessionsForDate(date string, templates []model.SessionTemplate) []model.SessionTemplate {
	day, ok := Weekday(date)
	if !ok {
		return nil
	}
	var out []model.SessionTemplate
	for _, t := range templates {
		if t.Active && t.DayOfWeek == day {
			out = append(out, t)
		}
	}
	return out
}

// SlotTimes returns the sorted start times that have either a template or
// a live reservation on date.
func SlotTimes(date string, templates []model.SessionTemplate, reservations []model.Reservation) []string {
	seen := make(map[string]struct{})
	for _, t := range SessionsForDate(date, templates) {
		seen[t.StartTime] = struct{}{}
	}
	for _, r := range reservations {
		if r.Date == date && r.Status != model.StatusCancelled {
			seen[r.StartTime] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// SlotReservations returns the live reservations of a slot in input order.
func SlotReservations(date, startTime string, reservations []model.Reservation) []model.Reservation {
	var out []model.Reservation
	for _, r := range reservations {
		if r.InSlot(date, startTime) && r.Status != model.StatusCancelled {
			out = append(out, r)
		}
	}
	return out
}

// Allocate partitions the live reservations of (date, startTime) into the
// lanes of the slot's template.  reservations must be in creation order;
// private reservations claim whole lanes first, then open reservations
// pool into lanes of their own mode.
func Allocate(date, startTime string, reservations []model.Reservation, types []model.ReservationType, templates []model.SessionTemplate) Allocation {
	slot := SlotReservations(date, startTime, reservations)

	var tmpl *model.SessionTemplate
	for _, t := range SessionsForDate(date, templates) {
		if t.StartTime == startTime {
			t := t
			tmpl = &t
			break
		}
	}
	if tmpl == nil {
		return Allocation{Lanes: []Lane{}, Unplaced: slot}
	}

	n := tmpl.MaxSessions
	if n < 0 {
		n = 0
	}
	lanes := make([]Lane, n)
	for i := range lanes {
		lanes[i] = Lane{LaneNum: i + 1, Reservations: []model.Reservation{}}
	}

	var private, open []typed
	var unplaced []model.Reservation
	for _, r := range slot {
		rt, ok := model.FindType(types, r.TypeID)
		switch {
		case ok && rt.Style == model.StylePrivate:
			private = append(private, typed{r, rt.Mode})
		case ok && rt.Style == model.StyleOpen:
			open = append(open, typed{r, rt.Mode})
		default:
			unplaced = append(unplaced, r)
		}
	}

	next := 0
	for _, t := range private {
		if next >= n {
			unplaced = append(unplaced, t.res)
			continue
		}
		place(&lanes[next], TypePrivate, t.mode, t.res)
		next++
	}

	for _, t := range open {
		target := openLane(lanes, t.mode, t.res.SeatCount())
		if target < 0 {
			unplaced = append(unplaced, t.res)
			continue
		}
		place(&lanes[target], TypeOpen, t.mode, t.res)
	}

	return Allocation{Template: tmpl, Lanes: lanes, Unplaced: unplaced}
}

type typed struct {
	res  model.Reservation
	mode string
}

// openLane picks the lane for an open reservation of count players, or -1.
func openLane(lanes []Lane, mode string, count int) int {
	limit := Capacity(mode)
	for i, l := range lanes {
		if l.Type == TypeOpen && l.Mode == mode && l.PlayerCount+count <= limit {
			return i
		}
	}
	for i, l := range lanes {
		if !l.Assigned() {
			return i
		}
	}
	// Overflow: keep the booking visible in a lane of its mode rather than
	// dropping it from the slot.
	for i, l := range lanes {
		if l.Type == TypeOpen && l.Mode == mode {
			return i
		}
	}
	return -1
}

func place(l *Lane, typ, mode string, r model.Reservation) {
	l.Type = typ
	l.Mode = mode
	l.Reservations = append(l.Reservations, r)
	l.PlayerCount += r.SeatCount()
}

// Reservations returns every reservation of the slot, placed or not.
func (a Allocation) Reservations() []model.Reservation {
	var out []model.Reservation
	for _, l := range a.Lanes {
		out = append(out, l.Reservations...)
	}
	return append(out, a.Unplaced...)
}

// FreeLanes counts lanes that have not been assigned a type.
func (a Allocation) FreeLanes() int {
	n := 0
	for _, l := range a.Lanes {
		if !l.Assigned() {
			n++
		}
	}
	return n
}

// LaneOf returns the lane number holding reservation id, or 0 when the
// reservation is unplaced or not in the slot.
func (a Allocation) LaneOf(id uint64) int {
	for _, l := range a.Lanes {
		for _, r := range l.Reservations {
			if r.ID == id {
				return l.LaneNum
			}
		}
	}
	return 0
}
