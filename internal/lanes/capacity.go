package lanes

import (
	"errors"
	"fmt"
	"sort"
)

// Fit is the outcome of a capacity check for a candidate booking.
type Fit string

const (
	FitOK    Fit = "ok"    // fits in one lane
	FitSplit Fit = "split" // must be divided across two lanes
	FitFull  Fit = "full"  // cannot be accommodated in this slot
)

// ErrInvalidSplit is returned when an operator-chosen split does not fit
// the two largest lane blocks.
var ErrInvalidSplit = errors.New("invalid split")

// OpenCapacity summarises the room an open-play booking of one mode has
// in a slot.  Blocks holds the two largest single-lane openings, largest
// first.
type OpenCapacity struct {
	Total  int    `json:"total"`
	Blocks [2]int `json:"blocks"`
}

// MaxSingle is the most players one lane can take.
func (c OpenCapacity) MaxSingle() int { return c.Blocks[0] }

// OpenPlayCapacity computes the room left for mode across lanes that are
// unassigned or already open for the same mode.
func OpenPlayCapacity(mode string, lanes []Lane) OpenCapacity {
	limit := Capacity(mode)
	var room []int
	total := 0
	for _, l := range lanes {
		var free int
		switch {
		case !l.Assigned():
			free = limit
		case l.Type == TypeOpen && l.Mode == mode:
			free = limit - l.PlayerCount
			if free < 0 {
				free = 0
			}
		default:
			continue
		}
		total += free
		room = append(room, free)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(room)))

	c := OpenCapacity{Total: total}
	for i := 0; i < len(room) && i < 2; i++ {
		c.Blocks[i] = room[i]
	}
	return c
}

// Plan is a capacity decision for a candidate booking.
type Plan struct {
	Fit       Fit          `json:"fit"`
	Capacity  OpenCapacity `json:"capacity"`
	FreeLanes int          `json:"free_lanes"`
}

// PlanOpen classifies an open-play booking of playerCount players.
func PlanOpen(mode string, lanes []Lane, playerCount int) Plan {
	c := OpenPlayCapacity(mode, lanes)
	p := Plan{Fit: FitOK, Capacity: c, FreeLanes: countFree(lanes)}
	switch {
	case playerCount > c.Total:
		p.Fit = FitFull
	case playerCount > c.MaxSingle():
		p.Fit = FitSplit
	}
	return p
}

// PlanPrivate classifies a private booking.  A private party needs a whole
// unassigned lane; secondLane asks for a second one in the same action.
func PlanPrivate(lanes []Lane, secondLane bool) Plan {
	free := countFree(lanes)
	need := 1
	if secondLane {
		need = 2
	}
	p := Plan{Fit: FitOK, FreeLanes: free}
	if free < need {
		p.Fit = FitFull
	}
	return p
}

// ValidateSplit checks an operator's split of playerCount into splitA and
// playerCount-splitA against the two largest blocks.  The planner never
// picks the split itself.
func ValidateSplit(c OpenCapacity, playerCount, splitA int) error {
	splitB := playerCount - splitA
	switch {
	case splitA <= 0 || splitA >= playerCount:
		return fmt.Errorf("%w: lane A must take between 1 and %d players", ErrInvalidSplit, playerCount-1)
	case splitA > c.Blocks[0]:
		return fmt.Errorf("%w: lane A has %d spots, %d requested", ErrInvalidSplit, c.Blocks[0], splitA)
	case splitB > c.Blocks[1]:
		return fmt.Errorf("%w: lane B has %d spots, %d requested", ErrInvalidSplit, c.Blocks[1], splitB)
	}
	return nil
}

// HasRoom reports whether a slot can take any further booking, that is
// whether it has a free lane or an open lane below capacity.  A slot with
// no template has no lanes and never has room.
func HasRoom(a Allocation) bool {
	for _, l := range a.Lanes {
		if !l.Assigned() || (l.Type == TypeOpen && l.PlayerCount < Capacity(l.Mode)) {
			return true
		}
	}
	return false
}

func countFree(lanes []Lane) int {
	n := 0
	for _, l := range lanes {
		if !l.Assigned() {
			n++
		}
	}
	return n
}
