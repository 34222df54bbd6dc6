package lanes

import "github.com/iliyamo/lane-ops/internal/model"

func checkedIn(status string) bool {
	return status == model.StatusArrived || status == model.StatusReady || status == model.StatusNoShow
}

func dispatched(status string) bool {
	return status == model.StatusSent || status == model.StatusNoShow
}

// IsLaneReady reports whether every party in the lane has checked in or
// been marked absent.  An empty lane is never ready.
func IsLaneReady(l Lane) bool {
	if len(l.Reservations) == 0 {
		return false
	}
	for _, r := range l.Reservations {
		if !checkedIn(r.Status) {
			return false
		}
	}
	return true
}

// IsSlotSendable reports whether the slot may be dispatched: every
// assigned lane is ready and the slot has not already been sent in full.
// A slot without assigned lanes (no template) falls back to checking its
// unplaced reservations directly.
func IsSlotSendable(a Allocation) bool {
	all := a.Reservations()
	if len(all) == 0 {
		return false
	}

	active := 0
	for _, l := range a.Lanes {
		if !l.Assigned() {
			continue
		}
		active++
		if !IsLaneReady(l) {
			return false
		}
	}
	if active == 0 {
		for _, r := range all {
			if !checkedIn(r.Status) {
				return false
			}
		}
	}

	for _, r := range all {
		if !dispatched(r.Status) {
			return true
		}
	}
	return false
}

// SendTargets returns the reservations that transition to sent when the
// slot is dispatched.  No-shows stay as they are.
func SendTargets(a Allocation) []model.Reservation {
	var out []model.Reservation
	for _, r := range a.Reservations() {
		if r.Status == model.StatusArrived || r.Status == model.StatusReady {
			out = append(out, r)
		}
	}
	return out
}
