// Package waiver decides whether a person's liability waiver is current.
package waiver

import (
	"time"

	"github.com/iliyamo/lane-ops/internal/model"
)

// Validity is how long a signature stays valid.
const Validity = 365 * 24 * time.Hour

// Latest returns the most recent signature of u.  When two signatures share
// a timestamp the one recorded later in the list wins.
func Latest(u *model.User) (model.WaiverSignature, bool) {
	if u == nil || len(u.Waivers) == 0 {
		return model.WaiverSignature{}, false
	}
	latest := u.Waivers[0]
	for _, w := range u.Waivers[1:] {
		if !w.SignedAt.Before(latest.SignedAt) {
			latest = w
		}
	}
	return latest, true
}

// IsValid reports whether u holds a current waiver at now.  The latest
// signature must be for the active document, the user must not have been
// flagged to re-sign it, and it must be younger than Validity.  A nil
// active document skips the document checks.
func IsValid(u *model.User, active *model.WaiverDoc, now time.Time) bool {
	latest, ok := Latest(u)
	if !ok {
		return false
	}
	if active != nil {
		if u.NeedsRewaiverDocID != nil && *u.NeedsRewaiverDocID == active.ID {
			return false
		}
		if latest.WaiverDocID != active.ID {
			return false
		}
	}
	return now.Sub(latest.SignedAt) < Validity
}
