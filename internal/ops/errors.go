package ops

import (
	"errors"
	"fmt"

	"github.com/iliyamo/lane-ops/internal/lanes"
)

// Sentinel errors returned by console workflows.  Handlers map them onto
// HTTP statuses with errors.Is.
var (
	ErrCapacityFull         = errors.New("slot is full")
	ErrDuplicateParticipant = errors.New("player is already in this time slot")
	ErrInvalidSplit         = lanes.ErrInvalidSplit
	ErrSlotNotSendable      = errors.New("slot is not ready to send")
	ErrPhoneRequired        = errors.New("a 10-digit phone number is required")
	ErrReservationFull      = errors.New("reservation has no open player spots")
	ErrWaiverRequired       = errors.New("all waivers must be signed before marking arrived")
	ErrInvalidTransition    = errors.New("status change not allowed")
	ErrUnknownType          = errors.New("unknown or unavailable reservation type")
	ErrSlotClosed           = errors.New("slot has already run")
	ErrNoActiveWaiver       = errors.New("no active waiver document")
	ErrInvalidRequest       = errors.New("invalid request")
)

// BatchError reports a multi-write workflow that stopped part way.  Done
// writes were applied before Err; the console has already re-read the
// store, so the snapshot reflects the partial state.
type BatchError struct {
	Op    string
	Done  int
	Total int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%s: %d of %d writes applied: %v", e.Op, e.Done, e.Total, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
