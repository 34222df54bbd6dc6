package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/lane-ops/internal/middleware"
	"github.com/iliyamo/lane-ops/internal/ops"
	"github.com/iliyamo/lane-ops/internal/repository"
)

// OpsHandler exposes the operations console over HTTP.  Handlers for the
// board, reservations, users, walk-ins, catalog and runs all hang off it.
type OpsHandler struct {
	Console *ops.Console
	Logger  *zap.Logger
}

// NewOpsHandler constructs an OpsHandler and panics if console is nil.
func NewOpsHandler(console *ops.Console, logger *zap.Logger) *OpsHandler {
	if console == nil {
		panic("nil console passed to NewOpsHandler")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpsHandler{Console: console, Logger: logger}
}

// statusOf maps console and repository errors onto HTTP statuses.
func statusOf(err error) int {
	var be *ops.BatchError
	switch {
	case errors.As(err, &be):
		return http.StatusBadGateway
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ops.ErrInvalidRequest),
		errors.Is(err, ops.ErrInvalidSplit),
		errors.Is(err, ops.ErrPhoneRequired),
		errors.Is(err, ops.ErrUnknownType):
		return http.StatusBadRequest
	case errors.Is(err, ops.ErrCapacityFull),
		errors.Is(err, ops.ErrDuplicateParticipant),
		errors.Is(err, ops.ErrSlotNotSendable),
		errors.Is(err, ops.ErrReservationFull),
		errors.Is(err, ops.ErrWaiverRequired),
		errors.Is(err, ops.ErrInvalidTransition),
		errors.Is(err, ops.ErrSlotClosed),
		errors.Is(err, ops.ErrNoActiveWaiver),
		errors.Is(err, repository.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// fail writes err as {"error": "<op>: <message>"}.  Internal errors are
// logged and not echoed to the client; partial batches also report how
// far they got.
func (h *OpsHandler) fail(c echo.Context, op string, err error) error {
	status := statusOf(err)
	body := echo.Map{"error": op + ": " + err.Error()}
	var be *ops.BatchError
	switch {
	case errors.As(err, &be):
		body["done"] = be.Done
		body["total"] = be.Total
		h.Logger.Error(op+" partially applied", zap.Error(err))
	case status == http.StatusInternalServerError:
		h.Logger.Error(op+" failed", zap.Error(err))
		body["error"] = op + ": internal error"
	}
	return c.JSON(status, body)
}

// actor returns the authenticated staff id.
func actor(c echo.Context) (uint64, bool) {
	return middleware.ActorID(c)
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}
