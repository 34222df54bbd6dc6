package ops

import (
	"context"
	"time"

	"github.com/iliyamo/lane-ops/internal/model"
	"github.com/iliyamo/lane-ops/internal/queue"
)

// Store is the persistence collaborator of the console.  Not-found lookups
// return an error wrapping repository.ErrNotFound.
type Store interface {
	ListReservations(ctx context.Context, date string) ([]model.Reservation, error)
	GetReservation(ctx context.Context, id uint64) (model.Reservation, error)
	// CreateReservation is idempotent on the reservation's IdempotencyKey.
	CreateReservation(ctx context.Context, r model.Reservation) (model.Reservation, error)
	UpdateReservation(ctx context.Context, id uint64, patch model.ReservationPatch) (model.Reservation, error)
	AddPlayer(ctx context.Context, reservationID uint64, p model.Player) (model.Player, error)
	RemovePlayer(ctx context.Context, reservationID, playerID uint64) error
	ReplacePlayers(ctx context.Context, reservationID uint64, players []model.Player) ([]model.Player, error)

	GetUserByPhone(ctx context.Context, phone string) (model.User, error)
	GetUser(ctx context.Context, id uint64) (model.User, error)
	ListUsers(ctx context.Context, ids []uint64) ([]model.User, error)
	CreateGuestUser(ctx context.Context, name, phone string, createdBy uint64) (model.User, error)
	SignWaiver(ctx context.Context, userID uint64, signedName string, docID uint64, at time.Time) (model.User, error)

	ListReservationTypes(ctx context.Context) ([]model.ReservationType, error)
	UpsertReservationType(ctx context.Context, t model.ReservationType) (model.ReservationType, error)
	ListSessionTemplates(ctx context.Context) ([]model.SessionTemplate, error)
	UpsertSessionTemplate(ctx context.Context, t model.SessionTemplate) (model.SessionTemplate, error)
	ListWaiverDocs(ctx context.Context) ([]model.WaiverDoc, error)
	SetActiveWaiverDoc(ctx context.Context, id uint64) error

	CreateRun(ctx context.Context, run model.Run) (model.Run, error)
	UpdateRun(ctx context.Context, run model.Run) (model.Run, error)
	DeleteRun(ctx context.Context, id uint64) error
	GetRun(ctx context.Context, id uint64) (model.Run, error)
	ListRuns(ctx context.Context, reservationID uint64) ([]model.Run, error)
	Leaderboard(ctx context.Context, structure string, limit int) ([]model.LeaderboardEntry, error)
}

// Publisher delivers operations events.  Publishing is best effort: a
// failure is logged and never fails the workflow that produced the event.
type Publisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}
