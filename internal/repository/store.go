package repository

import "database/sql"

// Store bundles the repositories into the single persistence collaborator
// the operations console consumes.
type Store struct {
	*ReservationRepo
	*UserRepo
	*CatalogRepo
	*RunRepo
}

// NewStore returns a Store whose repositories share db.
func NewStore(db *sql.DB) *Store {
	return &Store{
		ReservationRepo: NewReservationRepo(db),
		UserRepo:        NewUserRepo(db),
		CatalogRepo:     NewCatalogRepo(db),
		RunRepo:         NewRunRepo(db),
	}
}
