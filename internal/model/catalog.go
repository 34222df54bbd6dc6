package model

import "github.com/shopspring/decimal"

// Game modes and booking styles of a reservation type.
const (
	ModeCoop   = "coop"
	ModeVersus = "versus"

	StylePrivate = "private"
	StyleOpen    = "open"
)

// ReservationType is a bookable offering.  Open types sell individual
// seats in a shared lane; private types sell a whole lane to one party.
//
// Fields:
//
//	ID                  – primary key identifier.
//	Name                – display name.
//	Mode                – coop or versus; decides lane capacity.
//	Style               – open or private.
//	PricingMode         – how Price applies (per player or per lane).
//	Price               – unit price.
//	MaxPlayers          – party cap for private types (nil = mode capacity).
//	Description         – marketing copy.
//	Active              – whether the type exists for operations at all.
//	AvailableForBooking – whether new bookings may use it.
type ReservationType struct {
	ID                  uint64          `json:"id"`                    // reservation_types.id
	Name                string          `json:"name"`                  // reservation_types.name
	Mode                string          `json:"mode"`                  // reservation_types.mode
	Style               string          `json:"style"`                 // reservation_types.style
	PricingMode         string          `json:"pricing_mode"`          // reservation_types.pricing_mode
	Price               decimal.Decimal `json:"price"`                 // reservation_types.price
	MaxPlayers          *int            `json:"max_players"`           // reservation_types.max_players (nullable)
	Description         string          `json:"description"`           // reservation_types.description
	Active              bool            `json:"active"`                // reservation_types.active
	AvailableForBooking bool            `json:"available_for_booking"` // reservation_types.available_for_booking
}

// Bookable reports whether walk-ins and new bookings may use the type.
func (t ReservationType) Bookable() bool { return t.Active && t.AvailableForBooking }

// SessionTemplate is a recurring weekly slot.  MaxSessions is the number of
// physical lanes that run at StartTime on every DayOfWeek.
type SessionTemplate struct {
	ID          uint64 `json:"id"`           // session_templates.id
	DayOfWeek   string `json:"day_of_week"`  // session_templates.day_of_week ("Monday".."Sunday")
	StartTime   string `json:"start_time"`   // session_templates.start_time ("15:04")
	MaxSessions int    `json:"max_sessions"` // session_templates.max_sessions
	Active      bool   `json:"active"`       // session_templates.active
}

// FindType returns the type with the given id.
func FindType(types []ReservationType, id uint64) (ReservationType, bool) {
	for _, t := range types {
		if t.ID == id {
			return t, true
		}
	}
	return ReservationType{}, false
}
