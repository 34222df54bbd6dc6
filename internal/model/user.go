package model

import "time"

// Access levels of a user record.
const (
	AccessCustomer = "customer"
	AccessStaff    = "staff"
	AccessAdmin    = "admin"
)

// User represents a person known to the venue: customers (including
// guests created at the front desk) and staff.
//
// Fields:
//
//	ID                 – primary key identifier.
//	Name               – display name.
//	Phone              – ten-digit phone, the lookup key at the desk.
//	Email              – optional email.
//	Access             – customer, staff or admin.
//	Waivers            – signatures in the order they were recorded.
//	NeedsRewaiverDocID – set when staff force a re-sign of that document.
//	CreatedBy          – staff user that created a guest record.
type User struct {
	ID                 uint64             `json:"id"`                    // users.id
	Name               string             `json:"name"`                  // users.name
	Phone              *string            `json:"phone"`                 // users.phone (nullable)
	Email              *string            `json:"email,omitempty"`       // users.email (nullable)
	Access             string             `json:"access"`                // users.access
	Waivers            []WaiverSignature  `json:"waivers"`               // user_waivers rows
	NeedsRewaiverDocID *uint64            `json:"needs_rewaiver_doc_id"` // users.needs_rewaiver_doc_id (nullable)
	CreatedBy          *uint64            `json:"created_by,omitempty"`  // users.created_by (nullable)
	CreatedAt          time.Time          `json:"created_at"`            // users.created_at
}

// WaiverSignature records one signing of a waiver document.
type WaiverSignature struct {
	SignedAt    time.Time `json:"signed_at"`     // user_waivers.signed_at
	SignedName  string    `json:"signed_name"`   // user_waivers.signed_name
	WaiverDocID uint64    `json:"waiver_doc_id"` // user_waivers.waiver_doc_id
}

// WaiverDoc is a version of the liability waiver.  Exactly one document
// is active at a time.
type WaiverDoc struct {
	ID        uint64    `json:"id"`         // waiver_docs.id
	Name      string    `json:"name"`       // waiver_docs.name
	Version   string    `json:"version"`    // waiver_docs.version
	Body      string    `json:"body"`       // waiver_docs.body
	Active    bool      `json:"active"`     // waiver_docs.active
	CreatedAt time.Time `json:"created_at"` // waiver_docs.created_at
}

// ActiveWaiverDoc returns the active document, or nil when none is active.
func ActiveWaiverDoc(docs []WaiverDoc) *WaiverDoc {
	for i := range docs {
		if docs[i].Active {
			return &docs[i]
		}
	}
	return nil
}
