// Package queue defines the operations events exchanged over the message
// broker and the consumer that records them in the audit log.
package queue

import "time"

// Event kinds.
const (
	KindGroupSent        = "group.sent"
	KindWalkInCreated    = "walkin.created"
	KindWaiverActivated  = "waiver.activated"
	KindReservationState = "reservation.status"
)

// OpsQueueName is the durable queue operations events are published to.
const OpsQueueName = "ops.events"

// Event is published after an operator workflow has written its changes.
// It carries enough information for downstream consumers to log, notify or
// trigger analytics without querying the primary database.
type Event struct {
	ID             string    `json:"id"`
	Kind           string    `json:"kind"`
	ActorID        uint64    `json:"actor_id,omitempty"`
	Date           string    `json:"date,omitempty"`
	StartTime      string    `json:"start_time,omitempty"`
	ReservationIDs []uint64  `json:"reservation_ids,omitempty"`
	CustomerName   string    `json:"customer_name,omitempty"`
	Status         string    `json:"status,omitempty"`
	WaiverDocID    uint64    `json:"waiver_doc_id,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}
