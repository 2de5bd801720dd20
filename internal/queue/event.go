// Package queue defines message payloads exchanged over the message broker.
package queue

// AuditQueueName is the durable queue carrying audit events from request
// handlers to the consumer that persists them.
const AuditQueueName = "audit.events"

// AuditEvent is the fire-and-forget audit record emitted by handlers. The
// side channel is one-way and best-effort: a lost event never fails the
// operation it documents. Details is a pre-serialized JSON object (shape
// varies per action); pointer fields are omitted when unknown.
type AuditEvent struct {
	ActorUserID *uint64 `json:"actor_user_id,omitempty"`
	Action      string  `json:"action"`
	Details     *string `json:"details,omitempty"`
	IP          *string `json:"ip,omitempty"`
	UserAgent   *string `json:"user_agent,omitempty"`
	CreatedAt   string  `json:"created_at"`
}
