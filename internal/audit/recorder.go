// Package audit is the one-way audit sink used by handlers. Recording is
// best-effort by contract: failures are logged, never surfaced, and never
// abort the operation being documented.
package audit

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/taskflow-app/taskflow/internal/queue"
	"github.com/taskflow-app/taskflow/internal/repository"
	audit_publisher "github.com/taskflow-app/taskflow/internal/service"
)

// Recorder publishes events to the broker when one is configured and falls
// back to a direct audit_logs insert otherwise (or when publishing fails,
// so events are not silently dropped on broker hiccups).
type Recorder struct {
	Repo     *repository.AuditRepo
	UseQueue bool
}

// NewRecorder wires a recorder to the audit repository. The queue path is
// enabled only when a broker URL is present in the environment.
func NewRecorder(repo *repository.AuditRepo) *Recorder {
	return &Recorder{Repo: repo, UseQueue: audit_publisher.BrokerConfigured()}
}

// Event is a convenience constructor that serializes the details map.
func Event(actorUserID uint64, action string, details map[string]any, ip, userAgent string) queue.AuditEvent {
	ev := queue.AuditEvent{
		Action:    action,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if actorUserID != 0 {
		id := actorUserID
		ev.ActorUserID = &id
	}
	if len(details) > 0 {
		if raw, err := json.Marshal(details); err == nil {
			s := string(raw)
			ev.Details = &s
		}
	}
	if ip != "" {
		ev.IP = &ip
	}
	if userAgent != "" {
		ev.UserAgent = &userAgent
	}
	return ev
}

// Record delivers one event to the sink. Never returns an error.
func (r *Recorder) Record(ctx context.Context, ev queue.AuditEvent) {
	if r == nil || r.Repo == nil {
		return
	}
	if r.UseQueue {
		if err := audit_publisher.PublishAuditEvent(ctx, ev); err == nil {
			return
		}
		// fall through to the direct write
	}
	if err := r.Repo.Insert(ctx, ev.ActorUserID, ev.Action, ev.Details, ev.IP, ev.UserAgent); err != nil {
		log.Printf("audit: insert failed for action %s: %v", ev.Action, err)
	}
}
