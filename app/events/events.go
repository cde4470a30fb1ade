// Package events publishes account lifecycle events for downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	TypeUserRegistered        = "user.registered"
	TypePosterRequested       = "poster_request.submitted"
	TypePosterApproved        = "poster_request.approved"
	TypeDeletionScheduled     = "account.deletion_scheduled"
	TypeDeletionCancelled     = "account.deletion_cancelled"
	TypeAccountDeleted        = "account.deleted"
	TypeAccountRestored       = "account.restored"
	TypeAdminGranted          = "account.admin_granted"
	TypeExpiredDeletesApplied = "account.expired_deletes_finalized"
)

type AccountEvent struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	UserID     uint64            `json:"user_id,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

func NewAccountEvent(eventType string, userID uint64, now time.Time) AccountEvent {
	return AccountEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		UserID:     userID,
		OccurredAt: now.UTC(),
	}
}

func (e AccountEvent) With(key, value string) AccountEvent {
	attrs := make(map[string]string, len(e.Attributes)+1)
	for k, v := range e.Attributes {
		attrs[k] = v
	}
	attrs[key] = value
	e.Attributes = attrs
	return e
}

type Publisher interface {
	Publish(ctx context.Context, event AccountEvent) error
	Close() error
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, AccountEvent) error { return nil }

func (NopPublisher) Close() error { return nil }
