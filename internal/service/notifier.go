package service

import (
	"context"
	"time"

	"github.com/noah-isme/cip-api/internal/models"
)

// Lifecycle event types published on partnership transitions.
const (
	EventPartnershipCreated   = "partnership.created"
	EventPartnershipApproved  = "partnership.approved"
	EventPartnershipRejected  = "partnership.rejected"
	EventPartnershipCanceled  = "partnership.canceled"
	EventPartnershipCompleted = "partnership.completed"
)

// TransitionEvent is the payload delivered to downstream systems on every
// lifecycle transition.
type TransitionEvent struct {
	Event         string                   `json:"event"`
	PartnershipID string                   `json:"partnership_id"`
	CourseID      string                   `json:"course_id"`
	ProjectID     string                   `json:"project_id"`
	Status        models.PartnershipStatus `json:"status"`
	OccurredAt    time.Time                `json:"occurred_at"`
}

// Notifier delivers transition events to downstream consumers. Delivery is
// best-effort: implementations may fail, and the state machine logs and
// discards the error rather than rolling back the committed transition.
type Notifier interface {
	Notify(ctx context.Context, event TransitionEvent) error
}
