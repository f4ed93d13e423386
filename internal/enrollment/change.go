// internal/enrollment/change.go
package enrollment

import (
	"context"
	"time"
)

type ChangeType string

const (
	ChangeSignup     ChangeType = "signup"
	ChangeUnregister ChangeType = "unregister"
)

// Change describes one successful roster mutation.
type Change struct {
	ID              string     `json:"id"`
	Type            ChangeType `json:"type"`
	Activity        string     `json:"activity"`
	Email           string     `json:"email"`
	Participants    int        `json:"participants"`
	MaxParticipants int        `json:"maxParticipants"`
	OccurredAt      time.Time  `json:"occurredAt"`
}

// Observer is notified after a roster mutation has been applied. It is
// called outside the registry lock and cannot veto the change.
type Observer interface {
	OnEnrollmentChanged(ctx context.Context, change Change)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, change Change)

func (f ObserverFunc) OnEnrollmentChanged(ctx context.Context, change Change) {
	f(ctx, change)
}
