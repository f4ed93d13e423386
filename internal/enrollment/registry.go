// internal/enrollment/registry.go
package enrollment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mergington-activities/pkg/registry"
)

const tracerName = "mergington-activities/internal/enrollment"

var (
	ErrActivityNotFound = errors.New("activity not found")
	ErrAlreadyEnrolled  = errors.New("student already signed up for this activity")
	ErrNotEnrolled      = errors.New("student is not signed up for this activity")
	ErrActivityFull     = errors.New("activity is full")

	ErrDuplicateActivity    = errors.New("duplicate activity name")
	ErrDuplicateParticipant = errors.New("duplicate participant")
	ErrInvalidCapacity      = errors.New("max participants must be positive")
)

// Confirmation is returned by a successful roster mutation.
type Confirmation struct {
	Message string `json:"message"`
}

// Registry owns the activity catalogue for the lifetime of the process.
// All access is serialized through mu.
type Registry struct {
	mu         sync.RWMutex
	order      []string
	activities map[string]*Activity

	enforceCapacity bool
	observers       []Observer
	tracer          trace.Tracer
	now             func() time.Time
}

type Option func(*Registry)

// WithCapacityEnforcement makes Signup reject students once an activity
// reaches max participants. Off by default to match the historical API.
func WithCapacityEnforcement(enabled bool) Option {
	return func(r *Registry) { r.enforceCapacity = enabled }
}

func WithObserver(o Observer) Option {
	return func(r *Registry) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(r *Registry) { r.tracer = t }
}

func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// New builds a registry from activities. Names must be unique and rosters
// duplicate-free.
func New(activities []Activity, opts ...Option) (*Registry, error) {
	r := &Registry{
		order:      make([]string, 0, len(activities)),
		activities: make(map[string]*Activity, len(activities)),
		tracer:     otel.Tracer(tracerName),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	for _, a := range activities {
		if _, exists := r.activities[a.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateActivity, a.Name)
		}
		if a.MaxParticipants < 1 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCapacity, a.Name)
		}
		seen := make(map[string]struct{}, len(a.Participants))
		for _, p := range a.Participants {
			if _, dup := seen[p]; dup {
				return nil, fmt.Errorf("%w: %s in %s", ErrDuplicateParticipant, p, a.Name)
			}
			seen[p] = struct{}{}
		}
		c := a.clone()
		r.activities[a.Name] = &c
		r.order = append(r.order, a.Name)
	}
	return r, nil
}

// FromSeed builds a registry from a seed document.
func FromSeed(seed *registry.Seed, opts ...Option) (*Registry, error) {
	activities := make([]Activity, 0, len(seed.Activities))
	for _, s := range seed.Activities {
		activities = append(activities, Activity{
			Name:            s.Name,
			Description:     s.Description,
			Schedule:        s.Schedule,
			MaxParticipants: s.MaxParticipants,
			Participants:    s.Participants,
		})
	}
	return New(activities, opts...)
}

// List returns a deep copy of every activity.
func (r *Registry) List(ctx context.Context) Snapshot {
	_, span := r.tracer.Start(ctx, "enrollment.List")
	defer span.End()

	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := Snapshot{
		names:      make([]string, len(r.order)),
		activities: make(map[string]Activity, len(r.activities)),
	}
	copy(snap.names, r.order)
	for name, a := range r.activities {
		snap.activities[name] = a.clone()
	}
	span.SetAttributes(attribute.Int("enrollment.activities", len(snap.names)))
	return snap
}

// Get returns a copy of a single activity.
func (r *Registry) Get(ctx context.Context, name string) (Activity, error) {
	_, span := r.tracer.Start(ctx, "enrollment.Get",
		trace.WithAttributes(attribute.String("activity.name", name)))
	defer span.End()

	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.activities[name]
	if !ok {
		span.SetAttributes(attribute.String("enrollment.result", "not_found"))
		return Activity{}, fmt.Errorf("%w: %s", ErrActivityNotFound, name)
	}
	return a.clone(), nil
}

// Names returns activity names in seed order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Signup adds email to the named activity.
func (r *Registry) Signup(ctx context.Context, name, email string) (Confirmation, error) {
	ctx, span := r.tracer.Start(ctx, "enrollment.Signup",
		trace.WithAttributes(attribute.String("activity.name", name)))
	defer span.End()

	change, err := r.signup(name, email)
	if err != nil {
		span.SetAttributes(attribute.String("enrollment.result", Result(err)))
		return Confirmation{}, err
	}
	span.SetAttributes(
		attribute.String("enrollment.result", "ok"),
		attribute.Int("activity.participants", change.Participants),
	)
	r.notify(ctx, change)
	return Confirmation{Message: fmt.Sprintf("Signed up %s for %s", email, name)}, nil
}

func (r *Registry) signup(name, email string) (Change, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.activities[name]
	if !ok {
		return Change{}, fmt.Errorf("%w: %s", ErrActivityNotFound, name)
	}
	if a.IsEnrolled(email) {
		return Change{}, fmt.Errorf("%w: %s in %s", ErrAlreadyEnrolled, email, name)
	}
	if r.enforceCapacity && a.SpotsLeft() == 0 {
		return Change{}, fmt.Errorf("%w: %s (%d/%d)", ErrActivityFull, name, len(a.Participants), a.MaxParticipants)
	}
	a.Participants = append(a.Participants, email)
	return r.newChange(ChangeSignup, a, email), nil
}

// Unregister removes email from the named activity.
func (r *Registry) Unregister(ctx context.Context, name, email string) (Confirmation, error) {
	ctx, span := r.tracer.Start(ctx, "enrollment.Unregister",
		trace.WithAttributes(attribute.String("activity.name", name)))
	defer span.End()

	change, err := r.unregister(name, email)
	if err != nil {
		span.SetAttributes(attribute.String("enrollment.result", Result(err)))
		return Confirmation{}, err
	}
	span.SetAttributes(
		attribute.String("enrollment.result", "ok"),
		attribute.Int("activity.participants", change.Participants),
	)
	r.notify(ctx, change)
	return Confirmation{Message: fmt.Sprintf("Unregistered %s from %s", email, name)}, nil
}

func (r *Registry) unregister(name, email string) (Change, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.activities[name]
	if !ok {
		return Change{}, fmt.Errorf("%w: %s", ErrActivityNotFound, name)
	}
	i := a.indexOf(email)
	if i < 0 {
		return Change{}, fmt.Errorf("%w: %s in %s", ErrNotEnrolled, email, name)
	}
	a.Participants = append(a.Participants[:i], a.Participants[i+1:]...)
	return r.newChange(ChangeUnregister, a, email), nil
}

func (r *Registry) newChange(t ChangeType, a *Activity, email string) Change {
	return Change{
		ID:              uuid.New().String(),
		Type:            t,
		Activity:        a.Name,
		Email:           email,
		Participants:    len(a.Participants),
		MaxParticipants: a.MaxParticipants,
		OccurredAt:      r.now().UTC(),
	}
}

func (r *Registry) notify(ctx context.Context, change Change) {
	for _, o := range r.observers {
		o.OnEnrollmentChanged(ctx, change)
	}
}

// Result classifies an operation error for metrics and logs.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrActivityNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyEnrolled):
		return "already_enrolled"
	case errors.Is(err, ErrNotEnrolled):
		return "not_enrolled"
	case errors.Is(err, ErrActivityFull):
		return "full"
	default:
		return "error"
	}
}
