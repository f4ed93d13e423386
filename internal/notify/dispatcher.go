// internal/notify/dispatcher.go

// Package notify fans enrollment changes out to external sinks. Delivery is
// best-effort and asynchronous: changes are queued, failures are logged and
// counted, and nothing is returned to callers.
package notify

import (
	"context"
	"sync"
	"time"

	apperrors "mergington-activities/internal/common/errors"
	"mergington-activities/internal/common/logger"
	"mergington-activities/internal/common/metrics"
	"mergington-activities/internal/enrollment"
)

// Sink delivers a single change to one external system.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, change enrollment.Change) error
}

// Pinger is implemented by sinks backed by a connection worth health checking.
type Pinger interface {
	Ping(ctx context.Context) error
}

const defaultQueueSize = 256

type Dispatcher struct {
	sinks   []Sink
	timeout time.Duration
	retries int
	backoff time.Duration
	logger  logger.Logger

	queue   chan enrollment.Change
	mu      sync.RWMutex
	started bool
	closed  bool
	done    chan struct{}
}

type Option func(*Dispatcher)

// WithBackoff sets the base delay between delivery attempts.
func WithBackoff(base time.Duration) Option {
	return func(d *Dispatcher) { d.backoff = base }
}

// WithRetries overrides the retry budget for failed deliveries.
func WithRetries(n int) Option {
	return func(d *Dispatcher) { d.retries = n }
}

// WithQueueSize bounds the number of changes waiting for delivery.
func WithQueueSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queue = make(chan enrollment.Change, n)
		}
	}
}

func NewDispatcher(log logger.Logger, timeout time.Duration, sinks []Sink, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sinks:   sinks,
		timeout: timeout,
		retries: apperrors.GetRetryCount(apperrors.ErrCodeNotificationSendFailed),
		backoff: 100 * time.Millisecond,
		logger:  log,
		queue:   make(chan enrollment.Change, defaultQueueSize),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Sinks() []Sink {
	return d.sinks
}

// Start launches the delivery worker. Calling it more than once is a no-op.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	go func() {
		defer close(d.done)
		d.run()
	}()
}

// Close stops accepting changes and blocks until the queued ones are delivered.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return nil
	}
	d.closed = true
	started := d.started
	close(d.queue)
	d.mu.Unlock()

	if !started {
		d.run()
		close(d.done)
		return nil
	}
	<-d.done
	return nil
}

// OnEnrollmentChanged queues change for delivery and returns immediately.
// When the queue is full the change is dropped.
func (d *Dispatcher) OnEnrollmentChanged(_ context.Context, change enrollment.Change) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(change, "dispatcher closed")
		return
	}
	select {
	case d.queue <- change:
	default:
		d.drop(change, "queue full")
	}
}

func (d *Dispatcher) drop(change enrollment.Change, reason string) {
	metrics.RecordDropped()
	d.logger.Warn("notification dropped", map[string]interface{}{
		"changeId":   change.ID,
		"changeType": string(change.Type),
		"activity":   change.Activity,
		"reason":     reason,
	})
}

func (d *Dispatcher) run() {
	// deliveries outlive the request that produced them
	ctx := context.Background()
	for change := range d.queue {
		d.dispatch(ctx, change)
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, change enrollment.Change) {
	for _, s := range d.sinks {
		err := d.deliver(ctx, s, change)
		metrics.RecordDispatch(s.Name(), err)
		if err != nil {
			stdErr := apperrors.NewNotificationSendFailedError(s.Name(), err)
			d.logger.Warn("notification delivery failed", map[string]interface{}{
				"sink":       s.Name(),
				"changeId":   change.ID,
				"changeType": string(change.Type),
				"activity":   change.Activity,
				"errorCode":  string(stdErr.Code),
				"details":    stdErr.Details,
			})
			continue
		}
		d.logger.Debug("notification delivered", map[string]interface{}{
			"sink":     s.Name(),
			"changeId": change.ID,
		})
	}
}

func (d *Dispatcher) deliver(ctx context.Context, s Sink, change enrollment.Change) error {
	var err error
	for attempt := 0; attempt <= d.retries; attempt++ {
		if attempt > 0 {
			time.Sleep(d.backoff * time.Duration(attempt))
		}
		err = d.attempt(ctx, s, change)
		if err == nil {
			return nil
		}
	}
	return err
}

func (d *Dispatcher) attempt(ctx context.Context, s Sink, change enrollment.Change) error {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	return s.Deliver(ctx, change)
}

// Check pings every sink that supports it. A nil error means healthy.
func (d *Dispatcher) Check(ctx context.Context) map[string]error {
	out := make(map[string]error, len(d.sinks))
	for _, s := range d.sinks {
		p, ok := s.(Pinger)
		if !ok {
			continue
		}
		pctx := ctx
		var cancel context.CancelFunc = func() {}
		if d.timeout > 0 {
			pctx, cancel = context.WithTimeout(ctx, d.timeout)
		}
		out[s.Name()] = p.Ping(pctx)
		cancel()
	}
	return out
}
