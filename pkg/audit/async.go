package audit

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/muskanBP/todo-app/pkg/authz"
	"github.com/muskanBP/todo-app/pkg/models"
	"github.com/muskanBP/todo-app/pkg/retry"
)

var (
	// ErrBufferFull is returned when the async sink drops an event.
	ErrBufferFull = errors.New("audit buffer full")
	// ErrSinkClosed is returned for events recorded after Close.
	ErrSinkClosed = errors.New("audit sink closed")
)

// AsyncSink decouples decision recording from slow backends. Record only
// enqueues; a single worker drains the queue into next, retrying transient
// failures. When the buffer is full the event is dropped and Record reports
// ErrBufferFull so the engine logs it.
type AsyncSink struct {
	next     authz.AuditSink
	events   chan *models.DecisionEvent
	retryCfg *retry.Config
	logger   *zap.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// AsyncOption configures an AsyncSink.
type AsyncOption func(*AsyncSink)

// WithRetryConfig overrides the retry policy for backend writes.
func WithRetryConfig(cfg *retry.Config) AsyncOption {
	return func(s *AsyncSink) {
		s.retryCfg = cfg
	}
}

// NewAsyncSink starts the worker. Call Close to flush and stop it.
func NewAsyncSink(next authz.AuditSink, bufferSize int, logger *zap.Logger, opts ...AsyncOption) *AsyncSink {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	s := &AsyncSink{
		next:     next,
		events:   make(chan *models.DecisionEvent, bufferSize),
		retryCfg: retry.DefaultConfig(),
		logger:   logger.Named("audit-async"),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	go s.run()
	return s
}

// Record implements authz.AuditSink. It never blocks.
func (s *AsyncSink) Record(ctx context.Context, event *models.DecisionEvent) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrSinkClosed
	}

	select {
	case s.events <- event:
		return nil
	default:
		return ErrBufferFull
	}
}

// Close stops accepting events and waits until queued events are written or
// ctx is done.
func (s *AsyncSink) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *AsyncSink) run() {
	defer close(s.done)

	for event := range s.events {
		ctx, cancel := context.WithTimeout(context.Background(), decisionRecordTimeout)
		err := retry.DoIfRetryable(ctx, s.retryCfg, func() error {
			return s.next.Record(ctx, event)
		})
		cancel()

		if err != nil {
			s.logger.Warn("Dropped authorization decision after write failure",
				zap.String("event_id", event.ID.String()),
				zap.String("scope", event.Scope),
				zap.String("resource_id", event.ResourceID.String()),
				zap.Error(err))
		}
	}
}

// AsyncGroup gives every backend its own queue and worker. A retry against
// one backend never repeats a write another backend already accepted.
type AsyncGroup []*AsyncSink

// NewAsyncGroup starts one AsyncSink per non-nil backend.
func NewAsyncGroup(backends []authz.AuditSink, bufferSize int, logger *zap.Logger, opts ...AsyncOption) AsyncGroup {
	group := make(AsyncGroup, 0, len(backends))
	for _, backend := range backends {
		if backend == nil {
			continue
		}
		group = append(group, NewAsyncSink(backend, bufferSize, logger, opts...))
	}
	return group
}

// Record implements authz.AuditSink. It enqueues on every member and joins
// their errors.
func (g AsyncGroup) Record(ctx context.Context, event *models.DecisionEvent) error {
	var errs []error
	for _, s := range g {
		if err := s.Record(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every member, sharing ctx as the deadline.
func (g AsyncGroup) Close(ctx context.Context) error {
	var errs []error
	for _, s := range g {
		if err := s.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ authz.AuditSink = (*AsyncSink)(nil)
	_ authz.AuditSink = AsyncGroup(nil)
)
