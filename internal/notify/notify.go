// Package notify surfaces the outcome of asynchronous operations as a
// single transient message that dismisses itself.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"finboard/internal/log"
)

const (
	DefaultTTL = 3 * time.Second
	// DefaultSinkTimeout bounds one delivery to one sink.
	DefaultSinkTimeout = 5 * time.Second
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

type Notification struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Sink receives a copy of every notification, e.g. to relay it elsewhere.
// Deliveries run in the background and must honor ctx.
type Sink interface {
	Deliver(ctx context.Context, n Notification) error
}

type stopper interface {
	Stop() bool
}

// Channel holds at most one live notification. A new one replaces the
// old, and each expires after the TTL unless replaced or dismissed first.
type Channel struct {
	mu      sync.Mutex
	current *Notification
	timer   stopper

	ttl         time.Duration
	sinks       []Sink
	sinkTimeout time.Duration
	deliveries  sync.WaitGroup
	now         func() time.Time
	afterFunc   func(time.Duration, func()) stopper
	logger      *log.Logger
}

func New(ttl time.Duration, logger *log.Logger, sinks ...Sink) *Channel {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = log.Default(log.ComponentNotify)
	}
	return &Channel{
		ttl:         ttl,
		sinks:       sinks,
		sinkTimeout: DefaultSinkTimeout,
		now:         time.Now,
		logger:      logger,
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
	}
}

func (c *Channel) Success(ctx context.Context, msg string) Notification {
	return c.show(ctx, KindSuccess, msg)
}

func (c *Channel) Failure(ctx context.Context, msg string) Notification {
	return c.show(ctx, KindError, msg)
}

func (c *Channel) show(ctx context.Context, kind Kind, msg string) Notification {
	n := Notification{ID: uuid.NewString(), Kind: kind, Message: msg, CreatedAt: c.now()}

	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.current = &n
	id := n.ID
	c.timer = c.afterFunc(c.ttl, func() { c.Dismiss(id) })
	c.mu.Unlock()

	if len(c.sinks) > 0 {
		c.deliveries.Add(1)
		go c.deliver(context.WithoutCancel(ctx), n)
	}
	return n
}

// deliver hands n to every sink in turn, each under its own timeout.
func (c *Channel) deliver(ctx context.Context, n Notification) {
	defer c.deliveries.Done()
	for _, s := range c.sinks {
		sctx, cancel := context.WithTimeout(ctx, c.sinkTimeout)
		err := s.Deliver(sctx, n)
		cancel()
		if err != nil {
			c.logger.WarnContext(ctx, "Notification sink failed",
				log.FieldError, err, "notification_id", n.ID)
		}
	}
}

// Wait blocks until every delivery started so far has finished.
func (c *Channel) Wait() {
	c.deliveries.Wait()
}

// Current returns the live notification, if any.
func (c *Channel) Current() (Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return Notification{}, false
	}
	return *c.current, true
}

// Dismiss removes the notification with the given id. A stale id, from a
// message that was already replaced, is ignored.
func (c *Channel) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil || c.current.ID != id {
		return false
	}
	c.current = nil
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	return true
}

// Clear drops whatever is showing.
func (c *Channel) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// LogSink writes every notification to the structured log.
type LogSink struct {
	Logger *log.Logger
}

func (s LogSink) Deliver(ctx context.Context, n Notification) error {
	logger := s.Logger
	if logger == nil {
		logger = log.Default(log.ComponentNotify)
	}
	if n.Kind == KindError {
		logger.WarnContext(ctx, n.Message, "notification_id", n.ID, "kind", n.Kind)
	} else {
		logger.InfoContext(ctx, n.Message, "notification_id", n.ID, "kind", n.Kind)
	}
	return nil
}
