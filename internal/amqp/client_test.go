package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"finboard/internal/notify"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{-1, 1 * time.Second},
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second}, // capped
		{10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := exponentialBackoff(tt.attempt); got != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"closed sentinel", amqp091.ErrClosed, true},
		{"wrapped closed sentinel", fmt.Errorf("publish: %w", amqp091.ErrClosed), true},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"unrelated error", errors.New("exchange not found"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestCircuitBreaker(t *testing.T) {
	client := &Client{}

	if client.isCircuitOpen() {
		t.Fatal("new client should start closed")
	}

	for i := 0; i < maxFailures-1; i++ {
		client.recordFailure()
	}
	if client.isCircuitOpen() {
		t.Fatal("breaker should stay closed below the failure threshold")
	}

	client.recordFailure()
	if !client.isCircuitOpen() {
		t.Fatal("breaker should open at the failure threshold")
	}

	// Move the last failure past the open window
	client.lastFailure = time.Now().Add(-openTimeout - time.Second)
	if client.isCircuitOpen() {
		t.Fatal("breaker should allow a trial call after the open window")
	}
	if got := atomic.LoadInt32(&client.state); got != StateHalfOpen {
		t.Fatalf("state = %d, want half-open", got)
	}

	client.recordFailure()
	if got := atomic.LoadInt32(&client.state); got != StateOpen {
		t.Fatalf("failed trial should reopen the breaker, state = %d", got)
	}

	client.recordSuccess()
	if got := atomic.LoadInt32(&client.state); got != StateClosed {
		t.Fatalf("success should close the breaker, state = %d", got)
	}
	if got := atomic.LoadInt64(&client.failureCount); got != 0 {
		t.Fatalf("success should reset the failure count, got %d", got)
	}
}

func TestPublishNotification_CircuitOpen(t *testing.T) {
	client := &Client{exchangeName: "finboard", queueName: "notifications"}
	atomic.StoreInt32(&client.state, StateOpen)
	client.lastFailure = time.Now()

	err := client.PublishNotification(context.Background(), &NotificationMessage{ID: "n-1"})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if !strings.Contains(err.Error(), "circuit breaker is open") {
		t.Errorf("unexpected error text %q", err.Error())
	}
}

func TestPublishNotification_CancelledContext(t *testing.T) {
	client := &Client{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := client.PublishNotification(ctx, &NotificationMessage{ID: "n-1"}); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNotificationMessageJSON(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := NewNotificationMessage(notify.Notification{
		ID:        "n-7",
		Kind:      notify.KindError,
		Message:   "Failed to delete budget: Budget not found",
		CreatedAt: created,
	})

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if !strings.Contains(string(data), `"kind":"error"`) {
		t.Errorf("expected kind in payload, got %s", data)
	}

	got, err := NotificationMessageFromJSON(data)
	if err != nil {
		t.Fatalf("NotificationMessageFromJSON: %v", err)
	}
	if got.ID != msg.ID || got.Kind != msg.Kind || got.Message != msg.Message || !got.Timestamp.Equal(created) {
		t.Errorf("round trip = %+v, want %+v", got, msg)
	}

	if _, err := NotificationMessageFromJSON([]byte("{")); err == nil {
		t.Error("expected error for truncated payload")
	}
}

type recordingPublisher struct {
	got []*NotificationMessage
	err error
}

func (p *recordingPublisher) PublishNotification(_ context.Context, msg *NotificationMessage) error {
	p.got = append(p.got, msg)
	return p.err
}

func TestNotificationSink(t *testing.T) {
	pub := &recordingPublisher{}
	sink := NewNotificationSink(pub)

	n := notify.Notification{ID: "n-1", Kind: notify.KindSuccess, Message: "Goal created successfully"}
	if err := sink.Deliver(context.Background(), n); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if len(pub.got) != 1 || pub.got[0].Message != n.Message || pub.got[0].Kind != "success" {
		t.Fatalf("unexpected published messages: %+v", pub.got)
	}
	if pub.got[0].Timestamp.IsZero() {
		t.Error("expected a timestamp on the published message")
	}

	pub.err = ErrCircuitOpen
	if err := sink.Deliver(context.Background(), n); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected publisher error, got %v", err)
	}
}
