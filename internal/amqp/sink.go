package amqp

import (
	"context"

	"finboard/internal/notify"
)

// Publisher is the part of Client the sink needs.
type Publisher interface {
	PublishNotification(ctx context.Context, msg *NotificationMessage) error
}

// NotificationSink relays notifications to the broker.
type NotificationSink struct {
	publisher Publisher
}

var _ notify.Sink = (*NotificationSink)(nil)

func NewNotificationSink(p Publisher) *NotificationSink {
	return &NotificationSink{publisher: p}
}

func (s *NotificationSink) Deliver(ctx context.Context, n notify.Notification) error {
	return s.publisher.PublishNotification(ctx, NewNotificationMessage(n))
}
