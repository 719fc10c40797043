package amqp

import (
	"encoding/json"
	"time"

	"finboard/internal/notify"
)

// NotificationMessage is the wire form of a user-facing notification.
type NotificationMessage struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func NewNotificationMessage(n notify.Notification) *NotificationMessage {
	ts := n.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return &NotificationMessage{
		ID:        n.ID,
		Kind:      string(n.Kind),
		Message:   n.Message,
		Timestamp: ts,
	}
}

// ToJSON converts the message to JSON bytes
func (m *NotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func NotificationMessageFromJSON(data []byte) (*NotificationMessage, error) {
	var msg NotificationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
