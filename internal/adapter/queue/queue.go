package queue

import (
	"fmt"

	"go.uber.org/zap"
)

// MessageQueue carries the lifecycle events between the services and their
// consumers (index projector, websocket hub).
type MessageQueue interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte) error) error
	Close() error
}

// New builds a queue for the configured driver. NATS is the default.
func New(driver, url string, log *zap.Logger) (MessageQueue, error) {
	switch driver {
	case "", "nats":
		return NewNATSQueue(url, log)
	case "rabbitmq":
		return NewRabbitMQQueue(url, log)
	default:
		return nil, fmt.Errorf("unknown queue driver %q", driver)
	}
}
