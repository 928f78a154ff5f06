package queue

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/seu-repo/evcharge/pkg/config"
)

// MessageQueue defines the interface for a message queue adapter
type MessageQueue interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte) error) error
	Ping() error
	Close() error
}

// New connects to the broker selected by cfg.Provider.
func New(cfg config.QueueConfig, log *zap.Logger) (MessageQueue, error) {
	switch cfg.Provider {
	case "nats", "":
		return NewNATSQueue(cfg, log)
	case "rabbitmq":
		return NewRabbitMQQueue(cfg.RabbitMQURL, cfg.ReconnectWait, log)
	default:
		return nil, fmt.Errorf("unknown queue provider %q", cfg.Provider)
	}
}
