package docstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// NatsNotifier fans out change signals over core NATS pub/sub so every
// storefront instance re-reads the changed collection. Signals are ephemeral
// by design: a missed signal is corrected by the next one, and every
// subscriber receives an initial snapshot on subscribe, so durable
// (JetStream) delivery is deliberately not used here.
type NatsNotifier struct {
	nc     *nats.Conn
	prefix string
	logger *slog.Logger
}

// NewNatsNotifier creates a notifier publishing on "<prefix>.<collection>.<owner>".
func NewNatsNotifier(nc *nats.Conn, prefix string, logger *slog.Logger) *NatsNotifier {
	return &NatsNotifier{
		nc:     nc,
		prefix: prefix,
		logger: logger.With("component", "nats_notifier"),
	}
}

func (n *NatsNotifier) Publish(_ context.Context, change Change) error {
	subject := n.subject(change.Collection, change.OwnerID)
	if err := n.nc.Publish(subject, nil); err != nil {
		return fmt.Errorf("failed to publish change signal on %s: %w", subject, err)
	}
	return nil
}

func (n *NatsNotifier) Subscribe(collection, ownerID string, fn func()) (CancelFunc, error) {
	subject := n.subject(collection, ownerID)
	sub, err := n.nc.Subscribe(subject, func(_ *nats.Msg) {
		fn()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	return func() {
		if err := sub.Unsubscribe(); err != nil {
			n.logger.Warn("failed to unsubscribe", "subject", subject, "error", err)
		}
	}, nil
}

func (n *NatsNotifier) subject(collection, ownerID string) string {
	return fmt.Sprintf("%s.%s.%s", n.prefix, collection, ownerID)
}
