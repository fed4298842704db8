package natsadapter

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/nmacchitella/topoi/internal/core/domain"
	"github.com/nmacchitella/topoi/internal/pkg/metrics"
)

// ChangeFeed implements ports.ChangeFeed using NATS JetStream. The directory
// backend publishes change notifications to topoi.places.<user_id>; each map
// session subscribes to the users it renders.
type ChangeFeed struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewChangeFeed connects to NATS and binds a JetStream context.
func NewChangeFeed(url string) (*ChangeFeed, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &ChangeFeed{conn: conn, js: js}, nil
}

// Subscribe delivers decoded change notifications for userID to handler.
// Payloads that do not parse at all are Nak'd for redelivery; notifications
// with an unrecognized kind still decode (as domain.UnknownChange) and are
// Ack'd, so a newer backend never wedges the consumer.
func (f *ChangeFeed) Subscribe(ctx context.Context, userID string, handler func(ctx context.Context, c domain.Change) error) error {
	subject := "topoi.places." + userID
	sub, err := f.js.Subscribe(subject, func(msg *nats.Msg) {
		change, err := domain.DecodeChange(msg.Data)
		if err != nil {
			_ = msg.Nak()
			return
		}
		metrics.ChangeNotifications.WithLabelValues(string(change.Kind())).Inc()
		if err := handler(ctx, change); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("gateway-"+userID),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	f.subs = append(f.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (f *ChangeFeed) Close() {
	for _, sub := range f.subs {
		_ = sub.Unsubscribe()
	}
	_ = f.conn.Drain()
}
