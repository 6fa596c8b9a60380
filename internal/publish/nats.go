package publish

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/bher20/fxratemanager/internal/rates"
)

// NATSPublisher publishes snapshots on a core NATS subject.
type NATSPublisher struct {
	nc      *nats.Conn
	subject string
}

// NewNATS connects to url. The connection keeps reconnecting in the
// background if the server goes away.
func NewNATS(url, subject string) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("fxratemanager"),
		nats.Timeout(5 * time.Second),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("publish: nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("publish: nats reconnected to %s", nc.ConnectedUrl())
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("publish: nats connect: %w", err)
	}
	log.Printf("publish: connected to nats at %s, subject %s", nc.ConnectedUrl(), subject)
	return &NATSPublisher{nc: nc, subject: subject}, nil
}

func (p *NATSPublisher) Name() string { return "nats" }

func (p *NATSPublisher) Publish(ctx context.Context, snap *rates.Snapshot) error {
	payload, err := Encode(snap)
	if err != nil {
		return err
	}
	msg := nats.NewMsg(p.subject)
	msg.Data = payload
	msg.Header.Set("Snapshot-Id", snap.ID)
	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	return p.nc.FlushWithContext(ctx)
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.nc.Drain()
}
