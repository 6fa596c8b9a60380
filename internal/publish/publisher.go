// Package publish forwards every newly collected snapshot to a message
// broker so other services can consume rates without polling the API.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/bher20/fxratemanager/internal/config"
	"github.com/bher20/fxratemanager/internal/metrics"
	"github.com/bher20/fxratemanager/internal/rates"
)

// Publisher delivers snapshots to a broker.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, snap *rates.Snapshot) error
	Close() error
}

// New builds the publisher selected by cfg.Backend.
func New(cfg config.Publisher) (Publisher, error) {
	switch cfg.Backend {
	case "", "none":
		return Nop{}, nil
	case "nats":
		return NewNATS(cfg.NATSURL, cfg.NATSSubject)
	case "kafka":
		return NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic)
	default:
		return nil, fmt.Errorf("publish: unknown backend %q", cfg.Backend)
	}
}

// Nop discards every snapshot.
type Nop struct{}

func (Nop) Name() string { return "none" }
func (Nop) Publish(ctx context.Context, _ *rates.Snapshot) error { return nil }
func (Nop) Close() error { return nil }

// Encode is the wire form of a published snapshot: the same JSON served by
// GET /api/rates.
func Encode(snap *rates.Snapshot) ([]byte, error) {
	b, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("publish: encode snapshot: %w", err)
	}
	return b, nil
}

// Listener adapts p to a rates.Listener. Each snapshot is published in its
// own goroutine bounded by timeout so a slow broker never delays collection.
func Listener(p Publisher, timeout time.Duration) rates.Listener {
	if _, ok := p.(Nop); ok {
		return func(*rates.Snapshot) {}
	}
	return func(snap *rates.Snapshot) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if err := p.Publish(ctx, snap); err != nil {
				metrics.PublishErrorsTotal.WithLabelValues(p.Name()).Inc()
				log.Printf("publish: %s: snapshot %s: %v", p.Name(), snap.ID, err)
			}
		}()
	}
}
