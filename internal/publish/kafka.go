package publish

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/bher20/fxratemanager/internal/rates"
)

// KafkaPublisher writes snapshots to a Kafka topic keyed by snapshot ID.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafka returns a publisher for topic. Brokers are contacted lazily on
// the first write.
func NewKafka(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("publish: no kafka brokers configured")
	}
	if topic == "" {
		return nil, errors.New("publish: no kafka topic configured")
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
			BatchTimeout:           50 * time.Millisecond,
		},
	}, nil
}

func (p *KafkaPublisher) Name() string { return "kafka" }

func (p *KafkaPublisher) Publish(ctx context.Context, snap *rates.Snapshot) error {
	payload, err := Encode(snap)
	if err != nil {
		return err
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(snap.ID),
		Value: payload,
		Time:  snap.Timestamp.Time,
	})
	if err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
