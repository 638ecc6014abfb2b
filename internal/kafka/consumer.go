package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// HandlerFunc processes one message. A returned error is logged; the
// message is committed either way so a poison message cannot stall the
// partition.
type HandlerFunc func(ctx context.Context, value []byte) error

type Consumer struct {
	r        reader
	log      *zap.Logger
	retryGap time.Duration
}

func NewConsumer(brokers []string, topic, groupID string, log *zap.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Consumer{r: r, log: log, retryGap: time.Second}
}

// Run blocks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context, handle HandlerFunc) {
	for {
		msg, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.log.Info("kafka consumer stopping")
				return
			}
			c.log.Error("kafka fetch error", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.retryGap):
			}
			continue
		}

		if err := handle(ctx, msg.Value); err != nil {
			c.log.Warn("kafka message handling failed",
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
		}
		if err := c.r.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.log.Error("kafka commit error", zap.Error(err))
		}
	}
}

func (c *Consumer) Close() error {
	return c.r.Close()
}
