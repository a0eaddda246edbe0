package kafka

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

type MessageHandler func(ctx context.Context, key, value []byte) error

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type ConsumerConfig struct {
	Brokers []string
	Topic   string
	// GroupID names the consumer group. Without it the consumer joins a fresh group of
	// its own, so every partition is assigned to it and read from StartOffset.
	GroupID       string
	FromBeginning bool
}

type Consumer struct {
	reader  messageReader
	log     log.FieldLogger
	backoff time.Duration
}

func NewConsumer(cfg ConsumerConfig, logger log.FieldLogger) *Consumer {
	return newConsumer(kafka.NewReader(readerConfig(cfg)), cfg.Topic, logger)
}

func readerConfig(cfg ConsumerConfig) kafka.ReaderConfig {
	start := kafka.LastOffset
	if cfg.FromBeginning {
		start = kafka.FirstOffset
	}
	groupID := cfg.GroupID
	if groupID == "" {
		groupID = cfg.Topic + "-tail-" + uuid.NewString()
	}
	return kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     groupID,
		StartOffset: start,
		MinBytes:    1,
		MaxBytes:    10e6, // 10MB
		MaxWait:     500 * time.Millisecond,
	}
}

func newConsumer(reader messageReader, topic string, logger log.FieldLogger) *Consumer {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Consumer{
		reader:  reader,
		log:     logger.WithFields(log.Fields{"component": "kafka-consumer", "topic": topic}),
		backoff: time.Second,
	}
}

// Consume hands every message to handler until ctx ends. Handler errors are logged
// and the message is skipped.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return err
			}
			c.log.WithError(err).Warn("Error reading message")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff):
			}
			continue
		}

		if err := handler(ctx, msg.Key, msg.Value); err != nil {
			c.log.WithError(err).WithField("offset", msg.Offset).Warn("Error handling message")
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
