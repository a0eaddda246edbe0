package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes JSON events to one topic.
type Producer struct {
	writer messageWriter
	topic  string
	log    log.FieldLogger
	now    func() time.Time
}

func NewProducer(brokers []string, topic string, logger log.FieldLogger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return newProducer(writer, topic, logger)
}

func newProducer(writer messageWriter, topic string, logger log.FieldLogger) *Producer {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Producer{
		writer: writer,
		topic:  topic,
		log:    logger.WithFields(log.Fields{"component": "kafka-producer", "topic": topic}),
		now:    time.Now,
	}
}

// Publish writes event as JSON under key. Events with the same key land on the same
// partition and keep their order.
func (p *Producer) Publish(ctx context.Context, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: data,
		Time:  p.now(),
	}); err != nil {
		return err
	}
	p.log.WithField("key", key).Debug("Published event")
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
