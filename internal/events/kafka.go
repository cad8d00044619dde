package events

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageWriter is the subset of kafka.Writer the producer uses
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer forwards bus events to a kafka topic through a buffered inbox
type KafkaProducer struct {
	w       MessageWriter
	inbox   chan kafka.Message
	closeCh chan struct{}
}

func NewKafkaProducer(brokers []string, topic string, buf int) *KafkaProducer {
	return NewKafkaProducerWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        true,
	}, buf)
}

func NewKafkaProducerWithWriter(w MessageWriter, buf int) *KafkaProducer {
	return &KafkaProducer{
		w:       w,
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
}

// Start runs the write loop until ctx is cancelled, then flushes what is left
func (p *KafkaProducer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				for {
					select {
					case m := <-p.inbox:
						p.write(m)
					default:
						_ = p.w.Close()
						return
					}
				}
			case m := <-p.inbox:
				p.write(m)
			}
		}
	}()
}

func (p *KafkaProducer) write(m kafka.Message) {
	if err := p.w.WriteMessages(context.Background(), m); err != nil {
		zap.L().Warn("kafka write failed",
			zap.String("namespace", "events"),
			zap.String("key", string(m.Key)),
			zap.Error(err))
	}
}

// Forward queues one envelope; a full inbox drops the event
func (p *KafkaProducer) Forward(ev Envelope) {
	value, err := json.Marshal(ev)
	if err != nil {
		zap.L().Error("kafka marshal failed", zap.String("namespace", "events"), zap.Error(err))
		return
	}
	msg := kafka.Message{
		Key:     []byte(ev.EventType),
		Value:   value,
		Time:    time.Now(),
		Headers: []kafka.Header{{Key: "event_type", Value: []byte(ev.EventType)}},
	}
	select {
	case p.inbox <- msg:
	default:
		zap.L().Warn("kafka inbox full, event dropped",
			zap.String("namespace", "events"),
			zap.String("event_type", ev.EventType))
	}
}

// WaitClosed blocks until the write loop has flushed and exited
func (p *KafkaProducer) WaitClosed() {
	<-p.closeCh
}

// Bridge subscribes the producer to every known topic
func (b *Bus) Bridge(p *KafkaProducer) {
	for _, topic := range Topics {
		b.Subscribe(topic, p.Forward)
	}
}
