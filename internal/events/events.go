package events

import (
	"time"

	"github.com/asaskevich/EventBus"
	"go.uber.org/zap"

	"github.com/Ammar282828/gemstrack-pos-sub002/pkg/common"
)

const (
	ProductSaved    = "product.saved"
	ProductSold     = "product.sold"
	ProductDeleted  = "product.deleted"
	InvoiceCreated  = "invoice.created"
	OrderUpdated    = "order.updated"
	SettingsUpdated = "settings.updated"
)

// Topics lists every topic forwarded to external sinks
var Topics = []string{ProductSaved, ProductSold, ProductDeleted, InvoiceCreated, OrderUpdated, SettingsUpdated}

// Envelope wraps every published payload
type Envelope struct {
	EventID    string      `json:"event_id"`
	EventType  string      `json:"event_type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// Publisher is what services depend on to emit events
type Publisher interface {
	Publish(topic string, payload interface{})
}

// Bus is the in-process event bus
type Bus struct {
	bus EventBus.Bus
}

var _ Publisher = (*Bus)(nil)

func NewBus() *Bus {
	return &Bus{bus: EventBus.New()}
}

// Publish delivers payload to every subscriber of topic
func (b *Bus) Publish(topic string, payload interface{}) {
	b.bus.Publish(topic, Envelope{
		EventID:    common.UUID(),
		EventType:  topic,
		OccurredAt: time.Now(),
		Payload:    payload,
	})
}

// Subscribe registers an asynchronous handler. Handlers for one topic run one at a time.
func (b *Bus) Subscribe(topic string, fn func(ev Envelope)) {
	wrapped := func(ev Envelope) {
		defer func() {
			if err := recover(); err != nil {
				zap.L().Error("event handler panic",
					zap.String("namespace", "events"),
					zap.String("topic", topic),
					zap.Any("error", err))
			}
		}()
		fn(ev)
	}
	if err := b.bus.SubscribeAsync(topic, wrapped, true); err != nil {
		zap.L().Error("event subscribe failed", zap.String("namespace", "events"), zap.String("topic", topic), zap.Error(err))
	}
}

// Wait blocks until all asynchronous handlers have finished
func (b *Bus) Wait() {
	b.bus.WaitAsync()
}

// Nop discards events
type Nop struct{}

func (Nop) Publish(string, interface{}) {}
