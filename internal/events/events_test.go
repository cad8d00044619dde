package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := NewBus()
	var mu sync.Mutex
	var got []Envelope
	bus.Subscribe(ProductSold, func(ev Envelope) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, ev)
	})
	bus.Subscribe(ProductSold, func(ev Envelope) { panic("boom") })

	bus.Publish(ProductSold, map[string]string{"sku": "RIN-000001"})
	bus.Publish(InvoiceCreated, "ignored")
	bus.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, ProductSold, got[0].EventType)
	assert.NotEmpty(t, got[0].EventID)
	assert.Equal(t, map[string]string{"sku": "RIN-000001"}, got[0].Payload)
}

type memWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	closed bool
}

func (w *memWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *memWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func TestKafkaBridgeFlushesOnShutdown(t *testing.T) {
	w := &memWriter{}
	p := NewKafkaProducerWithWriter(w, 16)
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)

	bus := NewBus()
	bus.Bridge(p)
	bus.Publish(InvoiceCreated, map[string]interface{}{"id": "1"})
	bus.Publish(SettingsUpdated, map[string]interface{}{"gold_22k": 20000})
	bus.Wait()

	assert.Eventually(t, func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		return len(w.msgs) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	p.WaitClosed()
	assert.True(t, w.closed)
	byKey := map[string]string{}
	for _, m := range w.msgs {
		byKey[string(m.Key)] = string(m.Value)
	}
	assert.Contains(t, byKey[InvoiceCreated], `"event_type":"invoice.created"`)
	assert.Contains(t, byKey[SettingsUpdated], `"gold_22k":20000`)
}
