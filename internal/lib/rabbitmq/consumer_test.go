package rabbitmq

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type settlement struct {
	tag     uint64
	acked   bool
	requeue bool
}

type fakeAcknowledger struct {
	mu      sync.Mutex
	settled []settlement
	done    chan struct{}
}

func newFakeAcknowledger() *fakeAcknowledger {
	return &fakeAcknowledger{done: make(chan struct{}, 16)}
}

func (a *fakeAcknowledger) record(s settlement) {
	a.mu.Lock()
	a.settled = append(a.settled, s)
	a.mu.Unlock()
	a.done <- struct{}{}
}

func (a *fakeAcknowledger) Ack(tag uint64, _ bool) error {
	a.record(settlement{tag: tag, acked: true})
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, _ bool, requeue bool) error {
	a.record(settlement{tag: tag, requeue: requeue})
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	a.record(settlement{tag: tag, requeue: requeue})
	return nil
}

func (a *fakeAcknowledger) wait(t *testing.T, n int) []settlement {
	t.Helper()
	for range n {
		select {
		case <-a.done:
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for message settlement")
		}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]settlement(nil), a.settled...)
}

type fakeConsumer struct {
	deliveries chan amqp.Delivery
	err        error
	queue      string
}

func (c *fakeConsumer) Consume(queue, _ string, autoAck, _, _, _ bool, _ amqp.Table) (<-chan amqp.Delivery, error) {
	c.queue = queue
	if autoAck {
		return nil, fmt.Errorf("autoAck must be disabled")
	}
	return c.deliveries, c.err
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestConsumerMessage_SettlesByHandlerResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ack := newFakeAcknowledger()
	consumer := &fakeConsumer{deliveries: make(chan amqp.Delivery, 3)}

	handler := func(_ context.Context, body []byte) error {
		switch string(body) {
		case "ok":
			return nil
		case "transient":
			return fmt.Errorf("provider unavailable")
		default:
			return fmt.Errorf("bad body: %w", ErrPermanent)
		}
	}

	_, err := ConsumerMessage(ctx, consumer, MailingListSignupQueue, handler, newNoopLogger())
	require.NoError(t, err)
	assert.Equal(t, MailingListSignupQueue, consumer.queue)

	consumer.deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: []byte("ok")}
	consumer.deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 2, Body: []byte("transient")}
	consumer.deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 3, Body: []byte("garbage")}

	settled := ack.wait(t, 3)
	byTag := map[uint64]settlement{}
	for _, s := range settled {
		byTag[s.tag] = s
	}

	assert.True(t, byTag[1].acked)
	assert.False(t, byTag[2].acked)
	assert.True(t, byTag[2].requeue)
	assert.False(t, byTag[3].acked)
	assert.False(t, byTag[3].requeue)
}

func TestConsumerMessage_ConsumeError(t *testing.T) {
	consumer := &fakeConsumer{err: fmt.Errorf("channel closed")}

	done, err := ConsumerMessage(context.Background(), consumer, "q", func(context.Context, []byte) error { return nil }, newNoopLogger())
	require.Error(t, err)
	assert.Nil(t, done)
	assert.Contains(t, err.Error(), "rabbitmq.ConsumerMessage")
}

func TestConsumerMessage_ClosedDeliveryIsReported(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer := &fakeConsumer{deliveries: make(chan amqp.Delivery)}
	done, err := ConsumerMessage(ctx, consumer, MailingListSignupQueue, func(context.Context, []byte) error { return nil }, newNoopLogger())
	require.NoError(t, err)

	close(consumer.deliveries)

	select {
	case err, ok := <-done:
		require.True(t, ok)
		assert.ErrorIs(t, err, ErrDeliveryClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("closed delivery was not reported")
	}

	_, ok := <-done
	assert.False(t, ok)
}

func TestConsumerMessage_StopsQuietlyOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	consumer := &fakeConsumer{deliveries: make(chan amqp.Delivery)}
	done, err := ConsumerMessage(ctx, consumer, MailingListSignupQueue, func(context.Context, []byte) error { return nil }, newNoopLogger())
	require.NoError(t, err)

	cancel()

	select {
	case err, ok := <-done:
		assert.False(t, ok)
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop on cancel")
	}
}
