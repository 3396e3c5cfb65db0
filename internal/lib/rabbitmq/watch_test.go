package rabbitmq

import (
	"context"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitClosed(t *testing.T, w *Watcher) {
	t.Helper()
	select {
	case <-w.Closed():
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not observe closed connection")
	}
}

func TestWatcher(t *testing.T) {
	t.Run("open connection is ready", func(t *testing.T) {
		notify := make(chan *amqp.Error, 1)
		w := Watch(notify, newNoopLogger())

		require.NoError(t, w.CheckBrokerReady(context.Background()))
		assert.NoError(t, w.Err())
	})

	t.Run("server error closes watcher", func(t *testing.T) {
		notify := make(chan *amqp.Error, 1)
		w := Watch(notify, newNoopLogger())

		notify <- &amqp.Error{Code: amqp.ConnectionForced, Reason: "CONNECTION_FORCED", Server: true}
		waitClosed(t, w)

		err := w.CheckBrokerReady(context.Background())
		require.ErrorIs(t, err, ErrConnectionClosed)
		assert.Contains(t, err.Error(), "CONNECTION_FORCED")
	})

	t.Run("closed notify channel closes watcher", func(t *testing.T) {
		notify := make(chan *amqp.Error)
		w := Watch(notify, newNoopLogger())

		close(notify)
		waitClosed(t, w)

		assert.ErrorIs(t, w.Err(), ErrConnectionClosed)
	})
}
