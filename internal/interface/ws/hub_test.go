package ws

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func newAttachedClient(t *testing.T, hub *Hub) *Client {
	t.Helper()
	client := NewClient(hub, nil, testLogger())
	hub.Register(client)
	require.Eventually(t, func() bool {
		return hub.SubscriberCount() > 0
	}, time.Second, 5*time.Millisecond)
	return client
}

func TestHubRegisterAndUnregister(t *testing.T) {
	hub := startHub(t)

	client := newAttachedClient(t, hub)
	require.Equal(t, 1, hub.SubscriberCount())

	hub.unregister <- client
	require.Eventually(t, func() bool {
		return hub.SubscriberCount() == 0
	}, time.Second, 5*time.Millisecond)

	// Channel is closed on unregister so WritePump terminates.
	select {
	case _, ok := <-client.send:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}
}

func TestHubBroadcastReachesSubscribers(t *testing.T) {
	hub := startHub(t)

	client := newAttachedClient(t, hub)
	hub.Broadcast([]byte(`{"mmsi":"563001"}`))

	select {
	case message := <-client.send:
		require.JSONEq(t, `{"mmsi":"563001"}`, string(message))
	case <-time.After(time.Second):
		t.Fatal("broadcast not delivered")
	}
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	hub := startHub(t)

	newAttachedClient(t, hub)

	// Nothing drains the send channel; once the buffer is full the hub must
	// evict the subscriber instead of blocking the broadcast loop.
	for i := 0; i < sendBufferSize+16; i++ {
		hub.Broadcast([]byte("snapshot"))
	}

	require.Eventually(t, func() bool {
		return hub.SubscriberCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHubShutdownClosesSubscribers(t *testing.T) {
	hub := NewHub(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	client := newAttachedClient(t, hub)
	cancel()

	// The send channel closing is what terminates the client's write pump.
	select {
	case _, ok := <-client.send:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel not closed on shutdown")
	}
	require.Eventually(t, func() bool {
		return hub.SubscriberCount() == 0
	}, time.Second, 5*time.Millisecond)
}
