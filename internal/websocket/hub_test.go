package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub()
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return h
}

func recv(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case b, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		return b
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
	}
	return nil
}

func TestPublishReachesOnlyTopic(t *testing.T) {
	h := runHub(t)
	a, b := NewClient("announcements"), NewClient("announcements")
	other := NewClient("scrims")
	h.Register(a)
	h.Register(b)
	h.Register(other)

	h.Publish("announcements", []byte("hello"))
	assert.Equal(t, "hello", string(recv(t, a)))
	assert.Equal(t, "hello", string(recv(t, b)))

	select {
	case <-other.Send:
		t.Fatal("frame leaked to another topic")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, 2, h.Count("announcements"))
}

func TestUnregisterClosesSend(t *testing.T) {
	h := runHub(t)
	c := NewClient("announcements")
	h.Register(c)
	h.Unregister(c)

	_, ok := <-c.Send
	assert.False(t, ok)
	assert.Zero(t, h.Count("announcements"))

	// A second unregister is harmless.
	h.Unregister(c)
}

func TestSlowClientIsDropped(t *testing.T) {
	h := runHub(t)
	// A full buffer: the next frame cannot be queued.
	slow := &Client{Topic: "announcements", Send: make(chan []byte, 1)}
	slow.Send <- []byte("backlog")
	fast := NewClient("announcements")
	h.Register(slow)
	h.Register(fast)

	h.Publish("announcements", []byte("x"))
	assert.Equal(t, "x", string(recv(t, fast)))
	require.Eventually(t, func() bool { return h.Count("announcements") == 1 }, 2*time.Second, 5*time.Millisecond)

	var got []string
	for b := range slow.Send {
		got = append(got, string(b))
	}
	assert.Equal(t, []string{"backlog"}, got)
}

func TestRegisterAfterShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub()
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	c := NewClient("announcements")
	h.Register(c)
	_, ok := <-c.Send
	assert.False(t, ok)
	h.Publish("announcements", []byte("dropped"))
}
