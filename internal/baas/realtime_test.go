package baas

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRealtime accepts one join on the announcements channel, acknowledges it and
// then pushes the given change payloads.
func fakeRealtime(t *testing.T, changes ...string) http.HandlerFunc {
	upgrader := websocket.Upgrader{}
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/realtime/v1/websocket", r.URL.Path)
		assert.Equal(t, "anon-key", r.URL.Query().Get("apikey"))

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		var join phxMessage
		if err := conn.ReadJSON(&join); err != nil {
			t.Errorf("read join: %v", err)
			return
		}
		assert.Equal(t, "realtime:announcements", join.Topic)
		assert.Equal(t, "phx_join", join.Event)

		reply := phxMessage{Topic: join.Topic, Event: "phx_reply", Payload: json.RawMessage(`{"status":"ok","response":{}}`), Ref: join.Ref}
		if err := conn.WriteJSON(reply); err != nil {
			return
		}
		for _, c := range changes {
			msg := phxMessage{Topic: join.Topic, Event: "postgres_changes", Payload: json.RawMessage(c)}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
		// Hold the socket open until the client leaves.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}

func TestSubscribeDeliversChanges(t *testing.T) {
	c := newTestClient(t, Options{}, fakeRealtime(t,
		`{"ids":[1],"data":{"type":"INSERT","schema":"public","table":"announcements","record":{"id":"a1","is_published":true},"old_record":null}}`,
		`{"ids":[2],"data":{"type":"DELETE","schema":"public","table":"announcements","record":null,"old_record":{"id":"a1"}}}`,
	))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	joined := make(chan struct{}, 1)
	events := make(chan ChangeEvent, 2)
	go func() {
		_ = c.Subscribe(ctx, Channel{
			Table:    "announcements",
			OnJoined: func() { joined <- struct{}{} },
			OnChange: func(e ChangeEvent) { events <- e },
		})
	}()

	select {
	case <-joined:
	case <-ctx.Done():
		t.Fatal("channel was never joined")
	}

	var got []ChangeEvent
	for len(got) < 2 {
		select {
		case e := <-events:
			got = append(got, e)
		case <-ctx.Done():
			t.Fatalf("received %d of 2 events", len(got))
		}
	}

	assert.Equal(t, ChangeInsert, got[0].Type)
	assert.JSONEq(t, `{"id":"a1","is_published":true}`, string(got[0].Record))
	assert.Equal(t, ChangeDelete, got[1].Type)
	assert.JSONEq(t, `{"id":"a1"}`, string(got[1].OldRecord))
}

func TestSubscribeStopsOnCancel(t *testing.T) {
	c := newTestClient(t, Options{}, fakeRealtime(t))
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() {
		errc <- c.Subscribe(ctx, Channel{Table: "announcements"})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Subscribe did not return after cancel")
	}
}
