package baas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// ChangeType is the kind of row change delivered by the feed.
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// ChangeEvent is one row change. Record is the new row (empty on delete);
// OldRecord holds at least the primary key on update and delete.
type ChangeEvent struct {
	Type            ChangeType      `json:"type"`
	Schema          string          `json:"schema"`
	Table           string          `json:"table"`
	CommitTimestamp string          `json:"commit_timestamp"`
	Record          json.RawMessage `json:"record"`
	OldRecord       json.RawMessage `json:"old_record"`
}

// Channel describes a table subscription.
type Channel struct {
	Table string
	// OnJoined runs after every successful join, including rejoins after a
	// reconnect. Changes made while disconnected are not replayed, so this is
	// where a consumer refetches.
	OnJoined func()
	OnChange func(ChangeEvent)
}

// phxMessage is the envelope of the realtime socket protocol.
type phxMessage struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     *string         `json:"ref"`
}

type joinReply struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
}

type changePayload struct {
	Data ChangeEvent `json:"data"`
}

// Subscribe follows row changes on ch.Table until ctx is cancelled. Dropped
// connections are redialed after a fixed backoff. It returns ctx.Err().
func (c *Client) Subscribe(ctx context.Context, ch Channel) error {
	log := c.log.WithField("table", ch.Table)
	for {
		err := c.listen(ctx, ch)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).Warn("realtime connection lost, reconnecting")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.backoff):
		}
	}
}

func (c *Client) realtimeURL() (string, error) {
	u, err := url.Parse(c.opts.URL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/realtime/v1/websocket"
	q := url.Values{}
	q.Set("apikey", c.opts.AnonKey)
	q.Set("vsn", "1.0.0")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// listen runs one connection: dial, join, then read until the socket fails.
func (c *Client) listen(ctx context.Context, ch Channel) error {
	endpoint, err := c.realtimeURL()
	if err != nil {
		return fmt.Errorf("realtime url: %w", err)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("realtime dial: %w", err)
	}

	sock := &socket{conn: conn}
	defer sock.close()

	// Unblock the read loop when the caller goes away.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			sock.close()
		case <-done:
		}
	}()

	topic := "realtime:" + ch.Table
	joinRef := sock.nextRef()
	join := map[string]any{
		"config": map[string]any{
			"broadcast": map[string]any{"self": false},
			"presence":  map[string]any{"key": ""},
			"postgres_changes": []map[string]string{
				{"event": "*", "schema": "public", "table": ch.Table},
			},
		},
		"access_token": c.bearer(ctx),
	}
	if err := sock.send(topic, "phx_join", join, joinRef); err != nil {
		return fmt.Errorf("realtime join: %w", err)
	}

	go sock.heartbeat(done, c.heartbeat, c.log)

	for {
		var msg phxMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("realtime read: %w", err)
		}

		switch msg.Event {
		case "phx_reply":
			if msg.Ref == nil || *msg.Ref != joinRef {
				continue
			}
			var reply joinReply
			if err := json.Unmarshal(msg.Payload, &reply); err != nil {
				return fmt.Errorf("realtime join reply: %w", err)
			}
			if reply.Status != "ok" {
				return fmt.Errorf("realtime join refused: %s", string(reply.Response))
			}
			c.log.WithField("topic", topic).Debug("realtime channel joined")
			if ch.OnJoined != nil {
				ch.OnJoined()
			}

		case "postgres_changes":
			var payload changePayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				c.log.WithError(err).Warn("realtime: undecodable change payload")
				continue
			}
			if ch.OnChange != nil && payload.Data.Table == ch.Table {
				ch.OnChange(payload.Data)
			}

		case "phx_error", "phx_close":
			if msg.Topic == topic {
				return errors.New("realtime channel closed by server: " + msg.Event)
			}
		}
	}
}

// socket serializes writes; gorilla connections allow one concurrent writer.
type socket struct {
	conn *websocket.Conn
	mu   sync.Mutex
	ref  int
	once sync.Once
}

func (s *socket) nextRef() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ref++
	return strconv.Itoa(s.ref)
}

func (s *socket) send(topic, event string, payload any, ref string) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(phxMessage{Topic: topic, Event: event, Payload: raw, Ref: &ref})
}

func (s *socket) heartbeat(done <-chan struct{}, every time.Duration, log *logrus.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := s.send("phoenix", "heartbeat", struct{}{}, s.nextRef()); err != nil {
				log.WithError(err).Debug("realtime heartbeat failed")
				return
			}
		}
	}
}

func (s *socket) close() {
	s.once.Do(func() { _ = s.conn.Close() })
}
