package handlers

// socket.go: GET /ws, the dashboard's live connection. One socket carries two
// streams to the browser:
//
//   - "session" frames: the connection's session state (loading/ready, role,
//     admin flag, username) as a session.Manager publishes it
//   - "announcements" frames: the reconciled announcement list, first as a
//     snapshot and then after every change the feed applies
//
// The browser reports its own auth transitions back over the same socket
// ({"type":"SIGNED_IN","access_token":...}), which keeps the server-side
// session in step without reconnecting.

import (
	"context"
	"encoding/json"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/muhammadsaim216/prime-esports/internal/baas"
	"github.com/muhammadsaim216/prime-esports/internal/middleware"
	"github.com/muhammadsaim216/prime-esports/internal/session"
	wshub "github.com/muhammadsaim216/prime-esports/internal/websocket"
)

// AnnouncementsTopic is the hub topic announcement updates are published on.
const AnnouncementsTopic = "announcements"

// Frame is one server-to-client message.
type Frame struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// clientMessage is what the browser sends: an auth transition and, for
// SIGNED_IN and TOKEN_REFRESHED, the new tokens.
type clientMessage struct {
	Type         session.EventType `json:"type"`
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
}

// SocketObserver counts open sockets. Implemented by *metrics.Metrics.
type SocketObserver interface {
	SocketOpened()
	SocketClosed()
}

// EncodeFrame marshals a frame for the hub.
func EncodeFrame(typ string, data any) ([]byte, error) {
	return json.Marshal(Frame{Type: typ, Data: data})
}

// RequireUpgrade rejects plain HTTP requests to the socket route.
func RequireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Socket serves the dashboard connection. It runs behind OptionalAuth, so the
// session starts signed in when the upgrade request carried a valid token.
func Socket(auth AuthService, resolver session.IdentityResolver, feed AnnouncementSource, hub *wshub.Hub, sockets SocketObserver, log *logrus.Logger) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		sockets.SocketOpened()
		defer sockets.SocketClosed()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		mgr := session.NewManager(auth, resolver, log)
		defer mgr.Close()
		states, unsubscribe := mgr.Subscribe()
		defer unsubscribe()

		client := wshub.NewClient(AnnouncementsTopic)
		hub.Register(client)
		defer hub.Unregister(client)

		entry := log.WithField("remote", conn.RemoteAddr().String())
		replies := make(chan Frame, 4)
		authEvents := make(chan session.AuthEvent, 8)

		// Auth events run one at a time, in the order the browser sent them.
		go func() {
			initial := initialSession(conn)
			mgr.Start(sessionContext(ctx, initial), initial)
			for ev := range authEvents {
				mgr.Handle(sessionContext(ctx, ev.Session), ev)
			}
		}()

		// Reader: the only sender on authEvents, so it closes it.
		go func() {
			defer cancel()
			defer close(authEvents)
			for {
				_, raw, err := conn.ReadMessage()
				if err != nil {
					return
				}
				ev, err := parseClientMessage(ctx, auth, raw)
				if err != nil {
					entry.WithError(err).Debug("rejected socket message")
					select {
					case replies <- Frame{Type: "error", Data: err.Error()}:
					case <-ctx.Done():
						return
					}
					continue
				}
				select {
				case authEvents <- ev:
				case <-ctx.Done():
					return
				}
			}
		}()

		if err := conn.WriteJSON(Frame{Type: "announcements", Data: fiber.Map{"items": feed.Items()}}); err != nil {
			return
		}

		// Writer: this goroutine owns the connection's write side.
		for {
			select {
			case <-ctx.Done():
				return
			case st, ok := <-states:
				if !ok {
					return
				}
				if err := conn.WriteJSON(Frame{Type: "session", Data: st}); err != nil {
					return
				}
			case msg, ok := <-client.Send:
				if !ok {
					// The hub shut down or dropped us as too slow.
					return
				}
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			case f := <-replies:
				if err := conn.WriteJSON(f); err != nil {
					return
				}
			}
		}
	})
}

// initialSession rebuilds the session the upgrade request authenticated with.
func initialSession(conn *websocket.Conn) *baas.Session {
	user, _ := conn.Locals(middleware.LocalUser).(*baas.User)
	token, _ := conn.Locals(middleware.LocalAccessToken).(string)
	if user == nil || token == "" {
		return nil
	}
	return &baas.Session{AccessToken: token, TokenType: "bearer", User: user}
}

// sessionContext scopes data lookups to the session's own token.
func sessionContext(ctx context.Context, sess *baas.Session) context.Context {
	if sess == nil {
		return ctx
	}
	return baas.WithAccessToken(ctx, sess.AccessToken)
}

func parseClientMessage(ctx context.Context, auth AuthService, raw []byte) (session.AuthEvent, error) {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return session.AuthEvent{}, fiber.NewError(fiber.StatusBadRequest, "invalid message")
	}
	switch msg.Type {
	case session.EventSignedIn, session.EventTokenRefreshed:
		user, err := auth.VerifyToken(ctx, msg.AccessToken)
		if err != nil {
			return session.AuthEvent{}, err
		}
		return session.AuthEvent{Type: msg.Type, Session: &baas.Session{
			AccessToken:  msg.AccessToken,
			RefreshToken: msg.RefreshToken,
			TokenType:    "bearer",
			User:         user,
		}}, nil
	default:
		// SIGNED_OUT needs no tokens; anything else is ignored by the manager.
		return session.AuthEvent{Type: msg.Type}, nil
	}
}
