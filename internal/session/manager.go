package session

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/muhammadsaim216/prime-esports/internal/baas"
	"github.com/muhammadsaim216/prime-esports/internal/models"
)

// Phase is where a Manager is in its bootstrap.
type Phase string

const (
	PhaseUninitialized Phase = "uninitialized"
	PhaseLoading       Phase = "loading"
	PhaseReady         Phase = "ready"
)

// State is what the client reads: who is signed in, whether they are an admin,
// their display name, and whether that answer is still being worked out.
type State struct {
	Phase    Phase       `json:"phase"`
	User     *baas.User  `json:"user"`
	Role     models.Role `json:"role"`
	IsAdmin  bool        `json:"is_admin"`
	Username *string     `json:"username"`
}

func (s State) Loading() bool { return s.Phase != PhaseReady }

// EventType names an auth transition reported by the auth service.
type EventType string

const (
	EventInitialSession EventType = "INITIAL_SESSION"
	EventSignedIn       EventType = "SIGNED_IN"
	EventSignedOut      EventType = "SIGNED_OUT"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
	EventUserUpdated    EventType = "USER_UPDATED"
)

// AuthEvent is one auth transition. Session is nil for SIGNED_OUT.
type AuthEvent struct {
	Type    EventType     `json:"type"`
	Session *baas.Session `json:"session,omitempty"`
}

// Authenticator is the part of the auth service a Manager drives.
type Authenticator interface {
	SignInWithPassword(ctx context.Context, email, password string) (*baas.Session, error)
	SignUp(ctx context.Context, email, password string, meta baas.SignUpMetadata) (*baas.Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// IdentityResolver is satisfied by *Resolver.
type IdentityResolver interface {
	Resolve(ctx context.Context, user *baas.User) Identity
}

// Manager owns the session state of one client. Create it with NewManager,
// feed it the initial session with Start, then auth events with Handle, and
// release it with Close.
//
// Every trigger bumps a generation counter. A resolution that finishes after a
// newer trigger has started is dropped, so a slow lookup for a user who has
// since signed out can never be published.
type Manager struct {
	auth     Authenticator
	resolver IdentityResolver
	log      *logrus.Logger

	mu      sync.Mutex
	state   State
	session *baas.Session
	gen     uint64
	subs    map[int]chan State
	nextSub int
	closed  bool
}

func NewManager(auth Authenticator, resolver IdentityResolver, log *logrus.Logger) *Manager {
	return &Manager{
		auth:     auth,
		resolver: resolver,
		log:      log,
		state:    State{Phase: PhaseUninitialized, Role: models.RoleUser},
		subs:     make(map[int]chan State),
	}
}

// Start runs the initial session check. initial may be nil for an anonymous
// client.
func (m *Manager) Start(ctx context.Context, initial *baas.Session) {
	m.Handle(ctx, AuthEvent{Type: EventInitialSession, Session: initial})
}

// Handle applies one auth event and returns once its outcome is published or
// superseded. Events other than the initial session, SIGNED_IN, SIGNED_OUT
// and TOKEN_REFRESHED are ignored.
func (m *Manager) Handle(ctx context.Context, ev AuthEvent) {
	switch ev.Type {
	case EventInitialSession, EventSignedIn, EventTokenRefreshed:
		m.apply(ctx, ev.Session)
	case EventSignedOut:
		m.apply(ctx, nil)
	default:
		m.log.WithField("event", ev.Type).Debug("ignoring auth event")
	}
}

func (m *Manager) apply(ctx context.Context, sess *baas.Session) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.gen++
	gen := m.gen
	m.session = sess

	if sess == nil || sess.User == nil {
		m.setLocked(State{Phase: PhaseReady, Role: models.RoleUser})
		m.mu.Unlock()
		return
	}

	user := sess.User
	loading := State{Phase: PhaseLoading, User: user, Role: models.RoleUser}
	// Same account (token refresh, re-sign-in): keep showing what we know so
	// admin UI does not drop out while the lookups rerun.
	if prev := m.state.User; prev != nil && prev.ID == user.ID {
		loading.Role = m.state.Role
		loading.IsAdmin = m.state.IsAdmin
		loading.Username = m.state.Username
	}
	m.setLocked(loading)
	m.mu.Unlock()

	id := m.resolver.Resolve(ctx, user)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || gen != m.gen {
		return
	}
	m.setLocked(State{
		Phase:    PhaseReady,
		User:     user,
		Role:     id.Role,
		IsAdmin:  id.IsAdmin,
		Username: id.Username,
	})
}

// setLocked publishes s to every subscriber. A slow subscriber loses its
// oldest pending state rather than blocking the manager.
func (m *Manager) setLocked(s State) {
	m.state = s
	for _, ch := range m.subs {
		select {
		case ch <- s:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- s
		}
	}
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Session returns the session the current state was built from, or nil.
func (m *Manager) Session() *baas.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Subscribe returns a channel that receives the current state and every state
// published after it. The returned func unsubscribes and closes the channel.
func (m *Manager) Subscribe() (<-chan State, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan State, 16)
	if m.closed {
		close(ch)
		return ch, func() {}
	}
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	ch <- m.state

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if _, ok := m.subs[id]; ok {
				delete(m.subs, id)
				close(ch)
			}
		})
	}
}

// SignIn signs in with a password. Errors go back to the caller and leave the
// state untouched; success is fed through Handle as SIGNED_IN.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*baas.Session, error) {
	sess, err := m.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	m.Handle(ctx, AuthEvent{Type: EventSignedIn, Session: sess})
	return sess, nil
}

// SignUp registers an account. When the project requires email confirmation
// no tokens come back and the state does not change.
func (m *Manager) SignUp(ctx context.Context, email, password string, meta baas.SignUpMetadata) (*baas.Session, error) {
	sess, err := m.auth.SignUp(ctx, email, password, meta)
	if err != nil {
		return nil, err
	}
	if sess.AccessToken != "" {
		m.Handle(ctx, AuthEvent{Type: EventSignedIn, Session: sess})
	}
	return sess, nil
}

// SignOut revokes the current session and publishes the signed-out state.
func (m *Manager) SignOut(ctx context.Context) error {
	if sess := m.Session(); sess != nil && sess.AccessToken != "" {
		if err := m.auth.SignOut(ctx, sess.AccessToken); err != nil {
			return err
		}
	}
	m.Handle(ctx, AuthEvent{Type: EventSignedOut})
	return nil
}

// Close drops any in-flight resolution and closes every subscriber channel.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.gen++
	for id, ch := range m.subs {
		delete(m.subs, id)
		close(ch)
	}
}
