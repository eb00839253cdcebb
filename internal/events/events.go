// Package events publishes domain notifications (an application was submitted,
// a role changed, ...) for downstream consumers such as a Discord bot or the
// staff mailer. Publishing is best effort: Notifier logs failures and never
// hands them back to the request that caused the event.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Type names a domain event.
type Type string

const (
	ScrimApplicationSubmitted   Type = "scrim_application.submitted"
	ApplicationStatusChanged    Type = "application.status_changed"
	TeamApplicationSubmitted    Type = "team_application.submitted"
	TeamApplicationStatusChange Type = "team_application.status_changed"
	TryoutApplicationSubmitted  Type = "tryout_application.submitted"
	RegistrationSubmitted       Type = "registration.submitted"
	ContactSubmitted            Type = "contact.submitted"
	AnnouncementPublished       Type = "announcement.published"
	RoleChanged                 Type = "role.changed"
)

// Event is one notification. Subject is the record the event is about and is
// used as the partition key.
type Event struct {
	ID         uuid.UUID      `json:"id"`
	Type       Type           `json:"type"`
	Subject    uuid.UUID      `json:"subject"`
	ActorID    *uuid.UUID     `json:"actor_id,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// New stamps an event with a fresh id and the current time. actor may be
// uuid.Nil for anonymous submissions.
func New(t Type, subject, actor uuid.UUID, data map[string]any) Event {
	ev := Event{
		ID:         uuid.New(),
		Type:       t,
		Subject:    subject,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
	if actor != uuid.Nil {
		ev.ActorID = &actor
	}
	return ev
}

// Publisher delivers events somewhere.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// LogPublisher writes events to the log. Used when no brokers are configured.
type LogPublisher struct {
	log *logrus.Logger
}

func NewLogPublisher(log *logrus.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, ev Event) error {
	p.log.WithFields(logrus.Fields{
		"event_id": ev.ID,
		"type":     ev.Type,
		"subject":  ev.Subject,
	}).Info("domain event")
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// Notifier is what handlers hold. It detaches publishing from the request's
// cancellation and bounds it with its own timeout.
type Notifier struct {
	pub     Publisher
	log     *logrus.Logger
	timeout time.Duration
}

func NewNotifier(pub Publisher, log *logrus.Logger) *Notifier {
	return &Notifier{pub: pub, log: log, timeout: 5 * time.Second}
}

// Notify publishes ev and logs any failure.
func (n *Notifier) Notify(ctx context.Context, ev Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()
	if err := n.pub.Publish(ctx, ev); err != nil {
		n.log.WithError(err).WithFields(logrus.Fields{
			"event_id": ev.ID,
			"type":     ev.Type,
		}).Error("failed to publish domain event")
	}
}
