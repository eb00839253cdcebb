package realtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/muhammadsaim216/prime-esports/internal/baas"
)

// Subscriber follows a table's change feed. Implemented by *baas.Client.
type Subscriber interface {
	Subscribe(ctx context.Context, ch baas.Channel) error
}

// Recorder counts applied events. Implemented by *metrics.Metrics.
type Recorder interface {
	EventApplied(table string, kind baas.ChangeType)
}

// Update is what listeners receive: the list after the change. Change is nil
// when the whole list was refetched.
type Update[T Record] struct {
	Change *Change[T] `json:"change,omitempty"`
	Items  []T        `json:"items"`
}

// Feed owns the reconciled list for one table.
type Feed[T Record] struct {
	table string
	fetch func(ctx context.Context) ([]T, error)
	sub   Subscriber
	log   *logrus.Entry
	rec   Recorder

	mu        sync.Mutex
	list      List[T]
	listeners map[int]func(Update[T])
	nextID    int
}

// NewFeed builds a feed over table. fetch must return the visible rows newest
// first.
func NewFeed[T Record](table string, fetch func(ctx context.Context) ([]T, error), sub Subscriber, log *logrus.Logger) *Feed[T] {
	return &Feed[T]{
		table:     table,
		fetch:     fetch,
		sub:       sub,
		log:       log.WithField("feed", table),
		listeners: make(map[int]func(Update[T])),
	}
}

// WithRecorder counts every applied change on r.
func (f *Feed[T]) WithRecorder(r Recorder) *Feed[T] {
	f.rec = r
	return f
}

// Items returns the current list.
func (f *Feed[T]) Items() []T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.list.Items()
}

// Listen registers fn for every update. fn runs with the feed locked, so it
// must not block or call back into the feed. The returned func removes it.
func (f *Feed[T]) Listen(fn func(Update[T])) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners, id)
	}
}

// Refetch replaces the list with a fresh read.
func (f *Feed[T]) Refetch(ctx context.Context) error {
	rows, err := f.fetch(ctx)
	if err != nil {
		return fmt.Errorf("refetch %s: %w", f.table, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.list = NewList(rows)
	f.notifyLocked(Update[T]{Items: f.list.Items()})
	return nil
}

// Apply decodes ev and applies it. Undecodable events are logged and dropped.
func (f *Feed[T]) Apply(ev baas.ChangeEvent) {
	ch, err := Decode[T](ev)
	if err != nil {
		f.log.WithError(err).Warn("dropping change event")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.list = f.list.Apply(ch)
	f.notifyLocked(Update[T]{Change: &ch, Items: f.list.Items()})
	if f.rec != nil {
		f.rec.EventApplied(f.table, ch.Type)
	}
}

func (f *Feed[T]) notifyLocked(u Update[T]) {
	for _, fn := range f.listeners {
		fn(u)
	}
}

// Run loads the list and follows the change feed until ctx is cancelled. Every
// (re)join triggers a refetch so changes missed while disconnected are picked
// up. It returns ctx.Err() on shutdown.
func (f *Feed[T]) Run(ctx context.Context) error {
	if err := f.Refetch(ctx); err != nil {
		// The first join refetches again; start empty rather than not at all.
		f.log.WithError(err).Warn("initial load failed")
	}
	return f.sub.Subscribe(ctx, baas.Channel{
		Table: f.table,
		OnJoined: func() {
			if err := f.Refetch(ctx); err != nil {
				f.log.WithError(err).Warn("refetch after join failed")
			}
		},
		OnChange: f.Apply,
	})
}
