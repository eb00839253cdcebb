package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muhammadsaim216/prime-esports/internal/baas"
	"github.com/muhammadsaim216/prime-esports/internal/logging"
	"github.com/muhammadsaim216/prime-esports/internal/models"
	"github.com/muhammadsaim216/prime-esports/internal/store"
	"github.com/muhammadsaim216/prime-esports/internal/store/storetest"
)

// broadcaster stands in for the change feed: every subscriber joins at once
// and receives every pushed event.
type broadcaster struct {
	mu     sync.Mutex
	subs   []baas.Channel
	joined chan struct{}
}

func newBroadcaster() *broadcaster {
	return &broadcaster{joined: make(chan struct{}, 16)}
}

func (b *broadcaster) Subscribe(ctx context.Context, ch baas.Channel) error {
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	ch.OnJoined()
	b.joined <- struct{}{}
	<-ctx.Done()
	return ctx.Err()
}

func (b *broadcaster) push(t *testing.T, kind baas.ChangeType, rec any) {
	t.Helper()
	raw, err := json.Marshal(rec)
	require.NoError(t, err)
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		ch.OnChange(baas.ChangeEvent{Type: kind, Schema: "public", Table: ch.Table, Record: raw, OldRecord: raw})
	}
}

func (b *broadcaster) waitJoined(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-b.joined:
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d of %d subscribers joined", i, n)
		}
	}
}

type countingRecorder struct {
	mu sync.Mutex
	n  map[baas.ChangeType]int
}

func (r *countingRecorder) EventApplied(_ string, kind baas.ChangeType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.n[kind]++
}

func TestFeedsConvergeOnPublish(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := store.New(storetest.NewMemory())
	_, err := s.Announcements.Create(ctx, store.Values{"title": "Welcome", "content": "Season 3 starts soon", "is_published": true})
	require.NoError(t, err)
	draft, err := s.Announcements.Create(ctx, store.Values{"title": "Maintenance", "content": "Servers down Sunday", "is_published": false})
	require.NoError(t, err)

	feedSrc := newBroadcaster()
	rec := &countingRecorder{n: map[baas.ChangeType]int{}}
	var feeds []*Feed[models.Announcement]
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		f := NewFeed(store.TableAnnouncements, s.Announcements.Published, feedSrc, logging.Discard()).WithRecorder(rec)
		feeds = append(feeds, f)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.Run(ctx)
		}()
	}
	feedSrc.waitJoined(t, 3)

	for _, f := range feeds {
		require.Len(t, f.Items(), 1)
	}

	// The admin publishes the draft.
	published, err := s.Announcements.SetPublished(ctx, draft.ID, &draft.UpdatedAt, true)
	require.NoError(t, err)
	feedSrc.push(t, baas.ChangeUpdate, published)

	for i, f := range feeds {
		items := f.Items()
		require.Len(t, items, 2, "feed %d", i)
		assert.Equal(t, "Maintenance", items[0].Title, "feed %d", i)
		assert.True(t, items[0].IsPublished)
		assert.Equal(t, "Welcome", items[1].Title)
	}
	assert.Equal(t, 3, rec.n[baas.ChangeUpdate])

	cancel()
	wg.Wait()
}

func TestFeedListenersSeeEveryUpdate(t *testing.T) {
	ctx := context.Background()
	rows := []models.Announcement{announcement("Welcome", true, 0)}
	f := NewFeed(store.TableAnnouncements, func(context.Context) ([]models.Announcement, error) {
		return rows, nil
	}, newBroadcaster(), logging.Discard())

	var got []Update[models.Announcement]
	stop := f.Listen(func(u Update[models.Announcement]) { got = append(got, u) })

	require.NoError(t, f.Refetch(ctx))
	next := announcement("Patch notes", true, 1)
	raw, err := json.Marshal(next)
	require.NoError(t, err)
	f.Apply(baas.ChangeEvent{Type: baas.ChangeInsert, Table: store.TableAnnouncements, Record: raw})

	// Garbage is dropped without notifying.
	f.Apply(baas.ChangeEvent{Type: baas.ChangeInsert, Record: json.RawMessage(`{"id":42}`)})

	stop()
	f.Apply(baas.ChangeEvent{Type: baas.ChangeDelete, OldRecord: raw})

	require.Len(t, got, 2)
	assert.Nil(t, got[0].Change)
	assert.Len(t, got[0].Items, 1)
	require.NotNil(t, got[1].Change)
	assert.Equal(t, baas.ChangeInsert, got[1].Change.Type)
	assert.Equal(t, "Patch notes", got[1].Items[0].Title)

	assert.Len(t, f.Items(), 1)
}
