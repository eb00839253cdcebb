package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/muhammadsaim216/prime-esports/internal/models"
)

// StreamKeyPrefix starts every generated ingest key.
const StreamKeyPrefix = "prime_"

// NewStreamKey mints an ingest key for a direct stream.
func NewStreamKey() string { return StreamKeyPrefix + uuid.NewString() }

type Streams struct {
	t      Table[models.Stream]
	public Table[models.PublicStream]
}

// Live returns live streams from the public view, which never exposes keys.
func (r *Streams) Live(ctx context.Context) ([]models.PublicStream, error) {
	return r.public.List(ctx, Query{}.Eq("is_live", true).OrderBy("created_at", true))
}

func (r *Streams) All(ctx context.Context) ([]models.Stream, error) {
	return r.t.List(ctx, Query{}.OrderBy("created_at", true))
}

func (r *Streams) CountLive(ctx context.Context) (int64, error) {
	return r.t.Count(ctx, Query{}.Eq("is_live", true))
}

// Create stores a stream. A direct stream gets a fresh key unless one is given.
func (r *Streams) Create(ctx context.Context, values Values) (models.Stream, error) {
	ensureStreamKey(values, nil)
	return r.t.Create(ctx, values)
}

// Update edits a stream. Switching to direct mints a key when the stream has none;
// an existing key is kept.
func (r *Streams) Update(ctx context.Context, id uuid.UUID, expected *time.Time, values Values) (models.Stream, error) {
	current, err := r.t.Get(ctx, id)
	if err != nil {
		return models.Stream{}, err
	}
	ensureStreamKey(values, current.DirectStreamKey)
	return r.t.Update(ctx, id, expected, values)
}

// RegenerateKey replaces a direct stream's key.
func (r *Streams) RegenerateKey(ctx context.Context, id uuid.UUID, expected *time.Time) (models.Stream, error) {
	return r.t.Update(ctx, id, expected, Values{"direct_stream_key": NewStreamKey()})
}

func (r *Streams) SetLive(ctx context.Context, id uuid.UUID, expected *time.Time, live bool) (models.Stream, error) {
	return r.t.Update(ctx, id, expected, Values{"is_live": live})
}

func (r *Streams) Delete(ctx context.Context, id uuid.UUID) error {
	return r.t.Delete(ctx, id)
}

func ensureStreamKey(values Values, existing *string) {
	if key, ok := values["direct_stream_key"].(*string); ok && key != nil && *key != "" {
		return
	}
	if existing != nil && *existing != "" {
		values["direct_stream_key"] = *existing
		return
	}
	if isDirect(values["stream_type"]) {
		values["direct_stream_key"] = NewStreamKey()
	}
}

func isDirect(v any) bool {
	switch t := v.(type) {
	case models.StreamType:
		return t == models.StreamTypeDirect
	case string:
		return t == string(models.StreamTypeDirect)
	}
	return false
}

type Announcements struct {
	t Table[models.Announcement]
}

// Published returns the public feed: published rows, newest first.
func (r *Announcements) Published(ctx context.Context) ([]models.Announcement, error) {
	return r.t.List(ctx, Query{}.Eq("is_published", true).OrderBy("created_at", true))
}

func (r *Announcements) All(ctx context.Context) ([]models.Announcement, error) {
	return r.t.List(ctx, Query{}.OrderBy("created_at", true))
}

func (r *Announcements) Create(ctx context.Context, values Values) (models.Announcement, error) {
	return r.t.Create(ctx, values)
}

func (r *Announcements) Update(ctx context.Context, id uuid.UUID, expected *time.Time, values Values) (models.Announcement, error) {
	return r.t.Update(ctx, id, expected, values)
}

func (r *Announcements) SetPublished(ctx context.Context, id uuid.UUID, expected *time.Time, published bool) (models.Announcement, error) {
	return r.t.Update(ctx, id, expected, Values{"is_published": published})
}

func (r *Announcements) Delete(ctx context.Context, id uuid.UUID) error {
	return r.t.Delete(ctx, id)
}

type News struct {
	t Table[models.NewsItem]
}

// Published returns published items newest first; limit 0 means all.
func (r *News) Published(ctx context.Context, limit int) ([]models.NewsItem, error) {
	return r.t.List(ctx, Query{}.Eq("is_published", true).OrderBy("created_at", true).Take(limit))
}

// GetPublished returns one item, hiding drafts behind ErrNotFound.
func (r *News) GetPublished(ctx context.Context, id uuid.UUID) (models.NewsItem, error) {
	return r.t.First(ctx, ByID(id).Eq("is_published", true))
}

func (r *News) All(ctx context.Context) ([]models.NewsItem, error) {
	return r.t.List(ctx, Query{}.OrderBy("created_at", true))
}

func (r *News) Create(ctx context.Context, values Values) (models.NewsItem, error) {
	return r.t.Create(ctx, values)
}

func (r *News) Update(ctx context.Context, id uuid.UUID, expected *time.Time, values Values) (models.NewsItem, error) {
	return r.t.Update(ctx, id, expected, values)
}

func (r *News) SetPublished(ctx context.Context, id uuid.UUID, expected *time.Time, published bool) (models.NewsItem, error) {
	return r.t.Update(ctx, id, expected, Values{"is_published": published})
}

func (r *News) Delete(ctx context.Context, id uuid.UUID) error {
	return r.t.Delete(ctx, id)
}

type Contact struct {
	t Table[models.ContactMessage]
}

func (r *Contact) Create(ctx context.Context, values Values) (models.ContactMessage, error) {
	return r.t.Create(ctx, values)
}

func (r *Contact) List(ctx context.Context) ([]models.ContactMessage, error) {
	return r.t.List(ctx, Query{}.OrderBy("created_at", true))
}
