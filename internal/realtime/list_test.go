package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muhammadsaim216/prime-esports/internal/baas"
	"github.com/muhammadsaim216/prime-esports/internal/models"
)

var epoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func announcement(title string, published bool, age int) models.Announcement {
	at := epoch.Add(time.Duration(age) * time.Minute)
	return models.Announcement{
		ID:          uuid.New(),
		Title:       title,
		Content:     title + " details",
		IsPublished: published,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
}

func insert(a models.Announcement) Change[models.Announcement] {
	return Change[models.Announcement]{Type: baas.ChangeInsert, Record: a, OldKey: a.ID}
}

func update(a models.Announcement) Change[models.Announcement] {
	return Change[models.Announcement]{Type: baas.ChangeUpdate, Record: a, OldKey: a.ID}
}

func titles(l List[models.Announcement]) []string {
	var out []string
	for _, a := range l.Items() {
		out = append(out, a.Title)
	}
	return out
}

func TestInsertIsIdempotent(t *testing.T) {
	a := announcement("Roster reveal", true, 0)
	l := NewList[models.Announcement](nil).Apply(insert(a)).Apply(insert(a))
	assert.Equal(t, []string{"Roster reveal"}, titles(l))

	// A redelivered insert carrying newer content replaces, never duplicates.
	a.Title = "Roster reveal (updated)"
	l = l.Apply(insert(a))
	assert.Equal(t, []string{"Roster reveal (updated)"}, titles(l))
}

func TestInsertUnpublishedIsIgnored(t *testing.T) {
	l := NewList[models.Announcement](nil).Apply(insert(announcement("Draft", false, 0)))
	assert.Zero(t, l.Len())
}

func TestInsertOrderIsNewestFirst(t *testing.T) {
	l := NewList[models.Announcement](nil)
	for i, title := range []string{"one", "two", "three", "four", "five"} {
		l = l.Apply(insert(announcement(title, true, i)))
	}
	assert.Equal(t, []string{"five", "four", "three", "two", "one"}, titles(l))

	items := l.Items()
	for i := 1; i < len(items); i++ {
		assert.True(t, items[i-1].CreatedAt.After(items[i].CreatedAt))
	}
}

func TestUpdatePublishTransitions(t *testing.T) {
	old := announcement("Old news", true, 0)
	y := announcement("Y", true, 1)
	l := NewList([]models.Announcement{y, old})

	// X was unpublished, so it is not listed; publishing it puts one copy on top.
	x := announcement("X", false, 2)
	l = l.Apply(update(x))
	assert.Equal(t, []string{"Y", "Old news"}, titles(l))
	x.IsPublished = true
	l = l.Apply(update(x))
	assert.Equal(t, []string{"X", "Y", "Old news"}, titles(l))

	// Unpublishing Y drops it.
	y.IsPublished = false
	l = l.Apply(update(y))
	assert.Equal(t, []string{"X", "Old news"}, titles(l))

	// Editing a listed row keeps its position.
	old.Title = "Old news, corrected"
	l = l.Apply(update(old))
	assert.Equal(t, []string{"X", "Old news, corrected"}, titles(l))
}

func TestDeleteRemovesByID(t *testing.T) {
	a, b := announcement("A", true, 1), announcement("B", true, 0)
	l := NewList([]models.Announcement{a, b})

	l = l.Apply(Change[models.Announcement]{Type: baas.ChangeDelete, OldKey: a.ID})
	assert.Equal(t, []string{"B"}, titles(l))

	// Unknown ids are a no-op.
	l = l.Apply(Change[models.Announcement]{Type: baas.ChangeDelete, OldKey: uuid.New()})
	assert.Equal(t, []string{"B"}, titles(l))
}

func TestApplyDoesNotMutateReceiver(t *testing.T) {
	a := announcement("A", true, 0)
	before := NewList([]models.Announcement{a})
	a.Title = "A2"
	_ = before.Apply(update(a))
	assert.Equal(t, []string{"A"}, titles(before))
}

func TestDecode(t *testing.T) {
	a := announcement("Maintenance", true, 0)
	raw, err := json.Marshal(a)
	require.NoError(t, err)

	ch, err := Decode[models.Announcement](baas.ChangeEvent{Type: baas.ChangeInsert, Table: "announcements", Record: raw})
	require.NoError(t, err)
	assert.Equal(t, a.ID, ch.Record.ID)
	assert.Equal(t, "Maintenance", ch.Record.Title)
	assert.True(t, ch.Record.IsPublished)

	del, err := Decode[models.Announcement](baas.ChangeEvent{
		Type:      baas.ChangeDelete,
		Record:    json.RawMessage(`null`),
		OldRecord: json.RawMessage(`{"id":"` + a.ID.String() + `"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, a.ID, del.OldKey)

	_, err = Decode[models.Announcement](baas.ChangeEvent{Type: "TRUNCATE"})
	assert.Error(t, err)
}
