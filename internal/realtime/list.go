// Package realtime keeps locally held lists in step with the database change
// feed. A List is a pure value; a Feed owns one List, refreshes it from the
// store and applies change events to it as they arrive.
package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/muhammadsaim216/prime-esports/internal/baas"
)

// Record is a row that can live in a List.
type Record interface {
	Key() uuid.UUID
	// Visible reports whether the row belongs in the public list.
	Visible() bool
}

// Change is a decoded change event. On delete only OldKey is set.
type Change[T Record] struct {
	Type   baas.ChangeType `json:"type"`
	Record T               `json:"record"`
	OldKey uuid.UUID       `json:"old_key"`
}

// Decode turns a raw feed event into a typed Change.
func Decode[T Record](ev baas.ChangeEvent) (Change[T], error) {
	ch := Change[T]{Type: ev.Type}
	switch ev.Type {
	case baas.ChangeInsert, baas.ChangeUpdate:
		if err := json.Unmarshal(ev.Record, &ch.Record); err != nil {
			return ch, fmt.Errorf("decode %s record: %w", ev.Table, err)
		}
		ch.OldKey = ch.Record.Key()
	case baas.ChangeDelete:
		var old struct {
			ID uuid.UUID `json:"id"`
		}
		if err := json.Unmarshal(ev.OldRecord, &old); err != nil {
			return ch, fmt.Errorf("decode %s old record: %w", ev.Table, err)
		}
		ch.OldKey = old.ID
	default:
		return ch, fmt.Errorf("unknown change type %q", ev.Type)
	}
	return ch, nil
}

// List is an ordered, newest-first list of visible records. Apply never
// mutates its receiver.
type List[T Record] struct {
	items []T
}

// NewList wraps rows that are already sorted newest first.
func NewList[T Record](rows []T) List[T] {
	items := make([]T, len(rows))
	copy(items, rows)
	return List[T]{items: items}
}

func (l List[T]) Len() int { return len(l.items) }

// Items returns a copy of the records in order.
func (l List[T]) Items() []T {
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

func (l List[T]) index(key uuid.UUID) int {
	for i, it := range l.items {
		if it.Key() == key {
			return i
		}
	}
	return -1
}

// Apply returns the list after ch.
//
//   - insert: a visible row is prepended; a row whose id is already listed is
//     replaced where it stands, so a redelivered insert is harmless
//   - update: a row that is no longer visible is removed; a listed row is
//     replaced in place; an unlisted visible row is prepended
//   - delete: the row is removed
func (l List[T]) Apply(ch Change[T]) List[T] {
	switch ch.Type {
	case baas.ChangeInsert:
		if !ch.Record.Visible() {
			return l
		}
		if i := l.index(ch.Record.Key()); i >= 0 {
			return l.replace(i, ch.Record)
		}
		return l.prepend(ch.Record)

	case baas.ChangeUpdate:
		i := l.index(ch.Record.Key())
		switch {
		case !ch.Record.Visible():
			return l.remove(ch.Record.Key())
		case i >= 0:
			return l.replace(i, ch.Record)
		default:
			return l.prepend(ch.Record)
		}

	case baas.ChangeDelete:
		return l.remove(ch.OldKey)
	}
	return l
}

func (l List[T]) prepend(rec T) List[T] {
	items := make([]T, 0, len(l.items)+1)
	items = append(items, rec)
	items = append(items, l.items...)
	return List[T]{items: items}
}

func (l List[T]) replace(i int, rec T) List[T] {
	items := l.Items()
	items[i] = rec
	return List[T]{items: items}
}

func (l List[T]) remove(key uuid.UUID) List[T] {
	items := make([]T, 0, len(l.items))
	for _, it := range l.items {
		if it.Key() != key {
			items = append(items, it)
		}
	}
	return List[T]{items: items}
}
