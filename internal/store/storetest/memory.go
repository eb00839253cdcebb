// Package storetest provides an in-memory store.Backend for tests.
//
// Rows are kept as decoded JSON objects, so the backend accepts any record type
// with json tags and compares values the way they would look on the wire.
package storetest

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/muhammadsaim216/prime-esports/internal/store"
)

type row = map[string]any

// Memory is a goroutine-safe in-memory Backend.
type Memory struct {
	mu      sync.Mutex
	tables  map[string][]row
	unique  map[string][][]string
	views   map[string]string
	failing map[string]error
}

func NewMemory() *Memory {
	return &Memory{
		tables:  map[string][]row{},
		unique:  map[string][][]string{},
		views:   map[string]string{},
		failing: map[string]error{},
	}
}

// Unique declares a unique constraint over columns of table.
func (m *Memory) Unique(table string, columns ...string) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unique[table] = append(m.unique[table], columns)
	return m
}

// View makes reads of view return the rows of table.
func (m *Memory) View(view, table string) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.views[view] = table
	return m
}

// Fail makes every operation on table return err until cleared with a nil err.
func (m *Memory) Fail(table string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failing, table)
		return
	}
	m.failing[table] = err
}

// Rows returns a copy of the raw rows of table.
func (m *Memory) Rows(table string) []map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]map[string]any, len(m.tables[table]))
	for i, r := range m.tables[table] {
		out[i] = clone(r)
	}
	return out
}

// Seed inserts records (structs or maps) without any checks.
func (m *Memory) Seed(table string, records ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range records {
		r, err := normalizeRow(rec)
		if err != nil {
			panic(err)
		}
		m.tables[table] = append(m.tables[table], r)
	}
}

func (m *Memory) source(table string) string {
	if t, ok := m.views[table]; ok {
		return t
	}
	return table
}

func (m *Memory) Select(ctx context.Context, table string, q store.Query, dest any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failing[table]; err != nil {
		return err
	}
	matched, err := m.match(m.source(table), q)
	if err != nil {
		return err
	}
	rows := make([]row, len(matched))
	for i, idx := range matched {
		rows[i] = m.tables[m.source(table)][idx]
	}
	sortRows(rows, q.Orders)
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}
	return transcode(rows, dest)
}

func (m *Memory) Count(ctx context.Context, table string, q store.Query) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failing[table]; err != nil {
		return 0, err
	}
	matched, err := m.match(m.source(table), q)
	return int64(len(matched)), err
}

func (m *Memory) Insert(ctx context.Context, table string, values map[string]any, dest any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failing[table]; err != nil {
		return err
	}
	r, err := normalizeRow(values)
	if err != nil {
		return err
	}
	if err := m.checkUnique(table, r, -1); err != nil {
		return err
	}
	m.tables[table] = append(m.tables[table], r)
	return transcode(r, dest)
}

func (m *Memory) Update(ctx context.Context, table string, q store.Query, values map[string]any) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failing[table]; err != nil {
		return 0, err
	}
	patch, err := normalizeRow(values)
	if err != nil {
		return 0, err
	}
	matched, err := m.match(table, q)
	if err != nil {
		return 0, err
	}
	for _, idx := range matched {
		next := clone(m.tables[table][idx])
		for k, v := range patch {
			next[k] = v
		}
		if err := m.checkUnique(table, next, idx); err != nil {
			return 0, err
		}
		m.tables[table][idx] = next
	}
	return int64(len(matched)), nil
}

func (m *Memory) Delete(ctx context.Context, table string, q store.Query) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failing[table]; err != nil {
		return 0, err
	}
	matched, err := m.match(table, q)
	if err != nil {
		return 0, err
	}
	drop := map[int]bool{}
	for _, idx := range matched {
		drop[idx] = true
	}
	kept := m.tables[table][:0:0]
	for i, r := range m.tables[table] {
		if !drop[i] {
			kept = append(kept, r)
		}
	}
	m.tables[table] = kept
	return int64(len(matched)), nil
}

func (m *Memory) checkUnique(table string, r row, skip int) error {
	for _, cols := range m.unique[table] {
		for i, other := range m.tables[table] {
			if i == skip {
				continue
			}
			same := true
			for _, c := range cols {
				if !reflect.DeepEqual(r[c], other[c]) {
					same = false
					break
				}
			}
			if same {
				return fmt.Errorf("%w: %s(%s)", store.ErrDuplicate, table, strings.Join(cols, ","))
			}
		}
	}
	return nil
}

func (m *Memory) match(table string, q store.Query) ([]int, error) {
	filters := make([]store.Filter, len(q.Filters))
	for i, f := range q.Filters {
		v, err := normalize(f.Value)
		if err != nil {
			return nil, err
		}
		filters[i] = store.Filter{Column: f.Column, Op: f.Op, Value: v}
	}

	var out []int
	for i, r := range m.tables[table] {
		ok := true
		for _, f := range filters {
			if !test(r[f.Column], f) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, i)
		}
	}
	return out, nil
}

func test(have any, f store.Filter) bool {
	switch f.Op {
	case store.OpEq:
		return equal(have, f.Value)
	case store.OpNeq:
		return !equal(have, f.Value)
	case store.OpGte:
		return compare(have, f.Value) >= 0
	case store.OpLte:
		return compare(have, f.Value) <= 0
	case store.OpIn:
		list, _ := f.Value.([]any)
		for _, v := range list {
			if equal(have, v) {
				return true
			}
		}
		return false
	case store.OpILike:
		s, _ := have.(string)
		needle, _ := f.Value.(string)
		return strings.Contains(strings.ToLower(s), strings.ToLower(needle))
	}
	return false
}

func equal(a, b any) bool {
	if ta, ok := asTime(a); ok {
		if tb, ok := asTime(b); ok {
			return ta.Equal(tb)
		}
	}
	return reflect.DeepEqual(a, b)
}

func compare(a, b any) int {
	if ta, ok := asTime(a); ok {
		if tb, ok := asTime(b); ok {
			return ta.Compare(tb)
		}
	}
	switch x := a.(type) {
	case float64:
		y, _ := b.(float64)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case string:
		y, _ := b.(string)
		return strings.Compare(x, y)
	case bool:
		y, _ := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	case nil:
		if b == nil {
			return 0
		}
		return -1
	}
	return 0
}

func asTime(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok || len(s) < len("2006-01-02T15:04:05Z") {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	return t, err == nil
}

func sortRows(rows []row, orders []store.Order) {
	if len(orders) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, o := range orders {
			c := compare(rows[i][o.Column], rows[j][o.Column])
			if c == 0 {
				continue
			}
			if o.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	err = json.Unmarshal(raw, &out)
	return out, err
}

func normalizeRow(v any) (row, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out row
	err = json.Unmarshal(raw, &out)
	return out, err
}

func transcode(src, dest any) error {
	raw, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func clone(r row) row {
	out := make(row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
