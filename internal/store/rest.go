package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/muhammadsaim216/prime-esports/internal/baas"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint collision.
// It is interpreted here and nowhere else.
const uniqueViolation = "23505"

// RestBackend runs queries through the hosted backend's REST interface.
type RestBackend struct {
	client *baas.Client
}

func NewRestBackend(c *baas.Client) *RestBackend {
	return &RestBackend{client: c}
}

func (b *RestBackend) build(table string, q Query) (*baas.QueryBuilder, error) {
	qb := b.client.From(table)
	for _, f := range q.Filters {
		switch f.Op {
		case OpIn:
			values, err := formatList(f.Value)
			if err != nil {
				return nil, fmt.Errorf("filter %s: %w", f.Column, err)
			}
			qb.In(f.Column, values)
		case OpILike:
			qb.ILike(f.Column, formatValue(f.Value))
		default:
			qb.Filter(f.Column, string(f.Op), formatValue(f.Value))
		}
	}
	for _, o := range q.Orders {
		qb.Order(o.Column, o.Desc)
	}
	qb.Limit(q.Limit)
	return qb, nil
}

func (b *RestBackend) Select(ctx context.Context, table string, q Query, dest any) error {
	qb, err := b.build(table, q)
	if err != nil {
		return err
	}
	return translate(qb.Fetch(ctx, dest))
}

func (b *RestBackend) Count(ctx context.Context, table string, q Query) (int64, error) {
	qb, err := b.build(table, q)
	if err != nil {
		return 0, err
	}
	n, err := qb.Count(ctx)
	return n, translate(err)
}

func (b *RestBackend) Insert(ctx context.Context, table string, values map[string]any, dest any) error {
	var rows []json.RawMessage
	if err := translate(b.client.From(table).Insert(ctx, values, &rows)); err != nil {
		return err
	}
	if len(rows) == 0 {
		// Row-level policy allowed the insert but hides the row from the caller.
		return ErrForbidden
	}
	if err := json.Unmarshal(rows[0], dest); err != nil {
		return fmt.Errorf("decode inserted row: %w", err)
	}
	return nil
}

func (b *RestBackend) Update(ctx context.Context, table string, q Query, values map[string]any) (int64, error) {
	qb, err := b.build(table, q)
	if err != nil {
		return 0, err
	}
	var rows []json.RawMessage
	if err := translate(qb.Update(ctx, values, &rows)); err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

func (b *RestBackend) Delete(ctx context.Context, table string, q Query) (int64, error) {
	qb, err := b.build(table, q)
	if err != nil {
		return 0, err
	}
	var rows []json.RawMessage
	if err := translate(qb.Delete(ctx, &rows)); err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

// translate maps backend error codes onto the store's error kinds.
func translate(err error) error {
	var apiErr *baas.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.Code == uniqueViolation:
		return fmt.Errorf("%w: %s", ErrDuplicate, apiErr.Message)
	case apiErr.Code == "PGRST116":
		return ErrNotFound
	case apiErr.Unauthorized():
		return fmt.Errorf("%w: %s", ErrForbidden, apiErr.Message)
	}
	return err
}

// formatValue renders a filter value the way the REST interface parses it.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case uuid.UUID:
		return x.String()
	case *uuid.UUID:
		if x == nil {
			return "null"
		}
		return x.String()
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

func formatList(v any) ([]string, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("in filter needs a slice, got %T", v)
	}
	out := make([]string, rv.Len())
	for i := range out {
		out[i] = formatValue(rv.Index(i).Interface())
	}
	return out, nil
}
