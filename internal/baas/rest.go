package baas

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const restPrefix = "/rest/v1/"

// QueryBuilder accumulates filters, ordering and a limit for one table and then
// runs exactly one request. Values are passed already formatted as strings.
type QueryBuilder struct {
	c      *Client
	table  string
	params url.Values
	orders []string
}

// From starts a query against table.
func (c *Client) From(table string) *QueryBuilder {
	return &QueryBuilder{c: c, table: table, params: url.Values{}}
}

// Filter adds "column=op.value".
func (q *QueryBuilder) Filter(column, op, value string) *QueryBuilder {
	q.params.Add(column, op+"."+value)
	return q
}

func (q *QueryBuilder) Eq(column, value string) *QueryBuilder {
	return q.Filter(column, "eq", value)
}

// In matches any of values. Values containing reserved characters are quoted.
func (q *QueryBuilder) In(column string, values []string) *QueryBuilder {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = quoteListValue(v)
	}
	return q.Filter(column, "in", "("+strings.Join(quoted, ",")+")")
}

// ILike is a case-insensitive substring match on column.
func (q *QueryBuilder) ILike(column, needle string) *QueryBuilder {
	return q.Filter(column, "ilike", "*"+needle+"*")
}

func (q *QueryBuilder) Order(column string, desc bool) *QueryBuilder {
	dir := "asc"
	if desc {
		dir = "desc"
	}
	q.orders = append(q.orders, column+"."+dir)
	return q
}

func (q *QueryBuilder) Limit(n int) *QueryBuilder {
	if n > 0 {
		q.params.Set("limit", strconv.Itoa(n))
	}
	return q
}

// Params returns the query string the builder would send.
func (q *QueryBuilder) Params() url.Values {
	params := url.Values{}
	for k, v := range q.params {
		params[k] = append([]string(nil), v...)
	}
	if len(q.orders) > 0 {
		params.Set("order", strings.Join(q.orders, ","))
	}
	return params
}

func (q *QueryBuilder) path() string { return restPrefix + q.table }

// Fetch selects every column of the matching rows into dest, a pointer to a slice.
func (q *QueryBuilder) Fetch(ctx context.Context, dest any) error {
	params := q.Params()
	params.Set("select", "*")
	req := q.c.request(ctx).SetQueryParamsFromValues(params)
	resp, err := q.c.do(req, http.MethodGet, q.path())
	if err != nil {
		return err
	}
	return decode(resp.Body(), dest)
}

// Count returns the exact number of matching rows without transferring them.
func (q *QueryBuilder) Count(ctx context.Context) (int64, error) {
	params := q.Params()
	params.Set("select", "*")
	req := q.c.request(ctx).
		SetQueryParamsFromValues(params).
		SetHeader("Prefer", "count=exact")
	resp, err := q.c.do(req, http.MethodHead, q.path())
	if err != nil {
		return 0, err
	}
	return parseContentRange(resp.Header().Get("Content-Range"))
}

// Insert writes body (one object) and decodes the stored rows into dest.
func (q *QueryBuilder) Insert(ctx context.Context, body any, dest any) error {
	return q.write(ctx, http.MethodPost, body, dest)
}

// Update patches every matching row with body and decodes the changed rows into dest.
func (q *QueryBuilder) Update(ctx context.Context, body any, dest any) error {
	return q.write(ctx, http.MethodPatch, body, dest)
}

// Delete removes the matching rows and decodes them into dest.
func (q *QueryBuilder) Delete(ctx context.Context, dest any) error {
	return q.write(ctx, http.MethodDelete, nil, dest)
}

func (q *QueryBuilder) write(ctx context.Context, method string, body any, dest any) error {
	req := q.c.request(ctx).
		SetQueryParamsFromValues(q.Params()).
		SetHeader("Prefer", "return=representation")
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	resp, err := q.c.do(req, method, q.path())
	if err != nil {
		return err
	}
	if dest == nil {
		return nil
	}
	return decode(resp.Body(), dest)
}

func decode(body []byte, dest any) error {
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("baas: decode response: %w", err)
	}
	return nil
}

// parseContentRange reads the total from "0-24/3573" or "*/0".
func parseContentRange(h string) (int64, error) {
	i := strings.LastIndex(h, "/")
	if i < 0 || i == len(h)-1 {
		return 0, fmt.Errorf("baas: unexpected Content-Range %q", h)
	}
	total := h[i+1:]
	if total == "*" {
		return 0, fmt.Errorf("baas: count not returned in Content-Range %q", h)
	}
	return strconv.ParseInt(total, 10, 64)
}

func quoteListValue(v string) string {
	if strings.ContainsAny(v, `,()" `) {
		return `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
	}
	return v
}
