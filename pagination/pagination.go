// Package pagination implements cursor paging over ordered collections.
// A cursor is either absent (start from the beginning) or a key after which
// the next page begins.
package pagination

import (
	"math"
	"net/url"
	"strconv"
)

// Paging defaults
const (
	DefaultLimit = 5
	MaxLimit     = 50
)

// Query parameter names
const (
	ParamCursor = "last_id"
	ParamLimit  = "limit"
)

// Params addresses one page
type Params struct {
	Cursor *int64 // nil means "from the start"
	Limit  int
}

// Page is one slice of a collection plus the cursor of the page after it
type Page[T any] struct {
	Items []T
	Next  *int64 // nil when this is the last page
}

// FromQuery parses last_id and limit. A missing or unparsable cursor starts
// from the beginning; a missing, unparsable or non-positive limit uses
// DefaultLimit, and limits above MaxLimit are clamped.
func FromQuery(q url.Values) Params {
	return FromQueryDefault(q, DefaultLimit)
}

// FromQueryDefault is FromQuery with def used when limit is absent
func FromQueryDefault(q url.Values, def int) Params {
	var p Params
	if raw := q.Get(ParamCursor); raw != "" {
		if c, err := strconv.ParseInt(raw, 10, 64); err == nil {
			p.Cursor = &c
		}
	}

	p.Limit = def
	if raw := q.Get(ParamLimit); raw != "" {
		if l, err := strconv.Atoi(raw); err == nil {
			p.Limit = l
		}
	}
	p.Limit = clampLimit(p.Limit)
	return p
}

// Normalize applies the limit rules to p, for callers that build Params by hand
func (p Params) Normalize() Params {
	p.Limit = clampLimit(p.Limit)
	return p
}

// After returns the cursor value for "strictly after" SQL comparisons
// against a descending id, or math.MaxInt64 when starting from the newest row.
func (p Params) After() int64 {
	if p.Cursor == nil {
		return math.MaxInt64
	}
	return *p.Cursor
}

// Query encodes p back into last_id/limit parameters
func (p Params) Query() url.Values {
	q := url.Values{}
	if p.Cursor != nil {
		q.Set(ParamCursor, strconv.FormatInt(*p.Cursor, 10))
	}
	if p.Limit != 0 {
		q.Set(ParamLimit, strconv.Itoa(p.Limit))
	}
	return q
}

// Slice pages an in-memory collection. The cursor is the index of the first
// item; Next is the index after the page when items remain. A negative or
// out-of-range cursor yields an empty last page.
func Slice[T any](items []T, p Params) Page[T] {
	p = p.Normalize()

	start := int64(0)
	if p.Cursor != nil {
		start = *p.Cursor
	}
	if start < 0 || start >= int64(len(items)) {
		return Page[T]{}
	}

	end := min(int(start)+p.Limit, len(items))
	page := Page[T]{Items: items[start:end]}
	if end < len(items) {
		next := int64(end)
		page.Next = &next
	}
	return page
}

// Trim converts limit+1 fetched rows into a page: if the extra row exists it
// is dropped and Next becomes key(last kept row).
func Trim[T any](rows []T, limit int, key func(T) int64) Page[T] {
	if len(rows) <= limit {
		return Page[T]{Items: rows}
	}

	items := rows[:limit]
	next := key(items[len(items)-1])
	return Page[T]{Items: items, Next: &next}
}

// Cursor returns a pointer to v, for building Params literals
func Cursor(v int64) *int64 {
	return &v
}

func clampLimit(l int) int {
	if l < 1 {
		return DefaultLimit
	}
	if l > MaxLimit {
		return MaxLimit
	}
	return l
}
