// Package query holds the cursor-pagination protocol shared by the personal
// annotation listing and the library member listings: bounded limit, a sort
// key with a strict total order, and an ISO-8601 updated_at cursor.
package query

import (
	"errors"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultLimit = 20
	MaxLimit     = 50
)

var ValidSortKeys = map[string]bool{
	"updated_at": true,
	"rating":     true,
	"title":      true,
}

var (
	ErrBadSort   = errors.New("invalid sort key")
	ErrBadOrder  = errors.New("invalid sort order")
	ErrBadCursor = errors.New("invalid cursor")
	ErrBadRating = errors.New("invalid min_rating")
)

type Page struct {
	Limit      int
	SortKey    string
	Order      int // 1 asc, -1 desc
	Cursor     *time.Time
	Q          string
	Genre      string
	ReadStatus string
	MinRating  int
}

// ParsePage reads the shared listing parameters. Limit is clamped into
// [1, MaxLimit] rather than rejected; everything else malformed is an error.
func ParsePage(values url.Values) (Page, error) {
	p := Page{
		Limit:      DefaultLimit,
		SortKey:    "updated_at",
		Order:      -1,
		Q:          values.Get("q"),
		Genre:      values.Get("genre"),
		ReadStatus: values.Get("read_status"),
	}

	if raw := values.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, errors.New("invalid limit")
		}
		if n < 1 {
			n = 1
		}
		if n > MaxLimit {
			n = MaxLimit
		}
		p.Limit = n
	}

	if raw := values.Get("sort"); raw != "" {
		if !ValidSortKeys[raw] {
			return p, ErrBadSort
		}
		p.SortKey = raw
	}

	switch values.Get("order") {
	case "", "desc":
	case "asc":
		p.Order = 1
	default:
		return p, ErrBadOrder
	}

	if raw := values.Get("cursor"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return p, ErrBadCursor
		}
		p.Cursor = &t
	}

	if raw := values.Get("min_rating"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 5 {
			return p, ErrBadRating
		}
		p.MinRating = n
	}

	return p, nil
}

// ApplyFilters adds the annotation-side filters to a $match document. The
// prefix locates the annotation fields relative to the pipeline root
// ("" for user_books itself, "user_book." after a membership join). The
// free-text filter is a case-insensitive literal substring over search_blob,
// not tokenized matching.
func (p Page) ApplyFilters(match bson.M, prefix string) {
	if p.Q != "" {
		match[prefix+"search_blob"] = primitive.Regex{Pattern: regexp.QuoteMeta(p.Q), Options: "i"}
	}
	if p.Genre != "" {
		match[prefix+"genres"] = p.Genre
	}
	if p.ReadStatus != "" {
		match[prefix+"read_status"] = p.ReadStatus
	}
	if p.MinRating > 0 {
		match[prefix+"rating"] = bson.M{"$gte": p.MinRating}
	}
	if p.Cursor != nil {
		match[prefix+"updated_at"] = p.CursorFilter()
	}
}

// CursorFilter fetches strictly-earlier rows when descending, strictly-later
// when ascending.
func (p Page) CursorFilter() bson.M {
	if p.Order == 1 {
		return bson.M{"$gt": *p.Cursor}
	}
	return bson.M{"$lt": *p.Cursor}
}

// SortField maps the sort key to its pipeline path. Title sorts on the
// joined book document.
func (p Page) SortField(prefix string) string {
	switch p.SortKey {
	case "rating":
		return prefix + "rating"
	case "title":
		return "book.title"
	}
	return prefix + "updated_at"
}

// SortStage appends the record's own _id in the same direction so ties on
// the primary key still yield a strict total order for cursor stability.
func (p Page) SortStage(prefix string) bson.D {
	return bson.D{
		{Key: p.SortField(prefix), Value: p.Order},
		{Key: "_id", Value: p.Order},
	}
}

// Trim cuts a limit+1 fetch down to the page and reports whether a next
// page exists.
func Trim[T any](rows []T, limit int) ([]T, bool) {
	if len(rows) > limit {
		return rows[:limit], true
	}
	return rows, false
}

type Envelope struct {
	Items      any     `json:"items"`
	NextCursor *string `json:"next_cursor"`
	Limit      int     `json:"limit"`
}

// NewEnvelope shapes the page response. last is the updated_at of the final
// returned item; nil means this is the last page and next_cursor is null.
func NewEnvelope(items any, last *time.Time, limit int) Envelope {
	env := Envelope{Items: items, Limit: limit}
	if last != nil {
		formatted := last.Format(time.RFC3339Nano)
		env.NextCursor = &formatted
	}
	return env
}
