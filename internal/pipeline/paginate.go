package pipeline

import (
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// MaxLimit caps the page size a caller may request.
const MaxLimit = 100

// MaxPage caps the page number so the offset of any page fits in an int.
const MaxPage = math.MaxInt / MaxLimit

// Page is a 1-indexed page request.
type Page struct {
	Page  int
	Limit int
}

// Offset returns the number of documents skipped before the page.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ParsePage reads page and limit from query values. Missing, non-numeric or
// non-positive values fall back to page 1 and defaultLimit. Pages past MaxPage
// are clamped and come back empty.
func ParsePage(values url.Values, defaultLimit int) Page {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	page := parsePositive(values.Get("page"), 1)
	if page > MaxPage {
		page = MaxPage
	}
	limit := parsePositive(values.Get("limit"), defaultLimit)
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Page{Page: page, Limit: limit}
}

func parsePositive(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// Labels renames the items and total fields of a page result.
type Labels struct {
	Docs  string
	Total string
}

// DefaultLabels uses the generic docs/totalDocs names.
var DefaultLabels = Labels{Docs: "docs", Total: "totalDocs"}

// PageResult is one page of pipeline output plus navigation metadata.
type PageResult struct {
	Docs          []json.RawMessage
	TotalDocs     int64
	Limit         int
	Page          int
	TotalPages    int
	PagingCounter int
	HasPrevPage   bool
	HasNextPage   bool
	PrevPage      *int
	NextPage      *int
	Labels        Labels
}

// NewPageResult derives navigation metadata for docs taken from page of a total.
func NewPageResult(docs []json.RawMessage, total int64, page Page, labels Labels) PageResult {
	if docs == nil {
		docs = []json.RawMessage{}
	}
	if labels.Docs == "" {
		labels.Docs = DefaultLabels.Docs
	}
	if labels.Total == "" {
		labels.Total = DefaultLabels.Total
	}

	totalPages := 1
	if page.Limit > 0 && total > 0 {
		totalPages = int((total + int64(page.Limit) - 1) / int64(page.Limit))
	}

	r := PageResult{
		Docs:          docs,
		TotalDocs:     total,
		Limit:         page.Limit,
		Page:          page.Page,
		TotalPages:    totalPages,
		PagingCounter: page.Offset() + 1,
		HasPrevPage:   page.Page > 1,
		HasNextPage:   page.Page < totalPages,
		Labels:        labels,
	}
	if r.HasPrevPage {
		prev := page.Page - 1
		r.PrevPage = &prev
	}
	if r.HasNextPage {
		next := page.Page + 1
		r.NextPage = &next
	}
	return r
}

// Decode unmarshals the page documents into dest, which must point to a slice.
func (r PageResult) Decode(dest any) error {
	raw, err := json.Marshal(r.Docs)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// MarshalJSON renders the result with its configured labels.
func (r PageResult) MarshalJSON() ([]byte, error) {
	docs := r.Docs
	if docs == nil {
		docs = []json.RawMessage{}
	}
	labels := r.Labels
	if labels.Docs == "" {
		labels.Docs = DefaultLabels.Docs
	}
	if labels.Total == "" {
		labels.Total = DefaultLabels.Total
	}
	return json.Marshal(map[string]any{
		labels.Docs:     docs,
		labels.Total:    r.TotalDocs,
		"limit":         r.Limit,
		"page":          r.Page,
		"totalPages":    r.TotalPages,
		"pagingCounter": r.PagingCounter,
		"hasPrevPage":   r.HasPrevPage,
		"hasNextPage":   r.HasNextPage,
		"prevPage":      r.PrevPage,
		"nextPage":      r.NextPage,
	})
}
