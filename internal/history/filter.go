// Package history holds the pure transformations behind the history and
// statistics views: filtering, ordering, pagination and the activity calendar.
package history

import (
	"fmt"
	"slices"
	"time"

	"github.com/at-ishikawa/mathdrill/internal/api"
)

// DefaultPageSize is the number of records shown per history page.
const DefaultPageSize = 10

// DateLayout is the format of a calendar day and the Filter.Date field.
const DateLayout = "2006-01-02"

type Result string

const (
	ResultAny       Result = ""
	ResultCorrect   Result = "correct"
	ResultIncorrect Result = "incorrect"
)

func ParseResult(s string) (Result, error) {
	switch r := Result(s); r {
	case ResultAny, ResultCorrect, ResultIncorrect:
		return r, nil
	}
	return ResultAny, fmt.Errorf("unknown result filter: %s", s)
}

// Filter narrows history records. Empty fields match everything and the
// non-empty ones are combined with AND.
type Filter struct {
	Difficulty string
	Result     Result
	// Date is a UTC day in DateLayout.
	Date string
}

func (f Filter) IsZero() bool {
	return f == Filter{}
}

func (f Filter) Match(record api.HistoryRecord) bool {
	if f.Difficulty != "" && record.Difficulty != f.Difficulty {
		return false
	}
	switch f.Result {
	case ResultCorrect:
		if !record.IsCorrect {
			return false
		}
	case ResultIncorrect:
		if record.IsCorrect {
			return false
		}
	}
	if f.Date != "" && DayOf(record.CreatedAt) != f.Date {
		return false
	}
	return true
}

// Apply returns the records matching f in their original order.
func (f Filter) Apply(records []api.HistoryRecord) []api.HistoryRecord {
	filtered := make([]api.HistoryRecord, 0, len(records))
	for _, record := range records {
		if f.Match(record) {
			filtered = append(filtered, record)
		}
	}
	return filtered
}

// DayOf returns the UTC calendar day of t.
func DayOf(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// SortByCreatedDesc returns a copy of records ordered newest first.
func SortByCreatedDesc(records []api.HistoryRecord) []api.HistoryRecord {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b api.HistoryRecord) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return sorted
}

type Page struct {
	Records []api.HistoryRecord
	// Number is 1-based.
	Number     int
	TotalPages int
}

func (p Page) HasPrevious() bool {
	return p.Number > 1
}

func (p Page) HasNext() bool {
	return p.Number < p.TotalPages
}

// Paginate slices records into the given page. Pages outside the valid
// range are clamped, and an empty input yields page 1 of 0.
func Paginate(records []api.HistoryRecord, page, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	totalPages := (len(records) + pageSize - 1) / pageSize
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}

	start := min((page-1)*pageSize, len(records))
	end := min(start+pageSize, len(records))
	return Page{
		Records:    records[start:end],
		Number:     page,
		TotalPages: totalPages,
	}
}

// Browser keeps the state of the history detail view. Changing the filter
// always returns to the first page.
type Browser struct {
	records  []api.HistoryRecord
	filter   Filter
	page     int
	pageSize int
}

func NewBrowser(records []api.HistoryRecord, pageSize int) *Browser {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Browser{
		records:  SortByCreatedDesc(records),
		page:     1,
		pageSize: pageSize,
	}
}

func (b *Browser) Filter() Filter {
	return b.filter
}

func (b *Browser) SetFilter(filter Filter) {
	b.filter = filter
	b.page = 1
}

func (b *Browser) GoTo(page int) {
	b.page = page
}

func (b *Browser) Current() Page {
	page := Paginate(b.filter.Apply(b.records), b.page, b.pageSize)
	b.page = page.Number
	return page
}
