package http

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/core"
)

const dateLayout = "2006-01-02"

// urlID parses a numeric path parameter.
func urlID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

// parseYearMonth reads year/month query params, defaulting to the current
// month and rejecting out-of-range values.
func parseYearMonth(query url.Values, now time.Time) (int, int, error) {
	year, month := now.Year(), int(now.Month())

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1970 || y > 9999 {
			return 0, 0, fmt.Errorf("invalid year %q", v)
		}
		year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return 0, 0, fmt.Errorf("invalid month %q", v)
		}
		month = m
	}
	return year, month, nil
}

// parseFilters translates list query params into filters, applied in order.
func parseFilters(query url.Values) ([]core.Filter, error) {
	var filters []core.Filter

	if v := strings.TrimSpace(query.Get("type")); v != "" {
		t := core.TransactionType(v)
		if !t.Valid() {
			return nil, fmt.Errorf("invalid type %q", v)
		}
		filters = append(filters, core.TypeFilter(t))
	}
	if v := strings.TrimSpace(query.Get("category_id")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid category_id %q", v)
		}
		filters = append(filters, core.CategoryFilter(id))
	}
	from, hasFrom := query.Get("from"), query.Get("from") != ""
	to, hasTo := query.Get("to"), query.Get("to") != ""
	if hasFrom || hasTo {
		if !hasFrom || !hasTo {
			return nil, fmt.Errorf("from and to must be provided together")
		}
		fromDate, err := time.Parse(dateLayout, from)
		if err != nil {
			return nil, fmt.Errorf("invalid from date %q", from)
		}
		toDate, err := time.Parse(dateLayout, to)
		if err != nil {
			return nil, fmt.Errorf("invalid to date %q", to)
		}
		filters = append(filters, core.DateRangeFilter(fromDate, toDate))
	}
	if v := strings.TrimSpace(query.Get("sort")); v != "" {
		key := core.SortKey(v)
		if key != core.SortByAmount && key != core.SortByCreatedAt {
			return nil, fmt.Errorf("invalid sort %q", v)
		}
		filters = append(filters, core.SortFilter(key))
	}
	return filters, nil
}

// parsePagination reads page/per_page with defaults of 1 and 20.
func parsePagination(query url.Values) (page, perPage int, err error) {
	page, perPage = 1, 20

	if v := strings.TrimSpace(query.Get("page")); v != "" {
		page, err = strconv.Atoi(v)
		if err != nil || page < 1 {
			return 0, 0, fmt.Errorf("invalid page %q", v)
		}
	}
	if v := strings.TrimSpace(query.Get("per_page")); v != "" {
		perPage, err = strconv.Atoi(v)
		if err != nil || perPage < 1 || perPage > 200 {
			return 0, 0, fmt.Errorf("invalid per_page %q", v)
		}
	}
	return page, perPage, nil
}

// sanitizeText trims whitespace and strips control characters from
// user-supplied free text fields.
func sanitizeText(s string) string {
	s = strings.ToValidUTF8(s, "")
	s = strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
