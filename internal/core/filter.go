package core

import (
	"sort"
	"time"
)

// FilterKind selects which single criterion is active. Filters are mutually
// exclusive: applying one replaces the previous one entirely ("last filter
// wins"), which the tagged union makes explicit instead of leaving four
// independently nullable fields around.
type FilterKind int

const (
	FilterNone FilterKind = iota
	FilterByType
	FilterByCategory
	FilterByDateRange
	FilterBySort
)

// SortKey orders transaction lists.
type SortKey string

const (
	SortByAmount    SortKey = "amount"
	SortByCreatedAt SortKey = "createdAt"
)

// Filter is a tagged union; only the fields matching Kind are read.
type Filter struct {
	Kind       FilterKind
	Type       TransactionType
	CategoryID int64
	From, To   time.Time
	Sort       SortKey
}

// TypeFilter returns a filter keeping only transactions of the given type.
func TypeFilter(t TransactionType) Filter {
	return Filter{Kind: FilterByType, Type: t}
}

// CategoryFilter returns a filter keeping only one category.
func CategoryFilter(id int64) Filter {
	return Filter{Kind: FilterByCategory, CategoryID: id}
}

// DateRangeFilter keeps transactions dated within [from, to] inclusive.
func DateRangeFilter(from, to time.Time) Filter {
	return Filter{Kind: FilterByDateRange, From: from, To: to}
}

// SortFilter orders the full list by the given key.
func SortFilter(key SortKey) Filter {
	return Filter{Kind: FilterBySort, Sort: key}
}

// DisplayAmount converts a transaction amount into the display currency.
// Implementations must be pure for a fixed rate snapshot.
type DisplayAmount func(tx Transaction) float64

// ApplyFilter produces the view-model list for a filter: the matching subset
// in a deterministic order. The input slice is never mutated.
//
// Default order is createdAt descending; an amount sort orders by converted
// display amount descending. Both sorts are stable, so ties keep insertion
// order.
func ApplyFilter(txs []Transaction, f Filter, display DisplayAmount) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if matches(tx, f) {
			out = append(out, tx)
		}
	}

	if f.Kind == FilterBySort && f.Sort == SortByAmount && display != nil {
		sort.SliceStable(out, func(i, j int) bool {
			return display(out[i]) > display(out[j])
		})
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func matches(tx Transaction, f Filter) bool {
	switch f.Kind {
	case FilterByType:
		return tx.Type == f.Type
	case FilterByCategory:
		return tx.CategoryID == f.CategoryID
	case FilterByDateRange:
		d := dateOnly(tx.Date)
		if !f.From.IsZero() && d.Before(dateOnly(f.From)) {
			return false
		}
		if !f.To.IsZero() && d.After(dateOnly(f.To)) {
			return false
		}
		return true
	default:
		return true
	}
}

// Paginate returns the 1-based page of size perPage, plus the total page
// count. Out-of-range pages return an empty slice.
func Paginate(txs []Transaction, page, perPage int) ([]Transaction, int) {
	if perPage <= 0 {
		perPage = 10
	}
	if page <= 0 {
		page = 1
	}
	pages := (len(txs) + perPage - 1) / perPage
	start := (page - 1) * perPage
	if start >= len(txs) {
		return []Transaction{}, pages
	}
	end := start + perPage
	if end > len(txs) {
		end = len(txs)
	}
	return txs[start:end], pages
}
