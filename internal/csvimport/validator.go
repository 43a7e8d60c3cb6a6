// Package csvimport parses uploaded transaction CSVs, validates each row
// independently and flags duplicates against already-known transactions, so
// only clean rows reach the bulk-create path.
package csvimport

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"fintrack/internal/core"
)

// Row is the validation outcome for a single CSV data row.
type Row struct {
	Line        int
	Transaction core.Transaction
	Errors      []string
	Valid       bool
	Duplicate   bool
}

// Report aggregates row outcomes for display.
type Report struct {
	Total      int `json:"total"`
	Success    int `json:"success"`
	Failed     int `json:"failed"`
	Duplicates int `json:"duplicates"`
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02.01.2006",
	time.RFC3339,
}

var (
	errAmountNotPositive = "Amount must be a positive number"
	errTitleTooShort     = "Title must be at least 3 characters"
	errBadDate           = "Invalid date format"
	errBadType           = "Type must be income or expense"
)

// ParseAndValidate reads a CSV document, resolves columns by
// case-insensitive header name and validates every data row independently.
//
// Required columns: date, title, amount, type, category. Optional:
// description, currency (rows without one inherit defaultCurrency).
// Duplicates are matched on same calendar day, case-insensitive title,
// amount within one cent, type and category, both against existing
// transactions and against earlier rows of the same file; a duplicate row is
// excluded from import even when otherwise valid.
func ParseAndValidate(r io.Reader, existing []core.Transaction, categories []core.Category, defaultCurrency string) ([]Row, Report, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, Report{}, fmt.Errorf("read csv: %w", err)
	}

	headerIdx := -1
	for i, rec := range records {
		if !emptyRecord(rec) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, Report{}, fmt.Errorf("csv file is empty")
	}

	cols, err := resolveColumns(records[headerIdx])
	if err != nil {
		return nil, Report{}, err
	}

	catByName := make(map[string]core.Category, len(categories))
	for _, c := range categories {
		catByName[strings.ToLower(strings.TrimSpace(c.Name))] = c
	}

	var (
		rows     []Row
		report   Report
		accepted []core.Transaction // valid earlier rows of this file
	)

	for i := headerIdx + 1; i < len(records); i++ {
		rec := records[i]
		if emptyRecord(rec) {
			continue
		}
		report.Total++

		row := parseRow(rec, i+1, cols, catByName, defaultCurrency)
		if row.Valid {
			if isDuplicate(row.Transaction, existing) || isDuplicate(row.Transaction, accepted) {
				row.Duplicate = true
				report.Duplicates++
			} else {
				accepted = append(accepted, row.Transaction)
				report.Success++
			}
		} else {
			report.Failed++
		}
		rows = append(rows, row)
	}

	return rows, report, nil
}

type columns struct {
	date, title, amount, typ, category int
	description, currency              int // -1 when absent
}

func resolveColumns(header []string) (columns, error) {
	cols := columns{date: -1, title: -1, amount: -1, typ: -1, category: -1, description: -1, currency: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "date":
			cols.date = i
		case "title":
			cols.title = i
		case "amount":
			cols.amount = i
		case "type":
			cols.typ = i
		case "category":
			cols.category = i
		case "description":
			cols.description = i
		case "currency":
			cols.currency = i
		}
	}
	missing := []string{}
	for name, idx := range map[string]int{
		"date": cols.date, "title": cols.title, "amount": cols.amount,
		"type": cols.typ, "category": cols.category,
	} {
		if idx < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("missing required column(s): %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func parseRow(rec []string, line int, cols columns, catByName map[string]core.Category, defaultCurrency string) Row {
	row := Row{Line: line}
	tx := core.Transaction{Currency: defaultCurrency}

	get := func(idx int) string {
		if idx < 0 || idx >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[idx])
	}

	if date, ok := parseDate(get(cols.date)); ok {
		tx.Date = date
	} else {
		row.Errors = append(row.Errors, errBadDate)
	}

	tx.Title = get(cols.title)
	if len(tx.Title) < 3 {
		row.Errors = append(row.Errors, errTitleTooShort)
	}

	if cents, err := core.ParseDecimalToCents(get(cols.amount)); err == nil {
		tx.Amount = core.Money{Cents: cents}
	} else {
		row.Errors = append(row.Errors, errAmountNotPositive)
	}

	typ := core.TransactionType(strings.ToLower(get(cols.typ)))
	if typ.Valid() {
		tx.Type = typ
	} else {
		row.Errors = append(row.Errors, errBadType)
	}

	catName := get(cols.category)
	if cat, ok := catByName[strings.ToLower(catName)]; ok {
		tx.CategoryID = cat.ID
	} else {
		row.Errors = append(row.Errors, fmt.Sprintf("Category not found: %s", catName))
	}

	tx.Description = get(cols.description)

	if cur := strings.ToUpper(get(cols.currency)); cur != "" {
		if core.ValidCurrency(cur) {
			tx.Currency = cur
		} else {
			row.Errors = append(row.Errors, fmt.Sprintf("Invalid currency code: %s", cur))
		}
	}

	row.Transaction = tx
	row.Valid = len(row.Errors) == 0
	return row
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func isDuplicate(tx core.Transaction, against []core.Transaction) bool {
	for _, other := range against {
		if tx.Type == other.Type &&
			tx.CategoryID == other.CategoryID &&
			strings.EqualFold(tx.Title, other.Title) &&
			tx.Amount.WithinTolerance(other.Amount) &&
			core.SameDay(tx.Date, other.Date) {
			return true
		}
	}
	return false
}

func emptyRecord(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
