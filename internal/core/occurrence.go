package core

import "time"

// NextOccurrence computes the earliest date on or after today that lies on
// the series start + k*period for a non-negative integer k.
//
// Month and year steps follow calendar semantics with clamping: a series
// starting Jan 31 falls due on Feb 28 (29 in leap years), never on Mar 2.
// All returned dates are UTC midnights.
//
// The second return value is false when the series is exhausted: end is set
// and the computed occurrence would fall after it.
func NextOccurrence(start time.Time, freq Frequency, end, today time.Time) (time.Time, bool) {
	start = dateOnly(start)
	today = dateOnly(today)
	if !end.IsZero() {
		end = dateOnly(end)
	}

	var next time.Time
	if !today.After(start) {
		next = start
	} else {
		switch freq {
		case Daily:
			next = today
		case Weekly:
			days := int(today.Sub(start).Hours() / 24)
			k := days / 7
			next = start.AddDate(0, 0, k*7)
			if next.Before(today) {
				next = start.AddDate(0, 0, (k+1)*7)
			}
		case Monthly:
			k := monthsBetween(start, today)
			next = addMonthsClamped(start, k)
			if next.Before(today) {
				next = addMonthsClamped(start, k+1)
			}
		case Yearly:
			k := today.Year() - start.Year()
			next = addMonthsClamped(start, k*12)
			if next.Before(today) {
				next = addMonthsClamped(start, (k+1)*12)
			}
		default:
			return time.Time{}, false
		}
	}

	if !end.IsZero() && next.After(end) {
		return time.Time{}, false
	}
	return next, true
}

// LatestOccurrence computes the latest date on or before today that lies on
// the series grid, clamped to end when the series has one. ok is false when
// today falls before the series start.
func LatestOccurrence(start time.Time, freq Frequency, end, today time.Time) (time.Time, bool) {
	start = dateOnly(start)
	today = dateOnly(today)
	if !end.IsZero() {
		if e := dateOnly(end); e.Before(today) {
			today = e
		}
	}
	if today.Before(start) {
		return time.Time{}, false
	}

	var prev time.Time
	switch freq {
	case Daily:
		prev = today
	case Weekly:
		days := int(today.Sub(start).Hours() / 24)
		prev = start.AddDate(0, 0, (days/7)*7)
	case Monthly:
		k := monthsBetween(start, today)
		prev = addMonthsClamped(start, k)
		if prev.After(today) {
			prev = addMonthsClamped(start, k-1)
		}
	case Yearly:
		k := today.Year() - start.Year()
		prev = addMonthsClamped(start, k*12)
		if prev.After(today) {
			prev = addMonthsClamped(start, (k-1)*12)
		}
	default:
		return time.Time{}, false
	}
	return prev, true
}

// RecentMonths returns the first day of the n most recent months, newest
// first, starting with the month of now. Walking from the first of the
// month keeps the sequence exact even when now is a month-end date.
func RecentMonths(now time.Time, n int) []time.Time {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	months := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		months = append(months, first.AddDate(0, -i, 0))
	}
	return months
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func monthsBetween(from, to time.Time) int {
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if months < 0 {
		return 0
	}
	return months
}

// addMonthsClamped adds n calendar months, clamping the day of month to the
// last valid day of the target month instead of letting it roll over.
func addMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	month := int(m) + n
	y += (month - 1) / 12
	month = (month-1)%12 + 1
	if month < 1 { // negative n, not used by NextOccurrence but kept correct
		month += 12
		y--
	}
	last := lastDayOfMonth(y, time.Month(month))
	if d > last {
		d = last
	}
	return time.Date(y, time.Month(month), d, 0, 0, 0, 0, time.UTC)
}

func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// NextDue is the display-side projection for a recurring template: the next
// occurrence strictly derived from start date, frequency and end date.
func (rt RecurringTransaction) NextDue(today time.Time) (time.Time, bool) {
	return NextOccurrence(rt.StartDate, rt.Frequency, rt.EndDate, today)
}
