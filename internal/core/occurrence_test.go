package core

import (
	"testing"
	"time"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestNextOccurrence(t *testing.T) {
	tests := []struct {
		name   string
		start  time.Time
		freq   Frequency
		end    time.Time
		today  time.Time
		want   time.Time
		wantOK bool
	}{
		{
			name:   "start in the future returns start",
			start:  d(2024, 3, 1),
			freq:   Monthly,
			today:  d(2024, 1, 15),
			want:   d(2024, 3, 1),
			wantOK: true,
		},
		{
			name:   "daily today",
			start:  d(2024, 1, 1),
			freq:   Daily,
			today:  d(2024, 1, 15),
			want:   d(2024, 1, 15),
			wantOK: true,
		},
		{
			name:   "weekly lands on cycle boundary",
			start:  d(2024, 1, 1), // Monday
			freq:   Weekly,
			today:  d(2024, 1, 10),
			want:   d(2024, 1, 15),
			wantOK: true,
		},
		{
			name:   "weekly when today is an occurrence",
			start:  d(2024, 1, 1),
			freq:   Weekly,
			today:  d(2024, 1, 8),
			want:   d(2024, 1, 8),
			wantOK: true,
		},
		{
			name:   "monthly same day",
			start:  d(2024, 1, 10),
			freq:   Monthly,
			today:  d(2024, 3, 5),
			want:   d(2024, 3, 10),
			wantOK: true,
		},
		{
			name:   "monthly past target day rolls to next month",
			start:  d(2024, 1, 10),
			freq:   Monthly,
			today:  d(2024, 3, 11),
			want:   d(2024, 4, 10),
			wantOK: true,
		},
		{
			name:   "jan 31 clamps to feb 29 in leap year",
			start:  d(2024, 1, 31),
			freq:   Monthly,
			today:  d(2024, 2, 1),
			want:   d(2024, 2, 29),
			wantOK: true,
		},
		{
			name:   "jan 31 clamps to feb 28 in common year",
			start:  d(2025, 1, 31),
			freq:   Monthly,
			today:  d(2025, 2, 1),
			want:   d(2025, 2, 28),
			wantOK: true,
		},
		{
			name:   "clamped month does not shift march back",
			start:  d(2024, 1, 31),
			freq:   Monthly,
			today:  d(2024, 3, 1),
			want:   d(2024, 3, 31),
			wantOK: true,
		},
		{
			name:   "yearly feb 29 clamps in common year",
			start:  d(2024, 2, 29),
			freq:   Yearly,
			today:  d(2025, 1, 1),
			want:   d(2025, 2, 28),
			wantOK: true,
		},
		{
			name:   "yearly after anniversary rolls to next year",
			start:  d(2022, 6, 15),
			freq:   Yearly,
			today:  d(2024, 6, 16),
			want:   d(2025, 6, 15),
			wantOK: true,
		},
		{
			name:   "end date exhausts the series",
			start:  d(2024, 1, 1),
			freq:   Monthly,
			end:    d(2024, 3, 1),
			today:  d(2024, 3, 2),
			wantOK: false,
		},
		{
			name:   "occurrence exactly on end date still valid",
			start:  d(2024, 1, 1),
			freq:   Monthly,
			end:    d(2024, 3, 1),
			today:  d(2024, 2, 2),
			want:   d(2024, 3, 1),
			wantOK: true,
		},
		{
			name:   "unknown frequency",
			start:  d(2024, 1, 1),
			freq:   Frequency("biweekly"),
			today:  d(2024, 2, 1),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NextOccurrence(tt.start, tt.freq, tt.end, tt.today)
			if ok != tt.wantOK {
				t.Fatalf("NextOccurrence() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("NextOccurrence() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextOccurrence_NeverBeforeStart(t *testing.T) {
	start := d(2024, 5, 20)
	for _, freq := range []Frequency{Daily, Weekly, Monthly, Yearly} {
		got, ok := NextOccurrence(start, freq, time.Time{}, d(2023, 1, 1))
		if !ok {
			t.Fatalf("%s: series unexpectedly exhausted", freq)
		}
		if got.Before(start) {
			t.Errorf("%s: occurrence %v before start %v", freq, got, start)
		}
	}
}

func TestNextOccurrence_NeverAfterEnd(t *testing.T) {
	start := d(2024, 1, 1)
	end := d(2024, 6, 30)
	for _, freq := range []Frequency{Daily, Weekly, Monthly, Yearly} {
		for today := start; today.Before(d(2025, 1, 1)); today = today.AddDate(0, 0, 11) {
			got, ok := NextOccurrence(start, freq, end, today)
			if ok && got.After(end) {
				t.Errorf("%s today=%v: occurrence %v after end %v", freq, today, got, end)
			}
		}
	}
}

func TestRecentMonths(t *testing.T) {
	// A month-end anchor must not skip the short month behind it:
	// naive AddDate from Oct 31 lands on Sep 31, which normalizes to
	// Oct 1 and drops September entirely.
	months := RecentMonths(d(2024, time.October, 31), 4)
	want := []time.Time{
		d(2024, time.October, 1),
		d(2024, time.September, 1),
		d(2024, time.August, 1),
		d(2024, time.July, 1),
	}
	if len(months) != len(want) {
		t.Fatalf("RecentMonths() returned %d months, want %d", len(months), len(want))
	}
	for i, m := range months {
		if !m.Equal(want[i]) {
			t.Errorf("month %d = %v, want %v", i, m, want[i])
		}
	}

	// Year boundary.
	months = RecentMonths(d(2025, time.January, 15), 2)
	if !months[1].Equal(d(2024, time.December, 1)) {
		t.Errorf("month before January = %v, want December 2024", months[1])
	}
}

func TestLatestOccurrence(t *testing.T) {
	start := d(2025, time.January, 6) // a Monday

	tests := []struct {
		name  string
		freq  Frequency
		end   time.Time
		today time.Time
		want  time.Time
		ok    bool
	}{
		{"daily is today", Daily, time.Time{}, d(2025, 1, 20), d(2025, 1, 20), true},
		{"weekly snaps back to the grid", Weekly, time.Time{}, d(2025, time.January, 23), d(2025, time.January, 20), true},
		{"weekly on a grid day", Weekly, time.Time{}, d(2025, time.January, 20), d(2025, time.January, 20), true},
		{"monthly before this month's date", Monthly, time.Time{}, d(2025, time.March, 3), d(2025, time.February, 6), true},
		{"clamped to end", Weekly, d(2025, time.January, 15), d(2025, time.February, 1), d(2025, time.January, 13), true},
		{"before start", Weekly, time.Time{}, d(2025, time.January, 2), time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := LatestOccurrence(start, tt.freq, tt.end, tt.today)
			if ok != tt.ok {
				t.Fatalf("LatestOccurrence() ok = %v, want %v", ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("LatestOccurrence() = %v, want %v", got, tt.want)
			}
		})
	}
}
