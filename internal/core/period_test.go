package core

import "testing"

func TestMonthStart(t *testing.T) {
	cases := []struct {
		name  string
		today Date
		want  Date
	}{
		{"mid month", NewDate(2024, 3, 15), NewDate(2024, 3, 1)},
		{"first day of month", NewDate(2024, 3, 1), NewDate(2024, 3, 1)},
		{"last day of month", NewDate(2024, 12, 31), NewDate(2024, 12, 1)},
		{"january", NewDate(2025, 1, 7), NewDate(2025, 1, 1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MonthStart(tc.today)
			if !got.Equal(tc.want.Time) {
				t.Fatalf("MonthStart(%v) = %v, want %v", tc.today, got, tc.want)
			}
		})
	}
}

func TestMonthStartWindowInclusive(t *testing.T) {
	// A transaction dated exactly on the first of the month must fall inside
	// the window [MonthStart, +inf).
	start := MonthStart(NewDate(2024, 3, 15))
	onBoundary := NewDate(2024, 3, 1)
	if onBoundary.Before(start) {
		t.Fatal("first day of month must be inside the period window")
	}
	previousMonth := NewDate(2024, 2, 29)
	if !previousMonth.Before(start) {
		t.Fatal("previous month must be outside the period window")
	}
}
