package calendar

import "testing"

func TestStandardDaysBetween(t *testing.T) {
	cal := NewStandard()

	cases := []struct {
		name   string
		t0, t1 int64
		want   int64
	}{
		{"same instant", 1_000, 1_000, 0},
		{"partial day truncates", 0, 86_399, 0},
		{"exactly one day", 0, 86_400, 1},
		{"one day and change", 0, 90_000, 1},
		{"full year", 0, 365 * 86_400, 365},
		{"negative range", 86_400, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := cal.DaysBetween(tc.t0, tc.t1); got != tc.want {
				t.Fatalf("DaysBetween(%d, %d) = %d, want %d", tc.t0, tc.t1, got, tc.want)
			}
		})
	}
}

func TestStandardSecondsPerYear(t *testing.T) {
	if got := NewStandard().SecondsPerYear(); got != 31_536_000 {
		t.Fatalf("SecondsPerYear() = %d, want 31536000", got)
	}
}
