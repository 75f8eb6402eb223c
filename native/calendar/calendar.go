package calendar

const (
	secondsPerDay  = 86_400
	daysPerYear    = 365
	secondsPerYear = secondsPerDay * daysPerYear
)

// Calendar supplies the day-count primitives consumed by time-proportional
// yield accrual.
type Calendar interface {
	// DaysBetween reports the whole days elapsed between two unix
	// timestamps. Negative ranges report zero.
	DaysBetween(t0, t1 int64) int64
	// SecondsPerYear reports the annualisation basis for yield math.
	SecondsPerYear() int64
}

// Standard implements the 365-day banking calendar used by the pool.
type Standard struct{}

// NewStandard returns the default 365-day calendar.
func NewStandard() Standard { return Standard{} }

func (Standard) DaysBetween(t0, t1 int64) int64 {
	if t1 <= t0 {
		return 0
	}
	return (t1 - t0) / secondsPerDay
}

func (Standard) SecondsPerYear() int64 { return secondsPerYear }
