// Package period models the accounting period a payout covers.
package period

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateFormat is the layout of period boundaries.
const DateFormat = "2006-01-02"

// DefaultLengthDays is the length of a regular payout period.
const DefaultLengthDays = 7

// Period is the half-open interval [Start, End) at UTC midnight.
type Period struct {
	Start time.Time
	End   time.Time
}

// New parses start as YYYY-MM-DD and spans lengthDays days.
func New(start string, lengthDays int) (Period, error) {
	if lengthDays <= 0 {
		return Period{}, fmt.Errorf("period: length must be positive, got %d", lengthDays)
	}
	t, err := time.ParseInLocation(DateFormat, strings.TrimSpace(start), time.UTC)
	if err != nil {
		return Period{}, fmt.Errorf("period: invalid start %q: %w", start, err)
	}
	return Period{Start: t, End: t.AddDate(0, 0, lengthDays)}, nil
}

// MustNew is New for literals.
func MustNew(start string, lengthDays int) Period {
	p, err := New(start, lengthDays)
	if err != nil {
		panic(err)
	}
	return p
}

// Days returns the length of the period in days.
func (p Period) Days() int {
	return int(p.End.Sub(p.Start).Hours() / 24)
}

// PriceDay is the last day inside the period. Prices for the payout are
// taken on this day.
func (p Period) PriceDay() time.Time {
	return p.End.AddDate(0, 0, -1)
}

// String renders YYYY-MM-DD-to-YYYY-MM-DD.
func (p Period) String() string {
	return p.Start.Format(DateFormat) + "-to-" + p.End.Format(DateFormat)
}

// Hash turns (1985-03-10, 1994-04-05) into 1985031019940405.
func (p Period) Hash() uint64 {
	v, _ := strconv.ParseUint(p.Start.Format("20060102")+p.End.Format("20060102"), 10, 64)
	return v
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// QueryParams returns the boundaries in the form the analytics queries take.
func (p Period) QueryParams() map[string]string {
	return map[string]string{
		"start_time": p.Start.Format("2006-01-02 15:04:05"),
		"end_time":   p.End.Format("2006-01-02 15:04:05"),
	}
}
