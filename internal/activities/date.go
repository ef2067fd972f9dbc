package activities

import (
	"errors"
	"time"

	"github.com/2beens/garminstats/pkg"
)

var ErrInvalidDate = errors.New("invalid date format, expected YYYY-MM-DD")

// ParseStartDate parses a YYYY-MM-DD start date. An empty value means the start of
// the current month. Start times of activities are local wall clock times, so the
// date is compared as a wall clock time too and carries no zone.
func ParseStartDate(value string, now time.Time) (time.Time, error) {
	if value == "" {
		month := pkg.StartOfMonth(now)
		return time.Date(month.Year(), month.Month(), month.Day(), 0, 0, 0, 0, time.UTC), nil
	}

	since, err := time.Parse(pkg.DateLayout, value)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return since, nil
}
