package timeutil

import (
	"time"
)

// Business is the vendor's local timezone (Bangladesh Standard Time, UTC+6).
// Due dates, overdue checks and issue dates are all evaluated here.
var Business *time.Location

func init() {
	var err error
	Business, err = time.LoadLocation("Asia/Dhaka")
	if err != nil {
		// tzdata missing in minimal images
		Business = time.FixedZone("BST", 6*60*60)
	}
}

// Now returns the current time in the business timezone
func Now() time.Time {
	return time.Now().In(Business)
}

// ToBusiness converts any time to the business timezone
func ToBusiness(t time.Time) time.Time {
	return t.In(Business)
}

// ParseDate parses a YYYY-MM-DD date as midnight in the business timezone.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, Business)
}

// Format formats t in the business timezone using the given layout
func Format(t time.Time, layout string) string {
	return t.In(Business).Format(layout)
}

// StartOfDay returns 00:00:00 of t's day in the business timezone
func StartOfDay(t time.Time) time.Time {
	local := t.In(Business)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, Business)
}

// EndOfDay returns the last instant of t's day in the business timezone
func EndOfDay(t time.Time) time.Time {
	local := t.In(Business)
	return time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, 999999999, Business)
}

// AddDays returns the end of the day n days after t; used for payment terms.
func AddDays(t time.Time, n int) time.Time {
	return EndOfDay(t.In(Business).AddDate(0, 0, n))
}

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
	DisplayLayout  = "02 Jan 2006"
)
