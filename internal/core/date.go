package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar date stored at midnight UTC.
type Date struct {
	time.Time
}

// Month is a budget month key in YYYY-MM form.
type Month string

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current date in UTC.
func Today() Date {
	return DateOf(time.Now())
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a date string in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, b)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseMonth validates a YYYY-MM month key.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil || len(s) != 7 {
		return "", ErrInvalidMonth
	}
	return Month(t.Format("2006-01")), nil
}

// MonthOf returns the month key containing d.
func MonthOf(d Date) Month {
	return Month(d.Format("2006-01"))
}

// CurrentMonth returns the month key for today.
func CurrentMonth() Month {
	return MonthOf(Today())
}

// Bounds returns the first and last day of the month. The month must be valid.
func (m Month) Bounds() (Date, Date) {
	t, _ := time.Parse("2006-01", string(m))
	first := Date{Time: t}
	last := Date{Time: t.AddDate(0, 1, -1)}
	return first, last
}

func (m Month) String() string { return string(m) }
