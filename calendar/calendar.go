package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/meenmo/rateslib/errs"
)

// CalendarID identifies a holiday calendar.
type CalendarID string

const (
	TARGET CalendarID = "TARGET"
	JPN    CalendarID = "JPN"
	USD    CalendarID = "USD"
	KRW    CalendarID = "KRW"
	// NONE treats every weekday as a business day.
	NONE CalendarID = "NONE"
)

// Parse maps a calendar name to its ID. Empty means NONE.
func Parse(s string) (CalendarID, error) {
	id := CalendarID(strings.ToUpper(strings.TrimSpace(s)))
	switch id {
	case "":
		return NONE, nil
	case TARGET, JPN, USD, KRW, NONE:
		return id, nil
	default:
		return "", fmt.Errorf("calendar.Parse: unknown calendar %q: %w", s, errs.ErrInvalidInput)
	}
}

func isHoliday(cal CalendarID, t time.Time) bool {
	m, d := t.Month(), t.Day()
	switch cal {
	case TARGET:
		if (m == time.January && d == 1) || (m == time.May && d == 1) ||
			(m == time.December && (d == 25 || d == 26)) {
			return true
		}
		easter := easterSunday(t.Year())
		return sameDay(t, easter.AddDate(0, 0, -2)) || sameDay(t, easter.AddDate(0, 0, 1))
	case USD:
		return (m == time.January && d == 1) || (m == time.July && d == 4) ||
			(m == time.November && d == 11) || (m == time.December && d == 25)
	case JPN:
		return (m == time.January && d <= 3) || (m == time.December && d == 31)
	case KRW:
		return (m == time.January && d == 1) || (m == time.March && d == 1) ||
			(m == time.May && d == 5) || (m == time.June && d == 6) ||
			(m == time.August && d == 15) || (m == time.October && (d == 3 || d == 9)) ||
			(m == time.December && d == 25)
	default:
		return false
	}
}

// easterSunday uses the anonymous Gregorian algorithm.
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// IsBusinessDay checks weekends and holiday sets.
func IsBusinessDay(cal CalendarID, t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !isHoliday(cal, t)
}

// Adjust applies Modified Following.
func Adjust(cal CalendarID, t time.Time) time.Time {
	origMonth := t.Month()
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	if t.Month() != origMonth {
		t = t.AddDate(0, 0, -1)
		for !IsBusinessDay(cal, t) {
			t = t.AddDate(0, 0, -1)
		}
	}
	return t
}

// AddBusinessDays advances n business days (n can be negative).
func AddBusinessDays(cal CalendarID, t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if IsBusinessDay(cal, t) {
			n -= step
		}
	}
	return t
}
