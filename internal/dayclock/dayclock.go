// Package dayclock expresses wall-clock time as a fractional day number.
//
// The integer part counts calendar days since 1970-01-01 in the configured
// location and the fractional part is the time of day, so 0.5 is noon and
// floor(n) identifies the calendar day.
package dayclock

import (
	"math"
	"strconv"
	"time"
)

const secondsPerDay = 86400

// Clock reports the current fractional day number.
type Clock interface {
	Now() float64
}

// System is a Clock backed by time.Now in a fixed location.
type System struct {
	loc *time.Location
}

// NewSystem returns a clock that counts days in loc. A nil loc means UTC.
func NewSystem(loc *time.Location) *System {
	if loc == nil {
		loc = time.UTC
	}
	return &System{loc: loc}
}

func (s *System) Now() float64 {
	return FromTime(time.Now().In(s.loc))
}

// Fixed is a Clock frozen at a given day number. Tests advance it by hand.
type Fixed struct {
	Day float64
}

func (f *Fixed) Now() float64 { return f.Day }

// Advance moves the clock forward by days.
func (f *Fixed) Advance(days float64) { f.Day += days }

// FromTime converts t to a day number using t's own zone offset.
func FromTime(t time.Time) float64 {
	_, offset := t.Zone()
	secs := float64(t.Unix()+int64(offset)) + float64(t.Nanosecond())/1e9
	return secs / secondsPerDay
}

// Today is the integer calendar day containing day.
func Today(day float64) int64 {
	return int64(math.Floor(day))
}

// Hour is the local hour of day (0-23) encoded in day.
func Hour(day float64) int {
	frac := day - math.Floor(day)
	// Nudge past float error so 01:00:00 is hour 1, not 0.
	return int(math.Floor(frac*24+1e-9)) % 24
}

// Describe renders an elapsed number of days the way notifications phrase it.
func Describe(days float64) string {
	switch {
	case days < 1.0/24:
		return "just now"
	case days < 1:
		h := int(math.Round(days * 24))
		if h == 1 {
			return "1 hour ago"
		}
		return strconv.Itoa(h) + " hours ago"
	default:
		d := int(math.Round(days))
		if d == 1 {
			return "1 day ago"
		}
		return strconv.Itoa(d) + " days ago"
	}
}
