package dayclock

import (
	"testing"
	"time"
)

func TestFromTimeEpoch(t *testing.T) {
	got := FromTime(time.Date(1970, 1, 2, 12, 0, 0, 0, time.UTC))
	if got != 1.5 {
		t.Errorf("FromTime = %v, want 1.5", got)
	}
}

func TestFromTimeUsesZoneOffset(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	// 01:00 local on Feb 5 is 06:00 UTC; the calendar day must still be Feb 5 local.
	local := time.Date(2026, 2, 5, 1, 0, 0, 0, loc)
	utcDay := Today(FromTime(time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)))

	if got := Today(FromTime(local)); got != utcDay {
		t.Errorf("Today = %d, want %d", got, utcDay)
	}
	if got := Hour(FromTime(local)); got != 1 {
		t.Errorf("Hour = %d, want 1", got)
	}
}

func TestFixedAdvance(t *testing.T) {
	c := &Fixed{Day: 100}
	c.Advance(0.25)
	if c.Now() != 100.25 {
		t.Errorf("Now = %v, want 100.25", c.Now())
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		days float64
		want string
	}{
		{0.01, "just now"},
		{1.0 / 24, "1 hour ago"},
		{0.25, "6 hours ago"},
		{1, "1 day ago"},
		{3.4, "3 days ago"},
	}
	for _, tt := range tests {
		if got := Describe(tt.days); got != tt.want {
			t.Errorf("Describe(%v) = %q, want %q", tt.days, got, tt.want)
		}
	}
}
