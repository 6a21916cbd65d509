package chore

import "github.com/dukerupert/homebase/internal/dayclock"

// Streak is a user's consecutive-day completion state after a completion.
type Streak struct {
	LastActiveDate int64
	Current        int
	IsFirstToday   bool
}

// NextStreak applies one completion at now to the stored streak fields.
// Completing on the day after the last active day extends the streak; a gap
// or no history restarts it at 1; a second completion on the same day
// changes nothing.
func NextStreak(lastActive *int64, current int, now float64) Streak {
	today := dayclock.Today(now)
	if lastActive != nil && *lastActive == today {
		return Streak{LastActiveDate: today, Current: current}
	}

	next := 1
	if lastActive != nil && *lastActive == today-1 {
		next = current + 1
	}
	return Streak{LastActiveDate: today, Current: next, IsFirstToday: true}
}
