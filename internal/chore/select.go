package chore

import (
	"math"
	"sort"

	"github.com/dukerupert/homebase/internal/model"
)

const (
	// RecentWindow is how long (in days) a chore stays off the table after
	// it was completed or handed to anyone, about 2.4 hours.
	RecentWindow = 0.1

	// maxPenalty caps the recency penalty so a chore assigned moments ago
	// can still lose to one that is many cycles overdue.
	maxPenalty = 2.0
)

// IsCandidate reports whether c may be offered to userID at now.
func IsCandidate(c model.Chore, userID int64, now float64) bool {
	if c.Frequency <= 0 {
		return false
	}
	if !(c.LastDone < now-RecentWindow) {
		return false
	}
	if c.LastTimeAssigned != nil && !(*c.LastTimeAssigned < now-RecentWindow) {
		return false
	}
	if c.DoneBy != nil && *c.DoneBy != userID {
		return false
	}
	return c.LastDone+float64(c.Frequency) < now
}

// Rank scores a candidate: cycles elapsed since it was last done, minus a
// capped penalty for having been handed out recently.
func Rank(c model.Chore, now float64) float64 {
	cycle := (now - c.LastDone) / float64(c.Frequency)

	var assigned float64
	if c.LastTimeAssigned != nil {
		assigned = *c.LastTimeAssigned
	}
	gap := math.Max(RecentWindow, now-assigned)
	penalty := math.Min(maxPenalty, 1/gap)

	return cycle - penalty
}

// Pick returns the best candidate for userID, or nil when nothing is due.
// Ties keep the input order, so callers pass chores sorted by id.
func Pick(chores []model.Chore, userID int64, now float64) *model.Chore {
	type scored struct {
		chore model.Chore
		rank  float64
	}

	var candidates []scored
	for _, c := range chores {
		if IsCandidate(c, userID, now) {
			candidates = append(candidates, scored{chore: c, rank: Rank(c, now)})
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].rank > candidates[j].rank
	})
	best := candidates[0].chore
	return &best
}
