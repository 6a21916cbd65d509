package model

import "time"

// Chore is a recurring household job. LastDone and LastTimeAssigned are
// fractional day numbers (see package dayclock).
type Chore struct {
	ID               int64     `json:"id"`
	HouseholdID      int64     `json:"household_id"`
	Name             string    `json:"name"`
	Frequency        int       `json:"frequency"`
	LastDone         float64   `json:"last_done"`
	LastTimeAssigned *float64  `json:"last_time_assigned"`
	DoneBy           *int64    `json:"done_by"`
	LastDoneBy       *int64    `json:"last_done_by"`
	CreatedAt        time.Time `json:"created_at"`
}

// ChoreStatus is one row of the household overview.
type ChoreStatus struct {
	Chore
	DueIn        float64 `json:"due_in"`
	Overdue      bool    `json:"overdue"`
	AssignedTo   *int64  `json:"assigned_to,omitempty"`
	LastDoneName string  `json:"last_done_name,omitempty"`
}

// HouseholdOverview is the cached aggregate view of a household's chores.
type HouseholdOverview struct {
	HouseholdID int64         `json:"household_id"`
	GeneratedAt float64       `json:"generated_at"`
	Chores      []ChoreStatus `json:"chores"`
}

// CompletionResult is returned by chore completion.
type CompletionResult struct {
	Success      bool `json:"success"`
	Streak       int  `json:"streak,omitempty"`
	IsFirstToday bool `json:"is_first_today,omitempty"`
}
