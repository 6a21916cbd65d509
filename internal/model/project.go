package model

import "time"

type Project struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"household_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Task is a unit of project work. Completed is a fractional day number.
// A task may depend on up to two other tasks in the same project;
// Requirement2 is only ever set when Requirement1 is.
type Task struct {
	ID           int64     `json:"id"`
	HouseholdID  int64     `json:"household_id"`
	ProjectID    *int64    `json:"project_id"`
	Description  string    `json:"description"`
	AddedBy      int64     `json:"added_by"`
	Completed    *float64  `json:"completed"`
	Requirement1 *int64    `json:"requirement1"`
	Requirement2 *int64    `json:"requirement2"`
	CreatedAt    time.Time `json:"created_at"`
}

// Requirements returns the non-nil requirement ids in slot order.
func (t *Task) Requirements() []int64 {
	var ids []int64
	if t.Requirement1 != nil {
		ids = append(ids, *t.Requirement1)
	}
	if t.Requirement2 != nil {
		ids = append(ids, *t.Requirement2)
	}
	return ids
}

type AugmentedProject struct {
	Project
	TotalSubtasks int `json:"total_subtasks"`
	DoneSubtasks  int `json:"done_subtasks"`
	ReadySubtasks int `json:"ready_subtasks"`
}
