package model

import "time"

type Household struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	TelegramChatID string    `json:"telegram_chat_id"`
	AutoChores     bool      `json:"auto_chores"`
	AutoTasks      bool      `json:"auto_tasks"`
	AssignHour     int       `json:"assign_hour"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// User is a household member. HouseholdID is nil until the user joins one.
type User struct {
	ID             int64     `json:"id"`
	HouseholdID    *int64    `json:"household_id"`
	Name           string    `json:"name"`
	TelegramChatID string    `json:"telegram_chat_id"`
	LastActiveDate *int64    `json:"last_active_date"`
	CurrentStreak  int       `json:"current_streak"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// InHousehold reports whether u belongs to householdID.
func (u *User) InHousehold(householdID int64) bool {
	return u != nil && u.HouseholdID != nil && *u.HouseholdID == householdID
}
