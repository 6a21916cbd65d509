// Package notifytest provides a recording notify.Sender for tests.
package notifytest

import (
	"context"
	"sync"
)

type Message struct {
	ChatRef       string
	HouseholdID   int64
	ExcludeUserID int64
	Text          string
}

// Recorder stores every message it is asked to send.
type Recorder struct {
	mu        sync.Mutex
	User      []Message
	Household []Message
	Err       error
}

func (r *Recorder) SendToUser(_ context.Context, chatRef, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if chatRef == "" {
		return nil
	}
	r.User = append(r.User, Message{ChatRef: chatRef, Text: text})
	return r.Err
}

func (r *Recorder) SendToHousehold(_ context.Context, householdID int64, text string, excludeUserID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Household = append(r.Household, Message{HouseholdID: householdID, ExcludeUserID: excludeUserID, Text: text})
	return r.Err
}

// Counts returns the number of user and household messages recorded.
func (r *Recorder) Counts() (user, household int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.User), len(r.Household)
}
