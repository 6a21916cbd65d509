// Package chore decides which recurring chore each household member should
// do next and tracks completions and streaks.
package chore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/homebase/internal/apperr"
	"github.com/dukerupert/homebase/internal/dayclock"
	"github.com/dukerupert/homebase/internal/kv"
	"github.com/dukerupert/homebase/internal/model"
	"github.com/dukerupert/homebase/internal/notify"
	"github.com/dukerupert/homebase/internal/store"
)

const (
	// AssignmentTTL bounds how long a handed-out chore stays queued for a user.
	AssignmentTTL = 23 * time.Hour

	overviewTTL = 10 * time.Minute

	// completionNotifyWindow suppresses repeat completion announcements for
	// a chore completed again within about an hour.
	completionNotifyWindow = 0.05

	maxClaimAttempts = 3
)

type ChoreRepo interface {
	Create(ctx context.Context, householdID int64, name string, frequency int, lastDone float64, doneBy *int64) (*model.Chore, error)
	GetByID(ctx context.Context, id int64) (*model.Chore, error)
	ListByHousehold(ctx context.Context, householdID int64) ([]model.Chore, error)
	Update(ctx context.Context, id int64, name string, frequency int, doneBy *int64) (*model.Chore, error)
	Delete(ctx context.Context, id int64) error
	ClaimAssignment(ctx context.Context, id int64, before *float64, now float64) (bool, error)
	ReleaseAssignment(ctx context.Context, id int64, claimedAt float64, previous *float64) error
	RecordCompletion(ctx context.Context, id int64, now float64, userID int64, streak *store.StreakUpdate) error
}

type UserRepo interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetMany(ctx context.Context, ids []int64) (map[int64]*model.User, error)
	ListByHousehold(ctx context.Context, householdID int64) ([]model.User, error)
}

type HouseholdRepo interface {
	GetByID(ctx context.Context, id int64) (*model.Household, error)
}

// Publisher receives live household events. It may be nil.
type Publisher interface {
	Publish(householdID int64, entity, action string, id int64)
}

// Deps is everything a Service needs. Nothing in this package is global;
// the HTTP server and the trigger share one Service.
type Deps struct {
	Chores     ChoreRepo
	Users      UserRepo
	Households HouseholdRepo
	Cache      kv.Store
	Notifier   notify.Sender
	Clock      dayclock.Clock
	Events     Publisher
	Logger     *slog.Logger
}

type Service struct {
	chores     ChoreRepo
	users      UserRepo
	households HouseholdRepo
	cache      kv.Store
	notifier   notify.Sender
	clock      dayclock.Clock
	events     Publisher
	logger     *slog.Logger
}

func NewService(d Deps) *Service {
	if d.Notifier == nil {
		d.Notifier = notify.Nop{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Service{
		chores:     d.Chores,
		users:      d.Users,
		households: d.Households,
		cache:      d.Cache,
		notifier:   d.Notifier,
		clock:      d.Clock,
		events:     d.Events,
		logger:     d.Logger,
	}
}

func assignmentKey(userID int64) string {
	return fmt.Sprintf("chore:assigned:user:%d", userID)
}

func overviewKey(householdID int64) string {
	return fmt.Sprintf("household:%d:overview", householdID)
}

func (s *Service) fail(ctx context.Context, err error, attrs ...any) {
	level := slog.LevelError
	if k := apperr.KindOf(err); k == apperr.NotFound || k == apperr.Validation || k == apperr.Forbidden {
		level = slog.LevelWarn
	}
	s.logger.Log(ctx, level, "chore operation failed", append(attrs, "kind", apperr.KindOf(err).String(), "error", err)...)
}

func (s *Service) publish(householdID int64, action string, id int64) {
	if s.events != nil {
		s.events.Publish(householdID, "chore", action, id)
	}
}

func validID(id int64) bool { return id > 0 }

// PickNextChore runs the selection algorithm without side effects.
func (s *Service) PickNextChore(ctx context.Context, householdID, userID int64) *model.Chore {
	const op = "chore.pick"
	if !validID(householdID) || !validID(userID) {
		s.fail(ctx, apperr.E(op, apperr.Validation, "invalid id"), "household_id", householdID, "user_id", userID)
		return nil
	}
	chores, err := s.chores.ListByHousehold(ctx, householdID)
	if err != nil {
		s.fail(ctx, apperr.E(op, apperr.Storage, err), "household_id", householdID)
		return nil
	}
	return Pick(chores, userID, s.clock.Now())
}

// GetCurrentChore returns the chore queued for userID, if any. A cache entry
// pointing at a deleted chore is removed.
func (s *Service) GetCurrentChore(ctx context.Context, userID int64) *model.Chore {
	const op = "chore.current"
	if !validID(userID) {
		s.fail(ctx, apperr.E(op, apperr.Validation, "invalid user id"), "user_id", userID)
		return nil
	}

	key := assignmentKey(userID)
	choreID, ok, err := kv.GetID(ctx, s.cache, key)
	if err != nil {
		s.fail(ctx, apperr.E(op, apperr.Storage, err), "user_id", userID)
		return nil
	}
	if !ok {
		return nil
	}

	c, err := s.chores.GetByID(ctx, choreID)
	if err != nil {
		s.fail(ctx, apperr.E(op, apperr.Storage, err), "user_id", userID, "chore_id", choreID)
		return nil
	}
	if c == nil {
		if err := s.cache.Delete(ctx, key); err != nil {
			s.fail(ctx, apperr.E(op, apperr.Storage, err), "user_id", userID)
		}
		return nil
	}
	return c
}

// GetNextChore returns the user's queued chore, or selects, claims and
// queues a new one. When notifyRef is non-empty the user is told about a
// newly assigned chore.
func (s *Service) GetNextChore(ctx context.Context, householdID, userID int64, notifyRef string) *model.Chore {
	const op = "chore.next"
	if !validID(householdID) || !validID(userID) {
		s.fail(ctx, apperr.E(op, apperr.Validation, "invalid id"), "household_id", householdID, "user_id", userID)
		return nil
	}

	if current := s.GetCurrentChore(ctx, userID); current != nil {
		if current.HouseholdID == householdID {
			return current
		}
		// Queued in a household the user has since left.
		if err := s.cache.Delete(ctx, assignmentKey(userID)); err != nil {
			s.fail(ctx, apperr.E(op, apperr.Storage, err), "user_id", userID)
			return nil
		}
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.fail(ctx, apperr.E(op, apperr.Storage, err), "user_id", userID)
		return nil
	}
	if user == nil {
		s.fail(ctx, apperr.E(op, apperr.NotFound, "user"), "user_id", userID)
		return nil
	}
	if !user.InHousehold(householdID) {
		s.fail(ctx, apperr.E(op, apperr.Forbidden, "user not in household"), "household_id", householdID, "user_id", userID)
		return nil
	}

	now := s.clock.Now()
	for attempt := 0; attempt < maxClaimAttempts; attempt++ {
		chores, err := s.chores.ListByHousehold(ctx, householdID)
		if err != nil {
			s.fail(ctx, apperr.E(op, apperr.Storage, err), "household_id", householdID)
			return nil
		}
		pick := Pick(chores, userID, now)
		if pick == nil {
			return nil
		}

		assigned, err := s.assign(ctx, userID, pick, now)
		if err != nil {
			s.fail(ctx, apperr.E(op, apperr.Storage, err), "household_id", householdID, "user_id", userID, "chore_id", pick.ID)
			return nil
		}
		if !assigned {
			s.logger.Debug("chore claimed concurrently, reselecting", "chore_id", pick.ID, "attempt", attempt+1)
			continue
		}

		s.invalidateOverview(ctx, householdID)
		s.publish(householdID, "assigned", pick.ID)
		if notifyRef != "" {
			if err := s.notifier.SendToUser(ctx, notifyRef, s.assignmentMessage(ctx, pick, now)); err != nil {
				s.logger.Warn("assignment notification failed", "user_id", userID, "chore_id", pick.ID, "error", err)
			}
		}
		s.logger.Info("chore assigned", "household_id", householdID, "user_id", userID, "chore_id", pick.ID)
		return pick
	}

	s.logger.Warn("chore selection lost every claim", "household_id", householdID, "user_id", userID)
	return nil
}

// assign claims c for userID and queues it. The claim and the cache entry
// land together or not at all: a failed cache write releases the claim.
func (s *Service) assign(ctx context.Context, userID int64, c *model.Chore, now float64) (bool, error) {
	previous := c.LastTimeAssigned
	won, err := s.chores.ClaimAssignment(ctx, c.ID, previous, now)
	if err != nil || !won {
		return false, err
	}

	if err := kv.PutID(ctx, s.cache, assignmentKey(userID), c.ID, AssignmentTTL); err != nil {
		if rerr := s.chores.ReleaseAssignment(ctx, c.ID, now, previous); rerr != nil {
			s.logger.Error("release chore claim", "chore_id", c.ID, "error", rerr)
		}
		return false, err
	}

	c.LastTimeAssigned = &now
	return true, nil
}

func (s *Service) assignmentMessage(ctx context.Context, c *model.Chore, now float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your chore: %s.", c.Name)

	ago := dayclock.Describe(now - c.LastDone)
	if c.LastDoneBy == nil {
		fmt.Fprintf(&b, " Last done %s.", ago)
		return b.String()
	}
	name := "someone"
	if u, err := s.users.GetByID(ctx, *c.LastDoneBy); err == nil && u != nil {
		name = u.Name
	}
	fmt.Fprintf(&b, " Last done %s by %s.", ago, name)
	return b.String()
}

// SkipCurrentChore drops whatever is queued for userID.
func (s *Service) SkipCurrentChore(ctx context.Context, userID int64) bool {
	const op = "chore.skip"
	if !validID(userID) {
		s.fail(ctx, apperr.E(op, apperr.Validation, "invalid user id"), "user_id", userID)
		return false
	}
	if err := s.cache.Delete(ctx, assignmentKey(userID)); err != nil {
		s.fail(ctx, apperr.E(op, apperr.Storage, err), "user_id", userID)
		return false
	}
	if u, err := s.users.GetByID(ctx, userID); err == nil && u != nil && u.HouseholdID != nil {
		s.invalidateOverview(ctx, *u.HouseholdID)
		s.publish(*u.HouseholdID, "skipped", 0)
	}
	return true
}

// CompleteChore records that userID did choreID now. The user's queued
// assignment is left in place until it expires.
func (s *Service) CompleteChore(ctx context.Context, choreID, userID int64) model.CompletionResult {
	const op = "chore.complete"
	failed := model.CompletionResult{Success: false}
	if !validID(choreID) || !validID(userID) {
		s.fail(ctx, apperr.E(op, apperr.Validation, "invalid id"), "chore_id", choreID, "user_id", userID)
		return failed
	}

	c, err := s.chores.GetByID(ctx, choreID)
	if err != nil {
		s.fail(ctx, apperr.E(op, apperr.Storage, err), "chore_id", choreID)
		return failed
	}
	if c == nil {
		s.fail(ctx, apperr.E(op, apperr.NotFound, "chore"), "chore_id", choreID)
		return failed
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.fail(ctx, apperr.E(op, apperr.Storage, err), "user_id", userID)
		return failed
	}
	if user == nil {
		s.fail(ctx, apperr.E(op, apperr.NotFound, "user"), "user_id", userID)
		return failed
	}
	if !user.InHousehold(c.HouseholdID) {
		s.fail(ctx, apperr.E(op, apperr.Forbidden, "user not in chore household"),
			"chore_id", choreID, "user_id", userID, "household_id", c.HouseholdID)
		return failed
	}

	now := s.clock.Now()
	streak := NextStreak(user.LastActiveDate, user.CurrentStreak, now)
	var update *store.StreakUpdate
	if streak.IsFirstToday {
		update = &store.StreakUpdate{UserID: user.ID, LastActiveDate: streak.LastActiveDate, Streak: streak.Current}
	}
	if err := s.chores.RecordCompletion(ctx, c.ID, now, user.ID, update); err != nil {
		s.fail(ctx, apperr.E(op, apperr.Storage, err), "chore_id", choreID, "user_id", userID)
		return failed
	}

	s.invalidateOverview(ctx, c.HouseholdID)
	s.publish(c.HouseholdID, "completed", c.ID)

	if now-completionNotifyWindow > c.LastDone {
		text := fmt.Sprintf("%s completed %s.", user.Name, c.Name)
		if streak.Current > 1 {
			text += fmt.Sprintf(" That's a %d-day streak!", streak.Current)
		}
		if err := s.notifier.SendToHousehold(ctx, c.HouseholdID, text, user.ID); err != nil {
			s.logger.Warn("completion notification failed", "chore_id", c.ID, "error", err)
		}
	}

	s.logger.Info("chore completed", "household_id", c.HouseholdID, "user_id", user.ID,
		"chore_id", c.ID, "streak", streak.Current)
	return model.CompletionResult{Success: true, Streak: streak.Current, IsFirstToday: streak.IsFirstToday}
}

// CreateChore adds a chore whose last completion is backdateDays in the
// past. creatorUserID, when non-nil, must belong to the household. Failures
// are logged and reported as nil.
func (s *Service) CreateChore(ctx context.Context, name string, householdID int64, frequencyDays int, backdateDays float64, creatorUserID *int64) *model.Chore {
	c, err := s.Create(ctx, name, householdID, frequencyDays, backdateDays, creatorUserID)
	if err != nil {
		s.fail(ctx, err, "household_id", householdID)
		return nil
	}
	return c
}

// Create is CreateChore with the failure kind kept in the returned error.
func (s *Service) Create(ctx context.Context, name string, householdID int64, frequencyDays int, backdateDays float64, creatorUserID *int64) (*model.Chore, error) {
	const op = "chore.create"
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return nil, apperr.E(op, apperr.Validation, "name is required")
	case frequencyDays <= 0:
		return nil, apperr.E(op, apperr.Validation, "frequency must be positive")
	case backdateDays < 0:
		return nil, apperr.E(op, apperr.Validation, "backdate must not be negative")
	case !validID(householdID):
		return nil, apperr.E(op, apperr.Validation, "invalid household id")
	}

	h, err := s.households.GetByID(ctx, householdID)
	if err != nil {
		return nil, apperr.E(op, apperr.Storage, err)
	}
	if h == nil {
		return nil, apperr.E(op, apperr.NotFound, "household")
	}
	if creatorUserID != nil {
		creator, err := s.users.GetByID(ctx, *creatorUserID)
		if err != nil {
			return nil, apperr.E(op, apperr.Storage, err)
		}
		if !creator.InHousehold(householdID) {
			return nil, apperr.E(op, apperr.Forbidden, "creator not in household")
		}
	}

	c, err := s.chores.Create(ctx, householdID, name, frequencyDays, s.clock.Now()-backdateDays, nil)
	if err != nil {
		return nil, apperr.E(op, apperr.Storage, err)
	}
	s.invalidateOverview(ctx, householdID)
	s.publish(householdID, "created", c.ID)
	return c, nil
}

// UpdateChore renames a chore, changes its cadence, or pins it to a member.
func (s *Service) UpdateChore(ctx context.Context, householdID, choreID int64, name string, frequencyDays int, doneBy *int64) (*model.Chore, error) {
	const op = "chore.update"
	name = strings.TrimSpace(name)
	if name == "" || frequencyDays <= 0 {
		return nil, apperr.E(op, apperr.Validation, "name and a positive frequency are required")
	}
	if _, err := s.owned(ctx, op, householdID, choreID); err != nil {
		return nil, err
	}
	if doneBy != nil {
		u, err := s.users.GetByID(ctx, *doneBy)
		if err != nil {
			return nil, apperr.E(op, apperr.Storage, err)
		}
		if !u.InHousehold(householdID) {
			return nil, apperr.E(op, apperr.Validation, "assignee is not a household member")
		}
	}

	c, err := s.chores.Update(ctx, choreID, name, frequencyDays, doneBy)
	if err != nil {
		return nil, apperr.E(op, apperr.Storage, err)
	}
	s.invalidateOverview(ctx, householdID)
	s.publish(householdID, "updated", choreID)
	return c, nil
}

func (s *Service) DeleteChore(ctx context.Context, householdID, choreID int64) error {
	const op = "chore.delete"
	if _, err := s.owned(ctx, op, householdID, choreID); err != nil {
		return err
	}
	if err := s.chores.Delete(ctx, choreID); err != nil {
		return apperr.E(op, apperr.Storage, err)
	}
	s.invalidateOverview(ctx, householdID)
	s.publish(householdID, "deleted", choreID)
	return nil
}

func (s *Service) owned(ctx context.Context, op string, householdID, choreID int64) (*model.Chore, error) {
	if !validID(choreID) {
		return nil, apperr.E(op, apperr.Validation, "invalid chore id")
	}
	c, err := s.chores.GetByID(ctx, choreID)
	if err != nil {
		return nil, apperr.E(op, apperr.Storage, err)
	}
	if c == nil {
		return nil, apperr.E(op, apperr.NotFound, "chore")
	}
	if c.HouseholdID != householdID {
		return nil, apperr.E(op, apperr.Forbidden, "chore belongs to another household")
	}
	return c, nil
}

// HouseholdOverview lists a household's chores with their due state and
// current assignee. The result is cached until something changes.
func (s *Service) HouseholdOverview(ctx context.Context, householdID int64) (*model.HouseholdOverview, error) {
	const op = "chore.overview"
	key := overviewKey(householdID)

	if raw, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("overview cache read failed", "household_id", householdID, "error", err)
	} else if ok {
		var ov model.HouseholdOverview
		if err := json.Unmarshal([]byte(raw), &ov); err == nil {
			return &ov, nil
		}
		s.logger.Warn("discarding corrupt overview cache", "household_id", householdID)
	}

	chores, err := s.chores.ListByHousehold(ctx, householdID)
	if err != nil {
		return nil, apperr.E(op, apperr.Storage, err)
	}
	members, err := s.users.ListByHousehold(ctx, householdID)
	if err != nil {
		return nil, apperr.E(op, apperr.Storage, err)
	}

	assignee := make(map[int64]int64, len(members))
	for _, m := range members {
		choreID, ok, err := kv.GetID(ctx, s.cache, assignmentKey(m.ID))
		if err != nil {
			return nil, apperr.E(op, apperr.Storage, err)
		}
		if ok {
			assignee[choreID] = m.ID
		}
	}

	var doneByIDs []int64
	for _, c := range chores {
		if c.LastDoneBy != nil {
			doneByIDs = append(doneByIDs, *c.LastDoneBy)
		}
	}
	names, err := s.users.GetMany(ctx, doneByIDs)
	if err != nil {
		return nil, apperr.E(op, apperr.Storage, err)
	}

	now := s.clock.Now()
	ov := &model.HouseholdOverview{HouseholdID: householdID, GeneratedAt: now, Chores: []model.ChoreStatus{}}
	for _, c := range chores {
		dueIn := c.LastDone + float64(c.Frequency) - now
		st := model.ChoreStatus{Chore: c, DueIn: dueIn, Overdue: dueIn < 0}
		if uid, ok := assignee[c.ID]; ok {
			st.AssignedTo = &uid
		}
		if c.LastDoneBy != nil {
			if u, ok := names[*c.LastDoneBy]; ok {
				st.LastDoneName = u.Name
			}
		}
		ov.Chores = append(ov.Chores, st)
	}

	if raw, err := json.Marshal(ov); err == nil {
		if err := s.cache.Put(ctx, key, string(raw), overviewTTL); err != nil {
			s.logger.Warn("overview cache write failed", "household_id", householdID, "error", err)
		}
	}
	return ov, nil
}

// InvalidateOverview drops the cached household overview, e.g. after a
// membership change.
func (s *Service) InvalidateOverview(ctx context.Context, householdID int64) {
	s.invalidateOverview(ctx, householdID)
}

func (s *Service) invalidateOverview(ctx context.Context, householdID int64) {
	if err := s.cache.Delete(ctx, overviewKey(householdID)); err != nil {
		s.logger.Warn("overview invalidation failed", "household_id", householdID, "error", err)
	}
}
