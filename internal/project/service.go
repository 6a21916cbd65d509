// Package project manages household projects and their dependent tasks,
// and hands the household one ready task per cycle.
package project

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/homebase/internal/apperr"
	"github.com/dukerupert/homebase/internal/dayclock"
	"github.com/dukerupert/homebase/internal/kv"
	"github.com/dukerupert/homebase/internal/model"
	"github.com/dukerupert/homebase/internal/notify"
)

// AssignmentTTL bounds how long the household's auto-assigned task stays queued.
const AssignmentTTL = 23 * time.Hour

// generalLabel names tasks that belong to no project.
const generalLabel = "General"

type Repo interface {
	Create(ctx context.Context, householdID int64, name, description string) (*model.Project, error)
	GetByID(ctx context.Context, id int64) (*model.Project, error)
	ListByHousehold(ctx context.Context, householdID int64) ([]model.Project, error)
	Delete(ctx context.Context, id int64) error
	CreateTask(ctx context.Context, t model.Task) (*model.Task, error)
	GetTask(ctx context.Context, id int64) (*model.Task, error)
	ListTasksByHousehold(ctx context.Context, householdID int64) ([]model.Task, error)
	ListTasksByProject(ctx context.Context, projectID int64) ([]model.Task, error)
	ListReadyTasks(ctx context.Context, householdID int64) ([]model.Task, error)
	CompleteTask(ctx context.Context, id int64, now float64) error
	SetRequirements(ctx context.Context, id int64, req1, req2 *int64) error
	DeleteTask(ctx context.Context, id int64) error
}

type UserRepo interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

type HouseholdRepo interface {
	GetByID(ctx context.Context, id int64) (*model.Household, error)
}

type Publisher interface {
	Publish(householdID int64, entity, action string, id int64)
}

type Deps struct {
	Projects   Repo
	Users      UserRepo
	Households HouseholdRepo
	Cache      kv.Store
	Notifier   notify.Sender
	Clock      dayclock.Clock
	Events     Publisher
	Logger     *slog.Logger
}

type Service struct {
	projects   Repo
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
		projects:   d.Projects,
		users:      d.Users,
		households: d.Households,
		cache:      d.Cache,
		notifier:   d.Notifier,
		clock:      d.Clock,
		events:     d.Events,
		logger:     d.Logger,
	}
}

func assignmentKey(householdID int64) string {
	return fmt.Sprintf("task:assigned:household:%d", householdID)
}

func (s *Service) fail(ctx context.Context, err error, attrs ...any) {
	level := slog.LevelError
	if k := apperr.KindOf(err); k == apperr.NotFound || k == apperr.Validation || k == apperr.Forbidden {
		level = slog.LevelWarn
	}
	s.logger.Log(ctx, level, "task operation failed", append(attrs, "kind", apperr.KindOf(err).String(), "error", err)...)
}

func (s *Service) publish(householdID int64, entity, action string, id int64) {
	if s.events != nil {
		s.events.Publish(householdID, entity, action, id)
	}
}

// ReadyTasks returns the household's ready tasks in creation order.
func (s *Service) ReadyTasks(ctx context.Context, householdID int64) ([]model.Task, error) {
	tasks, err := s.projects.ListReadyTasks(ctx, householdID)
	if err != nil {
		return nil, apperr.E("task.ready", apperr.Storage, err)
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

// AutoAssignNextTask makes sure the household has a task queued. It reports
// true when one is queued, whether it was just chosen or already cached.
// A newly chosen task is announced to the whole household.
func (s *Service) AutoAssignNextTask(ctx context.Context, householdID int64) bool {
	const op = "task.autoassign"
	if householdID <= 0 {
		s.fail(ctx, apperr.E(op, apperr.Validation, "invalid household id"), "household_id", householdID)
		return false
	}

	key := assignmentKey(householdID)
	if _, ok, err := s.cache.Get(ctx, key); err != nil {
		s.fail(ctx, apperr.E(op, apperr.Storage, err), "household_id", householdID)
		return false
	} else if ok {
		return true
	}

	ready, err := s.projects.ListReadyTasks(ctx, householdID)
	if err != nil {
		s.fail(ctx, apperr.E(op, apperr.Storage, err), "household_id", householdID)
		return false
	}
	if len(ready) == 0 {
		s.logger.Debug("no ready task", "household_id", householdID)
		return false
	}
	task := ready[0]

	if err := kv.PutID(ctx, s.cache, key, task.ID, AssignmentTTL); err != nil {
		s.fail(ctx, apperr.E(op, apperr.Storage, err), "household_id", householdID, "task_id", task.ID)
		return false
	}

	if err := s.notifier.SendToHousehold(ctx, householdID, s.assignmentMessage(ctx, &task), 0); err != nil {
		s.logger.Warn("task notification failed", "household_id", householdID, "task_id", task.ID, "error", err)
	}
	s.publish(householdID, "task", "assigned", task.ID)
	s.logger.Info("task assigned", "household_id", householdID, "task_id", task.ID)
	return true
}

func (s *Service) assignmentMessage(ctx context.Context, t *model.Task) string {
	label := generalLabel
	if t.ProjectID != nil {
		if p, err := s.projects.GetByID(ctx, *t.ProjectID); err == nil && p != nil {
			label = p.Name
		}
	}
	return fmt.Sprintf("Next task for the household: %s (%s).", t.Description, label)
}

// AutoAssignGet returns the household's queued task. A cache entry pointing
// at a deleted task is removed.
func (s *Service) AutoAssignGet(ctx context.Context, householdID int64) *model.Task {
	const op = "task.assigned"
	key := assignmentKey(householdID)
	taskID, ok, err := kv.GetID(ctx, s.cache, key)
	if err != nil {
		s.fail(ctx, apperr.E(op, apperr.Storage, err), "household_id", householdID)
		return nil
	}
	if !ok {
		return nil
	}

	t, err := s.projects.GetTask(ctx, taskID)
	if err != nil {
		s.fail(ctx, apperr.E(op, apperr.Storage, err), "household_id", householdID, "task_id", taskID)
		return nil
	}
	if t == nil || t.HouseholdID != householdID {
		if err := s.cache.Delete(ctx, key); err != nil {
			s.fail(ctx, apperr.E(op, apperr.Storage, err), "household_id", householdID)
		}
		return nil
	}
	return t
}

// ListProjectsAugmented returns the household's projects with task counts.
func (s *Service) ListProjectsAugmented(ctx context.Context, householdID int64) ([]model.AugmentedProject, error) {
	const op = "project.list"
	projects, err := s.projects.ListByHousehold(ctx, householdID)
	if err != nil {
		return nil, apperr.E(op, apperr.Storage, err)
	}
	tasks, err := s.projects.ListTasksByHousehold(ctx, householdID)
	if err != nil {
		return nil, apperr.E(op, apperr.Storage, err)
	}
	return Augment(projects, tasks), nil
}

func (s *Service) CreateProject(ctx context.Context, householdID int64, name, description string) (*model.Project, error) {
	const op = "project.create"
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.E(op, apperr.Validation, "name is required")
	}
	h, err := s.households.GetByID(ctx, householdID)
	if err != nil {
		return nil, apperr.E(op, apperr.Storage, err)
	}
	if h == nil {
		return nil, apperr.E(op, apperr.NotFound, "household")
	}

	p, err := s.projects.Create(ctx, householdID, name, strings.TrimSpace(description))
	if err != nil {
		return nil, apperr.E(op, apperr.Storage, err)
	}
	s.publish(householdID, "project", "created", p.ID)
	return p, nil
}

func (s *Service) DeleteProject(ctx context.Context, householdID, projectID int64) error {
	const op = "project.delete"
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return apperr.E(op, apperr.Storage, err)
	}
	if p == nil {
		return apperr.E(op, apperr.NotFound, "project")
	}
	if p.HouseholdID != householdID {
		return apperr.E(op, apperr.Forbidden, "project belongs to another household")
	}
	if err := s.projects.Delete(ctx, projectID); err != nil {
		return apperr.E(op, apperr.Storage, err)
	}
	s.publish(householdID, "project", "deleted", projectID)
	return nil
}

// NewTask is the input to CreateTask.
type NewTask struct {
	HouseholdID  int64  `json:"-"`
	ProjectID    *int64 `json:"project_id"`
	Description  string `json:"description"`
	AddedBy      int64  `json:"-"`
	Requirement1 *int64 `json:"requirement1"`
	Requirement2 *int64 `json:"requirement2"`
}

// CreateTask adds a task. Requirements need a project, fill requirement1
// first, and must name existing tasks of the same project.
func (s *Service) CreateTask(ctx context.Context, in NewTask) (*model.Task, error) {
	const op = "task.create"
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return nil, apperr.E(op, apperr.Validation, "description is required")
	}
	if err := checkSlots(op, in.ProjectID, in.Requirement1, in.Requirement2); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, in.AddedBy)
	if err != nil {
		return nil, apperr.E(op, apperr.Storage, err)
	}
	if !user.InHousehold(in.HouseholdID) {
		return nil, apperr.E(op, apperr.Forbidden, "user not in household")
	}

	if in.ProjectID != nil {
		p, err := s.projects.GetByID(ctx, *in.ProjectID)
		if err != nil {
			return nil, apperr.E(op, apperr.Storage, err)
		}
		if p == nil || p.HouseholdID != in.HouseholdID {
			return nil, apperr.E(op, apperr.NotFound, "project")
		}
		if _, err := s.projectTasks(ctx, op, *in.ProjectID, in.Requirement1, in.Requirement2); err != nil {
			return nil, err
		}
	}

	t, err := s.projects.CreateTask(ctx, model.Task{
		HouseholdID:  in.HouseholdID,
		ProjectID:    in.ProjectID,
		Description:  desc,
		AddedBy:      in.AddedBy,
		Requirement1: in.Requirement1,
		Requirement2: in.Requirement2,
	})
	if err != nil {
		return nil, apperr.E(op, apperr.Storage, err)
	}
	s.publish(in.HouseholdID, "task", "created", t.ID)
	return t, nil
}

func checkSlots(op string, projectID, req1, req2 *int64) error {
	if req2 != nil && req1 == nil {
		return apperr.E(op, apperr.Validation, "requirement2 requires requirement1")
	}
	if (req1 != nil || req2 != nil) && projectID == nil {
		return apperr.E(op, apperr.Validation, "only project tasks can have requirements")
	}
	if req1 != nil && req2 != nil && *req1 == *req2 {
		return apperr.E(op, apperr.Validation, "requirements must differ")
	}
	return nil
}

// projectTasks loads a project's tasks indexed by id and checks that each
// requirement is one of them.
func (s *Service) projectTasks(ctx context.Context, op string, projectID int64, reqs ...*int64) (map[int64]*model.Task, error) {
	tasks, err := s.projects.ListTasksByProject(ctx, projectID)
	if err != nil {
		return nil, apperr.E(op, apperr.Storage, err)
	}
	byID := index(tasks)
	for _, r := range reqs {
		if r == nil {
			continue
		}
		if _, ok := byID[*r]; !ok {
			return nil, apperr.E(op, apperr.Validation, fmt.Sprintf("requirement %d is not a task of this project", *r))
		}
	}
	return byID, nil
}

func (s *Service) ownedTask(ctx context.Context, op string, householdID, taskID int64) (*model.Task, error) {
	t, err := s.projects.GetTask(ctx, taskID)
	if err != nil {
		return nil, apperr.E(op, apperr.Storage, err)
	}
	if t == nil {
		return nil, apperr.E(op, apperr.NotFound, "task")
	}
	if t.HouseholdID != householdID {
		return nil, apperr.E(op, apperr.Forbidden, "task belongs to another household")
	}
	return t, nil
}

// CompleteTask marks a task done. Completing it twice keeps the first time.
func (s *Service) CompleteTask(ctx context.Context, householdID, taskID int64) (*model.Task, error) {
	const op = "task.complete"
	if _, err := s.ownedTask(ctx, op, householdID, taskID); err != nil {
		return nil, err
	}
	if err := s.projects.CompleteTask(ctx, taskID, s.clock.Now()); err != nil {
		return nil, apperr.E(op, apperr.Storage, err)
	}
	t, err := s.projects.GetTask(ctx, taskID)
	if err != nil {
		return nil, apperr.E(op, apperr.Storage, err)
	}
	s.publish(householdID, "task", "completed", taskID)
	return t, nil
}

// SetRequirements replaces a task's requirements. Changes that would make
// the task depend on itself, directly or through other tasks, are rejected.
func (s *Service) SetRequirements(ctx context.Context, householdID, taskID int64, req1, req2 *int64) (*model.Task, error) {
	const op = "task.requirements"
	t, err := s.ownedTask(ctx, op, householdID, taskID)
	if err != nil {
		return nil, err
	}
	if err := checkSlots(op, t.ProjectID, req1, req2); err != nil {
		return nil, err
	}

	if t.ProjectID != nil {
		byID, err := s.projectTasks(ctx, op, *t.ProjectID, req1, req2)
		if err != nil {
			return nil, err
		}
		for _, r := range []*int64{req1, req2} {
			if r != nil && reaches(*r, taskID, byID) {
				return nil, apperr.E(op, apperr.Validation, fmt.Sprintf("requirement %d would create a cycle", *r))
			}
		}
	}

	if err := s.projects.SetRequirements(ctx, taskID, req1, req2); err != nil {
		return nil, apperr.E(op, apperr.Storage, err)
	}
	updated, err := s.projects.GetTask(ctx, taskID)
	if err != nil {
		return nil, apperr.E(op, apperr.Storage, err)
	}
	s.publish(householdID, "task", "updated", taskID)
	return updated, nil
}

// DeleteTask removes a task. Tasks that required it keep their other
// requirement.
func (s *Service) DeleteTask(ctx context.Context, householdID, taskID int64) error {
	const op = "task.delete"
	if _, err := s.ownedTask(ctx, op, householdID, taskID); err != nil {
		return err
	}
	if err := s.projects.DeleteTask(ctx, taskID); err != nil {
		return apperr.E(op, apperr.Storage, err)
	}
	s.publish(householdID, "task", "deleted", taskID)
	return nil
}
