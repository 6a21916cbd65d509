// Package trigger runs the hourly assignment pass: every household whose
// assignment hour has come gets a chore per member and a task.
package trigger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/homebase/internal/model"
)

type HouseholdLister interface {
	List(ctx context.Context) ([]model.Household, error)
	ListForHour(ctx context.Context, hour int) ([]model.Household, error)
}

type MemberLister interface {
	ListByHousehold(ctx context.Context, householdID int64) ([]model.User, error)
}

type ChoreAssigner interface {
	GetNextChore(ctx context.Context, householdID, userID int64, notifyRef string) *model.Chore
}

type TaskAssigner interface {
	AutoAssignNextTask(ctx context.Context, householdID int64) bool
}

// Purger drops expired cache entries. Stores that expire on their own,
// like Redis, need none.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type Config struct {
	Interval time.Duration
	Workers  int
	Location *time.Location
}

// Summary counts what one pass did.
type Summary struct {
	Households int
	Chores     int
	Tasks      int
}

type Runner struct {
	mu         sync.Mutex
	households HouseholdLister
	members    MemberLister
	chores     ChoreAssigner
	tasks      TaskAssigner
	purger     Purger
	cfg        Config
	now        func() time.Time
	logger     *slog.Logger
	cancel     context.CancelFunc
	done       chan struct{}
}

func New(cfg Config, households HouseholdLister, members MemberLister, chores ChoreAssigner, tasks TaskAssigner, purger Purger, logger *slog.Logger) *Runner {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Runner{
		households: households,
		members:    members,
		chores:     chores,
		tasks:      tasks,
		purger:     purger,
		cfg:        cfg,
		now:        time.Now,
		logger:     logger,
	}
}

// Start runs a pass every interval until Stop is called or ctx ends.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	r.mu.Unlock()

	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := r.RunOnce(ctx, false); err != nil && ctx.Err() == nil {
					r.logger.Error("trigger pass failed", "error", err)
				}
			}
		}
	}()
}

// Stop cancels the loop and waits for an in-flight pass to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	done := r.done
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// RunOnce processes the households due this hour, or all of them when
// force is set. Households run in parallel; members of one household run
// one after another so they never race for the same chore.
func (r *Runner) RunOnce(ctx context.Context, force bool) (Summary, error) {
	start := r.now()
	var (
		households []model.Household
		err        error
	)
	if force {
		households, err = r.households.List(ctx)
	} else {
		households, err = r.households.ListForHour(ctx, start.In(r.cfg.Location).Hour())
	}
	if err != nil {
		return Summary{}, err
	}

	var chores, tasks atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for _, h := range households {
		g.Go(func() error {
			c, t, err := r.runHousehold(gctx, h)
			if err != nil {
				// One household's failure must not stop the others.
				r.logger.Error("household pass failed", "household_id", h.ID, "error", err)
				return nil
			}
			chores.Add(int64(c))
			tasks.Add(int64(t))
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	if r.purger != nil {
		if n, err := r.purger.PurgeExpired(ctx); err != nil {
			r.logger.Warn("purge expired cache entries", "error", err)
		} else if n > 0 {
			r.logger.Debug("purged expired cache entries", "count", n)
		}
	}

	s := Summary{Households: len(households), Chores: int(chores.Load()), Tasks: int(tasks.Load())}
	r.logger.Info("trigger pass complete", "households", s.Households, "chores", s.Chores,
		"tasks", s.Tasks, "forced", force, "duration", time.Since(start))
	return s, nil
}

func (r *Runner) runHousehold(ctx context.Context, h model.Household) (chores, tasks int, err error) {
	if h.AutoChores {
		members, err := r.members.ListByHousehold(ctx, h.ID)
		if err != nil {
			return 0, 0, err
		}
		for _, m := range members {
			if err := ctx.Err(); err != nil {
				return chores, tasks, err
			}
			if r.chores.GetNextChore(ctx, h.ID, m.ID, m.TelegramChatID) != nil {
				chores++
			}
		}
	}
	if h.AutoTasks && r.tasks.AutoAssignNextTask(ctx, h.ID) {
		tasks++
	}
	return chores, tasks, nil
}
