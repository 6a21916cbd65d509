package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/homebase/internal/model"
)

type ChoreStore struct {
	db *sql.DB
}

func NewChoreStore(db *sql.DB) *ChoreStore {
	return &ChoreStore{db: db}
}

func scanChore(scanner rowScanner) (*model.Chore, error) {
	var c model.Chore
	var lastAssigned sql.NullFloat64
	var doneBy, lastDoneBy sql.NullInt64

	err := scanner.Scan(
		&c.ID, &c.HouseholdID, &c.Name, &c.Frequency, &c.LastDone,
		&lastAssigned, &doneBy, &lastDoneBy, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.LastTimeAssigned = float64Ptr(lastAssigned)
	c.DoneBy = int64Ptr(doneBy)
	c.LastDoneBy = int64Ptr(lastDoneBy)
	return &c, nil
}

const choreCols = `id, household_id, name, frequency, last_done, last_time_assigned, done_by, last_done_by, created_at`

func (s *ChoreStore) Create(ctx context.Context, householdID int64, name string, frequency int, lastDone float64, doneBy *int64) (*model.Chore, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO chores (household_id, name, frequency, last_done, done_by) VALUES (?, ?, ?, ?, ?)`,
		householdID, name, frequency, lastDone, nullInt64(doneBy),
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *ChoreStore) GetByID(ctx context.Context, id int64) (*model.Chore, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+choreCols+` FROM chores WHERE id = ?`, id)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return c, nil
}

// ListByHousehold returns a household's chores in id order.
func (s *ChoreStore) ListByHousehold(ctx context.Context, householdID int64) ([]model.Chore, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+choreCols+` FROM chores WHERE household_id = ? ORDER BY id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	defer rows.Close()

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

func (s *ChoreStore) Update(ctx context.Context, id int64, name string, frequency int, doneBy *int64) (*model.Chore, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE chores SET name = ?, frequency = ?, done_by = ? WHERE id = ?`,
		name, frequency, nullInt64(doneBy), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update chore: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *ChoreStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chores WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}
	return nil
}

// ClaimAssignment stamps last_time_assigned = now, but only if nobody else
// has claimed the chore since before. It reports whether the claim won.
func (s *ChoreStore) ClaimAssignment(ctx context.Context, id int64, before *float64, now float64) (bool, error) {
	var result sql.Result
	var err error
	if before == nil {
		result, err = s.db.ExecContext(ctx,
			`UPDATE chores SET last_time_assigned = ? WHERE id = ? AND last_time_assigned IS NULL`,
			now, id)
	} else {
		result, err = s.db.ExecContext(ctx,
			`UPDATE chores SET last_time_assigned = ? WHERE id = ? AND last_time_assigned = ?`,
			now, id, *before)
	}
	if err != nil {
		return false, fmt.Errorf("claim chore: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// ReleaseAssignment undoes a claim made at claimedAt, restoring previous.
// It is a no-op if another writer has since replaced the stamp.
func (s *ChoreStore) ReleaseAssignment(ctx context.Context, id int64, claimedAt float64, previous *float64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE chores SET last_time_assigned = ? WHERE id = ? AND last_time_assigned = ?`,
		nullFloat64(previous), id, claimedAt)
	if err != nil {
		return fmt.Errorf("release chore: %w", err)
	}
	return nil
}

// StreakUpdate is the new streak state written alongside a completion.
type StreakUpdate struct {
	UserID         int64
	LastActiveDate int64
	Streak         int
}

// RecordCompletion marks a chore done and, when streak is non-nil, writes
// the completing user's streak in the same transaction.
func (s *ChoreStore) RecordCompletion(ctx context.Context, id int64, now float64, userID int64, streak *StreakUpdate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE chores SET last_done = MAX(last_done, ?), last_done_by = ? WHERE id = ?`,
		now, userID, id); err != nil {
		return fmt.Errorf("mark chore done: %w", err)
	}
	if streak != nil {
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET last_active_date = ?, current_streak = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			streak.LastActiveDate, streak.Streak, streak.UserID); err != nil {
			return fmt.Errorf("update streak: %w", err)
		}
	}
	return tx.Commit()
}
