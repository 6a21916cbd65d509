package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/homebase/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner rowScanner) (*model.User, error) {
	var u model.User
	var householdID, lastActive sql.NullInt64
	err := scanner.Scan(&u.ID, &householdID, &u.Name, &u.TelegramChatID, &lastActive,
		&u.CurrentStreak, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.HouseholdID = int64Ptr(householdID)
	u.LastActiveDate = int64Ptr(lastActive)
	return &u, nil
}

const userCols = `id, household_id, name, telegram_chat_id, last_active_date, current_streak, created_at, updated_at`

func (s *UserStore) Create(ctx context.Context, name string, householdID *int64) (*model.User, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO users (name, household_id) VALUES (?, ?)`,
		name, nullInt64(householdID),
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetMany returns the users with the given ids keyed by id. Missing ids are
// simply absent from the map.
func (s *UserStore) GetMany(ctx context.Context, ids []int64) (map[int64]*model.User, error) {
	users := make(map[int64]*model.User, len(ids))
	for _, id := range ids {
		if _, ok := users[id]; ok {
			continue
		}
		u, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if u != nil {
			users[id] = u
		}
	}
	return users, nil
}

func (s *UserStore) ListByHousehold(ctx context.Context, householdID int64) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userCols+` FROM users WHERE household_id = ? ORDER BY id ASC`, householdID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// SetHousehold moves a user into a household, or out of any household when
// householdID is nil.
func (s *UserStore) SetHousehold(ctx context.Context, id int64, householdID *int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET household_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		nullInt64(householdID), id)
	if err != nil {
		return fmt.Errorf("set user household: %w", err)
	}
	return nil
}

// LeaveHousehold takes a user out of householdID and unpins every chore of
// that household reserved for them, in one transaction. A user who is no
// longer in householdID is left alone.
func (s *UserStore) LeaveHousehold(ctx context.Context, id, householdID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE users SET household_id = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND household_id = ?`,
		id, householdID)
	if err != nil {
		return fmt.Errorf("leave household: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("leave household: %w", err)
	} else if n == 0 {
		return nil
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE chores SET done_by = NULL WHERE done_by = ? AND household_id = ?`,
		id, householdID); err != nil {
		return fmt.Errorf("unpin chores: %w", err)
	}
	return tx.Commit()
}

func (s *UserStore) SetTelegramChat(ctx context.Context, id int64, chatID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET telegram_chat_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, chatID, id)
	if err != nil {
		return fmt.Errorf("set user chat: %w", err)
	}
	return nil
}
