package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/homebase/internal/model"
)

type HouseholdStore struct {
	db *sql.DB
}

func NewHouseholdStore(db *sql.DB) *HouseholdStore {
	return &HouseholdStore{db: db}
}

func scanHousehold(scanner rowScanner) (*model.Household, error) {
	var h model.Household
	err := scanner.Scan(&h.ID, &h.Name, &h.TelegramChatID, &h.AutoChores, &h.AutoTasks,
		&h.AssignHour, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

const householdCols = `id, name, telegram_chat_id, auto_chores, auto_tasks, assign_hour, created_at, updated_at`

func (s *HouseholdStore) Create(ctx context.Context, name string) (*model.Household, error) {
	result, err := s.db.ExecContext(ctx, `INSERT INTO households (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("insert household: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *HouseholdStore) GetByID(ctx context.Context, id int64) (*model.Household, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+householdCols+` FROM households WHERE id = ?`, id)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	return h, nil
}

func (s *HouseholdStore) List(ctx context.Context) ([]model.Household, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+householdCols+` FROM households ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list households: %w", err)
	}
	defer rows.Close()

	var households []model.Household
	for rows.Next() {
		h, err := scanHousehold(rows)
		if err != nil {
			return nil, fmt.Errorf("scan household: %w", err)
		}
		households = append(households, *h)
	}
	return households, rows.Err()
}

// ListForHour returns the households whose daily assignment runs at hour.
func (s *HouseholdStore) ListForHour(ctx context.Context, hour int) ([]model.Household, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+householdCols+` FROM households WHERE assign_hour = ? ORDER BY id ASC`, hour)
	if err != nil {
		return nil, fmt.Errorf("list households for hour: %w", err)
	}
	defer rows.Close()

	var households []model.Household
	for rows.Next() {
		h, err := scanHousehold(rows)
		if err != nil {
			return nil, fmt.Errorf("scan household: %w", err)
		}
		households = append(households, *h)
	}
	return households, rows.Err()
}

// UpdateSchedule sets the trigger configuration for a household.
func (s *HouseholdStore) UpdateSchedule(ctx context.Context, id int64, autoChores, autoTasks bool, assignHour int) (*model.Household, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE households SET auto_chores = ?, auto_tasks = ?, assign_hour = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		autoChores, autoTasks, assignHour, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update household schedule: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *HouseholdStore) SetTelegramChat(ctx context.Context, id int64, chatID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE households SET telegram_chat_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, chatID, id)
	if err != nil {
		return fmt.Errorf("set household chat: %w", err)
	}
	return nil
}

func (s *HouseholdStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM households WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete household: %w", err)
	}
	return nil
}
