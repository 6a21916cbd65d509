package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/homebase/internal/model"
)

type ProjectStore struct {
	db *sql.DB
}

func NewProjectStore(db *sql.DB) *ProjectStore {
	return &ProjectStore{db: db}
}

// --- Project methods ---

func scanProject(scanner rowScanner) (*model.Project, error) {
	var p model.Project
	err := scanner.Scan(&p.ID, &p.HouseholdID, &p.Name, &p.Description, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const projectCols = `id, household_id, name, description, created_at`

func (s *ProjectStore) Create(ctx context.Context, householdID int64, name, description string) (*model.Project, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (household_id, name, description) VALUES (?, ?, ?)`,
		householdID, name, description,
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *ProjectStore) GetByID(ctx context.Context, id int64) (*model.Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectCols+` FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (s *ProjectStore) ListByHousehold(ctx context.Context, householdID int64) ([]model.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+projectCols+` FROM projects WHERE household_id = ? ORDER BY id ASC`, householdID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func (s *ProjectStore) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Tasks reference each other; drop the edges before the cascade.
	if _, err := tx.ExecContext(ctx,
		`UPDATE tasks SET requirement1 = NULL, requirement2 = NULL WHERE project_id = ?`, id); err != nil {
		return fmt.Errorf("clear project requirements: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return tx.Commit()
}

// --- Task methods ---

func scanTask(scanner rowScanner) (*model.Task, error) {
	var t model.Task
	var projectID, req1, req2 sql.NullInt64
	var completed sql.NullFloat64

	err := scanner.Scan(&t.ID, &t.HouseholdID, &projectID, &t.Description, &t.AddedBy,
		&completed, &req1, &req2, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.ProjectID = int64Ptr(projectID)
	t.Completed = float64Ptr(completed)
	t.Requirement1 = int64Ptr(req1)
	t.Requirement2 = int64Ptr(req2)
	return &t, nil
}

const taskCols = `id, household_id, project_id, description, added_by, completed, requirement1, requirement2, created_at`

func (s *ProjectStore) CreateTask(ctx context.Context, t model.Task) (*model.Task, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (household_id, project_id, description, added_by, requirement1, requirement2) VALUES (?, ?, ?, ?, ?, ?)`,
		t.HouseholdID, nullInt64(t.ProjectID), t.Description, t.AddedBy,
		nullInt64(t.Requirement1), nullInt64(t.Requirement2),
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetTask(ctx, id)
}

func (s *ProjectStore) GetTask(ctx context.Context, id int64) (*model.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskCols+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (s *ProjectStore) queryTasks(ctx context.Context, op, query string, args ...any) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// ListTasksByHousehold returns every task of a household in creation order.
func (s *ProjectStore) ListTasksByHousehold(ctx context.Context, householdID int64) ([]model.Task, error) {
	return s.queryTasks(ctx, "list tasks",
		`SELECT `+taskCols+` FROM tasks WHERE household_id = ? ORDER BY id ASC`, householdID)
}

func (s *ProjectStore) ListTasksByProject(ctx context.Context, projectID int64) ([]model.Task, error) {
	return s.queryTasks(ctx, "list project tasks",
		`SELECT `+taskCols+` FROM tasks WHERE project_id = ? ORDER BY id ASC`, projectID)
}

// ListReadyTasks returns the household's incomplete tasks whose requirements
// are all completed, in creation order.
func (s *ProjectStore) ListReadyTasks(ctx context.Context, householdID int64) ([]model.Task, error) {
	return s.queryTasks(ctx, "list ready tasks",
		`SELECT t.id, t.household_id, t.project_id, t.description, t.added_by, t.completed,
		        t.requirement1, t.requirement2, t.created_at
		 FROM tasks t
		 LEFT JOIN tasks r1 ON r1.id = t.requirement1
		 LEFT JOIN tasks r2 ON r2.id = t.requirement2
		 WHERE t.household_id = ?
		   AND t.completed IS NULL
		   AND (t.requirement1 IS NULL OR r1.completed IS NOT NULL)
		   AND (t.requirement2 IS NULL OR r2.completed IS NOT NULL)
		 ORDER BY t.id ASC`, householdID)
}

func (s *ProjectStore) CompleteTask(ctx context.Context, id int64, now float64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET completed = ? WHERE id = ? AND completed IS NULL`, now, id)
	if err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	return nil
}

func (s *ProjectStore) SetRequirements(ctx context.Context, id int64, req1, req2 *int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET requirement1 = ?, requirement2 = ? WHERE id = ?`,
		nullInt64(req1), nullInt64(req2), id)
	if err != nil {
		return fmt.Errorf("set requirements: %w", err)
	}
	return nil
}

// DeleteTask removes a task and shifts dependants' remaining requirement
// into the first slot so requirement2 is never set without requirement1.
func (s *ProjectStore) DeleteTask(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE tasks SET requirement2 = NULL WHERE requirement2 = ?`, id); err != nil {
		return fmt.Errorf("clear requirement2: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE tasks SET requirement1 = requirement2, requirement2 = NULL WHERE requirement1 = ?`, id); err != nil {
		return fmt.Errorf("shift requirement1: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return tx.Commit()
}
