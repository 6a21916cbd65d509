package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dukerupert/homebase/internal/database"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestHouseholdCreate(t *testing.T) {
	hs := NewHouseholdStore(setupTestDB(t))
	ctx := context.Background()

	h, err := hs.Create(ctx, "Test Household")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	if h.Name != "Test Household" {
		t.Errorf("name = %q, want %q", h.Name, "Test Household")
	}
	if h.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if !h.AutoChores || !h.AutoTasks {
		t.Error("expected auto assignment enabled by default")
	}
	if h.AssignHour != 8 {
		t.Errorf("assign_hour = %d, want 8", h.AssignHour)
	}
}

func TestHouseholdGetByIDNotFound(t *testing.T) {
	hs := NewHouseholdStore(setupTestDB(t))

	h, err := hs.GetByID(context.Background(), 999)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if h != nil {
		t.Error("expected nil for nonexistent household")
	}
}

func TestHouseholdListForHour(t *testing.T) {
	hs := NewHouseholdStore(setupTestDB(t))
	ctx := context.Background()

	a, _ := hs.Create(ctx, "A")
	b, _ := hs.Create(ctx, "B")
	if _, err := hs.UpdateSchedule(ctx, b.ID, true, false, 19); err != nil {
		t.Fatalf("update schedule: %v", err)
	}

	at8, err := hs.ListForHour(ctx, 8)
	if err != nil {
		t.Fatalf("list for hour: %v", err)
	}
	if len(at8) != 1 || at8[0].ID != a.ID {
		t.Errorf("hour 8 = %+v, want only household %d", at8, a.ID)
	}

	at19, _ := hs.ListForHour(ctx, 19)
	if len(at19) != 1 || at19[0].ID != b.ID {
		t.Fatalf("hour 19 = %+v, want only household %d", at19, b.ID)
	}
	if at19[0].AutoTasks {
		t.Error("expected auto_tasks disabled for B")
	}
}

func TestHouseholdScheduleRejectsBadHour(t *testing.T) {
	hs := NewHouseholdStore(setupTestDB(t))
	ctx := context.Background()

	h, _ := hs.Create(ctx, "A")
	if _, err := hs.UpdateSchedule(ctx, h.ID, true, true, 24); err == nil {
		t.Error("expected check constraint failure for hour 24")
	}
}
