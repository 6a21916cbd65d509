package store

import (
	"context"
	"testing"
)

func TestUserHouseholdMembership(t *testing.T) {
	db := setupTestDB(t)
	hs, us := NewHouseholdStore(db), NewUserStore(db)
	ctx := context.Background()

	h, _ := hs.Create(ctx, "Home")
	u, err := us.Create(ctx, "Alice", nil)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.HouseholdID != nil {
		t.Errorf("household_id = %v, want nil", *u.HouseholdID)
	}

	if err := us.SetHousehold(ctx, u.ID, &h.ID); err != nil {
		t.Fatalf("set household: %v", err)
	}
	got, _ := us.GetByID(ctx, u.ID)
	if !got.InHousehold(h.ID) {
		t.Errorf("expected user in household %d", h.ID)
	}

	members, err := us.ListByHousehold(ctx, h.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 1 || members[0].Name != "Alice" {
		t.Errorf("members = %+v", members)
	}
}

func TestUserGetMany(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)
	ctx := context.Background()

	a, _ := us.Create(ctx, "A", nil)
	b, _ := us.Create(ctx, "B", nil)

	got, err := us.GetMany(ctx, []int64{a.ID, b.ID, a.ID, 999})
	if err != nil {
		t.Fatalf("get many: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
	if got[b.ID].Name != "B" {
		t.Errorf("got[b] = %+v", got[b.ID])
	}
}

func TestUserLeaveHouseholdUnpinsChores(t *testing.T) {
	db := setupTestDB(t)
	hs, us, cs := NewHouseholdStore(db), NewUserStore(db), NewChoreStore(db)
	ctx := context.Background()

	home, _ := hs.Create(ctx, "Home")
	cabin, _ := hs.Create(ctx, "Cabin")
	bob, _ := us.Create(ctx, "Bob", &home.ID)
	alice, _ := us.Create(ctx, "Alice", &home.ID)

	mow, _ := cs.Create(ctx, home.ID, "mow", 7, 100, &bob.ID)
	dishes, _ := cs.Create(ctx, home.ID, "dishes", 1, 100, &alice.ID)
	firewood, _ := cs.Create(ctx, cabin.ID, "firewood", 7, 100, &bob.ID)

	if err := us.LeaveHousehold(ctx, bob.ID, home.ID); err != nil {
		t.Fatalf("leave household: %v", err)
	}

	got, _ := us.GetByID(ctx, bob.ID)
	if got.HouseholdID != nil {
		t.Errorf("household_id = %v, want nil", *got.HouseholdID)
	}
	if c, _ := cs.GetByID(ctx, mow.ID); c.DoneBy != nil {
		t.Errorf("mow done_by = %v, want nil", *c.DoneBy)
	}
	if c, _ := cs.GetByID(ctx, dishes.ID); c.DoneBy == nil || *c.DoneBy != alice.ID {
		t.Errorf("dishes done_by = %v, want %d", c.DoneBy, alice.ID)
	}
	if c, _ := cs.GetByID(ctx, firewood.ID); c.DoneBy == nil || *c.DoneBy != bob.ID {
		t.Errorf("firewood done_by = %v, want %d (other household untouched)", c.DoneBy, bob.ID)
	}
}

func TestUserLeaveHouseholdWrongHousehold(t *testing.T) {
	db := setupTestDB(t)
	hs, us, cs := NewHouseholdStore(db), NewUserStore(db), NewChoreStore(db)
	ctx := context.Background()

	home, _ := hs.Create(ctx, "Home")
	other, _ := hs.Create(ctx, "Other")
	bob, _ := us.Create(ctx, "Bob", &home.ID)
	mow, _ := cs.Create(ctx, home.ID, "mow", 7, 100, &bob.ID)

	if err := us.LeaveHousehold(ctx, bob.ID, other.ID); err != nil {
		t.Fatalf("leave household: %v", err)
	}
	got, _ := us.GetByID(ctx, bob.ID)
	if !got.InHousehold(home.ID) {
		t.Error("user should still be in home")
	}
	if c, _ := cs.GetByID(ctx, mow.ID); c.DoneBy == nil {
		t.Error("pin should survive a no-op leave")
	}
}
