package store

import (
	"context"
	"testing"
)

func TestPushSubscribeUpsert(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	h, _ := NewHouseholdStore(db).Create(ctx, "Home")
	u, _ := NewUserStore(db).Create(ctx, "Alice", &h.ID)
	ps := NewPushStore(db)

	first, err := ps.Subscribe(ctx, u.ID, h.ID, "https://push.example/1", "p1", "a1", "phone")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	second, err := ps.Subscribe(ctx, u.ID, h.ID, "https://push.example/1", "p2", "a2", "phone")
	if err != nil {
		t.Fatalf("re-subscribe: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("id changed on upsert: %d != %d", first.ID, second.ID)
	}
	if second.P256dhKey != "p2" {
		t.Errorf("p256dh = %q, want p2", second.P256dhKey)
	}

	subs, _ := ps.ListByHousehold(ctx, h.ID)
	if len(subs) != 1 {
		t.Fatalf("len = %d, want 1", len(subs))
	}

	if err := ps.DeleteByEndpoint(ctx, "https://push.example/1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	subs, _ = ps.ListByHousehold(ctx, h.ID)
	if len(subs) != 0 {
		t.Errorf("len = %d, want 0", len(subs))
	}
}

func TestPushDeleteForUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	h, _ := NewHouseholdStore(db).Create(ctx, "Home")
	us := NewUserStore(db)
	a, _ := us.Create(ctx, "A", &h.ID)
	b, _ := us.Create(ctx, "B", &h.ID)
	ps := NewPushStore(db)

	ps.Subscribe(ctx, a.ID, h.ID, "https://push.example/a", "p", "a", "")
	ps.Subscribe(ctx, b.ID, h.ID, "https://push.example/b", "p", "a", "")

	if err := ps.DeleteForUser(ctx, a.ID, h.ID); err != nil {
		t.Fatalf("delete for user: %v", err)
	}
	subs, _ := ps.ListByHousehold(ctx, h.ID)
	if len(subs) != 1 || subs[0].UserID != b.ID {
		t.Errorf("subs = %+v, want only B", subs)
	}
}
