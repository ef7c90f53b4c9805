package store

import (
	"errors"
	"testing"
	"time"

	"github.com/dctmfoo/HitchensRhetoricTransform/pkg/domain"
)

func TestMemoryStoreUserLifecycle(t *testing.T) {
	s := NewMemoryStore()
	alice := domain.User{
		ID:        "u1",
		Username:  "alice",
		Email:     "a@x.com",
		CreatedAt: time.Now().UTC(),
	}
	if err := s.SaveUser(alice); err != nil {
		t.Fatalf("save user: %v", err)
	}
	if ok, _ := s.HasUsername("alice"); !ok {
		t.Fatalf("expected username to exist")
	}
	if ok, _ := s.HasUserEmail("a@x.com"); !ok {
		t.Fatalf("expected email to exist")
	}
	got, ok, err := s.GetUserByUsername("alice")
	if err != nil || !ok || got.ID != "u1" {
		t.Fatalf("get by username: %v %v %+v", err, ok, got)
	}
	if _, ok, _ := s.GetUserByID("missing"); ok {
		t.Fatalf("unexpected user")
	}

	// Upsert with the same ID flips the admin flag without a duplicate error.
	alice.IsAdmin = true
	if err := s.SaveUser(alice); err != nil {
		t.Fatalf("update user: %v", err)
	}
	got, _, _ = s.GetUserByID("u1")
	if !got.IsAdmin {
		t.Fatalf("expected admin flag set")
	}
}

func TestMemoryStoreDuplicateUser(t *testing.T) {
	s := NewMemoryStore()
	if err := s.SaveUser(domain.User{ID: "u1", Username: "alice", Email: "a@x.com"}); err != nil {
		t.Fatalf("save user: %v", err)
	}
	if err := s.SaveUser(domain.User{ID: "u2", Username: "alice", Email: "b@x.com"}); !errors.Is(err, ErrDuplicateUser) {
		t.Fatalf("expected ErrDuplicateUser for username, got: %v", err)
	}
	if err := s.SaveUser(domain.User{ID: "u2", Username: "bob", Email: "a@x.com"}); !errors.Is(err, ErrDuplicateUser) {
		t.Fatalf("expected ErrDuplicateUser for email, got: %v", err)
	}
}

func TestMemoryStoreTransformationsOrdering(t *testing.T) {
	s := NewMemoryStore()
	base := time.Now().UTC()
	for i, id := range []string{"t1", "t2", "t3"} {
		err := s.SaveTransformation(domain.Transformation{
			ID:        id,
			UserID:    "u1",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("save transformation: %v", err)
		}
	}
	if err := s.SaveTransformation(domain.Transformation{ID: "other", UserID: "u2", CreatedAt: base}); err != nil {
		t.Fatalf("save transformation: %v", err)
	}

	list, err := s.ListTransformationsByUser("u1")
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(list))
	}
	if list[0].ID != "t3" || list[2].ID != "t1" {
		t.Fatalf("expected newest first, got %s..%s", list[0].ID, list[2].ID)
	}

	// Idempotent read: same ordered result with no intervening writes.
	again, err := s.ListTransformationsByUser("u1")
	if err != nil {
		t.Fatalf("second list: %v", err)
	}
	for i := range list {
		if list[i].ID != again[i].ID {
			t.Fatalf("read not idempotent at %d: %s vs %s", i, list[i].ID, again[i].ID)
		}
	}

	all, err := s.ListTransformations()
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 rows total, got %d", len(all))
	}
}

func TestMemorySessionStore(t *testing.T) {
	s := NewMemorySessionStore()
	token, err := s.NewSession("u4")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	uid, ok, err := s.GetUserIDByToken(token)
	if err != nil || !ok || uid != "u4" {
		t.Fatalf("resolve session: %v %v %q", err, ok, uid)
	}
	if err := s.DeleteSession(token); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, ok, _ := s.GetUserIDByToken(token); ok {
		t.Fatalf("expected session gone after delete")
	}
}
