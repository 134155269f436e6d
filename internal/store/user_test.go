package store

import (
	"testing"

	"github.com/wibowo/kabarin/internal/database"
)

func setupUserTestDB(t *testing.T) *UserStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUserStore(db)
}

func TestSeedAdminOnEmptyTable(t *testing.T) {
	s := setupUserTestDB(t)

	created, err := s.SeedAdmin("admin@example.com", "Admin", "hash")
	if err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	if !created {
		t.Fatal("expected seed to create a user on an empty table")
	}

	u, err := s.GetByEmail("admin@example.com")
	if err != nil {
		t.Fatalf("get seeded admin: %v", err)
	}
	if u == nil {
		t.Fatal("seeded admin not found")
	}
	if u.Role != "admin" {
		t.Errorf("role = %q, want admin", u.Role)
	}
}

func TestSeedAdminSkipsNonEmptyTable(t *testing.T) {
	s := setupUserTestDB(t)

	if _, err := s.Create("budi@example.com", "Budi", "hash", "pegawai", nil); err != nil {
		t.Fatalf("create user: %v", err)
	}

	created, err := s.SeedAdmin("admin@example.com", "Admin", "hash")
	if err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	if created {
		t.Fatal("seed must not run once any user exists")
	}

	n, err := s.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("user count = %d, want 1", n)
	}
}

func TestUserCreateAndLookup(t *testing.T) {
	s := setupUserTestDB(t)

	u, err := s.Create("sari@example.com", "Sari", "hash", "pegawai", nil)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.EmployeeID != nil {
		t.Errorf("EmployeeID = %v, want nil", u.EmployeeID)
	}

	got, err := s.GetByID(u.ID)
	if err != nil || got == nil {
		t.Fatalf("get by id: %v", err)
	}
	if got.Email != "sari@example.com" {
		t.Errorf("email = %q", got.Email)
	}

	missing, err := s.GetByEmail("nobody@example.com")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Fatal("expected nil for unknown email")
	}

	users, err := s.List()
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("len(users) = %d, want 1", len(users))
	}
}
