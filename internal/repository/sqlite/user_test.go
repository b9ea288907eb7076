package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/tasklist/internal/apperror"
	"github.com/sakif/tasklist/internal/model"
)

// TESTING WITH IN-MEMORY SQLITE:
// ":memory:" gives every test a fresh, isolated database that disappears
// when the connection closes. t.Cleanup closes it when the test ends.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// newTestUserDB returns the credential store of a fresh database, plus the
// database itself for tests that need the other views.
func newTestUserDB(t *testing.T) (*DB, *UserDB) {
	t.Helper()
	db := newTestDB(t)
	return db, db.Users()
}

// createTestUser creates a user and fails the test if it errors.
func createTestUser(t *testing.T, u *UserDB, email, name string) *model.User {
	t.Helper()
	user := &model.User{
		Email:        email,
		PasswordHash: "$2a$04$not-a-real-hash-but-opaque-to-the-store",
		Name:         name,
	}
	if err := u.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestUserCreate(t *testing.T) {
	_, u := newTestUserDB(t)

	user := &model.User{Email: "alice@example.com", PasswordHash: "hash", Name: "Alice"}
	if err := u.Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	found, err := u.GetByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if found.Name != "Alice" {
		t.Errorf("Name = %q, want %q", found.Name, "Alice")
	}
	if found.PasswordHash != "hash" {
		t.Errorf("PasswordHash = %q, want %q", found.PasswordHash, "hash")
	}
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	_, u := newTestUserDB(t)
	createTestUser(t, u, "dup@example.com", "First")

	// Different name and hash, same email: the primary key must reject it.
	duplicate := &model.User{Email: "dup@example.com", PasswordHash: "other", Name: "Second"}
	err := u.Create(context.Background(), duplicate)
	if !errors.Is(err, apperror.ErrDuplicateEmail) {
		t.Fatalf("Create() error = %v, want ErrDuplicateEmail", err)
	}

	// The original row is untouched
	found, err := u.GetByEmail(context.Background(), "dup@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if found.Name != "First" {
		t.Errorf("Name after rejected insert = %q, want %q", found.Name, "First")
	}
}

func TestUserCreate_EmailIsCaseSensitive(t *testing.T) {
	_, u := newTestUserDB(t)
	createTestUser(t, u, "bob@example.com", "Bob")

	// Emails are compared exactly as stored
	if err := u.Create(context.Background(), &model.User{Email: "Bob@example.com", PasswordHash: "h", Name: "Other Bob"}); err != nil {
		t.Fatalf("Create() with different case error = %v", err)
	}
}

// =========================================================================
// GET BY EMAIL TESTS
// =========================================================================

func TestUserGetByEmail_ReturnsStoredFields(t *testing.T) {
	_, u := newTestUserDB(t)
	want := createTestUser(t, u, "carol@example.com", "Carol")

	got, err := u.GetByEmail(context.Background(), "carol@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if *got != *want {
		t.Errorf("GetByEmail() = %+v, want %+v", *got, *want)
	}
}

func TestUserGetByEmail_NotFound(t *testing.T) {
	_, u := newTestUserDB(t)

	_, err := u.GetByEmail(context.Background(), "nobody@example.com")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByEmail() error = %v, want ErrNotFound", err)
	}
}

// TestMigrate_Idempotent runs the migrations a second time against an
// already-migrated database.
func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)
	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate() error = %v", err)
	}
}
