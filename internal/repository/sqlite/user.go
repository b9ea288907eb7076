package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sakif/tasklist/internal/apperror"
	"github.com/sakif/tasklist/internal/model"
	"github.com/sakif/tasklist/internal/repository"
)

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// UserDB is the users-table view of a DB. It shares the parent's pool.
type UserDB struct {
	conn *sql.DB
}

// Users returns the credential store backed by this database.
func (db *DB) Users() *UserDB {
	return &UserDB{conn: db.conn}
}

// Create inserts a new user.
//
// WHY NOT SELECT FIRST?
// "SELECT email ... then INSERT" has a race: two concurrent registrations
// for the same email can both pass the SELECT. Instead we let the PRIMARY KEY
// on users.email decide and translate the constraint error. The INSERT is a
// single statement, so it either lands completely or not at all.
func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	_, err := u.conn.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, name) VALUES (?, ?, ?)`,
		user.Email,
		user.PasswordHash,
		user.Name,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return apperror.DuplicateEmail()
		}
		return fmt.Errorf("sqlite: inserting user: %w", err)
	}

	return nil
}

// GetByEmail retrieves a user by email (exact, case-sensitive match).
// Returns apperror.ErrNotFound if no user exists with that email.
func (u *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User

	err := u.conn.QueryRowContext(ctx,
		`SELECT email, password_hash, name FROM users WHERE email = ?`,
		email,
	).Scan(&user.Email, &user.PasswordHash, &user.Name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user: %w", err)
	}

	return &user, nil
}
