// Package repository declares the storage interfaces the service layer
// depends on. The only implementation lives in repository/sqlite; service
// tests use in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/tasklist/internal/model"
)

// UserRepository is the credential store.
type UserRepository interface {
	// Create inserts the user atomically. It returns apperror.ErrDuplicateEmail
	// when the email is already taken.
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// TaskRepository is the task store. Every method that touches an existing
// task takes the owner as well as the id, and treats a task owned by someone
// else exactly like a missing one (apperror.ErrNotFound).
type TaskRepository interface {
	ListByOwner(ctx context.Context, owner string) ([]model.Task, error)
	Create(ctx context.Context, task *model.Task) error
	SetCompleted(ctx context.Context, owner string, id int64, completed bool) error
	Delete(ctx context.Context, owner string, id int64) error
}
