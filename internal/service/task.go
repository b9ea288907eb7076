// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services take repository interfaces, not *sqlite.DB, so tests can hand
// them in-memory fakes (see task_test.go).
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/tasklist/internal/apperror"
	"github.com/sakif/tasklist/internal/model"
	"github.com/sakif/tasklist/internal/repository"
)

// MaxTitleLength is the longest task title accepted, in characters.
const MaxTitleLength = 500

// TaskService handles business logic for tasks.
//
// Every method takes the owner's email as its first argument after ctx. The
// handler gets it from the authenticated request context, never from the
// request body, so a caller can only ever reach its own tasks.
type TaskService struct {
	repo   repository.TaskRepository
	logger *slog.Logger
}

// NewTaskService creates a new TaskService.
func NewTaskService(repo repository.TaskRepository, logger *slog.Logger) *TaskService {
	return &TaskService{
		repo:   repo,
		logger: logger,
	}
}

// List returns the owner's tasks, newest first. Never nil.
func (s *TaskService) List(ctx context.Context, owner string) ([]model.Task, error) {
	tasks, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		s.logger.Error("failed to list tasks",
			slog.String("owner", owner),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

// Create validates the title and stores a new, not-completed task.
func (s *TaskService) Create(ctx context.Context, owner, title string) (*model.Task, error) {
	title = strings.TrimSpace(title)

	if title == "" {
		return nil, apperror.ValidationFailed("title", "title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}

	task := &model.Task{
		Title:      title,
		OwnerEmail: owner,
	}

	if err := s.repo.Create(ctx, task); err != nil {
		s.logger.Error("failed to create task",
			slog.String("owner", owner),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating task: %w", err)
	}

	s.logger.Info("task created",
		slog.Int64("id", task.ID),
		slog.String("owner", owner),
	)
	return task, nil
}

// SetCompleted sets the completion flag of one of the owner's tasks.
// Returns apperror.ErrNotFound if the task doesn't exist or isn't the owner's.
func (s *TaskService) SetCompleted(ctx context.Context, owner string, id int64, completed bool) error {
	if err := s.repo.SetCompleted(ctx, owner, id, completed); err != nil {
		return err
	}

	s.logger.Info("task updated",
		slog.Int64("id", id),
		slog.Bool("completed", completed),
	)
	return nil
}

// Delete removes one of the owner's tasks.
// Returns apperror.ErrNotFound if the task doesn't exist or isn't the owner's.
func (s *TaskService) Delete(ctx context.Context, owner string, id int64) error {
	if err := s.repo.Delete(ctx, owner, id); err != nil {
		return err
	}

	s.logger.Info("task deleted", slog.Int64("id", id))
	return nil
}
