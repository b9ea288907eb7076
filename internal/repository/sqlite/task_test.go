package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sakif/tasklist/internal/apperror"
	"github.com/sakif/tasklist/internal/model"
)

// newTestTaskDB returns a task store with two registered owners.
func newTestTaskDB(t *testing.T) *TaskDB {
	t.Helper()
	db, u := newTestUserDB(t)
	createTestUser(t, u, "alice@example.com", "Alice")
	createTestUser(t, u, "bob@example.com", "Bob")
	return db.Tasks()
}

func createTestTask(t *testing.T, tasks *TaskDB, owner, title string) *model.Task {
	t.Helper()
	task := &model.Task{Title: title, OwnerEmail: owner}
	if err := tasks.Create(context.Background(), task); err != nil {
		t.Fatalf("failed to create test task: %v", err)
	}
	return task
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestTaskCreate_AssignsIncreasingIDs(t *testing.T) {
	tasks := newTestTaskDB(t)

	first := createTestTask(t, tasks, "alice@example.com", "one")
	second := createTestTask(t, tasks, "bob@example.com", "two")

	if first.ID == 0 {
		t.Fatal("Create() did not set task.ID")
	}
	if second.ID <= first.ID {
		t.Errorf("second ID = %d, want > %d", second.ID, first.ID)
	}
}

func TestTaskCreate_UnknownOwnerRejected(t *testing.T) {
	tasks := newTestTaskDB(t)

	err := tasks.Create(context.Background(), &model.Task{Title: "orphan", OwnerEmail: "ghost@example.com"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Create() error = %v, want ErrNotFound", err)
	}
}

func TestTaskCreate_IDsNotReusedAfterDelete(t *testing.T) {
	tasks := newTestTaskDB(t)
	ctx := context.Background()

	first := createTestTask(t, tasks, "alice@example.com", "short-lived")
	if err := tasks.Delete(ctx, "alice@example.com", first.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	next := createTestTask(t, tasks, "bob@example.com", "newer")
	if next.ID == first.ID {
		t.Errorf("id %d was reused after delete", next.ID)
	}
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestTaskList_EmptyIsNotNil(t *testing.T) {
	tasks := newTestTaskDB(t)

	list, err := tasks.ListByOwner(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if list == nil {
		t.Fatal("ListByOwner() returned nil, want empty slice")
	}
	if len(list) != 0 {
		t.Errorf("ListByOwner() returned %d tasks, want 0", len(list))
	}
}

func TestTaskList_NewestFirstAndOwnerScoped(t *testing.T) {
	tasks := newTestTaskDB(t)

	createTestTask(t, tasks, "alice@example.com", "a1")
	createTestTask(t, tasks, "bob@example.com", "b1")
	createTestTask(t, tasks, "alice@example.com", "a2")
	createTestTask(t, tasks, "alice@example.com", "a3")

	list, err := tasks.ListByOwner(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}

	want := []string{"a3", "a2", "a1"}
	if len(list) != len(want) {
		t.Fatalf("ListByOwner() returned %d tasks, want %d", len(list), len(want))
	}
	for i, title := range want {
		if list[i].Title != title {
			t.Errorf("list[%d].Title = %q, want %q", i, list[i].Title, title)
		}
		if list[i].OwnerEmail != "alice@example.com" {
			t.Errorf("list[%d] owned by %q", i, list[i].OwnerEmail)
		}
		if list[i].Completed {
			t.Errorf("list[%d].Completed = true, want false", i)
		}
	}
}

// =========================================================================
// OWNERSHIP TESTS
// =========================================================================

func TestTaskSetCompleted_OtherOwnerIsNotFound(t *testing.T) {
	tasks := newTestTaskDB(t)
	ctx := context.Background()
	task := createTestTask(t, tasks, "alice@example.com", "alice's")

	err := tasks.SetCompleted(ctx, "bob@example.com", task.ID, true)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("SetCompleted() by non-owner error = %v, want ErrNotFound", err)
	}

	// Alice's task must be unchanged
	list, _ := tasks.ListByOwner(ctx, "alice@example.com")
	if len(list) != 1 || list[0].Completed {
		t.Errorf("task changed by non-owner: %+v", list)
	}
}

func TestTaskDelete_OtherOwnerIsNotFound(t *testing.T) {
	tasks := newTestTaskDB(t)
	ctx := context.Background()
	task := createTestTask(t, tasks, "alice@example.com", "alice's")

	err := tasks.Delete(ctx, "bob@example.com", task.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Delete() by non-owner error = %v, want ErrNotFound", err)
	}

	list, _ := tasks.ListByOwner(ctx, "alice@example.com")
	if len(list) != 1 {
		t.Errorf("task deleted by non-owner, list = %+v", list)
	}
}

func TestTaskSetCompleted_MissingID(t *testing.T) {
	tasks := newTestTaskDB(t)

	err := tasks.SetCompleted(context.Background(), "alice@example.com", 999, true)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("SetCompleted() error = %v, want ErrNotFound", err)
	}
}

func TestTaskSetCompleted_SameValueIsNotAnError(t *testing.T) {
	tasks := newTestTaskDB(t)
	task := createTestTask(t, tasks, "alice@example.com", "already open")

	// completed is already false; the row still matches the WHERE clause
	if err := tasks.SetCompleted(context.Background(), "alice@example.com", task.ID, false); err != nil {
		t.Errorf("SetCompleted() to the current value error = %v", err)
	}
}

func TestTaskDelete_Twice(t *testing.T) {
	tasks := newTestTaskDB(t)
	ctx := context.Background()
	task := createTestTask(t, tasks, "alice@example.com", "once")

	if err := tasks.Delete(ctx, "alice@example.com", task.ID); err != nil {
		t.Fatalf("first Delete() error = %v", err)
	}
	if err := tasks.Delete(ctx, "alice@example.com", task.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

// TestTaskConcurrentToggle hammers one row from several goroutines. The
// store must serialize them without errors and leave a consistent row.
func TestTaskConcurrentToggle(t *testing.T) {
	tasks := newTestTaskDB(t)
	task := createTestTask(t, tasks, "alice@example.com", "contended")

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(completed bool) {
			defer wg.Done()
			errs <- tasks.SetCompleted(context.Background(), "alice@example.com", task.ID, completed)
		}(i%2 == 0)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("concurrent SetCompleted() error = %v", err)
		}
	}
}

// =========================================================================
// FULL LIFECYCLE TEST
// =========================================================================

func TestTaskLifecycle(t *testing.T) {
	tasks := newTestTaskDB(t)
	ctx := context.Background()
	owner := "alice@example.com"

	// 1. Create
	task := createTestTask(t, tasks, owner, "buy milk")

	// 2. Appears in list, not completed
	list, err := tasks.ListByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(list) != 1 || list[0].ID != task.ID || list[0].Completed {
		t.Fatalf("list after create = %+v", list)
	}

	// 3. Complete it
	if err := tasks.SetCompleted(ctx, owner, task.ID, true); err != nil {
		t.Fatalf("SetCompleted: %v", err)
	}
	list, _ = tasks.ListByOwner(ctx, owner)
	if len(list) != 1 || !list[0].Completed {
		t.Fatalf("list after complete = %+v", list)
	}

	// 4. Delete it
	if err := tasks.Delete(ctx, owner, task.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	list, _ = tasks.ListByOwner(ctx, owner)
	if len(list) != 0 {
		t.Errorf("list after delete = %+v, want empty", list)
	}
}
