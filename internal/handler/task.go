package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/tasklist/internal/apperror"
	"github.com/sakif/tasklist/internal/auth"
	"github.com/sakif/tasklist/internal/model"
	"github.com/sakif/tasklist/internal/service"
)

// TaskHandler serves the owner-scoped task endpoints. Every route is behind
// auth.RequireAuth; the owner always comes from the request context.
type TaskHandler struct {
	tasks  *service.TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks *service.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger}
}

type createTaskRequest struct {
	Title string `json:"title"`
}

// updateTaskRequest uses *bool so a missing "completed" can be told apart
// from false.
type updateTaskRequest struct {
	Completed *bool `json:"completed"`
}

// TaskResponse is the public view of a task. The owner is implied by the
// token and never echoed back.
type TaskResponse struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

func newTaskResponse(t model.Task) TaskResponse {
	return TaskResponse{ID: t.ID, Title: t.Title, Completed: t.Completed}
}

// HandleList returns the caller's tasks, newest first.
//
// HTTP: GET /api/tasks
//
// RESPONSE FORMAT:
//
//	[{"id":2,"title":"...","completed":false}, {"id":1,...}]
func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.EmailFromContext(r.Context())

	tasks, err := h.tasks.List(r.Context(), owner)
	if err != nil {
		writeError(w, err)
		return
	}

	res := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		res = append(res, newTaskResponse(t))
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleCreate adds a task for the caller.
//
// HTTP: POST /api/tasks
// REQUEST BODY: {"title": "Buy milk"}
func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.EmailFromContext(r.Context())

	var req createTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	task, err := h.tasks.Create(r.Context(), owner, req.Title)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newTaskResponse(*task))
}

// HandleUpdate sets the completion flag of one of the caller's tasks.
//
// HTTP: PUT /api/tasks/{id}
// REQUEST BODY: {"completed": true}
//
// "completed" must be a JSON boolean. A missing field, a string or a number
// is InvalidInput.
func (h *TaskHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.EmailFromContext(r.Context())

	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var req updateTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Completed == nil {
		writeError(w, apperror.ValidationFailed("completed", "completed status is required"))
		return
	}

	if err := h.tasks.SetCompleted(r.Context(), owner, id, *req.Completed); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Task updated successfully"})
}

// HandleDelete removes one of the caller's tasks.
//
// HTTP: DELETE /api/tasks/{id}
func (h *TaskHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.EmailFromContext(r.Context())

	id, ok := taskID(w, r)
	if !ok {
		return
	}

	if err := h.tasks.Delete(r.Context(), owner, id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Task deleted successfully"})
}

// taskID parses the {id} URL parameter. An id that isn't an integer can't
// name any task, so it answers 404 like any other unknown id.
func taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, apperror.NotFound("task", raw))
		return 0, false
	}
	return id, true
}
