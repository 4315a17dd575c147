package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/stickyasks/stickyasks-api/internal/api/middleware"
	"github.com/stickyasks/stickyasks-api/internal/api/shared"
	"github.com/stickyasks/stickyasks-api/internal/domain"
	"github.com/stickyasks/stickyasks-api/internal/service"
)

// TaskTransitionRequest represents the request body for starting or
// completing a task.
type TaskTransitionRequest struct {
	TaskID string `json:"task_id" validate:"required,uuid"`
}

// TaskResponse represents the response data for a task.
type TaskResponse struct {
	ID        string     `json:"id"`
	RequestID string     `json:"request_id"`
	Title     string     `json:"title"`
	Priority  int        `json:"priority"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

// CompleteTaskResponse is the TaskResponse plus the turnaround computed
// from the stored timestamps.
type CompleteTaskResponse struct {
	TaskResponse
	TurnaroundMinutes int64 `json:"turnaround_minutes"`
}

// StatsResponse represents the per-assignee aggregate response.
type StatsResponse struct {
	CompletedTasks       int64    `json:"completed_tasks"`
	AvgTurnaroundMinutes *float64 `json:"avg_turnaround_minutes"`
}

// TaskHandler handles task-related HTTP requests.
type TaskHandler struct {
	taskService service.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// Start handles POST /api/tasks/start requests.
func (h *TaskHandler) Start(w http.ResponseWriter, r *http.Request) {
	identity, taskID, ok := h.transitionParams(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.Start(r.Context(), identity, taskID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToDTOResponse(task))
}

// Complete handles POST /api/tasks/complete requests.
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	identity, taskID, ok := h.transitionParams(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.Complete(r.Context(), identity, taskID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	turnaround, _ := task.TurnaroundMinutes()
	shared.RespondWithJSON(w, r, http.StatusOK, CompleteTaskResponse{
		TaskResponse:      taskToDTOResponse(task),
		TurnaroundMinutes: turnaround,
	})
}

// transitionParams extracts the caller identity and the task ID shared by
// both transition endpoints, writing the error response itself on failure.
func (h *TaskHandler) transitionParams(
	w http.ResponseWriter,
	r *http.Request,
) (service.Identity, uuid.UUID, bool) {
	identity, ok := middleware.GetIdentity(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return service.Identity{}, uuid.Nil, false
	}

	var req TaskTransitionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return service.Identity{}, uuid.Nil, false
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return service.Identity{}, uuid.Nil, false
	}

	taskID, err := uuid.Parse(req.TaskID)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return service.Identity{}, uuid.Nil, false
	}

	return identity, taskID, true
}

// List handles GET /api/tasks?request_id= requests.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	requestID, err := uuid.Parse(r.URL.Query().Get("request_id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid or missing request_id")
		return
	}

	tasks, err := h.taskService.ListByRequest(r.Context(), identity, requestID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	responses := make([]TaskResponse, len(tasks))
	for i, task := range tasks {
		responses[i] = taskToDTOResponse(task)
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// Stats handles GET /api/stats requests.
func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	stats, err := h.taskService.Stats(r.Context(), identity)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, StatsResponse{
		CompletedTasks:       stats.CompletedTasks,
		AvgTurnaroundMinutes: stats.AvgTurnaroundMinutes,
	})
}

// taskToDTOResponse converts a domain.Task to a TaskResponse.
func taskToDTOResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:        task.ID.String(),
		RequestID: task.RequestID.String(),
		Title:     task.Title,
		Priority:  int(task.Priority),
		Status:    string(task.Status),
		CreatedAt: task.CreatedAt,
		StartedAt: task.StartedAt,
		ClosedAt:  task.ClosedAt,
	}
}
