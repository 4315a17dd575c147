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

// TaskInputDTO is a single task in a delegation request body. A zero
// priority defaults to medium.
type TaskInputDTO struct {
	Title    string `json:"title"    validate:"required,min=1"`
	Priority int    `json:"priority" validate:"omitempty,min=1,max=3"`
}

// CreateRequestRequest represents the request body for delegating tasks.
type CreateRequestRequest struct {
	ToEmail string         `json:"to_email" validate:"required,email"`
	Tasks   []TaskInputDTO `json:"tasks"    validate:"required,min=1,dive"`
}

// CreateRequestResponse reports where the delegated tasks landed.
type CreateRequestResponse struct {
	RequestID    string `json:"request_id"`
	IsNewRequest bool   `json:"is_new_request"`
	TasksAdded   int    `json:"tasks_added"`
}

// CloseRequestRequest represents the request body for closing a request.
type CloseRequestRequest struct {
	RequestID string `json:"request_id" validate:"required,uuid"`
}

// CloseRequestResponse reports a request closure and its cascade.
type CloseRequestResponse struct {
	RequestID   string `json:"request_id"`
	TasksClosed int64  `json:"tasks_closed"`
}

// RequestResponse represents the response data for a request.
type RequestResponse struct {
	ID        string     `json:"id"`
	FromEmail string     `json:"from_email,omitempty"`
	ToEmail   string     `json:"to_email"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

// RequestHandler handles request-related HTTP requests.
type RequestHandler struct {
	requestService service.RequestService
}

// NewRequestHandler creates a new RequestHandler.
func NewRequestHandler(requestService service.RequestService) *RequestHandler {
	return &RequestHandler{
		requestService: requestService,
	}
}

// Create handles POST /api/requests requests.
func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateRequestRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	tasks := make([]service.TaskInput, len(req.Tasks))
	for i, t := range req.Tasks {
		priority := domain.TaskPriority(t.Priority)
		if priority == 0 {
			priority = domain.TaskPriorityMedium
		}
		tasks[i] = service.TaskInput{Title: t.Title, Priority: priority}
	}

	result, err := h.requestService.CreateOrMerge(r.Context(), identity, req.ToEmail, tasks)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	status := http.StatusCreated
	if result.Merged {
		status = http.StatusOK
	}
	shared.RespondWithJSON(w, r, status, CreateRequestResponse{
		RequestID:    result.Request.ID.String(),
		IsNewRequest: !result.Merged,
		TasksAdded:   len(result.Tasks),
	})
}

// Close handles POST /api/requests/close requests.
func (h *RequestHandler) Close(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CloseRequestRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	requestID, err := uuid.Parse(req.RequestID)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request ID")
		return
	}

	result, err := h.requestService.Close(r.Context(), identity, requestID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, CloseRequestResponse{
		RequestID:   result.Request.ID.String(),
		TasksClosed: result.TasksClosed,
	})
}

// ListReceived handles GET /api/requests requests.
func (h *RequestHandler) ListReceived(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	requests, err := h.requestService.ListReceived(r.Context(), identity)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, requestsToDTOResponse(requests))
}

// ListSent handles GET /api/requests/sent requests.
func (h *RequestHandler) ListSent(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	requests, err := h.requestService.ListSent(r.Context(), identity)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, requestsToDTOResponse(requests))
}

// requestsToDTOResponse converts domain requests to response DTOs. An
// empty list serializes as [] rather than null.
func requestsToDTOResponse(requests []*domain.Request) []RequestResponse {
	responses := make([]RequestResponse, len(requests))
	for i, req := range requests {
		responses[i] = RequestResponse{
			ID:        req.ID.String(),
			FromEmail: req.FromEmail,
			ToEmail:   req.ToEmail,
			Status:    string(req.Status),
			CreatedAt: req.CreatedAt,
			ClosedAt:  req.ClosedAt,
		}
	}
	return responses
}
