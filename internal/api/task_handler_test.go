package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stickyasks/stickyasks-api/internal/domain"
	"github.com/stickyasks/stickyasks-api/internal/mocks"
	"github.com/stickyasks/stickyasks-api/internal/service"
	"github.com/stickyasks/stickyasks-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var assignee = service.Identity{Email: "helper@example.com", DisplayName: "The Helper"}

func TestTaskHandlerStart(t *testing.T) {
	taskID := uuid.New()
	startedAt := time.Now().UTC()
	svc := &mocks.MockTaskService{
		StartFn: func(ctx context.Context, identity service.Identity, id uuid.UUID) (*domain.Task, error) {
			assert.Equal(t, taskID, id)
			return &domain.Task{
				ID:        id,
				RequestID: uuid.New(),
				Title:     "The task",
				Priority:  domain.TaskPriorityMedium,
				Status:    domain.TaskStatusStarted,
				StartedAt: &startedAt,
			}, nil
		},
	}
	handler := NewTaskHandler(svc)

	body := map[string]interface{}{"task_id": taskID.String()}
	req := authedRequest(t, http.MethodPost, "/api/tasks/start", body, assignee)
	rec := httptest.NewRecorder()

	handler.Start(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp TaskResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, taskID.String(), resp.ID)
	assert.Equal(t, "started", resp.Status)
	assert.NotNil(t, resp.StartedAt)
}

func TestTaskHandlerStart_Validation(t *testing.T) {
	handler := NewTaskHandler(&mocks.MockTaskService{})

	cases := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing task id", map[string]interface{}{}},
		{"not a uuid", map[string]interface{}{"task_id": "nope"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := authedRequest(t, http.MethodPost, "/api/tasks/start", tc.body, assignee)
			rec := httptest.NewRecorder()

			handler.Start(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestTaskHandlerComplete(t *testing.T) {
	taskID := uuid.New()
	startedAt := time.Now().UTC().Add(-90 * time.Minute)
	closedAt := time.Now().UTC()
	svc := &mocks.MockTaskService{
		CompleteFn: func(ctx context.Context, identity service.Identity, id uuid.UUID) (*domain.Task, error) {
			return &domain.Task{
				ID:        id,
				RequestID: uuid.New(),
				Title:     "The task",
				Priority:  domain.TaskPriorityHigh,
				Status:    domain.TaskStatusClosed,
				StartedAt: &startedAt,
				ClosedAt:  &closedAt,
			}, nil
		},
	}
	handler := NewTaskHandler(svc)

	body := map[string]interface{}{"task_id": taskID.String()}
	req := authedRequest(t, http.MethodPost, "/api/tasks/complete", body, assignee)
	rec := httptest.NewRecorder()

	handler.Complete(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp CompleteTaskResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "closed", resp.Status)
	assert.Equal(t, int64(90), resp.TurnaroundMinutes)
}

func TestTaskHandlerTransition_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"forbidden", service.ErrForbidden, http.StatusForbidden},
		{"not found", store.ErrTaskNotFound, http.StatusNotFound},
		{"invalid transition", service.ErrInvalidTransition, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mocks.MockTaskService{
				StartFn: func(ctx context.Context, identity service.Identity, id uuid.UUID) (*domain.Task, error) {
					return nil, tc.err
				},
			}
			handler := NewTaskHandler(svc)

			body := map[string]interface{}{"task_id": uuid.New().String()}
			req := authedRequest(t, http.MethodPost, "/api/tasks/start", body, assignee)
			rec := httptest.NewRecorder()

			handler.Start(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}

func TestTaskHandlerList(t *testing.T) {
	requestID := uuid.New()
	svc := &mocks.MockTaskService{
		ListByRequestFn: func(ctx context.Context, identity service.Identity, id uuid.UUID) ([]*domain.Task, error) {
			assert.Equal(t, requestID, id)
			return []*domain.Task{
				{ID: uuid.New(), RequestID: id, Title: "High", Priority: domain.TaskPriorityHigh, Status: domain.TaskStatusOpen},
				{ID: uuid.New(), RequestID: id, Title: "Low", Priority: domain.TaskPriorityLow, Status: domain.TaskStatusOpen},
			}, nil
		},
	}
	handler := NewTaskHandler(svc)

	req := authedRequest(t, http.MethodGet, "/api/tasks?request_id="+requestID.String(), nil, assignee)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp []TaskResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "High", resp[0].Title)
	assert.Equal(t, 3, resp[0].Priority)
}

func TestTaskHandlerList_MissingRequestID(t *testing.T) {
	handler := NewTaskHandler(&mocks.MockTaskService{})

	req := authedRequest(t, http.MethodGet, "/api/tasks", nil, assignee)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTaskHandlerStats(t *testing.T) {
	avg := 42.5
	svc := &mocks.MockTaskService{
		StatsFn: func(ctx context.Context, identity service.Identity) (*store.AssigneeStats, error) {
			return &store.AssigneeStats{CompletedTasks: 7, AvgTurnaroundMinutes: &avg}, nil
		},
	}
	handler := NewTaskHandler(svc)

	req := authedRequest(t, http.MethodGet, "/api/stats", nil, assignee)
	rec := httptest.NewRecorder()

	handler.Stats(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp StatsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, int64(7), resp.CompletedTasks)
	require.NotNil(t, resp.AvgTurnaroundMinutes)
	assert.Equal(t, 42.5, *resp.AvgTurnaroundMinutes)
}

func TestTaskHandlerStats_NoCompletedWork(t *testing.T) {
	svc := &mocks.MockTaskService{
		StatsFn: func(ctx context.Context, identity service.Identity) (*store.AssigneeStats, error) {
			return &store.AssigneeStats{}, nil
		},
	}
	handler := NewTaskHandler(svc)

	req := authedRequest(t, http.MethodGet, "/api/stats", nil, assignee)
	rec := httptest.NewRecorder()

	handler.Stats(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	// Average is null, never zero, when nothing was measured
	var raw map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&raw))
	assert.Equal(t, float64(0), raw["completed_tasks"])
	assert.Nil(t, raw["avg_turnaround_minutes"])
}
