package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stickyasks/stickyasks-api/internal/domain"
	"github.com/stickyasks/stickyasks-api/internal/service"
	"github.com/stickyasks/stickyasks-api/internal/store"
)

// MockRequestService implements service.RequestService for testing
type MockRequestService struct {
	CreateOrMergeFn func(ctx context.Context, caller service.Identity, toEmail string, tasks []service.TaskInput) (*service.CreateOrMergeResult, error)
	CloseFn         func(ctx context.Context, caller service.Identity, requestID uuid.UUID) (*service.CloseResult, error)
	ListReceivedFn  func(ctx context.Context, caller service.Identity) ([]*domain.Request, error)
	ListSentFn      func(ctx context.Context, caller service.Identity) ([]*domain.Request, error)
}

// Ensure MockRequestService implements service.RequestService
var _ service.RequestService = (*MockRequestService)(nil)

// CreateOrMerge implements the RequestService interface
func (m *MockRequestService) CreateOrMerge(
	ctx context.Context,
	caller service.Identity,
	toEmail string,
	tasks []service.TaskInput,
) (*service.CreateOrMergeResult, error) {
	return m.CreateOrMergeFn(ctx, caller, toEmail, tasks)
}

// Close implements the RequestService interface
func (m *MockRequestService) Close(
	ctx context.Context,
	caller service.Identity,
	requestID uuid.UUID,
) (*service.CloseResult, error) {
	return m.CloseFn(ctx, caller, requestID)
}

// ListReceived implements the RequestService interface
func (m *MockRequestService) ListReceived(
	ctx context.Context,
	caller service.Identity,
) ([]*domain.Request, error) {
	return m.ListReceivedFn(ctx, caller)
}

// ListSent implements the RequestService interface
func (m *MockRequestService) ListSent(
	ctx context.Context,
	caller service.Identity,
) ([]*domain.Request, error) {
	return m.ListSentFn(ctx, caller)
}

// MockTaskService implements service.TaskService for testing
type MockTaskService struct {
	StartFn         func(ctx context.Context, caller service.Identity, taskID uuid.UUID) (*domain.Task, error)
	CompleteFn      func(ctx context.Context, caller service.Identity, taskID uuid.UUID) (*domain.Task, error)
	ListByRequestFn func(ctx context.Context, caller service.Identity, requestID uuid.UUID) ([]*domain.Task, error)
	StatsFn         func(ctx context.Context, caller service.Identity) (*store.AssigneeStats, error)
}

// Ensure MockTaskService implements service.TaskService
var _ service.TaskService = (*MockTaskService)(nil)

// Start implements the TaskService interface
func (m *MockTaskService) Start(
	ctx context.Context,
	caller service.Identity,
	taskID uuid.UUID,
) (*domain.Task, error) {
	return m.StartFn(ctx, caller, taskID)
}

// Complete implements the TaskService interface
func (m *MockTaskService) Complete(
	ctx context.Context,
	caller service.Identity,
	taskID uuid.UUID,
) (*domain.Task, error) {
	return m.CompleteFn(ctx, caller, taskID)
}

// ListByRequest implements the TaskService interface
func (m *MockTaskService) ListByRequest(
	ctx context.Context,
	caller service.Identity,
	requestID uuid.UUID,
) ([]*domain.Task, error) {
	return m.ListByRequestFn(ctx, caller, requestID)
}

// Stats implements the TaskService interface
func (m *MockTaskService) Stats(
	ctx context.Context,
	caller service.Identity,
) (*store.AssigneeStats, error) {
	return m.StatsFn(ctx, caller)
}

// MockDirectoryService implements service.DirectoryService for testing
type MockDirectoryService struct {
	ResolveOrCreateFn func(ctx context.Context, email, displayName string) (uuid.UUID, error)
	GetProfileFn      func(ctx context.Context, email, fallbackName string) (*service.Profile, error)
	UpdateProfileFn   func(ctx context.Context, email, displayName string) (*service.Profile, error)
}

// Ensure MockDirectoryService implements service.DirectoryService
var _ service.DirectoryService = (*MockDirectoryService)(nil)

// ResolveOrCreate implements the DirectoryService interface
func (m *MockDirectoryService) ResolveOrCreate(
	ctx context.Context,
	email, displayName string,
) (uuid.UUID, error) {
	return m.ResolveOrCreateFn(ctx, email, displayName)
}

// GetProfile implements the DirectoryService interface
func (m *MockDirectoryService) GetProfile(
	ctx context.Context,
	email, fallbackName string,
) (*service.Profile, error) {
	return m.GetProfileFn(ctx, email, fallbackName)
}

// UpdateProfile implements the DirectoryService interface
func (m *MockDirectoryService) UpdateProfile(
	ctx context.Context,
	email, displayName string,
) (*service.Profile, error) {
	return m.UpdateProfileFn(ctx, email, displayName)
}
