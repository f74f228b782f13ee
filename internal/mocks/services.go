package mocks

import (
	"context"

	"github.com/phrazzld/candidate-api/internal/domain"
	"github.com/phrazzld/candidate-api/internal/service"
	"github.com/phrazzld/candidate-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// TestifyMockUserService is a mock of service.UserService for use with testify/mock
type TestifyMockUserService struct {
	mock.Mock
}

var _ service.UserService = (*TestifyMockUserService)(nil)

// Register is a mock implementation of service.UserService.Register
func (m *TestifyMockUserService) Register(ctx context.Context, email, password string) (*service.TokenPair, error) {
	args := m.Called(ctx, email, password)
	if pair, ok := args.Get(0).(*service.TokenPair); ok {
		return pair, args.Error(1)
	}
	return nil, args.Error(1)
}

// Login is a mock implementation of service.UserService.Login
func (m *TestifyMockUserService) Login(ctx context.Context, email, password string) (*service.TokenPair, error) {
	args := m.Called(ctx, email, password)
	if pair, ok := args.Get(0).(*service.TokenPair); ok {
		return pair, args.Error(1)
	}
	return nil, args.Error(1)
}

// TestifyMockCandidateService is a mock of service.CandidateService for use with testify/mock
type TestifyMockCandidateService struct {
	mock.Mock
}

var _ service.CandidateService = (*TestifyMockCandidateService)(nil)

// List is a mock implementation of service.CandidateService.List
func (m *TestifyMockCandidateService) List(ctx context.Context, params store.ListParams) ([]*domain.Candidate, error) {
	args := m.Called(ctx, params)
	if list, ok := args.Get(0).([]*domain.Candidate); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// Create is a mock implementation of service.CandidateService.Create
func (m *TestifyMockCandidateService) Create(
	ctx context.Context,
	name, email string,
	experience int,
) (*domain.Candidate, error) {
	args := m.Called(ctx, name, email, experience)
	if c, ok := args.Get(0).(*domain.Candidate); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

// Get is a mock implementation of service.CandidateService.Get
func (m *TestifyMockCandidateService) Get(ctx context.Context, id string) (*domain.Candidate, error) {
	args := m.Called(ctx, id)
	if c, ok := args.Get(0).(*domain.Candidate); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

// Update is a mock implementation of service.CandidateService.Update
func (m *TestifyMockCandidateService) Update(
	ctx context.Context,
	id string,
	update domain.CandidateUpdate,
) (*domain.Candidate, error) {
	args := m.Called(ctx, id, update)
	if c, ok := args.Get(0).(*domain.Candidate); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

// Delete is a mock implementation of service.CandidateService.Delete
func (m *TestifyMockCandidateService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// VerifyEmail is a mock implementation of service.CandidateService.VerifyEmail
func (m *TestifyMockCandidateService) VerifyEmail(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

// TestifyMockReportService is a mock of service.ReportService for use with testify/mock
type TestifyMockReportService struct {
	mock.Mock
}

var _ service.ReportService = (*TestifyMockReportService)(nil)

// RequestReport is a mock implementation of service.ReportService.RequestReport
func (m *TestifyMockReportService) RequestReport(ctx context.Context, recipient string) (string, error) {
	args := m.Called(ctx, recipient)
	return args.String(0), args.Error(1)
}
