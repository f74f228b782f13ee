package mocks

import (
	"context"

	"github.com/phrazzld/candidate-api/internal/domain"
	"github.com/phrazzld/candidate-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// TestifyMockUserStore is a mock of store.UserStore interface for use with testify/mock
type TestifyMockUserStore struct {
	mock.Mock
}

var _ store.UserStore = (*TestifyMockUserStore)(nil)

// Create is a mock implementation of store.UserStore.Create
func (m *TestifyMockUserStore) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// GetByEmail is a mock implementation of store.UserStore.GetByEmail
func (m *TestifyMockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if user, ok := args.Get(0).(*domain.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

// ExistsByEmail is a mock implementation of store.UserStore.ExistsByEmail
func (m *TestifyMockUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// TestifyMockCandidateStore is a mock of store.CandidateStore interface for use with testify/mock
type TestifyMockCandidateStore struct {
	mock.Mock
}

var _ store.CandidateStore = (*TestifyMockCandidateStore)(nil)

// List is a mock implementation of store.CandidateStore.List
func (m *TestifyMockCandidateStore) List(ctx context.Context, params store.ListParams) ([]*domain.Candidate, error) {
	args := m.Called(ctx, params)
	if list, ok := args.Get(0).([]*domain.Candidate); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// Create is a mock implementation of store.CandidateStore.Create
func (m *TestifyMockCandidateStore) Create(ctx context.Context, candidate *domain.Candidate) error {
	args := m.Called(ctx, candidate)
	return args.Error(0)
}

// GetByID is a mock implementation of store.CandidateStore.GetByID
func (m *TestifyMockCandidateStore) GetByID(ctx context.Context, id string) (*domain.Candidate, error) {
	args := m.Called(ctx, id)
	if c, ok := args.Get(0).(*domain.Candidate); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

// ExistsByEmail is a mock implementation of store.CandidateStore.ExistsByEmail
func (m *TestifyMockCandidateStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// Update is a mock implementation of store.CandidateStore.Update
func (m *TestifyMockCandidateStore) Update(
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

// Delete is a mock implementation of store.CandidateStore.Delete
func (m *TestifyMockCandidateStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// VerifyByToken is a mock implementation of store.CandidateStore.VerifyByToken
func (m *TestifyMockCandidateStore) VerifyByToken(ctx context.Context, token string) (*domain.Candidate, error) {
	args := m.Called(ctx, token)
	if c, ok := args.Get(0).(*domain.Candidate); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

// Each is a mock implementation of store.CandidateStore.Each
func (m *TestifyMockCandidateStore) Each(ctx context.Context, batchSize int, fn func(*domain.Candidate) error) error {
	args := m.Called(ctx, batchSize, fn)
	return args.Error(0)
}
