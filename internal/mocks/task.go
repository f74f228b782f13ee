package mocks

import (
	"context"

	"github.com/phrazzld/candidate-api/internal/task"
	"github.com/stretchr/testify/mock"
)

// TestifyMockEnqueuer is a mock of task.Enqueuer for use with testify/mock
type TestifyMockEnqueuer struct {
	mock.Mock
}

var _ task.Enqueuer = (*TestifyMockEnqueuer)(nil)

// Enqueue is a mock implementation of task.Enqueuer.Enqueue
func (m *TestifyMockEnqueuer) Enqueue(ctx context.Context, jobType string, payload any) (string, error) {
	args := m.Called(ctx, jobType, payload)
	return args.String(0), args.Error(1)
}

// TestifyMockErrorReporter is a mock of task.ErrorReporter for use with testify/mock
type TestifyMockErrorReporter struct {
	mock.Mock
}

var _ task.ErrorReporter = (*TestifyMockErrorReporter)(nil)

// CaptureError is a mock implementation of task.ErrorReporter.CaptureError
func (m *TestifyMockErrorReporter) CaptureError(ctx context.Context, err error) {
	m.Called(ctx, err)
}
