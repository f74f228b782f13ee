package service_test

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/phrazzld/candidate-api/internal/domain"
	"github.com/phrazzld/candidate-api/internal/mocks"
	"github.com/phrazzld/candidate-api/internal/service"
	"github.com/phrazzld/candidate-api/internal/store"
	"github.com/phrazzld/candidate-api/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type candidateFixture struct {
	candidates *mocks.TestifyMockCandidateStore
	enqueuer   *mocks.TestifyMockEnqueuer
	reporter   *mocks.TestifyMockErrorReporter
	svc        *service.CandidateServiceImpl
}

func newCandidateFixture(t *testing.T) *candidateFixture {
	t.Helper()
	f := &candidateFixture{
		candidates: &mocks.TestifyMockCandidateStore{},
		enqueuer:   &mocks.TestifyMockEnqueuer{},
		reporter:   &mocks.TestifyMockErrorReporter{},
	}
	svc, err := service.NewCandidateService(f.candidates, f.enqueuer, f.reporter, "http://localhost:8000/", nil)
	require.NoError(t, err)
	f.svc = svc
	t.Cleanup(func() {
		f.candidates.AssertExpectations(t)
		f.enqueuer.AssertExpectations(t)
		f.reporter.AssertExpectations(t)
	})
	return f
}

func TestCandidateCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("stores unverified candidate and queues verification email", func(t *testing.T) {
		f := newCandidateFixture(t)
		var stored *domain.Candidate
		var payload task.VerificationEmailPayload

		f.candidates.On("ExistsByEmail", ctx, "john@example.com").Return(false, nil)
		f.candidates.On("Create", ctx, mock.AnythingOfType("*domain.Candidate")).
			Run(func(args mock.Arguments) {
				stored = args.Get(1).(*domain.Candidate)
				stored.ID = "665f1c2e9b1e8a0001a1b2c3"
			}).Return(nil)
		f.enqueuer.On("Enqueue", ctx, task.JobTypeVerificationEmail, mock.Anything).
			Run(func(args mock.Arguments) {
				payload = args.Get(2).(task.VerificationEmailPayload)
			}).Return("job-1", nil)

		c, err := f.svc.Create(ctx, "John Doe", "john@example.com", 5)
		require.NoError(t, err)

		assert.Equal(t, "665f1c2e9b1e8a0001a1b2c3", c.ID)
		assert.False(t, c.IsVerified)
		assert.Equal(t, 5, c.Experience)
		assert.Len(t, stored.VerificationToken, service.VerificationTokenLength)

		assert.Equal(t, "john@example.com", payload.Email)
		link, err := url.Parse(payload.Link)
		require.NoError(t, err)
		assert.Equal(t, "localhost:8000", link.Host)
		assert.Equal(t, "/verify-email", link.Path)
		assert.Equal(t, stored.VerificationToken, link.Query().Get("token"))
	})

	t.Run("zero experience is accepted", func(t *testing.T) {
		f := newCandidateFixture(t)
		f.candidates.On("ExistsByEmail", ctx, "new@example.com").Return(false, nil)
		f.candidates.On("Create", ctx, mock.Anything).Return(nil)
		f.enqueuer.On("Enqueue", ctx, task.JobTypeVerificationEmail, mock.Anything).Return("job-1", nil)

		c, err := f.svc.Create(ctx, "New Grad", "new@example.com", 0)
		require.NoError(t, err)
		assert.Equal(t, 0, c.Experience)
	})

	t.Run("every candidate gets a distinct token", func(t *testing.T) {
		f := newCandidateFixture(t)
		tokens := map[string]bool{}
		f.candidates.On("ExistsByEmail", ctx, mock.Anything).Return(false, nil)
		f.candidates.On("Create", ctx, mock.Anything).Run(func(args mock.Arguments) {
			tokens[args.Get(1).(*domain.Candidate).VerificationToken] = true
		}).Return(nil)
		f.enqueuer.On("Enqueue", ctx, task.JobTypeVerificationEmail, mock.Anything).Return("job", nil)

		for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
			_, err := f.svc.Create(ctx, "Name", email, 1)
			require.NoError(t, err)
		}
		assert.Len(t, tokens, 3)
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := newCandidateFixture(t)
		f.candidates.On("ExistsByEmail", ctx, "john@example.com").Return(true, nil)

		_, err := f.svc.Create(ctx, "John Doe", "john@example.com", 5)
		assert.ErrorIs(t, err, service.ErrCandidateEmailTaken)
	})

	t.Run("duplicate detected by unique index", func(t *testing.T) {
		f := newCandidateFixture(t)
		f.candidates.On("ExistsByEmail", ctx, "john@example.com").Return(false, nil)
		f.candidates.On("Create", ctx, mock.Anything).Return(store.ErrCandidateEmailExists)

		_, err := f.svc.Create(ctx, "John Doe", "john@example.com", 5)
		assert.ErrorIs(t, err, service.ErrCandidateEmailTaken)
	})

	t.Run("enqueue failure does not fail the request", func(t *testing.T) {
		f := newCandidateFixture(t)
		f.candidates.On("ExistsByEmail", ctx, "john@example.com").Return(false, nil)
		f.candidates.On("Create", ctx, mock.Anything).Return(nil)
		f.enqueuer.On("Enqueue", ctx, task.JobTypeVerificationEmail, mock.Anything).
			Return("", task.ErrQueueUnavailable)
		f.reporter.On("CaptureError", ctx, mock.MatchedBy(func(err error) bool {
			return errors.Is(err, task.ErrQueueUnavailable)
		})).Return()

		c, err := f.svc.Create(ctx, "John Doe", "john@example.com", 5)
		require.NoError(t, err)
		assert.NotNil(t, c)
	})

	t.Run("negative experience is rejected", func(t *testing.T) {
		f := newCandidateFixture(t)
		f.candidates.On("ExistsByEmail", ctx, "john@example.com").Return(false, nil)

		_, err := f.svc.Create(ctx, "John Doe", "john@example.com", -1)
		assert.ErrorIs(t, err, domain.ErrNegativeExperience)
	})
}

func TestCandidateUpdate(t *testing.T) {
	ctx := context.Background()
	name := "X"

	t.Run("passes only supplied fields", func(t *testing.T) {
		f := newCandidateFixture(t)
		update := domain.CandidateUpdate{Name: &name}
		f.candidates.On("Update", ctx, "id-1", update).
			Return(&domain.Candidate{ID: "id-1", Name: "X", Email: "john@example.com", Experience: 5}, nil)

		c, err := f.svc.Update(ctx, "id-1", update)
		require.NoError(t, err)
		assert.Equal(t, "X", c.Name)
		assert.Equal(t, "john@example.com", c.Email)
		assert.Equal(t, 5, c.Experience)
	})

	t.Run("not found", func(t *testing.T) {
		f := newCandidateFixture(t)
		f.candidates.On("Update", ctx, "missing", mock.Anything).Return(nil, store.ErrCandidateNotFound)

		_, err := f.svc.Update(ctx, "missing", domain.CandidateUpdate{Name: &name})
		assert.ErrorIs(t, err, store.ErrCandidateNotFound)
	})

	t.Run("email collision", func(t *testing.T) {
		f := newCandidateFixture(t)
		email := "taken@example.com"
		f.candidates.On("Update", ctx, "id-1", mock.Anything).Return(nil, store.ErrCandidateEmailExists)

		_, err := f.svc.Update(ctx, "id-1", domain.CandidateUpdate{Email: &email})
		assert.ErrorIs(t, err, service.ErrCandidateEmailTaken)
	})

	t.Run("invalid field never reaches the store", func(t *testing.T) {
		f := newCandidateFixture(t)
		negative := -3

		_, err := f.svc.Update(ctx, "id-1", domain.CandidateUpdate{Experience: &negative})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestCandidateGetDeleteVerify(t *testing.T) {
	ctx := context.Background()

	t.Run("get", func(t *testing.T) {
		f := newCandidateFixture(t)
		f.candidates.On("GetByID", ctx, "id-1").Return(&domain.Candidate{ID: "id-1"}, nil)
		f.candidates.On("GetByID", ctx, "missing").Return(nil, store.ErrCandidateNotFound)

		c, err := f.svc.Get(ctx, "id-1")
		require.NoError(t, err)
		assert.Equal(t, "id-1", c.ID)

		_, err = f.svc.Get(ctx, "missing")
		assert.ErrorIs(t, err, store.ErrCandidateNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		f := newCandidateFixture(t)
		f.candidates.On("Delete", ctx, "id-1").Return(nil)
		f.candidates.On("Delete", ctx, "missing").Return(store.ErrCandidateNotFound)

		assert.NoError(t, f.svc.Delete(ctx, "id-1"))
		assert.ErrorIs(t, f.svc.Delete(ctx, "missing"), store.ErrCandidateNotFound)
	})

	t.Run("verify email", func(t *testing.T) {
		f := newCandidateFixture(t)
		f.candidates.On("VerifyByToken", ctx, "tok").Return(&domain.Candidate{ID: "id-1", IsVerified: true}, nil).Once()
		f.candidates.On("VerifyByToken", ctx, "tok").Return(nil, store.ErrVerificationTokenNotFound).Once()

		assert.NoError(t, f.svc.VerifyEmail(ctx, "tok"))
		assert.ErrorIs(t, f.svc.VerifyEmail(ctx, "tok"), store.ErrVerificationTokenNotFound)
	})

	t.Run("list", func(t *testing.T) {
		f := newCandidateFixture(t)
		params := store.ListParams{Search: "john", Page: 2, Size: 10}
		f.candidates.On("List", ctx, params).Return([]*domain.Candidate{{ID: "id-1"}}, nil)

		list, err := f.svc.List(ctx, params)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}

func TestVerificationLinkEscapesToken(t *testing.T) {
	svc, err := service.NewCandidateService(nil, nil, nil, "https://api.example.com", nil)
	require.NoError(t, err)

	link := svc.VerificationLink("a b&c")
	assert.True(t, strings.HasPrefix(link, "https://api.example.com/verify-email?token="))
	parsed, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "a b&c", parsed.Query().Get("token"))
}

func TestRequestReport(t *testing.T) {
	ctx := context.Background()
	enqueuer := &mocks.TestifyMockEnqueuer{}
	svc := service.NewReportService(enqueuer, nil)

	enqueuer.On("Enqueue", ctx, task.JobTypeReport, task.ReportPayload{RecipientEmail: "boss@example.com"}).
		Return("job-42", nil).Once()
	enqueuer.On("Enqueue", ctx, task.JobTypeReport, task.ReportPayload{RecipientEmail: "down@example.com"}).
		Return("", task.ErrQueueUnavailable).Once()

	id, err := svc.RequestReport(ctx, "boss@example.com")
	require.NoError(t, err)
	assert.Equal(t, "job-42", id)

	_, err = svc.RequestReport(ctx, "down@example.com")
	assert.ErrorIs(t, err, task.ErrQueueUnavailable)
	enqueuer.AssertExpectations(t)
}
