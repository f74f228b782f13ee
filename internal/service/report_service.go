package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/candidate-api/internal/task"
)

// ReportService queues candidate reports.
type ReportService interface {
	// RequestReport queues a report to be e-mailed to recipient and returns the job ID.
	RequestReport(ctx context.Context, recipient string) (string, error)
}

// ReportServiceImpl implements ReportService.
type ReportServiceImpl struct {
	enqueuer task.Enqueuer
	logger   *slog.Logger
}

var _ ReportService = (*ReportServiceImpl)(nil)

// NewReportService creates a ReportService.
func NewReportService(enqueuer task.Enqueuer, logger *slog.Logger) *ReportServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportServiceImpl{
		enqueuer: enqueuer,
		logger:   logger.With("component", "report_service"),
	}
}

// RequestReport implements ReportService.
func (s *ReportServiceImpl) RequestReport(ctx context.Context, recipient string) (string, error) {
	jobID, err := s.enqueuer.Enqueue(ctx, task.JobTypeReport, task.ReportPayload{RecipientEmail: recipient})
	if err != nil {
		return "", fmt.Errorf("failed to enqueue report: %w", err)
	}

	s.logger.InfoContext(ctx, "report requested", "job_id", jobID)
	return jobID, nil
}
