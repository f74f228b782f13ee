package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/candidate-api/internal/api/shared"
	"github.com/phrazzld/candidate-api/internal/platform/logger"
	"github.com/phrazzld/candidate-api/internal/service"
)

// MsgReportQueued confirms that a report job was accepted.
const MsgReportQueued = "Report will be sent to your email once it is generated"

// ReportHandler queues candidate reports for the authenticated user.
type ReportHandler struct {
	reports service.ReportService
	logger  *slog.Logger
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reports service.ReportService, logger *slog.Logger) *ReportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportHandler{
		reports: reports,
		logger:  logger.With(slog.String("component", "report_handler")),
	}
}

// SendReport handles GET /send-report. The report goes to the e-mail in the
// caller's token.
func (h *ReportHandler) SendReport(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	identity, ok := identityOrReject(w, r, log)
	if !ok {
		return
	}

	jobID, err := h.reports.RequestReport(r.Context(), identity.Email)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to queue report")
		return
	}

	log.Info("report queued", slog.String("job_id", jobID), slog.String("user_id", identity.UserID))
	shared.RespondWithJSON(w, r, http.StatusOK, ReportResponse{
		Message: MsgReportQueued,
		JobID:   jobID,
	})
}
