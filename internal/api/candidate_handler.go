package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/candidate-api/internal/api/shared"
	"github.com/phrazzld/candidate-api/internal/platform/logger"
	"github.com/phrazzld/candidate-api/internal/service"
	"github.com/phrazzld/candidate-api/internal/store"
)

// Confirmation messages.
const (
	MsgCandidateDeleted = "Candidate deleted successfully"
	MsgEmailVerified    = "Email successfully verified"
)

// CandidateHandler handles candidate CRUD and e-mail verification.
type CandidateHandler struct {
	candidates service.CandidateService
	logger     *slog.Logger
}

// NewCandidateHandler creates a new CandidateHandler
func NewCandidateHandler(candidates service.CandidateService, logger *slog.Logger) *CandidateHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for CandidateHandler")
	}

	return &CandidateHandler{
		candidates: candidates,
		logger:     logger.With(slog.String("component", "candidate_handler")),
	}
}

// List handles GET /all-candidates?search=&page=&size=
func (h *CandidateHandler) List(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	query, err := parseListQuery(r.URL.Query())
	if err != nil {
		HandleValidationError(w, r, err)
		return
	}

	candidates, err := h.candidates.List(r.Context(), store.ListParams{
		Search: query.Search,
		Page:   query.Page,
		Size:   query.Size,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list candidates")
		return
	}

	log.Debug("listed candidates",
		slog.Int("page", query.Page),
		slog.Int("size", query.Size),
		slog.Int("count", len(candidates)))
	shared.RespondWithJSON(w, r, http.StatusOK, candidatesToResponse(candidates))
}

// Create handles POST /candidate
func (h *CandidateHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req CreateCandidateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Debug("invalid candidate payload", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, MsgInvalidRequestBody)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleValidationError(w, r, err)
		return
	}

	experience := 0
	if req.Experience != nil {
		experience = *req.Experience
	}

	candidate, err := h.candidates.Create(r.Context(), req.Name, req.Email, experience)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create candidate")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, candidateToResponse(candidate))
}

// Get handles GET /candidate/{id}
func (h *CandidateHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleValidationError(w, r, err)
		return
	}

	candidate, err := h.candidates.Get(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get candidate")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, candidateToResponse(candidate))
}

// Update handles PUT /candidate/{id}
func (h *CandidateHandler) Update(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, err := getPathID(r, "id")
	if err != nil {
		HandleValidationError(w, r, err)
		return
	}

	var req UpdateCandidateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Debug("invalid candidate update payload", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, MsgInvalidRequestBody)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleValidationError(w, r, err)
		return
	}

	candidate, err := h.candidates.Update(r.Context(), id, req.ToDomain())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update candidate")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, candidateToResponse(candidate))
}

// Delete handles DELETE /candidate/{id}
func (h *CandidateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleValidationError(w, r, err)
		return
	}

	if err := h.candidates.Delete(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete candidate")
		return
	}

	shared.RespondWithMessage(w, r, MsgCandidateDeleted)
}

// VerifyEmail handles GET /verify-email?token=
func (h *CandidateHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		shared.RespondWithError(w, r, http.StatusUnprocessableEntity, "Invalid token: required field")
		return
	}

	if err := h.candidates.VerifyEmail(r.Context(), token); err != nil {
		HandleAPIError(w, r, err, "Failed to verify email")
		return
	}

	shared.RespondWithMessage(w, r, MsgEmailVerified)
}
