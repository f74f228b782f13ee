package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/candidate-api/internal/api/middleware"
	"github.com/phrazzld/candidate-api/internal/api/shared"
	"github.com/phrazzld/candidate-api/internal/domain"
	"github.com/phrazzld/candidate-api/internal/platform/logger"
)

// Pagination defaults for GET /all-candidates.
const (
	DefaultPage = 1
	DefaultSize = 10
)

// getPathID extracts a non-empty path parameter. Format checks are left to
// the store, which reports malformed IDs as not found.
func getPathID(r *http.Request, paramName string) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, paramName))
	if id == "" {
		return "", domain.NewValidationError(paramName, "required field", domain.ErrInvalidID)
	}
	return id, nil
}

// parseListQuery reads search, page and size, applying defaults for missing
// values. Non-integer numbers are reported as validation errors.
func parseListQuery(values url.Values) (ListCandidatesQuery, error) {
	q := ListCandidatesQuery{
		Search: values.Get("search"),
		Page:   DefaultPage,
		Size:   DefaultSize,
	}

	var err error
	if q.Page, err = intParam(values, "page", DefaultPage); err != nil {
		return q, err
	}
	if q.Size, err = intParam(values, "size", DefaultSize); err != nil {
		return q, err
	}

	if err := shared.ValidateRequest(q); err != nil {
		return q, err
	}
	return q, nil
}

func intParam(values url.Values, name string, fallback int) (int, error) {
	raw := values.Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(name, "must be an integer", domain.ErrValidation)
	}
	return n, nil
}

// identityOrReject returns the caller identity placed by the auth gate, or
// writes a 403 and returns false.
func identityOrReject(w http.ResponseWriter, r *http.Request, log *slog.Logger) (domain.Identity, bool) {
	if log == nil {
		log = logger.FromContext(r.Context())
	}

	identity, ok := shared.IdentityFrom(r.Context())
	if !ok {
		log.Warn("identity not found in request context", slog.String("path", r.URL.Path))
		shared.RespondWithError(w, r, http.StatusForbidden, middleware.MsgAuthHeaderMissing)
		return domain.Identity{}, false
	}
	return identity, true
}
