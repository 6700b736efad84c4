package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	appadvice "github.com/clearview/a11yaudit/internal/application/advice"
	appaudits "github.com/clearview/a11yaudit/internal/application/audits"
	appcomposite "github.com/clearview/a11yaudit/internal/application/composite"
	appreports "github.com/clearview/a11yaudit/internal/application/reports"
	domadvice "github.com/clearview/a11yaudit/internal/domain/advice"
	"github.com/clearview/a11yaudit/internal/domain/composite"
	"github.com/clearview/a11yaudit/internal/domain/identity"
	"github.com/clearview/a11yaudit/internal/middleware"
)

type Router struct {
	compositeSvc *appcomposite.Service
	auditsSvc    *appaudits.Service
	reportsSvc   *appreports.Service
	adviceSvc    *appadvice.Service
	log          *zap.Logger
}

// NewRouter wires the composite read endpoints plus ingest, export and
// summary. reportsSvc and adviceSvc may be nil when object storage or
// the AI provider is not configured; their endpoints then answer 503.
func NewRouter(
	compositeSvc *appcomposite.Service,
	auditsSvc *appaudits.Service,
	reportsSvc *appreports.Service,
	adviceSvc *appadvice.Service,
	health http.HandlerFunc,
	log *zap.Logger,
) http.Handler {
	r := &Router{
		compositeSvc: compositeSvc,
		auditsSvc:    auditsSvc,
		reportsSvc:   reportsSvc,
		adviceSvc:    adviceSvc,
		log:          log,
	}
	mux := chi.NewRouter()

	mux.Get("/health", health)

	mux.Route("/composite-analysis", func(rt chi.Router) {
		rt.Get("/", r.wrap(r.handleGetByUser))
		rt.Get("/{id}", r.wrap(r.handleGetByID))
		rt.Post("/{id}/export", r.wrap(r.handleExport))
		rt.Post("/{id}/summary", r.wrap(r.handleSummary))
	})

	mux.Post("/analyses", r.wrap(r.handleIngest))

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			if errors.Is(err, domadvice.ErrQuotaExceeded) {
				respondError(w, http.StatusTooManyRequests, "quota_exceeded", "AI quota exceeded")
				return
			}
			r.log.Error("handler error",
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Error(err))
			respondError(w, http.StatusInternalServerError, "internal", "internal server error")
		}
	}
}

func respondJSON(w http.ResponseWriter, status int, msg string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"message": msg,
		"data":    data,
	})
}

func respondError(w http.ResponseWriter, status int, key, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   key,
		"message": msg,
	})
}

// mayRead is the read-access rule: the caller sees an owner's data when
// it is an admin or the owner itself.
func mayRead(ident identity.Identity, ownerID int64) bool {
	return ident.IsAdmin() || ident.UserID == ownerID
}

// fetchAuthorized resolves one complete analysis under the access rule.
// The aggregate is fetched first because the owner id lives on the
// record itself; a 404 therefore only happens when the record truly
// does not exist. Returns nil after writing the terminal response when
// the request may not proceed.
func (r *Router) fetchAuthorized(w http.ResponseWriter, req *http.Request) (*composite.CompleteAnalysis, error) {
	ident := middleware.IdentityFromContext(req.Context())
	if !ident.IsAuthenticated() {
		respondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return nil, nil
	}

	id, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid analysis id")
		return nil, nil
	}

	ca, err := r.compositeSvc.CompleteByID(req.Context(), id)
	if err != nil {
		return nil, err
	}
	if ca == nil {
		respondError(w, http.StatusNotFound, "not_found", "analysis not found")
		return nil, nil
	}
	if !mayRead(ident, ca.UserID) {
		r.log.Info("read denied",
			zap.Int64("caller_id", ident.UserID),
			zap.Int64("owner_id", ca.UserID),
			zap.Int64("analysis_id", id))
		respondError(w, http.StatusForbidden, "forbidden", "not allowed to read this analysis")
		return nil, nil
	}
	return ca, nil
}

// GET /composite-analysis/{id}
func (r *Router) handleGetByID(w http.ResponseWriter, req *http.Request) error {
	ca, err := r.fetchAuthorized(w, req)
	if err != nil || ca == nil {
		return err
	}
	respondJSON(w, http.StatusOK, "analysis retrieved", ca)
	return nil
}

// GET /composite-analysis?userId=
func (r *Router) handleGetByUser(w http.ResponseWriter, req *http.Request) error {
	ident := middleware.IdentityFromContext(req.Context())
	if !ident.IsAuthenticated() {
		respondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return nil
	}

	userID, err := strconv.ParseInt(req.URL.Query().Get("userId"), 10, 64)
	if err != nil || userID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid userId")
		return nil
	}

	// Target owner is the parameter itself; check before fanning out.
	if !mayRead(ident, userID) {
		r.log.Info("read denied",
			zap.Int64("caller_id", ident.UserID),
			zap.Int64("owner_id", userID))
		respondError(w, http.StatusForbidden, "forbidden", "not allowed to read this user's analyses")
		return nil
	}

	list, err := r.compositeSvc.CompleteByUser(req.Context(), userID)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, "analyses retrieved", list)
	return nil
}

// POST /composite-analysis/{id}/export
func (r *Router) handleExport(w http.ResponseWriter, req *http.Request) error {
	if r.reportsSvc == nil {
		respondError(w, http.StatusServiceUnavailable, "export_unavailable", "report storage is not configured")
		return nil
	}
	ca, err := r.fetchAuthorized(w, req)
	if err != nil || ca == nil {
		return err
	}

	url, err := r.reportsSvc.Export(req.Context(), ca)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, "report exported", map[string]string{"url": url})
	return nil
}

// POST /composite-analysis/{id}/summary
func (r *Router) handleSummary(w http.ResponseWriter, req *http.Request) error {
	if r.adviceSvc == nil {
		respondError(w, http.StatusServiceUnavailable, "summary_unavailable", "AI provider is not configured")
		return nil
	}
	ca, err := r.fetchAuthorized(w, req)
	if err != nil || ca == nil {
		return err
	}

	summary, err := r.adviceSvc.Summarize(req.Context(), ca)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, "summary generated", map[string]string{"summary": summary})
	return nil
}

type ingestError struct {
	Code     string `json:"code"`
	Selector string `json:"selector"`
	Message  string `json:"message"`
}

type ingestResult struct {
	Criterion string        `json:"criterion"`
	Level     string        `json:"level"`
	Status    string        `json:"status"`
	Errors    []ingestError `json:"errors"`
}

type ingestRequest struct {
	URL     string         `json:"url"`
	Score   int            `json:"score"`
	UserID  int64          `json:"userId,omitempty"` // admin only: ingest on behalf
	Results []ingestResult `json:"results"`
}

// POST /analyses
func (r *Router) handleIngest(w http.ResponseWriter, req *http.Request) error {
	ident := middleware.IdentityFromContext(req.Context())
	if !ident.IsAuthenticated() {
		respondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return nil
	}

	var body ingestRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "malformed request body")
		return nil
	}

	owner := ident.UserID
	if body.UserID != 0 && body.UserID != ident.UserID {
		if !ident.IsAdmin() {
			respondError(w, http.StatusForbidden, "forbidden", "not allowed to ingest for another user")
			return nil
		}
		owner = body.UserID
	}

	if err := middleware.ValidatePageURL(body.URL); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return nil
	}

	cmd := appaudits.SubmitAuditCommand{
		UserID:  owner,
		URL:     body.URL,
		Score:   body.Score,
		Results: make([]appaudits.SubmitResultInput, 0, len(body.Results)),
	}
	for _, in := range body.Results {
		if err := middleware.ValidateCriterion(in.Criterion); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return nil
		}
		if err := middleware.ValidateResultStatus(in.Status); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return nil
		}
		ri := appaudits.SubmitResultInput{
			Criterion: in.Criterion,
			Level:     in.Level,
			Status:    in.Status,
			Errors:    make([]appaudits.SubmitErrorInput, 0, len(in.Errors)),
		}
		for _, ein := range in.Errors {
			ri.Errors = append(ri.Errors, appaudits.SubmitErrorInput(ein))
		}
		cmd.Results = append(cmd.Results, ri)
	}

	ca, err := r.auditsSvc.Submit(req.Context(), cmd)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusCreated, "audit stored", ca)
	return nil
}
