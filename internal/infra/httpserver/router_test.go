package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/clearview/a11yaudit/internal/application"
	appadvice "github.com/clearview/a11yaudit/internal/application/advice"
	appaudits "github.com/clearview/a11yaudit/internal/application/audits"
	appcomposite "github.com/clearview/a11yaudit/internal/application/composite"
	appreports "github.com/clearview/a11yaudit/internal/application/reports"
	"github.com/clearview/a11yaudit/internal/domain/advice"
	"github.com/clearview/a11yaudit/internal/domain/analyses"
	"github.com/clearview/a11yaudit/internal/domain/auditerrors"
	"github.com/clearview/a11yaudit/internal/domain/identity"
	"github.com/clearview/a11yaudit/internal/domain/results"
	"github.com/clearview/a11yaudit/internal/middleware"
)

type fakeAnalyses struct {
	byID      map[int64]*analyses.Analysis
	byUser    map[int64][]*analyses.Analysis
	nextID    int64
	getCalls  int
	listCalls int
	saved     []*analyses.Analysis
}

func (f *fakeAnalyses) Save(ctx context.Context, a *analyses.Analysis) error {
	f.nextID++
	a.ID = f.nextID
	f.saved = append(f.saved, a)
	return nil
}

func (f *fakeAnalyses) GetByID(ctx context.Context, id int64) (*analyses.Analysis, error) {
	f.getCalls++
	return f.byID[id], nil
}

func (f *fakeAnalyses) ListByUser(ctx context.Context, userID int64) ([]*analyses.Analysis, error) {
	f.listCalls++
	return f.byUser[userID], nil
}

type fakeResults struct {
	byAnalysis map[int64][]*results.Result
	nextID     int64
}

func (f *fakeResults) Save(ctx context.Context, r *results.Result) error {
	f.nextID++
	r.ID = f.nextID
	return nil
}

func (f *fakeResults) ListByAnalysis(ctx context.Context, analysisID int64) ([]*results.Result, error) {
	return f.byAnalysis[analysisID], nil
}

type fakeErrors struct {
	byResult map[int64][]*auditerrors.AuditError
	nextID   int64
}

func (f *fakeErrors) Save(ctx context.Context, e *auditerrors.AuditError) error {
	f.nextID++
	e.ID = f.nextID
	return nil
}

func (f *fakeErrors) ListByResult(ctx context.Context, resultID int64) ([]*auditerrors.AuditError, error) {
	return f.byResult[resultID], nil
}

type fakeStore struct {
	lastKey string
}

func (f *fakeStore) PutJSON(ctx context.Context, key string, data []byte) (string, error) {
	f.lastKey = key
	return "http://store.local/reports/" + key, nil
}

type fakeAdviceClient struct {
	summary string
	err     error
}

func (f *fakeAdviceClient) Summarize(ctx context.Context, report string) (string, error) {
	return f.summary, f.err
}

type testEnv struct {
	handler  http.Handler
	analyses *fakeAnalyses
	store    *fakeStore
	advice   *fakeAdviceClient
}

// analysis 7 owned by user 42: two results, the first with one error.
func newTestEnv(t *testing.T, gatewaySecret string) *testEnv {
	t.Helper()

	fa := &fakeAnalyses{
		byID: map[int64]*analyses.Analysis{
			7: {ID: 7, UserID: 42, URL: "https://example.com", Score: 83, CreatedAt: time.Now()},
		},
		byUser: map[int64][]*analyses.Analysis{
			42: {{ID: 7, UserID: 42, URL: "https://example.com", Score: 83}},
		},
		nextID: 100,
	}
	fr := &fakeResults{
		byAnalysis: map[int64][]*results.Result{
			7: {
				{ID: 1, AnalysisID: 7, Criterion: "1.1.1", Status: results.StatusFail},
				{ID: 2, AnalysisID: 7, Criterion: "1.4.3", Status: results.StatusPass},
			},
		},
		nextID: 100,
	}
	fe := &fakeErrors{
		byResult: map[int64][]*auditerrors.AuditError{
			1: {{ID: 11, ResultID: 1, Code: "img-alt", Selector: "img.hero", Message: "missing alt text"}},
		},
		nextID: 100,
	}

	compositeSvc := &appcomposite.Service{Analyses: fa, Results: fr, Errors: fe}
	auditsSvc := &appaudits.Service{Analyses: fa, Results: fr, Errors: fe, Clock: application.SystemClock{}}
	store := &fakeStore{}
	reportsSvc := &appreports.Service{Store: store, Clock: application.SystemClock{}}
	adviceClient := &fakeAdviceClient{summary: "fix the hero image alt text"}
	adviceSvc := appadvice.NewService(adviceClient)

	health := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

	log := zap.NewNop()
	mux := chi.NewRouter()
	mux.Use(middleware.GatewaySecret(gatewaySecret, log))
	mux.Use(middleware.NewIdentityResolver([]byte("test-key"), log).Handler)
	mux.Mount("/", NewRouter(compositeSvc, auditsSvc, reportsSvc, adviceSvc, health, log))

	return &testEnv{handler: mux, analyses: fa, store: store, advice: adviceClient}
}

func do(t *testing.T, h http.Handler, method, target, callerID, role, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if callerID != "" {
		req.Header.Set(middleware.UserIDHeader, callerID)
	}
	if role != "" {
		req.Header.Set(middleware.UserRoleHeader, role)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response body is not a JSON object: %v (%s)", err, rec.Body.String())
	}
	return body
}

type treeEnvelope struct {
	Message string `json:"message"`
	Data    struct {
		ID      int64 `json:"id"`
		UserID  int64 `json:"user_id"`
		Results []struct {
			ID         int64 `json:"id"`
			AnalysisID int64 `json:"analysis_id"`
			Errors     []struct {
				ID       int64 `json:"id"`
				ResultID int64 `json:"result_id"`
			} `json:"errors"`
		} `json:"results"`
	} `json:"data"`
}

func TestGetByIDUnauthenticated(t *testing.T) {
	env := newTestEnv(t, "")
	rec := do(t, env.handler, http.MethodGet, "/composite-analysis/7", "", "", "")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if env.analyses.getCalls != 0 {
		t.Fatal("aggregator must not run for unauthenticated callers")
	}
	if got := decodeError(t, rec)["error"]; got != "unauthorized" {
		t.Fatalf("error key = %q, want unauthorized", got)
	}
}

func TestGetByIDForbidden(t *testing.T) {
	env := newTestEnv(t, "")
	rec := do(t, env.handler, http.MethodGet, "/composite-analysis/7", "99", "", "")

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	body := decodeError(t, rec)
	if body["error"] != "forbidden" {
		t.Fatalf("error key = %q, want forbidden", body["error"])
	}
	if strings.Contains(rec.Body.String(), `"results"`) {
		t.Fatal("403 body must not carry the aggregate")
	}
}

func TestGetByIDOwner(t *testing.T) {
	env := newTestEnv(t, "")
	rec := do(t, env.handler, http.MethodGet, "/composite-analysis/7", "42", "", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}

	var env2 treeEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env2); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env2.Message == "" {
		t.Fatal("success responses carry a message")
	}
	if env2.Data.ID != 7 || len(env2.Data.Results) != 2 {
		t.Fatalf("unexpected tree: %+v", env2.Data)
	}
	if len(env2.Data.Results[0].Errors) != 1 || len(env2.Data.Results[1].Errors) != 0 {
		t.Fatalf("unexpected error fan-out: %+v", env2.Data.Results)
	}
}

func TestGetByIDAdmin(t *testing.T) {
	env := newTestEnv(t, "")
	rec := do(t, env.handler, http.MethodGet, "/composite-analysis/7", "1", identity.RoleAdmin, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for admin", rec.Code)
	}
}

func TestGetByIDAdminRoleIsCaseSensitive(t *testing.T) {
	env := newTestEnv(t, "")
	rec := do(t, env.handler, http.MethodGet, "/composite-analysis/7", "1", "admin", "")

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 for lowercase role token", rec.Code)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	env := newTestEnv(t, "")
	rec := do(t, env.handler, http.MethodGet, "/composite-analysis/999", "42", "", "")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if got := decodeError(t, rec)["error"]; got != "not_found" {
		t.Fatalf("error key = %q, want not_found", got)
	}
}

func TestGetByIDInvalidID(t *testing.T) {
	env := newTestEnv(t, "")
	rec := do(t, env.handler, http.MethodGet, "/composite-analysis/abc", "42", "", "")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetByUserForbiddenBeforeFanOut(t *testing.T) {
	env := newTestEnv(t, "")
	rec := do(t, env.handler, http.MethodGet, "/composite-analysis?userId=42", "5", "", "")

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if env.analyses.listCalls != 0 {
		t.Fatal("ownership is checked before the aggregator runs")
	}
}

func TestGetByUserSelf(t *testing.T) {
	env := newTestEnv(t, "")
	rec := do(t, env.handler, http.MethodGet, "/composite-analysis?userId=42", "42", "", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}

	var env2 struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env2); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if len(env2.Data) != 1 {
		t.Fatalf("list length = %d, want 1", len(env2.Data))
	}
}

func TestGetByUserAdmin(t *testing.T) {
	env := newTestEnv(t, "")
	rec := do(t, env.handler, http.MethodGet, "/composite-analysis?userId=42", "1", identity.RoleAdmin, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for admin", rec.Code)
	}
}

func TestGatewayGateRunsFirst(t *testing.T) {
	env := newTestEnv(t, "s3cret")
	// identity headers present but the gate header missing
	rec := do(t, env.handler, http.MethodGet, "/composite-analysis/7", "42", "", "")

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if env.analyses.getCalls != 0 {
		t.Fatal("nothing downstream of the gate may run")
	}
	if !strings.Contains(decodeError(t, rec)["message"], "Forbidden") {
		t.Fatal("gate rejection message should contain Forbidden")
	}
}

func TestExport(t *testing.T) {
	env := newTestEnv(t, "")
	rec := do(t, env.handler, http.MethodPost, "/composite-analysis/7/export", "42", "", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	var env2 struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env2); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env2.Data.URL == "" {
		t.Fatal("export should return the artifact url")
	}
	if !strings.HasPrefix(env.store.lastKey, "reports/7/") {
		t.Fatalf("artifact key = %q, want reports/7/ prefix", env.store.lastKey)
	}
}

func TestExportUnavailable(t *testing.T) {
	env := newTestEnv(t, "")
	log := zap.NewNop()

	// rebuild without a reports service
	compositeSvc := &appcomposite.Service{Analyses: env.analyses, Results: &fakeResults{}, Errors: &fakeErrors{}}
	mux := chi.NewRouter()
	mux.Use(middleware.NewIdentityResolver(nil, log).Handler)
	mux.Mount("/", NewRouter(compositeSvc, nil, nil, nil, func(w http.ResponseWriter, r *http.Request) {}, log))

	rec := do(t, mux, http.MethodPost, "/composite-analysis/7/export", "42", "", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if got := decodeError(t, rec)["error"]; got != "export_unavailable" {
		t.Fatalf("error key = %q, want export_unavailable", got)
	}
}

func TestSummary(t *testing.T) {
	env := newTestEnv(t, "")
	rec := do(t, env.handler, http.MethodPost, "/composite-analysis/7/summary", "42", "", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "fix the hero image alt text") {
		t.Fatalf("summary missing from body: %s", rec.Body.String())
	}
}

func TestSummaryQuotaExceeded(t *testing.T) {
	env := newTestEnv(t, "")
	env.advice.err = advice.ErrQuotaExceeded

	rec := do(t, env.handler, http.MethodPost, "/composite-analysis/7/summary", "42", "", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if got := decodeError(t, rec)["error"]; got != "quota_exceeded" {
		t.Fatalf("error key = %q, want quota_exceeded", got)
	}
}

func TestIngest(t *testing.T) {
	env := newTestEnv(t, "")
	body := `{
		"url": "https://example.com/contact",
		"score": 71,
		"results": [
			{"criterion": "1.1.1", "level": "A", "status": "fail",
			 "errors": [{"code": "img-alt", "selector": "img#logo", "message": "missing alt text"}]},
			{"criterion": "1.4.3", "level": "AA", "status": "pass", "errors": []}
		]
	}`
	rec := do(t, env.handler, http.MethodPost, "/analyses", "42", "", body)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (%s)", rec.Code, rec.Body.String())
	}
	var env2 treeEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env2); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env2.Data.UserID != 42 {
		t.Fatalf("stored owner = %d, want caller 42", env2.Data.UserID)
	}
	if len(env2.Data.Results) != 2 || len(env2.Data.Results[0].Errors) != 1 {
		t.Fatalf("stored tree wrong: %+v", env2.Data)
	}
	if len(env.analyses.saved) != 1 || env.analyses.saved[0].UserID != 42 {
		t.Fatalf("analysis not persisted for caller: %+v", env.analyses.saved)
	}
}

func TestIngestForAnotherUserRequiresAdmin(t *testing.T) {
	env := newTestEnv(t, "")
	body := `{"url": "https://example.com", "userId": 99, "results": []}`

	rec := do(t, env.handler, http.MethodPost, "/analyses", "42", "", body)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 for non-admin on-behalf ingest", rec.Code)
	}

	rec = do(t, env.handler, http.MethodPost, "/analyses", "1", identity.RoleAdmin, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 for admin on-behalf ingest (%s)", rec.Code, rec.Body.String())
	}
}

func TestIngestRejectsBadInput(t *testing.T) {
	env := newTestEnv(t, "")

	tests := []struct {
		name string
		body string
	}{
		{name: "bad url", body: `{"url": "ftp://example.com", "results": []}`},
		{name: "bad criterion", body: `{"url": "https://example.com", "results": [{"criterion": "nope", "status": "fail"}]}`},
		{name: "bad status", body: `{"url": "https://example.com", "results": [{"criterion": "1.1.1", "status": "skipped"}]}`},
		{name: "malformed json", body: `{`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, env.handler, http.MethodPost, "/analyses", "42", "", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}
