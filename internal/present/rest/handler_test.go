package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/dandihub/dandinotes/internal/config"
	"github.com/dandihub/dandinotes/internal/domain"
	"github.com/dandihub/dandinotes/internal/infrastructure/repository"
	"github.com/dandihub/dandinotes/internal/present/rest/middleware"
	"github.com/dandihub/dandinotes/internal/service"
	"github.com/dandihub/dandinotes/internal/usecase"
)

type testApp struct {
	e    *echo.Echo
	auth *service.AuthService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	dir := t.TempDir()

	repo, err := repository.NewFilesystemRepository(filepath.Join(dir, "submissions"))
	if err != nil {
		t.Fatalf("creating repository: %v", err)
	}
	auth := service.NewAuthService(
		filepath.Join(dir, "moderators.yaml"),
		filepath.Join(dir, "users.yaml"),
	)
	sessions := service.NewMemorySessionStore()
	guard := middleware.NewAuthMiddleware(sessions)

	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	e.Use(guard.IdentifySession)

	h := NewHandler(
		config.Config{},
		usecase.NewResourceUsecase(repo),
		usecase.NewDandisetUsecase(repo),
		usecase.NewStatsUsecase(repo, nil),
		auth,
		sessions,
	)
	h.RegisterRoutes(e, guard)

	return &testApp{e: e, auth: auth}
}

func (a *testApp) request(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	res := httptest.NewRecorder()
	a.e.ServeHTTP(res, req)
	return res
}

func (a *testApp) loginModerator(t *testing.T) *http.Cookie {
	t.Helper()
	if err := a.auth.AddModerator(context.Background(), "grace", "s3cret", "Grace", "grace@example.org"); err != nil {
		t.Fatalf("adding moderator: %v", err)
	}
	res := a.request(http.MethodPost, "/api/auth/login",
		map[string]string{"username": "grace", "password": "s3cret"})
	if res.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", res.Code, res.Body.String())
	}
	for _, cookie := range res.Result().Cookies() {
		if cookie.Name == domain.SessionCookieName {
			return cookie
		}
	}
	t.Fatalf("no session cookie set")
	return nil
}

func validSubmission() map[string]string {
	return map[string]string{
		"resource_name":     "Reanalysis notebook",
		"resource_url":      "https://example.org/notebook",
		"repository":        "GitHub",
		"relation":          "IsSupplementTo",
		"resource_type":     "ComputationalNotebook",
		"contributor_name":  "Ada",
		"contributor_email": "ada@example.org",
	}
}

type response struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Pagination *domain.Page    `json:"pagination"`
	Error      *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, res *httptest.ResponseRecorder) response {
	t.Helper()
	var out response
	if err := json.Unmarshal(res.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response %q: %v", res.Body.String(), err)
	}
	return out
}

func TestSubmitResource(t *testing.T) {
	app := newTestApp(t)

	res := app.request(http.MethodPost, "/api/dandisets/000001/resources", validSubmission())
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", res.Code, res.Body.String())
	}
	if loc := res.Header().Get(echo.HeaderLocation); !strings.HasPrefix(loc, "/api/resources/") {
		t.Fatalf("unexpected Location %q", loc)
	}

	body := decode(t, res)
	var created map[string]any
	json.Unmarshal(body.Data, &created)
	if created["status"] != "pending" {
		t.Fatalf("new submissions must be pending: %v", created["status"])
	}
	if created["relation"] != "dcite:IsSupplementTo" {
		t.Fatalf("relation not canonicalized: %v", created["relation"])
	}
	if created["annotation_date"] == "" {
		t.Fatalf("annotation date missing")
	}
}

func TestSubmitResourceInvalidEmail(t *testing.T) {
	app := newTestApp(t)

	sub := validSubmission()
	sub["contributor_email"] = "not-an-email"
	res := app.request(http.MethodPost, "/api/dandisets/000001/resources", sub)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", res.Code)
	}
	body := decode(t, res)
	if body.Error == nil || body.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("unexpected error: %s", res.Body.String())
	}
	if !strings.Contains(string(body.Error.Details), "contributor_email") {
		t.Fatalf("details should name the bad field: %s", body.Error.Details)
	}
}

func TestSubmitResourceMissingFields(t *testing.T) {
	app := newTestApp(t)

	sub := validSubmission()
	delete(sub, "resource_name")
	delete(sub, "relation")
	res := app.request(http.MethodPost, "/api/dandisets/000001/resources", sub)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", res.Code)
	}
	body := decode(t, res)
	if !strings.Contains(body.Error.Message, "resource_name") || !strings.Contains(body.Error.Message, "relation") {
		t.Fatalf("missing fields should be named: %s", body.Error.Message)
	}
}

func TestSubmitResourceRequiresJSON(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/dandisets/000001/resources",
		strings.NewReader("resource_name=x"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	res := httptest.NewRecorder()
	app.e.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", res.Code)
	}
}

func TestPaginationValidation(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{
		"/api/dandisets?page=0",
		"/api/dandisets?page=abc",
		"/api/dandisets?per_page=0",
		"/api/dandisets?per_page=101",
	} {
		res := app.request(http.MethodGet, path, nil)
		if res.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d", path, res.Code)
		}
	}
}

func TestPendingResourcesRequireAuth(t *testing.T) {
	app := newTestApp(t)

	res := app.request(http.MethodGet, "/api/dandisets/000001/resources/pending", nil)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", res.Code)
	}
	body := decode(t, res)
	if body.Error == nil || body.Error.Code != "UNAUTHORIZED" {
		t.Fatalf("unexpected error: %s", res.Body.String())
	}
}

func TestModeratorGuard(t *testing.T) {
	app := newTestApp(t)

	// Anonymous.
	res := app.request(http.MethodGet, "/api/submissions/pending", nil)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", res.Code)
	}

	// Plain user.
	reg := app.request(http.MethodPost, "/api/auth/register", map[string]string{
		"email": "ada@example.org", "password": "hunter22", "confirm_password": "hunter22",
	})
	if reg.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", reg.Code, reg.Body.String())
	}
	var userCookie *http.Cookie
	for _, cookie := range reg.Result().Cookies() {
		if cookie.Name == domain.SessionCookieName {
			userCookie = cookie
		}
	}
	if userCookie == nil {
		t.Fatalf("register should open a session")
	}

	res = app.request(http.MethodGet, "/api/submissions/pending", nil, userCookie)
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d: %s", res.Code, res.Body.String())
	}
	body := decode(t, res)
	if body.Error.Code != "FORBIDDEN" {
		t.Fatalf("unexpected error code: %s", body.Error.Code)
	}
}

func TestApproveFlow(t *testing.T) {
	app := newTestApp(t)
	moderator := app.loginModerator(t)

	created := decode(t, app.request(http.MethodPost, "/api/dandisets/000001/resources", validSubmission()))
	var submitted map[string]any
	json.Unmarshal(created.Data, &submitted)
	id := submitted["id"].(string)

	// Pending queue sees it.
	queue := decode(t, app.request(http.MethodGet, "/api/submissions/pending", nil, moderator))
	var pending []map[string]any
	json.Unmarshal(queue.Data, &pending)
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending submission, got %d", len(pending))
	}

	res := app.request(http.MethodPost, "/api/submissions/000001/"+id+"/approve",
		map[string]string{}, moderator)
	if res.Code != http.StatusOK {
		t.Fatalf("approve failed: %d %s", res.Code, res.Body.String())
	}
	body := decode(t, res)
	var approved map[string]any
	json.Unmarshal(body.Data, &approved)
	if approved["status"] != "approved" {
		t.Fatalf("status = %v", approved["status"])
	}
	ac := approved["approval_contributor"].(map[string]any)
	if ac["name"] != "Grace" {
		t.Fatalf("approver should default to the session principal: %v", ac)
	}

	// Gone from the queue.
	queue = decode(t, app.request(http.MethodGet, "/api/submissions/pending", nil, moderator))
	pending = nil
	json.Unmarshal(queue.Data, &pending)
	if len(pending) != 0 {
		t.Fatalf("approved submission still pending")
	}

	// And now publicly visible.
	public := decode(t, app.request(http.MethodGet, "/api/dandisets/000001/resources", nil))
	var visible []map[string]any
	json.Unmarshal(public.Data, &visible)
	if len(visible) != 1 {
		t.Fatalf("approved resource should be public, got %d", len(visible))
	}
}

func TestApproveMissingSubmission(t *testing.T) {
	app := newTestApp(t)
	moderator := app.loginModerator(t)

	res := app.request(http.MethodPost, "/api/submissions/000001/20990101_000000_submission/approve",
		map[string]string{}, moderator)
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", res.Code)
	}
}

func TestGetResourceVisibility(t *testing.T) {
	app := newTestApp(t)
	moderator := app.loginModerator(t)

	created := decode(t, app.request(http.MethodPost, "/api/dandisets/000001/resources", validSubmission()))
	var submitted map[string]any
	json.Unmarshal(created.Data, &submitted)
	id := submitted["id"].(string)

	// Anonymous readers cannot see pending records.
	if res := app.request(http.MethodGet, "/api/resources/"+id, nil); res.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for anonymous got %d", res.Code)
	}
	// Authenticated readers can.
	if res := app.request(http.MethodGet, "/api/resources/"+id, nil, moderator); res.Code != http.StatusOK {
		t.Fatalf("expected 200 for moderator got %d", res.Code)
	}
}

func TestDeleteResource(t *testing.T) {
	app := newTestApp(t)
	moderator := app.loginModerator(t)

	created := decode(t, app.request(http.MethodPost, "/api/dandisets/000001/resources", validSubmission()))
	var submitted map[string]any
	json.Unmarshal(created.Data, &submitted)
	id := submitted["id"].(string)

	res := app.request(http.MethodDelete, "/api/resources/"+id,
		map[string]string{"reason": "spam"}, moderator)
	if res.Code != http.StatusOK {
		t.Fatalf("delete failed: %d %s", res.Code, res.Body.String())
	}
	body := decode(t, res)
	var result map[string]any
	json.Unmarshal(body.Data, &result)
	if result["backup_location"] == "" {
		t.Fatalf("expected a backup location: %v", result)
	}

	if res := app.request(http.MethodGet, "/api/resources/"+id, nil, moderator); res.Code != http.StatusNotFound {
		t.Fatalf("deleted resource should be gone, got %d", res.Code)
	}
}

func TestUserSubmissionsOwnEmailOnly(t *testing.T) {
	app := newTestApp(t)

	reg := app.request(http.MethodPost, "/api/auth/register", map[string]string{
		"email": "ada@example.org", "password": "hunter22", "confirm_password": "hunter22",
	})
	var userCookie *http.Cookie
	for _, cookie := range reg.Result().Cookies() {
		if cookie.Name == domain.SessionCookieName {
			userCookie = cookie
		}
	}

	res := app.request(http.MethodGet, "/api/submissions/user/ada@example.org", nil, userCookie)
	if res.Code != http.StatusOK {
		t.Fatalf("own submissions should be readable: %d", res.Code)
	}
	res = app.request(http.MethodGet, "/api/submissions/user/bob@example.org", nil, userCookie)
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", res.Code)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	app := newTestApp(t)

	body := map[string]string{
		"email": "ada@example.org", "password": "hunter22", "confirm_password": "hunter22",
	}
	if res := app.request(http.MethodPost, "/api/auth/register", body); res.Code != http.StatusCreated {
		t.Fatalf("first register failed: %d", res.Code)
	}
	res := app.request(http.MethodPost, "/api/auth/register", body)
	if res.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", res.Code)
	}
	decoded := decode(t, res)
	if decoded.Error.Code != "EMAIL_EXISTS" {
		t.Fatalf("unexpected code %s", decoded.Error.Code)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	app := newTestApp(t)

	res := app.request(http.MethodPost, "/api/auth/login",
		map[string]string{"username": "nobody", "password": "nope"})
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", res.Code)
	}
}

func TestLogout(t *testing.T) {
	app := newTestApp(t)
	moderator := app.loginModerator(t)

	if res := app.request(http.MethodGet, "/api/auth/me", nil, moderator); res.Code != http.StatusOK {
		t.Fatalf("me failed before logout: %d", res.Code)
	}
	if res := app.request(http.MethodPost, "/api/auth/logout", nil, moderator); res.Code != http.StatusOK {
		t.Fatalf("logout failed: %d", res.Code)
	}
	if res := app.request(http.MethodGet, "/api/auth/me", nil, moderator); res.Code != http.StatusUnauthorized {
		t.Fatalf("session should be destroyed, got %d", res.Code)
	}
}

func TestStatsOverviewHidesPending(t *testing.T) {
	app := newTestApp(t)

	app.request(http.MethodPost, "/api/dandisets/000001/resources", validSubmission())

	body := decode(t, app.request(http.MethodGet, "/api/stats/overview", nil))
	var stats map[string]any
	json.Unmarshal(body.Data, &stats)
	if stats["total_pending_resources"].(float64) != 0 {
		t.Fatalf("pending counts leaked to anonymous: %v", stats)
	}
}

func TestUnknownEndpointEnvelope(t *testing.T) {
	app := newTestApp(t)

	res := app.request(http.MethodGet, "/api/nope", nil)
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", res.Code)
	}
	body := decode(t, res)
	if body.Error == nil || body.Error.Code != "NOT_FOUND" {
		t.Fatalf("unexpected body: %s", res.Body.String())
	}

	res = app.request(http.MethodDelete, "/api/dandisets", nil)
	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", res.Code)
	}
	body = decode(t, res)
	if body.Error.Code != "METHOD_NOT_ALLOWED" {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
}

func TestDandisetListingAfterSubmissions(t *testing.T) {
	app := newTestApp(t)

	app.request(http.MethodPost, "/api/dandisets/000001/resources", validSubmission())

	body := decode(t, app.request(http.MethodGet, "/api/dandisets", nil))
	var infos []map[string]any
	json.Unmarshal(body.Data, &infos)
	if len(infos) != 1 {
		t.Fatalf("expected 1 dandiset, got %d", len(infos))
	}
	if infos[0]["display_id"] != "DANDI:000001" {
		t.Fatalf("unexpected info: %v", infos[0])
	}
	if body.Pagination == nil || body.Pagination.TotalItems != 1 {
		t.Fatalf("pagination missing: %+v", body.Pagination)
	}
}
