package rest

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dandihub/dandinotes"
	"github.com/dandihub/dandinotes/internal/config"
	"github.com/dandihub/dandinotes/internal/domain"
	"github.com/dandihub/dandinotes/internal/present/rest/middleware"
	"github.com/dandihub/dandinotes/internal/present/rest/presenter"
	"github.com/dandihub/dandinotes/internal/service"
	"github.com/dandihub/dandinotes/internal/usecase"
)

type Handler struct {
	config   config.Config
	resource *usecase.ResourceUsecase
	dandiset *usecase.DandisetUsecase
	stats    *usecase.StatsUsecase
	auth     *service.AuthService
	sessions service.SessionStore
}

func NewHandler(
	config config.Config,
	resource *usecase.ResourceUsecase,
	dandiset *usecase.DandisetUsecase,
	stats *usecase.StatsUsecase,
	auth *service.AuthService,
	sessions service.SessionStore,
) *Handler {
	return &Handler{
		config:   config,
		resource: resource,
		dandiset: dandiset,
		stats:    stats,
		auth:     auth,
		sessions: sessions,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo, guard *middleware.AuthMiddleware) {
	api := e.Group("/api")

	api.GET("/dandisets", h.handleListDandisets)
	api.GET("/dandisets/:id", h.handleGetDandiset)
	api.GET("/dandisets/:id/resources", h.handleDandisetResources)
	api.POST("/dandisets/:id/resources", h.handleSubmitResource)
	api.GET("/dandisets/:id/resources/approved", h.handleApprovedResources)
	api.GET("/dandisets/:id/resources/pending", h.handlePendingResources, guard.RequireAuth)

	api.GET("/resources/:id", h.handleGetResource)
	api.DELETE("/resources/:id", h.handleDeleteResource, guard.RequireModerator)

	api.GET("/submissions/pending", h.handleAllPending, guard.RequireModerator)
	api.POST("/submissions/:id/:filename/approve", h.handleApprove, guard.RequireModerator)
	api.GET("/submissions/user/:email", h.handleUserSubmissions, guard.RequireAuth)

	api.POST("/auth/login", h.handleLogin)
	api.POST("/auth/register", h.handleRegister)
	api.POST("/auth/logout", h.handleLogout)
	api.GET("/auth/me", h.handleMe, guard.RequireAuth)

	api.GET("/stats/overview", h.handleOverviewStats)
	api.GET("/stats/dandisets/:id", h.handleDandisetStats)
}

func (h *Handler) handleListDandisets(c echo.Context) error {
	ctx := c.Request().Context()

	page, perPage, err := pageParams(c)
	if err != nil {
		return presenter.ValidationFailed(c, err.Error(), nil)
	}

	infos, meta, err := h.dandiset.List(ctx, page, perPage)
	if err != nil {
		return presenter.Internal(c, "")
	}
	return presenter.Paginated(c, infos, meta, "")
}

func (h *Handler) handleGetDandiset(c echo.Context) error {
	ctx := c.Request().Context()

	dandisetID, err := dandinotes.NormalizeDandisetID(c.Param("id"))
	if err != nil {
		return presenter.ValidationFailed(c, "Invalid dandiset ID", nil)
	}

	info, err := h.dandiset.Get(ctx, dandisetID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, "Dandiset")
		}
		return presenter.Internal(c, "")
	}
	return presenter.OK(c, info, "")
}

func (h *Handler) handleDandisetResources(c echo.Context) error {
	ctx := c.Request().Context()

	dandisetID, err := dandinotes.NormalizeDandisetID(c.Param("id"))
	if err != nil {
		return presenter.ValidationFailed(c, "Invalid dandiset ID", nil)
	}
	page, perPage, err := pageParams(c)
	if err != nil {
		return presenter.ValidationFailed(c, err.Error(), nil)
	}

	includePending := false
	if principal := middleware.PrincipalFromContext(ctx); principal != nil {
		includePending = principal.IsModerator()
	}

	resources, meta, err := h.resource.DandisetResources(ctx, dandisetID, includePending, page, perPage)
	if err != nil {
		return presenter.Internal(c, "")
	}
	return presenter.Paginated(c, resources, meta, "")
}

func (h *Handler) handleApprovedResources(c echo.Context) error {
	return h.handleStatusResources(c, domain.StatusApproved)
}

func (h *Handler) handlePendingResources(c echo.Context) error {
	return h.handleStatusResources(c, domain.StatusPending)
}

func (h *Handler) handleStatusResources(c echo.Context, status domain.Status) error {
	ctx := c.Request().Context()

	dandisetID, err := dandinotes.NormalizeDandisetID(c.Param("id"))
	if err != nil {
		return presenter.ValidationFailed(c, "Invalid dandiset ID", nil)
	}
	page, perPage, err := pageParams(c)
	if err != nil {
		return presenter.ValidationFailed(c, err.Error(), nil)
	}

	resources, meta, err := h.resource.StatusResources(ctx, dandisetID, status, page, perPage)
	if err != nil {
		return presenter.Internal(c, "")
	}
	return presenter.Paginated(c, resources, meta, "")
}

func (h *Handler) handleSubmitResource(c echo.Context) error {
	ctx := c.Request().Context()

	if !isJSONRequest(c) {
		return presenter.ValidationFailed(c, "Request must be JSON", nil)
	}

	dandisetID, err := dandinotes.NormalizeDandisetID(c.Param("id"))
	if err != nil {
		return presenter.ValidationFailed(c, "Invalid dandiset ID", nil)
	}

	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return presenter.ValidationFailed(c, "Invalid request body", nil)
	}

	if problems := req.validate(); len(problems) > 0 {
		if missing, ok := problems["_missing"]; ok {
			delete(problems, "_missing")
			return presenter.ValidationFailed(c, fmt.Sprintf("Missing required fields: %s", missing), problems)
		}
		return presenter.ValidationFailed(c, "Validation failed", problems)
	}

	res := req.resource(dandisetID)
	created, err := h.resource.Submit(ctx, dandisetID, &res)
	if err != nil {
		return presenter.Internal(c, "Failed to save submission")
	}

	location := fmt.Sprintf("/api/resources/%s", created.ID)
	return presenter.Created(c, created, "Submission received and pending review", location)
}

func (h *Handler) handleGetResource(c echo.Context) error {
	ctx := c.Request().Context()

	res, err := h.resource.FindByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, "Resource")
		}
		return presenter.Internal(c, "")
	}

	// Pending submissions are only visible to authenticated users.
	if res.Status != domain.StatusApproved.Public() {
		if middleware.PrincipalFromContext(ctx) == nil {
			return presenter.NotFound(c, "Resource")
		}
	}
	return presenter.OK(c, res, "")
}

func (h *Handler) handleDeleteResource(c echo.Context) error {
	ctx := c.Request().Context()
	principal := middleware.PrincipalFromContext(ctx)

	var req deleteRequest
	if isJSONRequest(c) {
		if err := c.Bind(&req); err != nil {
			return presenter.ValidationFailed(c, "Invalid request body", nil)
		}
	}

	result, err := h.resource.DeleteByID(ctx, c.Param("id"), usecase.ModeratorInfo{
		Name:   principal.Name,
		Email:  principal.Email,
		Reason: req.Reason,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, "Resource")
		}
		return presenter.Internal(c, "Failed to delete resource")
	}
	return presenter.OK(c, result, fmt.Sprintf("Resource '%s' deleted", result.ResourceName))
}

func (h *Handler) handleAllPending(c echo.Context) error {
	ctx := c.Request().Context()

	page, perPage, err := pageParams(c)
	if err != nil {
		return presenter.ValidationFailed(c, err.Error(), nil)
	}

	resources, meta, err := h.resource.AllPending(ctx, page, perPage)
	if err != nil {
		return presenter.Internal(c, "")
	}
	return presenter.Paginated(c, resources, meta, "")
}

func (h *Handler) handleApprove(c echo.Context) error {
	ctx := c.Request().Context()

	dandisetID, err := dandinotes.NormalizeDandisetID(c.Param("id"))
	if err != nil {
		return presenter.ValidationFailed(c, "Invalid dandiset ID", nil)
	}
	recordID := strings.TrimSuffix(c.Param("filename"), ".yaml")

	var req approveRequest
	if isJSONRequest(c) {
		if err := c.Bind(&req); err != nil {
			return presenter.ValidationFailed(c, "Invalid request body", nil)
		}
	}

	// Approval is credited to the session principal unless the request
	// names a different moderator.
	principal := middleware.PrincipalFromContext(ctx)
	if req.ModeratorName == "" {
		req.ModeratorName = principal.Name
	}
	if req.ModeratorEmail == "" {
		req.ModeratorEmail = principal.Email
	}
	if problems := req.validate(); len(problems) > 0 {
		return presenter.ValidationFailed(c, "Validation failed", problems)
	}

	approved, err := h.resource.Approve(ctx, dandisetID, recordID, dandinotes.Contributor{
		Name:       req.ModeratorName,
		Email:      req.ModeratorEmail,
		Identifier: req.ModeratorIdentifier,
		URL:        req.ModeratorURL,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, "Submission")
		}
		var stateErr domain.StateError
		if errors.As(err, &stateErr) {
			return presenter.Error(c, http.StatusConflict, presenter.CodeStateError, stateErr.Error(), nil)
		}
		return presenter.Error(c, http.StatusInternalServerError, presenter.CodeApprovalFailed, "Approval failed", nil)
	}
	return presenter.OK(c, approved, fmt.Sprintf("Resource '%s' approved", approved.Name))
}

func (h *Handler) handleUserSubmissions(c echo.Context) error {
	ctx := c.Request().Context()
	principal := middleware.PrincipalFromContext(ctx)

	email := c.Param("email")
	if !principal.IsModerator() && !strings.EqualFold(principal.Email, email) {
		return presenter.Forbidden(c, "You can only view your own submissions")
	}

	pendingPage, approvedPage := 1, 1
	perPage := 10
	if raw := c.QueryParam("community_page"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &pendingPage); err != nil || pendingPage < 1 {
			return presenter.ValidationFailed(c, "community_page must be a positive integer", nil)
		}
	}
	if raw := c.QueryParam("approved_page"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &approvedPage); err != nil || approvedPage < 1 {
			return presenter.ValidationFailed(c, "approved_page must be a positive integer", nil)
		}
	}
	if raw := c.QueryParam("per_page"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &perPage); err != nil || perPage < 1 || perPage > 100 {
			return presenter.ValidationFailed(c, "per_page must be between 1 and 100", nil)
		}
	}

	pending, pendingMeta, approved, approvedMeta, err := h.resource.UserResources(ctx, email, pendingPage, approvedPage, perPage)
	if err != nil {
		return presenter.Internal(c, "")
	}
	return presenter.OK(c, echo.Map{
		"pending":             pending,
		"pending_pagination":  pendingMeta,
		"approved":            approved,
		"approved_pagination": approvedMeta,
	}, "")
}

func (h *Handler) handleLogin(c echo.Context) error {
	ctx := c.Request().Context()

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return presenter.ValidationFailed(c, "Invalid request body", nil)
	}
	if req.Username == "" || req.Password == "" {
		return presenter.ValidationFailed(c, "Username and password are required", nil)
	}

	principal, err := h.auth.VerifyCredentials(ctx, req.Username, req.Password)
	if err != nil {
		return presenter.Internal(c, "")
	}
	if principal == nil {
		return presenter.Error(c, http.StatusUnauthorized, presenter.CodeInvalidLogin, "Invalid username or password", nil)
	}

	if err := h.startSession(c, *principal); err != nil {
		return presenter.Internal(c, "")
	}
	return presenter.OK(c, principal, fmt.Sprintf("Welcome, %s", principal.Name))
}

func (h *Handler) handleRegister(c echo.Context) error {
	ctx := c.Request().Context()

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return presenter.ValidationFailed(c, "Invalid request body", nil)
	}
	if problems := req.validate(); len(problems) > 0 {
		return presenter.ValidationFailed(c, "Validation failed", problems)
	}

	created, err := h.auth.Register(ctx, req.Email, req.Password)
	if err != nil {
		return presenter.Internal(c, "")
	}
	if !created {
		return presenter.Error(c, http.StatusConflict, presenter.CodeEmailExists, "An account with this email already exists", nil)
	}

	principal, err := h.auth.VerifyCredentials(ctx, req.Email, req.Password)
	if err != nil || principal == nil {
		return presenter.Internal(c, "")
	}
	if err := h.startSession(c, *principal); err != nil {
		return presenter.Internal(c, "")
	}
	return presenter.Created(c, principal, "Account created", "")
}

func (h *Handler) handleLogout(c echo.Context) error {
	ctx := c.Request().Context()

	if token := middleware.SessionTokenFromContext(ctx); token != "" {
		if err := h.sessions.Destroy(ctx, token); err != nil {
			return presenter.Internal(c, "")
		}
	}
	c.SetCookie(&http.Cookie{
		Name:     domain.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	return presenter.OK(c, nil, "Logged out")
}

func (h *Handler) handleMe(c echo.Context) error {
	principal := middleware.PrincipalFromContext(c.Request().Context())
	return presenter.OK(c, echo.Map{
		"username":     principal.Username,
		"name":         principal.Name,
		"email":        principal.Email,
		"user_type":    principal.Role,
		"is_moderator": principal.IsModerator(),
	}, "")
}

func (h *Handler) handleOverviewStats(c echo.Context) error {
	ctx := c.Request().Context()

	includePending := false
	if principal := middleware.PrincipalFromContext(ctx); principal != nil {
		includePending = principal.IsModerator()
	}

	stats, err := h.stats.Overview(ctx, includePending)
	if err != nil {
		return presenter.Internal(c, "")
	}
	return presenter.OK(c, stats, "")
}

func (h *Handler) handleDandisetStats(c echo.Context) error {
	ctx := c.Request().Context()

	dandisetID, err := dandinotes.NormalizeDandisetID(c.Param("id"))
	if err != nil {
		return presenter.ValidationFailed(c, "Invalid dandiset ID", nil)
	}

	stats, err := h.stats.Dandiset(ctx, dandisetID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, "Dandiset")
		}
		return presenter.Internal(c, "")
	}
	return presenter.OK(c, stats, "")
}

func (h *Handler) startSession(c echo.Context, principal domain.Principal) error {
	token, err := h.sessions.Create(c.Request().Context(), principal)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     domain.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(service.SessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ErrorHandler renders echo's own errors (unknown routes, wrong methods)
// in the same envelope the handlers use.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.Code {
		case http.StatusNotFound:
			_ = presenter.NotFound(c, "Endpoint")
		case http.StatusMethodNotAllowed:
			_ = presenter.Error(c, http.StatusMethodNotAllowed, presenter.CodeMethodNotAllowed, "Method not allowed", nil)
		default:
			_ = presenter.Error(c, httpErr.Code, presenter.CodeInternal, fmt.Sprintf("%v", httpErr.Message), nil)
		}
		return
	}
	_ = presenter.Internal(c, "")
}
