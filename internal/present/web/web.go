package web

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dandihub/dandinotes"
	"github.com/dandihub/dandinotes/internal/config"
	"github.com/dandihub/dandinotes/internal/domain"
	"github.com/dandihub/dandinotes/internal/present/rest/middleware"
	"github.com/dandihub/dandinotes/internal/usecase"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer adapts html/template to echo's Renderer interface.
type Renderer struct {
	templates *template.Template
}

func NewRenderer(glob string) (*Renderer, error) {
	if glob != "" {
		t, err := template.ParseGlob(glob)
		if err != nil {
			return nil, err
		}
		return &Renderer{templates: t}, nil
	}
	t, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: t}, nil
}

func (r *Renderer) Render(w io.Writer, name string, data any, c echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

type Handler struct {
	config   config.Config
	dandiset *usecase.DandisetUsecase
	resource *usecase.ResourceUsecase
	stats    *usecase.StatsUsecase
}

func NewHandler(
	config config.Config,
	dandiset *usecase.DandisetUsecase,
	resource *usecase.ResourceUsecase,
	stats *usecase.StatsUsecase,
) *Handler {
	return &Handler{
		config:   config,
		dandiset: dandiset,
		resource: resource,
		stats:    stats,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.handleHome)
	e.GET("/dandisets/:id", h.handleDandiset)
	e.GET("/login", h.handleLogin)
}

type pageData struct {
	Title     string
	SiteTitle string
	Principal *domain.Principal
	Data      any
}

func (h *Handler) page(c echo.Context, title string, data any) pageData {
	return pageData{
		Title:     title,
		SiteTitle: h.config.Site.Title,
		Principal: middleware.PrincipalFromContext(c.Request().Context()),
		Data:      data,
	}
}

func (h *Handler) handleHome(c echo.Context) error {
	ctx := c.Request().Context()

	page, perPage := 1, 20
	echo.QueryParamsBinder(c).Int("page", &page)
	if page < 1 {
		page = 1
	}

	principal := middleware.PrincipalFromContext(ctx)
	includePending := principal != nil && principal.IsModerator()

	stats, err := h.stats.Overview(ctx, includePending)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError)
	}
	infos, meta, err := h.dandiset.List(ctx, page, perPage)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError)
	}

	return c.Render(http.StatusOK, "home.html", h.page(c, h.config.Site.Title, echo.Map{
		"Stats":      stats,
		"Dandisets":  infos,
		"Pagination": meta,
	}))
}

func (h *Handler) handleDandiset(c echo.Context) error {
	ctx := c.Request().Context()

	dandisetID, err := dandinotes.NormalizeDandisetID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound)
	}

	page, perPage := 1, 20
	echo.QueryParamsBinder(c).Int("page", &page)
	if page < 1 {
		page = 1
	}

	info, err := h.dandiset.Get(ctx, dandisetID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return echo.NewHTTPError(http.StatusInternalServerError)
	}

	principal := middleware.PrincipalFromContext(ctx)
	includePending := principal != nil && principal.IsModerator()

	resources, meta, err := h.resource.DandisetResources(ctx, dandisetID, includePending, page, perPage)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError)
	}

	return c.Render(http.StatusOK, "dandiset.html", h.page(c, dandinotes.DisplayID(dandisetID), echo.Map{
		"Dandiset":   info,
		"Resources":  resources,
		"Pagination": meta,
	}))
}

func (h *Handler) handleLogin(c echo.Context) error {
	if middleware.PrincipalFromContext(c.Request().Context()) != nil {
		return c.Redirect(http.StatusFound, "/")
	}
	return c.Render(http.StatusOK, "login.html", h.page(c, "Sign in", nil))
}
