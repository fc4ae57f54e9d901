package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/streavmin/streavmin/internal/auth"
	"github.com/streavmin/streavmin/internal/docstore"
)

// Handlers provides HTTP handlers for catalog operations.
type Handlers struct {
	service *Service
}

// NewHandlers creates a new catalog handlers instance.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterPublicRoutes registers the viewer-facing catalog route.
func (h *Handlers) RegisterPublicRoutes(g *echo.Group) {
	g.GET("/catalog", h.GetPublicCatalog)
}

// RegisterAdminRoutes registers the catalog management routes.
func (h *Handlers) RegisterAdminRoutes(g *echo.Group) {
	g.GET("/movies", h.ListMovies)
	g.POST("/movies", h.UpsertMovie)
	g.DELETE("/movies/:id", h.DeleteMovie)

	g.GET("/categories", h.ListCategories)
	g.POST("/categories", h.UpsertCategory)
	g.DELETE("/categories/:id", h.DeleteCategory)

	g.GET("/series", h.ListSeries)
	g.POST("/episodes", h.UpsertEpisode)
	g.DELETE("/series/:slug/seasons/:season/episodes/:ep", h.DeleteEpisode)
}

// httpError maps repository errors onto HTTP status codes: validation 400,
// not-found 404, lock contention 503 (retryable), everything else 500.
func httpError(err error) *echo.HTTPError {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return echo.NewHTTPError(http.StatusBadRequest, map[string]any{
			"error":      "validation failed",
			"violations": verr.Violations,
		})
	case errors.Is(err, ErrMovieNotFound),
		errors.Is(err, ErrCategoryNotFound),
		errors.Is(err, ErrSeriesNotFound),
		errors.Is(err, ErrSeasonNotFound),
		errors.Is(err, ErrEpisodeNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, docstore.ErrLockTimeout):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// GetPublicCatalog returns the published catalog for viewers.
// GET /api/catalog
func (h *Handlers) GetPublicCatalog(c echo.Context) error {
	result, err := h.service.Public(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// ListMovies returns the full movie collection.
// GET /api/admin/movies
func (h *Handlers) ListMovies(c echo.Context) error {
	movies, err := h.service.ListMovies(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, movies)
}

// UpsertMovie creates or updates a movie.
// POST /api/admin/movies
func (h *Handlers) UpsertMovie(c echo.Context) error {
	var movie Movie
	if err := c.Bind(&movie); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	stored, err := h.service.UpsertMovie(c.Request().Context(), auth.ActorFromContext(c), movie)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, stored)
}

// DeleteMovie removes a movie by id.
// DELETE /api/admin/movies/:id
func (h *Handlers) DeleteMovie(c echo.Context) error {
	removed, err := h.service.DeleteMovie(c.Request().Context(), auth.ActorFromContext(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, removed)
}

// ListCategories returns the full category collection.
// GET /api/admin/categories
func (h *Handlers) ListCategories(c echo.Context) error {
	categories, err := h.service.ListCategories(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, categories)
}

// UpsertCategory creates or updates a category.
// POST /api/admin/categories
func (h *Handlers) UpsertCategory(c echo.Context) error {
	var category Category
	if err := c.Bind(&category); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	stored, err := h.service.UpsertCategory(c.Request().Context(), auth.ActorFromContext(c), category)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, stored)
}

// DeleteCategory removes a category by id.
// DELETE /api/admin/categories/:id
func (h *Handlers) DeleteCategory(c echo.Context) error {
	removed, err := h.service.DeleteCategory(c.Request().Context(), auth.ActorFromContext(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, removed)
}

// ListSeries returns every series document.
// GET /api/admin/series
func (h *Handlers) ListSeries(c echo.Context) error {
	series, err := h.service.ListSeries(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, series)
}

// UpsertEpisode merges an episode into its series document.
// POST /api/admin/episodes
func (h *Handlers) UpsertEpisode(c echo.Context) error {
	var in EpisodeInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	series, err := h.service.UpsertEpisode(c.Request().Context(), auth.ActorFromContext(c), in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, series)
}

// DeleteEpisode removes one episode, pruning its season when emptied.
// DELETE /api/admin/series/:slug/seasons/:season/episodes/:ep
func (h *Handlers) DeleteEpisode(c echo.Context) error {
	season, err := strconv.Atoi(c.Param("season"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "season must be an integer")
	}
	ep, err := strconv.Atoi(c.Param("ep"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "ep must be an integer")
	}

	series, err := h.service.DeleteEpisode(c.Request().Context(), auth.ActorFromContext(c), c.Param("slug"), season, ep)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, series)
}
