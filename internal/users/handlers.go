package users

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/streavmin/streavmin/internal/docstore"
)

// ActorResolver extracts the authenticated username from a request for
// audit attribution. Implemented by the auth middleware.
type ActorResolver func(c echo.Context) string

// Handlers provides HTTP handlers for user management.
type Handlers struct {
	service *Service
	actor   ActorResolver
}

// NewHandlers creates a new users handlers instance.
func NewHandlers(service *Service, actor ActorResolver) *Handlers {
	return &Handlers{service: service, actor: actor}
}

// RegisterRoutes registers user management routes on an Echo group.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.PATCH("/:username", h.Update)
}

func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidRole):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrUserExists):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, docstore.ErrLockTimeout):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// List returns all user accounts with hashes stripped.
// GET /api/admin/users
func (h *Handlers) List(c echo.Context) error {
	all, err := h.service.List(c.Request().Context())
	if err != nil {
		return httpError(err)
	}

	sanitized := make([]*User, len(all))
	for i := range all {
		sanitized[i] = all[i].Sanitized()
	}
	return c.JSON(http.StatusOK, sanitized)
}

// Create adds a new account.
// POST /api/admin/users
func (h *Handlers) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	user, err := h.service.Create(c.Request().Context(), h.actor(c), in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, user.Sanitized())
}

// Update applies a partial change set to an account.
// PATCH /api/admin/users/:username
func (h *Handlers) Update(c echo.Context) error {
	var changes Changes
	if err := c.Bind(&changes); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	user, err := h.service.Update(c.Request().Context(), h.actor(c), c.Param("username"), changes)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user.Sanitized())
}
