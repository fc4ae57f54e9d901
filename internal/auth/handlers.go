package auth

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/streavmin/streavmin/internal/users"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  *users.User `json:"user"`
}

// Handlers provides HTTP handlers for authentication.
type Handlers struct {
	service *Service
	users   *users.Service
}

// NewHandlers creates a new auth handlers instance.
func NewHandlers(service *Service, usersService *users.Service) *Handlers {
	return &Handlers{service: service, users: usersService}
}

// RegisterRoutes registers auth routes on an Echo group.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.POST("/login", h.Login)
	g.POST("/logout", h.Logout)
	g.GET("/me", h.Me, h.service.RequireAuth())
}

// Login authenticates credentials and issues a token.
// POST /api/auth/login
func (h *Handlers) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	token, user, err := h.service.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, LoginResponse{Token: token, User: user})
}

// Logout exists for client symmetry; tokens are stateless and simply
// discarded client-side.
// POST /api/auth/logout
func (h *Handlers) Logout(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user.
// GET /api/auth/me
func (h *Handlers) Me(c echo.Context) error {
	claims := ClaimsFromContext(c)

	user, err := h.users.Find(c.Request().Context(), claims.Username)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "account no longer exists")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, user.Sanitized())
}
