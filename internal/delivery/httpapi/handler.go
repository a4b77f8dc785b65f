// Package httpapi exposes the registration endpoints the sweeper serves:
// clients store their location and push token here, the periodic sweep
// reads them back.
package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/aliskhannn/azan-reminder/internal/domain/entities"
	"github.com/aliskhannn/azan-reminder/internal/infra/postgres/repository"
)

type UserRegistry interface {
	Register(ctx context.Context, user *entities.RegisteredUser) (bool, error)
	GetByID(ctx context.Context, userID int64) (*entities.RegisteredUser, error)
	RemovePushToken(ctx context.Context, userID int64) error
}

type Handler struct {
	users  UserRegistry
	logger *zap.Logger
}

func NewHandler(users UserRegistry, logger *zap.Logger) *Handler {
	return &Handler{users: users, logger: logger}
}

// NewServer builds the echo instance with the registration routes
// mounted under /api.
func NewServer(users UserRegistry, logger *zap.Logger) *echo.Echo {
	h := NewHandler(users, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	api := e.Group("/api")
	api.POST("/users", h.register)
	api.GET("/users/:id", h.get)
	api.DELETE("/users/:id/token", h.removeToken)

	return e
}

type registerRequest struct {
	ID        int64  `json:"id"`
	City      string `json:"city"`
	Country   string `json:"country"`
	PushToken string `json:"pushToken"`
}

type registerResponse struct {
	Created bool `json:"created"`
}

func (h *Handler) register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ID <= 0 || req.City == "" || req.Country == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "id, city and country are required")
	}

	user := &entities.RegisteredUser{
		ID:        req.ID,
		City:      req.City,
		Country:   req.Country,
		PushToken: req.PushToken,
	}

	created, err := h.users.Register(c.Request().Context(), user)
	if err != nil {
		h.logger.Error("failed to register user", zap.Int64("user_id", req.ID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "registration failed")
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, registerResponse{Created: created})
}

func (h *Handler) get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	user, err := h.users.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		h.logger.Error("failed to load user", zap.Int64("user_id", id), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "lookup failed")
	}

	return c.JSON(http.StatusOK, user)
}

func (h *Handler) removeToken(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.users.RemovePushToken(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		h.logger.Error("failed to remove token", zap.Int64("user_id", id), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "removal failed")
	}

	return c.NoContent(http.StatusNoContent)
}

func parseID(c echo.Context) (int64, error) {
	var id int64
	if err := echo.PathParamsBinder(c).Int64("id", &id).BindError(); err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	return id, nil
}
