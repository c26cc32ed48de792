package controllers

import (
	"errors"
	"net/http"

	"github.com/multidelivery/painel/app/services"
	"github.com/multidelivery/painel/pkg/bind"
	"github.com/multidelivery/painel/pkg/ctx"
	"github.com/multidelivery/painel/pkg/logger"
	"github.com/multidelivery/painel/pkg/middleware"
)

type AuthController struct {
	service *services.AuthService
}

func NewAuthController(service *services.AuthService) *AuthController {
	return &AuthController{service: service}
}

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login.
func (a *AuthController) Login(c *ctx.Context) {
	var in loginInput
	if _, err := c.ShouldBindJSON(&in); err != nil && !errors.Is(err, bind.ErrEmptyBody) {
		c.Error(http.StatusBadRequest, ctx.MsgInvalidBody)
		return
	}

	res, err := a.service.Login(c.Context(), in.Email, in.Password)
	if err != nil {
		fail(c, "auth: login", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Me handles GET /api/auth/me.
func (a *AuthController) Me(c *ctx.Context) {
	user, err := a.service.Me(c.Context(), c.BearerToken())
	if err != nil {
		fail(c, "auth: me", err)
		return
	}
	c.JSON(http.StatusOK, map[string]interface{}{"user": user})
}

// Logout handles POST /api/auth/logout. It always reports success.
func (a *AuthController) Logout(c *ctx.Context) {
	if err := a.service.Logout(c.Context(), c.BearerToken()); err != nil {
		logger.WithCtx(c.Context()).Warn("auth: logout", "error", err)
	}
	c.Message(http.StatusOK, "Logout realizado")
}

// StreamTicket handles POST /api/auth/stream-ticket.
func (a *AuthController) StreamTicket(c *ctx.Context) {
	id, _ := middleware.IdentityFromCtx(c.Context())
	t, err := a.service.StreamTicket(id.UserID, id.Role)
	if err != nil {
		fail(c, "auth: stream ticket", err)
		return
	}
	c.JSON(http.StatusOK, t)
}
