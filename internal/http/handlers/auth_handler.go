package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/emotionwise-web/internal/domain"
)

//
// DTOs
//

// RegisterRequest is the sign-up form.
type RegisterRequest struct {
	Name            string `json:"name" form:"name" example:"Ann Example"`
	Email           string `json:"email" form:"email" example:"ann@example.com"`
	Password        string `json:"password" form:"password" example:"Secret123"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" example:"Secret123"`
}

// LoginRequest carries credentials. Form posts use the OAuth2 field name
// "username" for the email.
type LoginRequest struct {
	Email    string `json:"email" form:"username" example:"ann@example.com"`
	Password string `json:"password" form:"password" example:"Secret123"`
}

//
// Handlers
//

// Register godoc
// @ID          register
// @Summary     Create an account
// @Description Validates the form locally (email shape, password policy, confirmation) and registers the account upstream.
// @Tags        Auth
// @Accept      json,x-www-form-urlencoded
// @Produce     json
// @Param       body  body      handlers.RegisterRequest  true  "Registration form"
// @Success     201   {object}  domain.User
// @Failure     400   {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     409   {object}  handlers.ErrorResponse  "Account already exists"
// @Failure     502   {object}  handlers.ErrorResponse  "Upstream error"
// @Failure     503   {object}  handlers.ErrorResponse  "Upstream unreachable"
// @Router      /auth/register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}
	u, err := h.auth.Register(c.Request.Context(), domain.Registration{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}, req.ConfirmPassword)
	if err != nil {
		h.failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, u)
}

// Login godoc
// @ID          login
// @Summary     Log in
// @Description Exchanges credentials for a token and stores it in the profile. Observers on /events receive logged_in.
// @Tags        Auth
// @Accept      json,x-www-form-urlencoded
// @Produce     json
// @Param       body  body      handlers.LoginRequest  true  "Credentials"
// @Success     200   {object}  services.AuthStatus
// @Failure     400   {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     401   {object}  handlers.ErrorResponse  "Incorrect email or password"
// @Failure     503   {object}  handlers.ErrorResponse  "Upstream unreachable"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}
	ctx := c.Request.Context()
	if err := h.auth.Login(ctx, req.Email, req.Password); err != nil {
		h.failErr(c, err)
		return
	}
	st, err := h.auth.Status(ctx)
	if err != nil {
		h.failErr(c, err)
		return
	}
	ok(c, http.StatusOK, st)
}

// Logout godoc
// @ID          logout
// @Summary     Log out
// @Description Clears the stored token. Observers on /events receive logged_out.
// @Tags        Auth
// @Success     204  {string}  string  "No Content"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/logout [post]
func (h *Handlers) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context()); err != nil {
		h.failErr(c, err)
		return
	}
	noContent(c)
}

// VerifyEmail godoc
// @ID          verifyEmail
// @Summary     Verify an email address
// @Tags        Auth
// @Produce     json
// @Param       token  query     string  true  "Verification token from the email link"
// @Success     200    {object}  domain.Verification
// @Failure     400    {object}  handlers.ErrorResponse  "Missing token"
// @Failure     502    {object}  handlers.ErrorResponse  "Upstream rejected the token"
// @Router      /auth/verify-email [get]
func (h *Handlers) VerifyEmail(c *gin.Context) {
	v, err := h.auth.VerifyEmail(c.Request.Context(), strings.TrimSpace(c.Query("token")))
	if err != nil {
		h.failErr(c, err)
		return
	}
	ok(c, http.StatusOK, v)
}

// AuthStatus godoc
// @ID          authStatus
// @Summary     Login state
// @Tags        Auth
// @Produce     json
// @Success     200  {object}  services.AuthStatus
// @Failure     500  {object}  handlers.ErrorResponse  "Session store unavailable"
// @Router      /auth/status [get]
func (h *Handlers) AuthStatus(c *gin.Context) {
	st, err := h.auth.Status(c.Request.Context())
	if err != nil {
		h.failErr(c, err)
		return
	}
	ok(c, http.StatusOK, st)
}

// Me godoc
// @ID          me
// @Summary     Current account
// @Tags        Auth
// @Produce     json
// @Success     200  {object}  domain.User
// @Failure     401  {object}  handlers.ErrorResponse  "Not logged in or session expired"
// @Router      /auth/me [get]
func (h *Handlers) Me(c *gin.Context) {
	u, err := h.auth.Me(c.Request.Context())
	if err != nil {
		h.failErr(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}
