package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/webster-hq/webster/internal/core/domain"
	"github.com/webster-hq/webster/internal/core/ports"
)

// VerificationPage is where email verification links land after redirect.
const VerificationPage = "/login/verification-success.html"

type AuthHandler struct {
	authService ports.AuthService
	log         zerolog.Logger
}

func NewAuthHandler(authService ports.AuthService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, log: log}
}

// Signup creates an unverified member account and sends the verification mail.
//
// @Summary      Create a member account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      credentialsRequest  true  "Member credentials"
// @Success      201   {object}  messageResponse
// @Failure      400   {object}  messageResponse
// @Failure      409   {object}  messageResponse
// @Failure      500   {object}  messageResponse
// @Router       /auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req credentialsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if _, err := h.authService.Signup(c.Request().Context(), req.Email, req.Password); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ok("Account created. Please check your email."))
}

// Login authenticates a verified member and returns a session token.
//
// @Summary      Member login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      credentialsRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  messageResponse
// @Failure      401   {object}  messageResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	s, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, loginResponse{Success: true, Token: s.Token, Email: s.Email})
}

// AdminLogin authenticates an operator and returns a session token.
//
// @Summary      Operator login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      credentialsRequest  true  "Operator credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  messageResponse
// @Failure      401   {object}  messageResponse
// @Router       /admin/login [post]
func (h *AuthHandler) AdminLogin(c echo.Context) error {
	var req credentialsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	s, err := h.authService.OperatorLogin(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, loginResponse{Success: true, Token: s.Token, Email: s.Email, IsAdmin: true})
}

// Verify consumes an email verification token and redirects to the
// verification page with the outcome in the query string.
//
// @Summary      Verify a member email address
// @Tags         auth
// @Param        token  query  string  true  "Verification token"
// @Success      302
// @Router       /verify [get]
func (h *AuthHandler) Verify(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return redirectVerification(c, "error", "token_required")
	}

	err := h.authService.VerifyEmail(c.Request().Context(), token)
	switch {
	case err == nil:
		return redirectVerification(c, "status", "success")
	case errors.Is(err, domain.ErrInvalidToken), errors.Is(err, domain.ErrValidation):
		return redirectVerification(c, "error", "invalid_token")
	default:
		h.log.Error().Err(err).Msg("email verification failed")
		return redirectVerification(c, "error", "server_error")
	}
}

func redirectVerification(c echo.Context, key, value string) error {
	q := url.Values{key: {value}}
	return c.Redirect(http.StatusFound, VerificationPage+"?"+q.Encode())
}

// VerifyToken reports the principal behind the bearer token.
//
// @Summary      Inspect the current session
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  verifyTokenResponse
// @Failure      401  {object}  messageResponse
// @Router       /auth/verify-token [get]
func (h *AuthHandler) VerifyToken(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, verifyTokenResponse{Success: true, Kind: p.Kind.String(), Email: p.Email})
}
