package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/webster-hq/webster/internal/core/domain"
	"github.com/webster-hq/webster/internal/core/ports"
)

// RegistrationHandler serves membership request submission and moderation.
type RegistrationHandler struct {
	service ports.RegistrationService
	allow   ports.AllowList
	log     zerolog.Logger
}

func NewRegistrationHandler(service ports.RegistrationService, allow ports.AllowList, log zerolog.Logger) *RegistrationHandler {
	return &RegistrationHandler{service: service, allow: allow, log: log}
}

// Register stores a pending membership request.
//
// @Summary      Submit a membership request
// @Tags         registration
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Membership request"
// @Success      201   {object}  messageResponse
// @Failure      400   {object}  messageResponse
// @Failure      409   {object}  messageResponse
// @Failure      500   {object}  messageResponse
// @Router       /register [post]
func (h *RegistrationHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	_, err := h.service.Submit(c.Request().Context(), ports.SubmitInput{
		Identifier:       req.IGN,
		ContactHandle:    req.Discord,
		SecondaryContact: req.Telegram,
		Email:            req.Email,
		Category:         req.Type,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ok("Registration submitted successfully. Please wait for admin approval."))
}

// List returns membership requests filtered by status.
//
// @Summary      List membership requests
// @Tags         registration
// @Produce      json
// @Security     BearerAuth
// @Param        type  query     string  false  "all, pending, accepted or denied"  default(pending)
// @Success      200   {object}  usersResponse
// @Failure      400   {object}  messageResponse
// @Failure      401   {object}  messageResponse
// @Router       /users [get]
func (h *RegistrationHandler) List(c echo.Context) error {
	raw := c.QueryParam("type")
	if raw == "" {
		raw = string(domain.FilterPending)
	}
	filter, err := domain.ParseStatusFilter(raw)
	if err != nil {
		return err
	}

	requests, err := h.service.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	users := make([]userResponse, 0, len(requests))
	for _, r := range requests {
		users = append(users, toUserResponse(r))
	}
	return c.JSON(http.StatusOK, usersResponse{Success: true, Users: users})
}

// Accept accepts the earliest pending request matching either handle of ign
// and grants allow-list access for the stored handles.
//
// @Summary      Accept a membership request
// @Tags         registration
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      acceptRequest  true  "Identifier and actor"
// @Success      200   {object}  acceptResponse
// @Failure      400   {object}  messageResponse
// @Failure      401   {object}  messageResponse
// @Failure      404   {object}  messageResponse
// @Router       /users/accept [post]
func (h *RegistrationHandler) Accept(c echo.Context) error {
	var req acceptRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	actor, err := actorOrPrincipal(c, req.AcceptedBy)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	acceptance, err := h.service.Accept(ctx, req.IGN, actor)
	if err != nil {
		return err
	}

	// Allow-listing failures never undo the acceptance.
	commands, err := h.allow.Allow(ctx, acceptance)
	if err != nil {
		h.log.Warn().Err(err).Int64("request_id", acceptance.Request.ID).Msg("allow-list failed after acceptance")
	}

	return c.JSON(http.StatusOK, acceptResponse{
		Success:  true,
		Message:  "User accepted successfully",
		Matched:  acceptance.Matched,
		Commands: commands,
	})
}

// Deny denies the pending request whose identifier equals ign exactly.
//
// @Summary      Deny a membership request
// @Tags         registration
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      denyRequest  true  "Identifier, actor and reason"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  messageResponse
// @Failure      401   {object}  messageResponse
// @Failure      404   {object}  messageResponse
// @Router       /users/deny [post]
func (h *RegistrationHandler) Deny(c echo.Context) error {
	var req denyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	actor, err := actorOrPrincipal(c, req.DeniedBy)
	if err != nil {
		return err
	}

	if _, err := h.service.Deny(c.Request().Context(), req.IGN, actor, req.Reason); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok("User denied successfully"))
}

func actorOrPrincipal(c echo.Context, actor string) (string, error) {
	if actor != "" {
		return actor, nil
	}
	p, err := ctxPrincipal(c)
	if err != nil {
		return "", err
	}
	return p.Email, nil
}

func toUserResponse(r *domain.RegistrationRequest) userResponse {
	u := userResponse{
		IGN:       string(r.Identifier),
		Discord:   r.ContactHandle,
		Telegram:  r.SecondaryContact,
		Email:     r.Email,
		Type:      r.Category,
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt.UTC(),
	}

	d, decided := r.Decision()
	if !decided {
		return u
	}
	at := d.At.UTC()
	switch d.Status {
	case domain.StatusAccepted:
		u.AcceptedBy, u.AcceptedDate = d.Actor, &at
	case domain.StatusDenied:
		u.DeniedBy, u.DeniedDate, u.DenyReason = d.Actor, &at, d.Reason
	}
	return u
}
