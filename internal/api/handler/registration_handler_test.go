package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/webster-hq/webster/internal/api/middleware"
	"github.com/webster-hq/webster/internal/core/domain"
	"github.com/webster-hq/webster/internal/core/ports"
)

type stubRegistrationService struct {
	submitFn func(ctx context.Context, in ports.SubmitInput) (*domain.RegistrationRequest, error)
	acceptFn func(ctx context.Context, identifier, actor string) (domain.Acceptance, error)
	denyFn   func(ctx context.Context, identifier, actor, reason string) (*domain.RegistrationRequest, error)
	listFn   func(ctx context.Context, filter domain.StatusFilter) ([]*domain.RegistrationRequest, error)
}

func (s *stubRegistrationService) Submit(ctx context.Context, in ports.SubmitInput) (*domain.RegistrationRequest, error) {
	return s.submitFn(ctx, in)
}

func (s *stubRegistrationService) Accept(ctx context.Context, identifier, actor string) (domain.Acceptance, error) {
	return s.acceptFn(ctx, identifier, actor)
}

func (s *stubRegistrationService) Deny(ctx context.Context, identifier, actor, reason string) (*domain.RegistrationRequest, error) {
	return s.denyFn(ctx, identifier, actor, reason)
}

func (s *stubRegistrationService) List(ctx context.Context, filter domain.StatusFilter) ([]*domain.RegistrationRequest, error) {
	return s.listFn(ctx, filter)
}

type stubAllowList struct {
	calls []domain.Acceptance
	cmds  []string
	err   error
}

func (s *stubAllowList) Allow(_ context.Context, a domain.Acceptance) ([]string, error) {
	s.calls = append(s.calls, a)
	return s.cmds, s.err
}

var operator = domain.Principal{Kind: domain.PrincipalOperator, Email: "op@example.com"}

func TestRegistrationHandler_Register_Success(t *testing.T) {
	svc := &stubRegistrationService{
		submitFn: func(_ context.Context, in ports.SubmitInput) (*domain.RegistrationRequest, error) {
			want := ports.SubmitInput{
				Identifier:       "steveo[]Steve_BE",
				ContactHandle:    "steve#1",
				SecondaryContact: "@steve",
				Email:            "steve@example.com",
				Category:         "java",
			}
			if in != want {
				t.Fatalf("unexpected input %+v", in)
			}
			return &domain.RegistrationRequest{ID: 1, Status: domain.StatusPending}, nil
		},
	}
	h := NewRegistrationHandler(svc, &stubAllowList{}, zerolog.Nop())

	_, c, rec := newContext(http.MethodPost, "/register",
		`{"ign":"steveo[]Steve_BE","discord":"steve#1","telegram":"@steve","email":"steve@example.com","type":"java"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestRegistrationHandler_Register_MissingFields(t *testing.T) {
	svc := &stubRegistrationService{
		submitFn: func(context.Context, ports.SubmitInput) (*domain.RegistrationRequest, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewRegistrationHandler(svc, &stubAllowList{}, zerolog.Nop())

	_, c, _ := newContext(http.MethodPost, "/register", `{"ign":"steveo","email":"steve@example.com","type":"java"}`)
	if code := httpCode(t, h.Register(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestRegistrationHandler_Register_Conflict(t *testing.T) {
	svc := &stubRegistrationService{
		submitFn: func(context.Context, ports.SubmitInput) (*domain.RegistrationRequest, error) {
			return nil, domain.ErrRegistrationPending
		},
	}
	h := NewRegistrationHandler(svc, &stubAllowList{}, zerolog.Nop())

	_, c, _ := newContext(http.MethodPost, "/register", `{"ign":"steveo","discord":"s","email":"steve@example.com","type":"java"}`)
	if err := h.Register(c); !errors.Is(err, domain.ErrRegistrationPending) {
		t.Fatalf("expected pending conflict, got %v", err)
	}
}

func TestRegistrationHandler_List_DefaultsToPending(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	decided := created.Add(time.Hour)
	svc := &stubRegistrationService{
		listFn: func(_ context.Context, filter domain.StatusFilter) ([]*domain.RegistrationRequest, error) {
			if filter != domain.FilterPending {
				t.Fatalf("expected pending filter, got %q", filter)
			}
			return []*domain.RegistrationRequest{
				{Identifier: "a", ContactHandle: "a#1", Email: "a@example.com", Category: "java", Status: domain.StatusPending, CreatedAt: created},
				{Identifier: "b", ContactHandle: "b#1", Email: "b@example.com", Category: "java", Status: domain.StatusDenied,
					DecisionActor: "op", DecisionReason: "spam", DecidedAt: decided, CreatedAt: created},
			}, nil
		},
	}
	h := NewRegistrationHandler(svc, &stubAllowList{}, zerolog.Nop())

	_, c, rec := newContext(http.MethodGet, "/users", "")
	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	resp := decode(t, rec)
	users, ok := resp["users"].([]any)
	if !ok || len(users) != 2 {
		t.Fatalf("unexpected users %+v", resp["users"])
	}
	pending := users[0].(map[string]any)
	if _, ok := pending["accepted_by"]; ok {
		t.Fatalf("pending request must not carry decision fields: %+v", pending)
	}
	denied := users[1].(map[string]any)
	if denied["denied_by"] != "op" || denied["deny_reason"] != "spam" || denied["denied_date"] == nil {
		t.Fatalf("unexpected denied payload %+v", denied)
	}
}

func TestRegistrationHandler_List_InvalidFilter(t *testing.T) {
	svc := &stubRegistrationService{
		listFn: func(context.Context, domain.StatusFilter) ([]*domain.RegistrationRequest, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewRegistrationHandler(svc, &stubAllowList{}, zerolog.Nop())

	_, c, _ := newContext(http.MethodGet, "/users?type=banned", "")
	if err := h.List(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRegistrationHandler_Accept_DrivesAllowList(t *testing.T) {
	acceptance := domain.Acceptance{
		Request: domain.RegistrationRequest{ID: 7, Identifier: "steveo[]Steve_BE", Status: domain.StatusAccepted},
		Matched: []string{"Steve_BE"},
	}
	svc := &stubRegistrationService{
		acceptFn: func(_ context.Context, identifier, actor string) (domain.Acceptance, error) {
			if identifier != "alice[]steve_be" || actor != "op@example.com" {
				t.Fatalf("unexpected args %q %q", identifier, actor)
			}
			return acceptance, nil
		},
	}
	allow := &stubAllowList{cmds: []string{"/whitelist add steveo"}, err: errors.New("rcon down")}
	h := NewRegistrationHandler(svc, allow, zerolog.Nop())

	_, c, rec := newContext(http.MethodPost, "/users/accept", `{"ign":"alice[]steve_be"}`)
	c.Set(middleware.PrincipalKey, operator)
	if err := h.Accept(c); err != nil {
		t.Fatalf("allow-list failure must not fail the request: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(allow.calls) != 1 || allow.calls[0].Request.ID != 7 {
		t.Fatalf("allow-list not driven: %+v", allow.calls)
	}
	resp := decode(t, rec)
	if matched, _ := resp["matched"].([]any); len(matched) != 1 || matched[0] != "Steve_BE" {
		t.Fatalf("unexpected matched %+v", resp["matched"])
	}
}

func TestRegistrationHandler_Accept_NotFound(t *testing.T) {
	svc := &stubRegistrationService{
		acceptFn: func(context.Context, string, string) (domain.Acceptance, error) {
			return domain.Acceptance{}, domain.ErrRegistrationNotFound
		},
	}
	allow := &stubAllowList{}
	h := NewRegistrationHandler(svc, allow, zerolog.Nop())

	_, c, _ := newContext(http.MethodPost, "/users/accept", `{"ign":"ghost","acceptedBy":"console"}`)
	if err := h.Accept(c); !errors.Is(err, domain.ErrRegistrationNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(allow.calls) != 0 {
		t.Fatalf("allow-list must not run without an acceptance")
	}
}

func TestRegistrationHandler_Deny(t *testing.T) {
	svc := &stubRegistrationService{
		denyFn: func(_ context.Context, identifier, actor, reason string) (*domain.RegistrationRequest, error) {
			if identifier != "steveo" || actor != "mod" || reason != "not a fit" {
				t.Fatalf("unexpected args %q %q %q", identifier, actor, reason)
			}
			return &domain.RegistrationRequest{Status: domain.StatusDenied}, nil
		},
	}
	h := NewRegistrationHandler(svc, &stubAllowList{}, zerolog.Nop())

	_, c, rec := newContext(http.MethodPost, "/users/deny", `{"ign":"steveo","deniedBy":"mod","reason":"not a fit"}`)
	if err := h.Deny(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if resp := decode(t, rec); resp["success"] != true {
		t.Fatalf("unexpected payload %+v", resp)
	}
}

func TestRegistrationHandler_Deny_RequiresReason(t *testing.T) {
	svc := &stubRegistrationService{
		denyFn: func(context.Context, string, string, string) (*domain.RegistrationRequest, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewRegistrationHandler(svc, &stubAllowList{}, zerolog.Nop())

	_, c, _ := newContext(http.MethodPost, "/users/deny", `{"ign":"steveo","deniedBy":"mod"}`)
	if code := httpCode(t, h.Deny(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}
