package ports

import (
	"context"

	"github.com/webster-hq/webster/internal/core/domain"
)

// Session is an issued bearer token and the account it belongs to.
type Session struct {
	Token string
	Email string
	Kind  domain.PrincipalKind
}

// TokenVerifier resolves bearer tokens to principals.
type TokenVerifier interface {
	// Verify reports whether token is a fresh token of the given kind.
	Verify(ctx context.Context, token string, kind domain.PrincipalKind) (bool, error)
	// Authenticate resolves token against operators first, then verified
	// members. Unknown and expired tokens both yield domain.ErrInvalidToken.
	Authenticate(ctx context.Context, token string) (domain.Principal, error)
}

type AuthService interface {
	Signup(ctx context.Context, email, password string) (*domain.MemberAccount, error)
	Login(ctx context.Context, email, password string) (Session, error)
	OperatorLogin(ctx context.Context, email, password string) (Session, error)
	// VerifyEmail marks the member holding token as verified.
	VerifyEmail(ctx context.Context, token string) error
}

// SubmitInput carries a membership request as submitted by a visitor.
type SubmitInput struct {
	Identifier       string
	ContactHandle    string
	SecondaryContact string
	Email            string
	Category         string
}

type RegistrationService interface {
	Submit(ctx context.Context, in SubmitInput) (*domain.RegistrationRequest, error)
	Accept(ctx context.Context, identifier, actor string) (domain.Acceptance, error)
	Deny(ctx context.Context, identifier, actor, reason string) (*domain.RegistrationRequest, error)
	List(ctx context.Context, filter domain.StatusFilter) ([]*domain.RegistrationRequest, error)
}

type ContentService interface {
	Get(ctx context.Context, pageKey, languageCode string) (map[string]string, error)
	Upsert(ctx context.Context, update domain.ContentUpdate) error
}
