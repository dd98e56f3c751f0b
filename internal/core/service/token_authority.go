package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/webster-hq/webster/internal/core/domain"
	"github.com/webster-hq/webster/internal/core/ports"
)

// TokenSource produces opaque bearer tokens.
type TokenSource interface {
	Token() (string, error)
}

// TokenAuthority issues and validates session tokens for both principal
// kinds. A token stays valid while its issue time is inside the freshness
// window; issuing a new token overwrites the stored one.
type TokenAuthority struct {
	members   ports.MemberRepository
	operators ports.OperatorRepository
	tokens    TokenSource
	window    domain.Window
	now       func() time.Time
}

func NewTokenAuthority(members ports.MemberRepository, operators ports.OperatorRepository, tokens TokenSource, now func() time.Time) *TokenAuthority {
	if now == nil {
		now = time.Now
	}
	return &TokenAuthority{
		members:   members,
		operators: operators,
		tokens:    tokens,
		window:    domain.DefaultWindow(),
		now:       now,
	}
}

// Issue generates a token and stores it against the account with email.
func (a *TokenAuthority) Issue(ctx context.Context, kind domain.PrincipalKind, email string) (string, error) {
	token, err := a.tokens.Token()
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	issuedAt := a.now().UTC()

	switch kind {
	case domain.PrincipalOperator:
		err = a.operators.SetSession(ctx, email, token, issuedAt)
	case domain.PrincipalMember:
		err = a.members.SetSession(ctx, email, token, issuedAt)
	default:
		return "", fmt.Errorf("issue token: unknown principal kind %s", kind)
	}
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// Verify reports whether token is a fresh token of kind. Unknown and expired
// tokens are indistinguishable; only persistence failures return an error.
func (a *TokenAuthority) Verify(ctx context.Context, token string, kind domain.PrincipalKind) (bool, error) {
	_, ok, err := a.lookup(ctx, strings.TrimSpace(token), kind)
	return ok, err
}

// Authenticate resolves token to a principal, checking operators first.
func (a *TokenAuthority) Authenticate(ctx context.Context, token string) (domain.Principal, error) {
	token = strings.TrimSpace(token)
	for _, kind := range []domain.PrincipalKind{domain.PrincipalOperator, domain.PrincipalMember} {
		p, ok, err := a.lookup(ctx, token, kind)
		if err != nil {
			return domain.Principal{}, err
		}
		if ok {
			return p, nil
		}
	}
	return domain.Principal{}, domain.ErrInvalidToken
}

func (a *TokenAuthority) lookup(ctx context.Context, token string, kind domain.PrincipalKind) (domain.Principal, bool, error) {
	if token == "" {
		return domain.Principal{}, false, nil
	}
	now := a.now().UTC()
	cutoff := a.window.Cutoff(now)

	var (
		email    string
		issuedAt time.Time
		err      error
	)
	switch kind {
	case domain.PrincipalOperator:
		var op *domain.OperatorAccount
		if op, err = a.operators.FindBySession(ctx, token, cutoff); err == nil {
			email, issuedAt = op.Email, op.SessionIssuedAt
		}
	case domain.PrincipalMember:
		var m *domain.MemberAccount
		if m, err = a.members.FindBySession(ctx, token, cutoff); err == nil {
			if !m.Verified {
				return domain.Principal{}, false, nil
			}
			email, issuedAt = m.Email, m.SessionIssuedAt
		}
	default:
		return domain.Principal{}, false, nil
	}

	if errors.Is(err, domain.ErrAccountNotFound) {
		return domain.Principal{}, false, nil
	}
	if err != nil {
		return domain.Principal{}, false, fmt.Errorf("verify %s token: %w", kind, err)
	}
	if !a.window.Fresh(issuedAt, now) {
		return domain.Principal{}, false, nil
	}
	return domain.Principal{Kind: kind, Email: email}, true, nil
}
