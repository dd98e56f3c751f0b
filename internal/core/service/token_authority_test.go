package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/webster-hq/webster/internal/core/domain"
)

type failingMembers struct {
	memMembers
	err error
}

func (f failingMembers) FindBySession(context.Context, string, time.Time) (*domain.MemberAccount, error) {
	return nil, f.err
}

func seedMember(t *testing.T, store *memStore, email string, verified bool) {
	t.Helper()
	if _, err := store.Members().Create(context.Background(), &domain.MemberAccount{Email: email, Verified: verified}); err != nil {
		t.Fatalf("seed member: %v", err)
	}
}

func seedOperator(t *testing.T, store *memStore, email string) {
	t.Helper()
	if _, err := store.Operators().Upsert(context.Background(), email, "x", time.Now()); err != nil {
		t.Fatalf("seed operator: %v", err)
	}
}

func TestTokenAuthority_FreshnessBoundary(t *testing.T) {
	store := newMemStore()
	clock := newFakeClock()
	seedOperator(t, store, "op@example.com")
	auth := NewTokenAuthority(store.Members(), store.Operators(), &seqGenerator{}, clock.Now)
	ctx := context.Background()

	token, err := auth.Issue(ctx, domain.PrincipalOperator, "op@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	clock.Advance(23*time.Hour + 59*time.Minute)
	if ok, err := auth.Verify(ctx, token, domain.PrincipalOperator); err != nil || !ok {
		t.Fatalf("expected token valid at 23h59m, got %v %v", ok, err)
	}

	clock.Advance(time.Minute + time.Second)
	if ok, err := auth.Verify(ctx, token, domain.PrincipalOperator); err != nil || ok {
		t.Fatalf("expected token expired at 24h1s, got %v %v", ok, err)
	}
}

func TestTokenAuthority_EmptyAndUnknownTokens(t *testing.T) {
	store := newMemStore()
	auth := NewTokenAuthority(store.Members(), store.Operators(), &seqGenerator{}, nil)
	ctx := context.Background()

	for _, tok := range []string{"", "   ", "never-issued"} {
		for _, kind := range []domain.PrincipalKind{domain.PrincipalOperator, domain.PrincipalMember} {
			if ok, err := auth.Verify(ctx, tok, kind); ok || err != nil {
				t.Fatalf("Verify(%q, %s) = %v, %v", tok, kind, ok, err)
			}
		}
	}
	if _, err := auth.Authenticate(ctx, "never-issued"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenAuthority_IssueOverwritesStoredToken(t *testing.T) {
	store := newMemStore()
	seedMember(t, store, "m@example.com", true)
	auth := NewTokenAuthority(store.Members(), store.Operators(), &seqGenerator{}, nil)
	ctx := context.Background()

	first, _ := auth.Issue(ctx, domain.PrincipalMember, "m@example.com")
	second, _ := auth.Issue(ctx, domain.PrincipalMember, "m@example.com")

	if ok, _ := auth.Verify(ctx, second, domain.PrincipalMember); !ok {
		t.Fatalf("latest token must verify")
	}
	if ok, _ := auth.Verify(ctx, first, domain.PrincipalMember); ok {
		t.Fatalf("overwritten token must not verify")
	}
}

func TestTokenAuthority_KindsAreDisjoint(t *testing.T) {
	store := newMemStore()
	seedOperator(t, store, "op@example.com")
	seedMember(t, store, "m@example.com", true)
	auth := NewTokenAuthority(store.Members(), store.Operators(), &seqGenerator{}, nil)
	ctx := context.Background()

	opTok, _ := auth.Issue(ctx, domain.PrincipalOperator, "op@example.com")
	memberTok, _ := auth.Issue(ctx, domain.PrincipalMember, "m@example.com")

	if ok, _ := auth.Verify(ctx, opTok, domain.PrincipalMember); ok {
		t.Fatalf("operator token must not verify as member")
	}
	if ok, _ := auth.Verify(ctx, memberTok, domain.PrincipalOperator); ok {
		t.Fatalf("member token must not verify as operator")
	}

	p, err := auth.Authenticate(ctx, opTok)
	if err != nil || p.Kind != domain.PrincipalOperator || p.Email != "op@example.com" {
		t.Fatalf("unexpected operator principal %+v, %v", p, err)
	}
	p, err = auth.Authenticate(ctx, memberTok)
	if err != nil || p.Kind != domain.PrincipalMember || p.Email != "m@example.com" {
		t.Fatalf("unexpected member principal %+v, %v", p, err)
	}
}

func TestTokenAuthority_UnverifiedMemberRejected(t *testing.T) {
	store := newMemStore()
	seedMember(t, store, "m@example.com", false)
	auth := NewTokenAuthority(store.Members(), store.Operators(), &seqGenerator{}, nil)
	ctx := context.Background()

	tok, err := auth.Issue(ctx, domain.PrincipalMember, "m@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := auth.Authenticate(ctx, tok); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for unverified member, got %v", err)
	}
}

func TestTokenAuthority_PersistenceErrorSurfaces(t *testing.T) {
	store := newMemStore()
	boom := errors.New("connection refused")
	auth := NewTokenAuthority(failingMembers{memMembers{store}, boom}, store.Operators(), &seqGenerator{}, nil)

	if _, err := auth.Verify(context.Background(), "tok", domain.PrincipalMember); !errors.Is(err, boom) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if _, err := auth.Authenticate(context.Background(), "tok"); !errors.Is(err, boom) {
		t.Fatalf("expected persistence error from Authenticate, got %v", err)
	}
}
