package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/webster-hq/webster/internal/core/domain"
	"github.com/webster-hq/webster/internal/core/ports"
	"github.com/webster-hq/webster/internal/metrics"
)

// maxCredentialBytes is the longest input bcrypt hashes without truncation.
const maxCredentialBytes = 72

// Generator produces tokens and operator credentials.
type Generator interface {
	TokenSource
	Credential() (string, error)
}

// AuthConfig controls signup verification mail and hashing cost.
type AuthConfig struct {
	EmailEnabled         bool
	VerificationLinkBase string
	// BcryptCost defaults to bcrypt.DefaultCost when zero.
	BcryptCost int
}

// AuthService implements member signup, verification and login, and operator
// provisioning and login.
type AuthService struct {
	members   ports.MemberRepository
	operators ports.OperatorRepository
	tokens    *TokenAuthority
	gen       Generator
	notifier  ports.Notifier
	cfg       AuthConfig
	now       func() time.Time
	log       zerolog.Logger
}

func NewAuthService(
	members ports.MemberRepository,
	operators ports.OperatorRepository,
	tokens *TokenAuthority,
	gen Generator,
	notifier ports.Notifier,
	cfg AuthConfig,
	now func() time.Time,
	log zerolog.Logger,
) *AuthService {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		members:   members,
		operators: operators,
		tokens:    tokens,
		gen:       gen,
		notifier:  notifier,
		cfg:       cfg,
		now:       now,
		log:       log,
	}
}

// Signup creates an unverified member and queues the verification mail.
func (s *AuthService) Signup(ctx context.Context, email, password string) (*domain.MemberAccount, error) {
	email = normalizeEmail(email)
	hash, err := s.hash(email, password)
	if err != nil {
		return nil, err
	}

	token, err := s.gen.Token()
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}

	now := s.now().UTC()
	created, err := s.members.Create(ctx, &domain.MemberAccount{
		Email:                email,
		CredentialHash:       hash,
		VerificationToken:    token,
		VerificationIssuedAt: now,
		CreatedAt:            now,
	})
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}

	s.log.Info().Int64("member_id", created.ID).Msg("member signed up")

	if s.cfg.EmailEnabled {
		notify(ctx, s.notifier, s.log, now, domain.NotifyVerification, email, map[string]string{
			"email": email,
			"link":  s.cfg.VerificationLinkBase + token,
		})
	}
	return created, nil
}

// VerifyEmail marks the unverified member holding a fresh verification token.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Invalid("token", "is required")
	}
	n, err := s.members.MarkVerified(ctx, token, domain.DefaultWindow().Cutoff(s.now().UTC()))
	if err != nil {
		return fmt.Errorf("verify email: %w", err)
	}
	if n == 0 {
		return domain.ErrInvalidToken
	}
	return nil
}

// Login issues a member session. Unverified members are refused even when
// the credential matches.
func (s *AuthService) Login(ctx context.Context, email, password string) (ports.Session, error) {
	email = normalizeEmail(email)
	sess, err := s.login(ctx, domain.PrincipalMember, email, password)
	metrics.AuthAttemptsTotal.WithLabelValues(domain.PrincipalMember.String(), metrics.Result(err)).Inc()
	return sess, err
}

// OperatorLogin issues an operator session.
func (s *AuthService) OperatorLogin(ctx context.Context, email, password string) (ports.Session, error) {
	email = normalizeEmail(email)
	sess, err := s.login(ctx, domain.PrincipalOperator, email, password)
	metrics.AuthAttemptsTotal.WithLabelValues(domain.PrincipalOperator.String(), metrics.Result(err)).Inc()
	return sess, err
}

func (s *AuthService) login(ctx context.Context, kind domain.PrincipalKind, email, password string) (ports.Session, error) {
	if email == "" || password == "" {
		return ports.Session{}, domain.ErrInvalidCredentials
	}

	ok, err := s.VerifyCredentials(ctx, email, password, kind)
	if err != nil {
		return ports.Session{}, err
	}
	if !ok {
		return ports.Session{}, domain.ErrInvalidCredentials
	}

	if kind == domain.PrincipalMember {
		m, err := s.members.FindByEmail(ctx, email)
		if err != nil {
			return ports.Session{}, fmt.Errorf("login: %w", err)
		}
		if !m.Verified {
			return ports.Session{}, domain.ErrNotVerified
		}
	}

	token, err := s.tokens.Issue(ctx, kind, email)
	if err != nil {
		return ports.Session{}, fmt.Errorf("login: %w", err)
	}
	return ports.Session{Token: token, Email: email, Kind: kind}, nil
}

// VerifyCredentials compares credential with the stored hash of the account
// of the given kind. Unknown accounts report false.
func (s *AuthService) VerifyCredentials(ctx context.Context, email, credential string, kind domain.PrincipalKind) (bool, error) {
	email = normalizeEmail(email)

	var (
		hash string
		err  error
	)
	switch kind {
	case domain.PrincipalOperator:
		var op *domain.OperatorAccount
		if op, err = s.operators.FindByEmail(ctx, email); err == nil {
			hash = op.CredentialHash
		}
	case domain.PrincipalMember:
		var m *domain.MemberAccount
		if m, err = s.members.FindByEmail(ctx, email); err == nil {
			hash = m.CredentialHash
		}
	default:
		return false, fmt.Errorf("verify credentials: unknown principal kind %s", kind)
	}

	if errors.Is(err, domain.ErrAccountNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("verify credentials: %w", err)
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(credential)) == nil, nil
}

// CreateOrUpdateOperator stores credential for the operator with email,
// creating the account when it does not exist.
func (s *AuthService) CreateOrUpdateOperator(ctx context.Context, email, credential string) (*domain.OperatorAccount, error) {
	email = normalizeEmail(email)
	hash, err := s.hash(email, credential)
	if err != nil {
		return nil, err
	}
	op, err := s.operators.Upsert(ctx, email, hash, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("upsert operator: %w", err)
	}
	s.log.Info().Int64("operator_id", op.ID).Msg("operator credential set")
	return op, nil
}

// ProvisionOperator generates a credential for email, stores it and returns
// it. The plain credential is not retrievable afterwards.
func (s *AuthService) ProvisionOperator(ctx context.Context, email string) (string, error) {
	credential, err := s.gen.Credential()
	if err != nil {
		return "", fmt.Errorf("provision operator: %w", err)
	}
	if _, err := s.CreateOrUpdateOperator(ctx, email, credential); err != nil {
		return "", err
	}
	return credential, nil
}

func (s *AuthService) hash(email, credential string) (string, error) {
	if email == "" {
		return "", domain.Invalid("email", "is required")
	}
	if credential == "" {
		return "", domain.Invalid("password", "is required")
	}
	if len(credential) > maxCredentialBytes {
		return "", domain.Invalid("password", "must be at most 72 bytes")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(credential), s.cfg.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash credential: %w", err)
	}
	return string(h), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
