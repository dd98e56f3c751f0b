package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	wipeSubject  = "dwipe"
	wipeTokenTTL = 5 * time.Minute
)

var (
	ErrWipeSecretMissing = errors.New("WIPE_SECRET is not configured")
	ErrWipeToken         = errors.New("invalid or expired wipe confirmation token")
)

// wipeToken prints a short-lived confirmation token that dwipe requires.
func (a *App) wipeToken() error {
	token, err := a.issueWipeToken()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "this deletes ALL data and cannot be undone\nconfirm within %s with:\n  webster dwipe %s\n", wipeTokenTTL, token)
	return nil
}

// wipe runs after Run has checked the confirmation token.
func (a *App) wipe(ctx context.Context, b Backend, _ []string) error {
	if err := b.Wipe(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "all data wiped")
	return nil
}

func (a *App) issueWipeToken() (string, error) {
	if a.cfg.WipeSecret == "" {
		return "", ErrWipeSecretMissing
	}
	now := a.now()
	claims := jwt.RegisteredClaims{
		Subject:   wipeSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(wipeTokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.cfg.WipeSecret))
}

func (a *App) checkWipeToken(token string) error {
	if a.cfg.WipeSecret == "" {
		return ErrWipeSecretMissing
	}
	_, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{},
		func(*jwt.Token) (any, error) { return []byte(a.cfg.WipeSecret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(wipeSubject),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWipeToken, err)
	}
	return nil
}
