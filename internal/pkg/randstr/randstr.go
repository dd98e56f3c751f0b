// Package randstr generates random strings from fixed alphabets using
// crypto/rand.
package randstr

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

const (
	// TokenAlphabet is used for session and verification tokens.
	TokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	// CredentialAlphabet is used for generated operator credentials.
	CredentialAlphabet = TokenAlphabet + "!@#$%^&*"

	TokenLength      = 32
	CredentialLength = 16
)

// Generator draws characters uniformly from an alphabet.
type Generator struct {
	src io.Reader
}

// New returns a Generator reading entropy from src, or crypto/rand when nil.
func New(src io.Reader) *Generator {
	if src == nil {
		src = rand.Reader
	}
	return &Generator{src: src}
}

// String returns n characters drawn from alphabet.
func (g *Generator) String(alphabet string, n int) (string, error) {
	if alphabet == "" || n <= 0 {
		return "", fmt.Errorf("randstr: invalid alphabet or length %d", n)
	}
	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(g.src, max)
		if err != nil {
			return "", fmt.Errorf("randstr: %w", err)
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}

// Token returns a 32 character alphanumeric token.
func (g *Generator) Token() (string, error) {
	return g.String(TokenAlphabet, TokenLength)
}

// Credential returns a 16 character credential including symbols.
func (g *Generator) Credential() (string, error) {
	return g.String(CredentialAlphabet, CredentialLength)
}
