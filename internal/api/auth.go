package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"freelance-escrow-go/internal/models"
)

// Authenticator derives the caller's address from a bearer token. The token's
// subject claim carries the address; wallet/session management happens in the
// collaborator that issued the token, never here.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator creates an authenticator over an HS256 shared secret.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// IssueToken mints a token for the address, valid for ttl. Used by the CLI
// and tests; production tokens come from the identity collaborator.
func (a *Authenticator) IssueToken(addr models.Address, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   string(addr),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// CallerFromRequest extracts and verifies the caller address from the
// Authorization header.
func (a *Authenticator) CallerFromRequest(r *http.Request) (models.Address, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", fmt.Errorf("missing Authorization header")
	}
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return "", fmt.Errorf("Authorization header is not a bearer token")
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return models.Address(claims.Subject), nil
}
