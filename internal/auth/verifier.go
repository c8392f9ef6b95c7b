// Package auth provides the token verifiers behind the write-protected
// endpoints: an OIDC verifier for provider-issued tokens and an HS256
// verifier for locally issued editor tokens.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"

	"github.com/johnallens/content-platform/pkg/middleware"
)

// OIDCVerifier wraps the OIDC provider and token verifier
type OIDCVerifier struct {
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier creates a verifier for the given issuer and client ID
func NewOIDCVerifier(ctx context.Context, issuer, clientID string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	verifier := provider.Verifier(&oidc.Config{ClientID: clientID})
	return &OIDCVerifier{provider: provider, verifier: verifier}, nil
}

func (v *OIDCVerifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return idToken, nil
}

// SecretVerifier validates HS256 tokens issued by the local token
// endpoint.
type SecretVerifier struct {
	secret []byte
}

func NewSecretVerifier(secret string) *SecretVerifier {
	return &SecretVerifier{secret: []byte(secret)}
}

func (v *SecretVerifier) Verify(_ context.Context, raw string) (middleware.Token, error) {
	parsed, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return &claimsToken{claims: claims}, nil
}

type claimsToken struct {
	claims jwt.MapClaims
}

func (t *claimsToken) Claims(v interface{}) error {
	if mm, ok := v.(*map[string]interface{}); ok {
		*mm = map[string]interface{}(t.claims)
		return nil
	}
	return errors.New("unsupported claims type")
}
