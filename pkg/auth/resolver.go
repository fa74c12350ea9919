package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

const adminRole = "admin"

var validMethods = []string{"HS256", "HS384", "HS512", "RS256", "RS384", "RS512", "ES256", "ES384", "ES512"}

// Identity is what a verified token says about its bearer.
type Identity struct {
	Subject string
	Email   string
	IsAdmin bool
}

// Resolver verifies bearer tokens signed with a shared HMAC secret or with
// RSA/ECDSA keys from a JWKS endpoint, and applies the admin policy.
type Resolver struct {
	secret []byte
	jwks   *Provider
	admins map[string]struct{}
}

// NewResolver builds a resolver. Either secret or jwks may be empty/nil, which
// disables that signing family. adminIDs are subjects that are always admin.
func NewResolver(secret string, jwks *Provider, adminIDs []string) *Resolver {
	admins := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	r := &Resolver{jwks: jwks, admins: admins}
	if secret != "" {
		r.secret = []byte(secret)
	}
	return r
}

func (r *Resolver) Resolve(ctx context.Context, tokenString string) (Identity, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return Identity{}, ErrMissingToken
	}
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return r.keyFor(ctx, t) },
		jwt.WithValidMethods(validMethods),
	)
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return Identity{}, fmt.Errorf("%w: subject claim missing", ErrInvalidToken)
	}
	email, _ := claims["email"].(string)

	return Identity{
		Subject: sub,
		Email:   email,
		IsAdmin: r.isAdmin(sub, claims),
	}, nil
}

func (r *Resolver) keyFor(ctx context.Context, token *jwt.Token) (interface{}, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodHMAC:
		if r.secret == nil {
			return nil, fmt.Errorf("%s token received but JWT_SECRET is not configured", token.Method.Alg())
		}
		return r.secret, nil
	case *jwt.SigningMethodRSA, *jwt.SigningMethodECDSA:
		if r.jwks == nil {
			return nil, fmt.Errorf("%s token received but JWKS_URL is not configured", token.Method.Alg())
		}
		return r.jwks.Key(ctx, token)
	default:
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
}

// isAdmin: listed subject, or role "admin" at top level, in app_metadata or in public_metadata.
func (r *Resolver) isAdmin(sub string, claims jwt.MapClaims) bool {
	if _, ok := r.admins[sub]; ok {
		return true
	}
	if role, _ := claims["role"].(string); strings.EqualFold(role, adminRole) {
		return true
	}
	for _, key := range []string{"app_metadata", "public_metadata"} {
		meta, ok := claims[key].(map[string]interface{})
		if !ok {
			continue
		}
		if role, _ := meta["role"].(string); strings.EqualFold(role, adminRole) {
			return true
		}
	}
	return false
}
