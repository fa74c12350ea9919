package auth

import (
	"context"
	"crypto"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var errUnknownKey = errors.New("signing key not published by identity provider")

// jwk is one entry of a JWKS document. RSA keys use n/e, EC keys use crv/x/y.
type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n,omitempty"`
	E   string `json:"e,omitempty"`
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
}

type jwkSet struct {
	Keys []jwk `json:"keys"`
}

// Provider caches the identity provider's public signing keys by kid.
// An unknown kid triggers a refetch, at most once per cooldown.
type Provider struct {
	url      string
	client   *http.Client
	cooldown time.Duration
	now      func() time.Time

	mu      sync.RWMutex
	keys    map[string]crypto.PublicKey
	fetched time.Time
}

func NewProvider(jwksURL string) *Provider {
	return &Provider{
		url:      jwksURL,
		client:   &http.Client{Timeout: 5 * time.Second},
		cooldown: time.Minute,
		now:      time.Now,
		keys:     make(map[string]crypto.PublicKey),
	}
}

// Key returns the verification key for token, checking that the published key
// type matches the token's signing method.
func (p *Provider) Key(ctx context.Context, token *jwt.Token) (crypto.PublicKey, error) {
	kid, _ := token.Header["kid"].(string)
	if kid == "" {
		return nil, fmt.Errorf("kid header not found")
	}

	key, err := p.lookup(ctx, kid)
	if err != nil {
		return nil, err
	}

	switch method := token.Method.(type) {
	case *jwt.SigningMethodRSA:
		if pub, ok := key.(*rsa.PublicKey); ok {
			return pub, nil
		}
	case *jwt.SigningMethodECDSA:
		if pub, ok := key.(*ecdsa.PublicKey); ok && pub.Curve.Params().BitSize == method.CurveBits {
			return pub, nil
		}
	}
	return nil, fmt.Errorf("key %q does not match signing method %s", kid, token.Method.Alg())
}

func (p *Provider) lookup(ctx context.Context, kid string) (crypto.PublicKey, error) {
	p.mu.RLock()
	key, ok := p.keys[kid]
	p.mu.RUnlock()
	if ok {
		return key, nil
	}

	if err := p.refresh(ctx); err != nil {
		return nil, err
	}

	p.mu.RLock()
	key, ok = p.keys[kid]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: kid %q", errUnknownKey, kid)
	}
	return key, nil
}

func (p *Provider) refresh(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.fetched.IsZero() && p.now().Sub(p.fetched) < p.cooldown {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return fmt.Errorf("build jwks request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwks endpoint returned status %d", resp.StatusCode)
	}

	var set jwkSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("decode jwks: %w", err)
	}

	keys := make(map[string]crypto.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kid == "" || (k.Use != "" && k.Use != "sig") {
			continue
		}
		pub, err := k.publicKey()
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}
	p.keys = keys
	p.fetched = p.now()
	return nil
}

func (k jwk) publicKey() (crypto.PublicKey, error) {
	switch k.Kty {
	case "RSA":
		return k.rsaKey()
	case "EC":
		return k.ecKey()
	default:
		return nil, fmt.Errorf("unsupported key type %q", k.Kty)
	}
}

func (k jwk) rsaKey() (*rsa.PublicKey, error) {
	n, err := decodeBigInt(k.N)
	if err != nil {
		return nil, err
	}
	e, err := decodeBigInt(k.E)
	if err != nil {
		return nil, err
	}
	if !e.IsInt64() || e.Int64() < 3 || e.Int64() > 1<<31-1 {
		return nil, fmt.Errorf("rsa exponent out of range")
	}
	return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
}

func (k jwk) ecKey() (*ecdsa.PublicKey, error) {
	var (
		curve elliptic.Curve
		check ecdh.Curve
	)
	switch k.Crv {
	case "P-256":
		curve, check = elliptic.P256(), ecdh.P256()
	case "P-384":
		curve, check = elliptic.P384(), ecdh.P384()
	case "P-521":
		curve, check = elliptic.P521(), ecdh.P521()
	default:
		return nil, fmt.Errorf("unsupported curve %q", k.Crv)
	}

	size := (curve.Params().BitSize + 7) / 8
	x, err := base64.RawURLEncoding.DecodeString(k.X)
	if err != nil || len(x) != size {
		return nil, fmt.Errorf("invalid ec x coordinate")
	}
	y, err := base64.RawURLEncoding.DecodeString(k.Y)
	if err != nil || len(y) != size {
		return nil, fmt.Errorf("invalid ec y coordinate")
	}

	// ecdh rejects points that are not on the curve.
	uncompressed := append(append([]byte{0x04}, x...), y...)
	if _, err := check.NewPublicKey(uncompressed); err != nil {
		return nil, fmt.Errorf("invalid ec point: %w", err)
	}
	return &ecdsa.PublicKey{Curve: curve, X: new(big.Int).SetBytes(x), Y: new(big.Int).SetBytes(y)}, nil
}

func decodeBigInt(s string) (*big.Int, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil || len(b) == 0 {
		return nil, fmt.Errorf("invalid base64url integer")
	}
	return new(big.Int).SetBytes(b), nil
}
