package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// minKeyBytes is the smallest acceptable decoded key size for HMAC-SHA256.
const minKeyBytes = 32

// registeredClaimKeys are stamped by the codec itself and can never be
// overridden through extra claims.
var registeredClaimKeys = map[string]struct{}{
	"sub": {}, "iss": {}, "aud": {}, "iat": {}, "exp": {},
}

// Codec issues and decodes HS256-signed tokens. A token is valid only when
// its signature verifies under the shared key, issuer and audience match the
// configured values exactly, and the current time is before expiry.
type Codec struct {
	key      []byte
	ttl      time.Duration
	issuer   string
	audience string
}

// NewCodec builds a codec from a base64-encoded shared secret.
func NewCodec(secretBase64 string, ttl time.Duration, issuer, audience string) (*Codec, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(secretBase64))
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}
	if len(key) < minKeyBytes {
		return nil, fmt.Errorf("signing secret must decode to at least %d bytes, got %d", minKeyBytes, len(key))
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	if issuer == "" || audience == "" {
		return nil, errors.New("issuer and audience are required")
	}
	return &Codec{key: key, ttl: ttl, issuer: issuer, audience: audience}, nil
}

// Claims is the decoded payload of a verified token.
type Claims struct {
	Subject   string
	Issuer    string
	Audience  string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Extra     map[string]any
}

// Issue builds and signs a token for the subject. Registered claims are
// always stamped from the codec configuration; extra claims are merged in
// but cannot shadow them. HMAC signing is deterministic, so identical inputs
// and now yield an identical token.
func (c *Codec) Issue(subject string, extra map[string]any, now time.Time) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, errors.New("subject is required")
	}

	expiresAt := now.Add(c.ttl)
	claims := jwt.MapClaims{}
	for k, v := range extra {
		if _, reserved := registeredClaimKeys[k]; reserved {
			continue
		}
		claims[k] = v
	}
	claims["sub"] = subject
	claims["iss"] = c.issuer
	claims["aud"] = c.audience
	claims["iat"] = jwt.NewNumericDate(now)
	claims["exp"] = jwt.NewNumericDate(expiresAt)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Decode parses and verifies a token, returning its claims or a *TokenError
// describing the rejection. Callers interested in the rejection kind switch
// on TokenError.Kind; access-control decisions must never depend on it.
func (c *Codec) Decode(tokenStr string) (*Claims, error) {
	if strings.TrimSpace(tokenStr) == "" {
		return nil, &TokenError{Kind: TokenEmpty}
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %q", token.Method.Alg())
		}
		return c.key, nil
	},
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, classifyTokenError(err)
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, &TokenError{Kind: TokenClaimMismatch, cause: errors.New("unexpected claims type")}
	}
	return c.claimsFrom(mapClaims)
}

func (c *Codec) claimsFrom(mc jwt.MapClaims) (*Claims, error) {
	subject, err := mc.GetSubject()
	if err != nil || subject == "" {
		return nil, &TokenError{Kind: TokenClaimMismatch, cause: errors.New("missing subject claim")}
	}

	claims := &Claims{
		Subject:  subject,
		Issuer:   c.issuer,
		Audience: c.audience,
		Extra:    map[string]any{},
	}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	for k, v := range mc {
		if _, reserved := registeredClaimKeys[k]; reserved {
			continue
		}
		claims.Extra[k] = v
	}
	return claims, nil
}
