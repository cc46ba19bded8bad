package auth

import (
	"errors"
	"fmt"

	jwt "github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidCredentials is returned for every credential failure mode,
	// never revealing whether the identifier existed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDuplicateIdentifier is returned when registering an identifier
	// that already exists.
	ErrDuplicateIdentifier = errors.New("identifier already registered")
)

// TokenErrorKind classifies why a token was rejected. The distinction feeds
// logs and metrics only; every kind collapses to the same unauthorized
// outcome at the filter boundary.
type TokenErrorKind string

const (
	TokenMalformed     TokenErrorKind = "malformed"
	TokenExpired       TokenErrorKind = "expired"
	TokenUnsupported   TokenErrorKind = "unsupported"
	TokenBadSignature  TokenErrorKind = "signature_mismatch"
	TokenClaimMismatch TokenErrorKind = "claim_mismatch"
	TokenEmpty         TokenErrorKind = "empty"
)

// TokenError is the tagged rejection variant returned by Codec.Decode.
type TokenError struct {
	Kind  TokenErrorKind
	cause error
}

func (e *TokenError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("token %s: %v", e.Kind, e.cause)
	}
	return fmt.Sprintf("token %s", e.Kind)
}

func (e *TokenError) Unwrap() error {
	return e.cause
}

// Message returns a short diagnostic suitable for the rejection response body.
func (e *TokenError) Message() string {
	switch e.Kind {
	case TokenExpired:
		return "token has expired"
	case TokenUnsupported:
		return "token signed with an unsupported algorithm"
	case TokenBadSignature:
		return "token signature verification failed"
	case TokenClaimMismatch:
		return "token claims do not match this service"
	case TokenEmpty:
		return "token is empty"
	default:
		return "token is malformed"
	}
}

// classifyTokenError maps golang-jwt parse failures onto the TokenError taxonomy.
func classifyTokenError(err error) *TokenError {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return &TokenError{Kind: TokenExpired, cause: err}
	case errors.Is(err, jwt.ErrTokenMalformed):
		return &TokenError{Kind: TokenMalformed, cause: err}
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return &TokenError{Kind: TokenBadSignature, cause: err}
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		// the keyfunc rejects any signing method other than HS256
		return &TokenError{Kind: TokenUnsupported, cause: err}
	case errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenInvalidAudience),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return &TokenError{Kind: TokenClaimMismatch, cause: err}
	default:
		return &TokenError{Kind: TokenClaimMismatch, cause: err}
	}
}
