package herodb

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

// TokenValidator vets a bearer token without tying callers to a specific
// signing implementation. Used at boot to decide whether a persisted session
// is still worth presenting to the backend.
type TokenValidator interface {
	Validate(tokenString string) error
}

// NewBootValidator builds the token validator implied by the configuration: a
// JWKS-backed validator when a JWKS endpoint is configured, otherwise the
// expiry-only guard.
func NewBootValidator(cfg Config, logger Logger) (TokenValidator, error) {
	if url := cfg.GetJWKSEndpoint(); url != "" {
		return NewJWKSValidator(url, logger)
	}
	return ExpiryValidator{}, nil
}

// TokenValidatorFunc adapts a function into a TokenValidator.
type TokenValidatorFunc func(tokenString string) error

// Validate satisfies the TokenValidator interface.
func (f TokenValidatorFunc) Validate(tokenString string) error {
	if f == nil {
		return ErrTokenMalformed
	}
	return f(tokenString)
}

// MultiTokenValidator tries validators in order until one succeeds. It treats
// malformed-token errors as "try next" and returns the last malformed error
// if all validators fail.
type MultiTokenValidator struct {
	validators []TokenValidator
}

// NewMultiTokenValidator filters nil validators and returns a composite validator.
func NewMultiTokenValidator(validators ...TokenValidator) *MultiTokenValidator {
	filtered := make([]TokenValidator, 0, len(validators))
	for _, v := range validators {
		if v != nil {
			filtered = append(filtered, v)
		}
	}
	return &MultiTokenValidator{validators: filtered}
}

// Validate satisfies the TokenValidator interface.
func (m *MultiTokenValidator) Validate(tokenString string) error {
	var lastErr error
	for _, v := range m.validators {
		err := v.Validate(tokenString)
		if err == nil {
			return nil
		}
		if IsMalformedTokenError(err) {
			lastErr = err
			continue
		}
		return err
	}
	if lastErr != nil {
		return lastErr
	}
	return ErrTokenMalformed
}

// JWKSValidator verifies token signatures against the identity provider's
// published JWK Set.
type JWKSValidator struct {
	jwks   *keyfunc.JWKS
	logger Logger
}

// NewJWKSValidator fetches the JWK Set from jwksURL and keeps it refreshed in
// the background.
func NewJWKSValidator(jwksURL string, logger Logger) (*JWKSValidator, error) {
	if logger == nil {
		logger = defLogger{}
	}

	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			logger.Warn("jwks background refresh failed: %v", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get JWK Set from %s: %w", jwksURL, err)
	}

	return &JWKSValidator{jwks: jwks, logger: logger}, nil
}

// Validate satisfies the TokenValidator interface.
func (v *JWKSValidator) Validate(tokenString string) error {
	token, err := jwt.Parse(tokenString, v.jwks.Keyfunc)
	if err != nil {
		return normalizeTokenError(err)
	}
	if !token.Valid {
		return ErrTokenMalformed
	}
	return nil
}

// Shutdown stops the background JWKS refresh.
func (v *JWKSValidator) Shutdown() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}

// ExpiryValidator rejects tokens that are already expired without verifying
// the signature. It is the fallback guard when no JWKS endpoint is
// configured: a forged token gets us nothing (the backend verifies), but a
// dead one would force every call through the eviction path.
type ExpiryValidator struct {
	Clock func() time.Time
}

// Validate satisfies the TokenValidator interface.
func (v ExpiryValidator) Validate(tokenString string) error {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	if exp == nil {
		return nil
	}

	now := time.Now
	if v.Clock != nil {
		now = v.Clock
	}
	if now().After(exp.Time) {
		return ErrTokenExpired
	}
	return nil
}

func normalizeTokenError(err error) error {
	switch {
	case stderrors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}
