package herodb

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the unit of "being logged in": the authenticated identity's
// username plus the bearer token issued by the identity provider.
type Session struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

// Claims peeks at the bearer token's registered claims without verifying the
// signature. Use a TokenValidator when trust matters; this is for reading
// expiry and issuer off a token we already hold.
func (s *Session) Claims() (jwt.MapClaims, error) {
	if s == nil || s.Token == "" {
		return nil, ErrTokenMalformed
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	return claims, nil
}

// ExpiresAt returns the bearer token's expiration time, or the zero time when
// the token carries no exp claim.
func (s *Session) ExpiresAt() (time.Time, error) {
	claims, err := s.Claims()
	if err != nil {
		return time.Time{}, err
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	if exp == nil {
		return time.Time{}, nil
	}
	return exp.Time, nil
}

func (s Session) String() string {
	return fmt.Sprintf("user=%s token=%s", s.Username, maskToken(s.Token))
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "****" + token[len(token)-4:]
}
