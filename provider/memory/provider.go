// Package memory implements herodb.IdentityProvider in-process, for
// development hosts and tests. Passwords are bcrypt-hashed, identity ids are
// derived deterministically from the username, and tokens are short-lived
// HS256 JWTs signed with a per-provider key. The provider raises the same
// classified errors as the hosted adapter so callers cannot tell them apart.
package memory

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	herodb "github.com/rongrafil/superhero-database-auth"
)

type identity struct {
	id           uuid.UUID
	username     string
	passwordHash string
	attributes   map[string]string
	confirmed    bool
	code         string
}

// Provider is an in-process identity provider.
type Provider struct {
	mu         sync.Mutex
	identities map[string]*identity
	signingKey []byte
	tokenTTL   time.Duration
	now        func() time.Time
}

var _ herodb.IdentityProvider = &Provider{}

// Option customizes provider construction.
type Option func(*Provider)

// WithSigningKey overrides the random per-provider token signing key.
func WithSigningKey(key []byte) Option {
	return func(p *Provider) {
		if len(key) > 0 {
			p.signingKey = key
		}
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) Option {
	return func(p *Provider) {
		if clock != nil {
			p.now = clock
		}
	}
}

// New returns an empty provider.
func New(opts ...Option) *Provider {
	p := &Provider{
		identities: map[string]*identity{},
		signingKey: []byte(uuid.NewString()),
		tokenTTL:   time.Hour,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// SignIn implements herodb.IdentityProvider. Unknown, unconfirmed, and
// wrong-password identities all fail the same way.
func (p *Provider) SignIn(ctx context.Context, username, password string) (*herodb.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ident, ok := p.identities[username]
	if !ok {
		return nil, fmt.Errorf("%w: unknown identity", herodb.ErrInvalidCredentials)
	}
	if !ident.confirmed {
		return nil, fmt.Errorf("%w: identity not confirmed", herodb.ErrInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(ident.passwordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: password mismatch", herodb.ErrInvalidCredentials)
	}

	token, err := p.mintToken(ident)
	if err != nil {
		return nil, err
	}

	return &herodb.Session{Username: username, Token: token}, nil
}

// SignUp implements herodb.IdentityProvider.
func (p *Provider) SignUp(ctx context.Context, username, password string, attributes map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.identities[username]; exists {
		return fmt.Errorf("%w: %s", herodb.ErrIdentityAlreadyExists, username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("memory: failed to hash password: %w", err)
	}

	id, err := hashid.NewUUID(username)
	if err != nil {
		return fmt.Errorf("memory: failed to derive identity id: %w", err)
	}

	attrs := make(map[string]string, len(attributes))
	for k, v := range attributes {
		attrs[k] = v
	}

	p.identities[username] = &identity{
		id:           id,
		username:     username,
		passwordHash: string(hash),
		attributes:   attrs,
		code:         newCode(),
	}
	return nil
}

// ConfirmSignUp implements herodb.IdentityProvider.
func (p *Provider) ConfirmSignUp(ctx context.Context, username, code string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ident, ok := p.identities[username]
	if !ok {
		return fmt.Errorf("memory: unknown identity %q", username)
	}
	if ident.confirmed {
		return nil
	}
	if ident.code != code {
		return fmt.Errorf("%w: code mismatch", herodb.ErrInvalidConfirmationCode)
	}

	ident.confirmed = true
	ident.code = ""
	return nil
}

// ResendSignUp implements herodb.IdentityProvider, rotating the pending code.
func (p *Provider) ResendSignUp(ctx context.Context, username string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ident, ok := p.identities[username]
	if !ok {
		return fmt.Errorf("memory: unknown identity %q", username)
	}
	if ident.confirmed {
		return fmt.Errorf("memory: identity %q is already confirmed", username)
	}

	ident.code = newCode()
	return nil
}

// SignOut implements herodb.IdentityProvider. Tokens are not tracked
// server-side here, so there is nothing to revoke.
func (p *Provider) SignOut(ctx context.Context) error {
	return nil
}

// PendingCode exposes the identity's confirmation code so development hosts
// and tests can complete the flow without an email channel.
func (p *Provider) PendingCode(username string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ident, ok := p.identities[username]
	if !ok || ident.confirmed {
		return "", false
	}
	return ident.code, true
}

func (p *Provider) mintToken(ident *identity) (string, error) {
	now := p.now()
	claims := jwt.RegisteredClaims{
		Subject:   ident.id.String(),
		Issuer:    "memory-provider",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(p.tokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.signingKey)
	if err != nil {
		return "", fmt.Errorf("memory: failed to sign token: %w", err)
	}
	return signed, nil
}

func newCode() string {
	return fmt.Sprintf("%06d", rand.IntN(1000000))
}
