package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	herodb "github.com/rongrafil/superhero-database-auth"
	"github.com/rongrafil/superhero-database-auth/provider/memory"
)

func TestFullRegistrationFlow(t *testing.T) {
	provider := memory.New()
	ctx := context.Background()

	err := provider.SignUp(ctx, "alice", "hunter2hunter2", map[string]string{"email": "alice@example.com"})
	require.NoError(t, err)

	// Unconfirmed identities cannot sign in.
	_, err = provider.SignIn(ctx, "alice", "hunter2hunter2")
	require.Error(t, err)
	assert.ErrorIs(t, err, herodb.ErrInvalidCredentials)

	// Wrong code is rejected.
	err = provider.ConfirmSignUp(ctx, "alice", "not-the-code")
	require.Error(t, err)
	assert.ErrorIs(t, err, herodb.ErrInvalidConfirmationCode)

	code, ok := provider.PendingCode("alice")
	require.True(t, ok)
	require.Len(t, code, 6)

	require.NoError(t, provider.ConfirmSignUp(ctx, "alice", code))

	session, err := provider.SignIn(ctx, "alice", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, "alice", session.Username)
	assert.NotEmpty(t, session.Token)
}

func TestSignInFailuresAreUniform(t *testing.T) {
	provider := memory.New()
	ctx := context.Background()

	require.NoError(t, provider.SignUp(ctx, "alice", "hunter2hunter2", nil))
	code, _ := provider.PendingCode("alice")
	require.NoError(t, provider.ConfirmSignUp(ctx, "alice", code))

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"unknown identity", "ghost", "whatever"},
		{"wrong password", "alice", "not-it"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := provider.SignIn(ctx, tt.username, tt.password)
			require.Error(t, err)
			assert.ErrorIs(t, err, herodb.ErrInvalidCredentials)
		})
	}
}

func TestSignUpDuplicate(t *testing.T) {
	provider := memory.New()
	ctx := context.Background()

	require.NoError(t, provider.SignUp(ctx, "alice", "hunter2hunter2", nil))

	err := provider.SignUp(ctx, "alice", "different-password", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, herodb.ErrIdentityAlreadyExists)
}

func TestConfirmIsIdempotentOnceConfirmed(t *testing.T) {
	provider := memory.New()
	ctx := context.Background()

	require.NoError(t, provider.SignUp(ctx, "alice", "hunter2hunter2", nil))
	code, _ := provider.PendingCode("alice")
	require.NoError(t, provider.ConfirmSignUp(ctx, "alice", code))

	assert.NoError(t, provider.ConfirmSignUp(ctx, "alice", "anything"))

	_, ok := provider.PendingCode("alice")
	assert.False(t, ok, "confirmed identities hold no pending code")
}

func TestResendRotatesCode(t *testing.T) {
	provider := memory.New()
	ctx := context.Background()

	require.NoError(t, provider.SignUp(ctx, "alice", "hunter2hunter2", nil))
	first, ok := provider.PendingCode("alice")
	require.True(t, ok)

	// Codes are random six-digit strings, so a handful of resends is enough
	// to observe a rotation.
	rotated := false
	for i := 0; i < 20 && !rotated; i++ {
		require.NoError(t, provider.ResendSignUp(ctx, "alice"))
		next, _ := provider.PendingCode("alice")
		rotated = next != first
	}
	assert.True(t, rotated)
}

func TestMintedTokenParses(t *testing.T) {
	key := []byte("fixed-signing-key")
	epoch := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	provider := memory.New(
		memory.WithSigningKey(key),
		memory.WithClock(func() time.Time { return epoch }),
	)
	ctx := context.Background()

	require.NoError(t, provider.SignUp(ctx, "alice", "hunter2hunter2", nil))
	code, _ := provider.PendingCode("alice")
	require.NoError(t, provider.ConfirmSignUp(ctx, "alice", code))

	session, err := provider.SignIn(ctx, "alice", "hunter2hunter2")
	require.NoError(t, err)

	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(session.Token, &claims, func(*jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithTimeFunc(func() time.Time { return epoch }))
	require.NoError(t, err)
	require.True(t, token.Valid)

	assert.Equal(t, "memory-provider", claims.Issuer)
	assert.NotEmpty(t, claims.Subject)
	assert.True(t, claims.ExpiresAt.Time.Equal(epoch.Add(time.Hour)))

	// Same username mints the same deterministic subject.
	again, err := provider.SignIn(ctx, "alice", "hunter2hunter2")
	require.NoError(t, err)
	claimsAgain := jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(again.Token, &claimsAgain, func(*jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithTimeFunc(func() time.Time { return epoch }))
	require.NoError(t, err)
	assert.Equal(t, claims.Subject, claimsAgain.Subject)
}

func TestSignOutIsNoop(t *testing.T) {
	provider := memory.New()
	assert.NoError(t, provider.SignOut(context.Background()))
}
