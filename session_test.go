package herodb_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	herodb "github.com/rongrafil/superhero-database-auth"
)

func mintToken(t *testing.T, claims jwt.RegisteredClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-signing-key"))
	require.NoError(t, err)
	return signed
}

func TestSessionJSONRoundTrip(t *testing.T) {
	in := herodb.Session{Username: "alice", Token: "tok-123"}

	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"alice","token":"tok-123"}`, string(raw))

	out := herodb.Session{}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)
}

func TestSessionStringMasksToken(t *testing.T) {
	long := herodb.Session{Username: "alice", Token: "abcdefghijklmnop"}
	assert.Equal(t, "user=alice token=abcd****mnop", long.String())

	short := herodb.Session{Username: "alice", Token: "tok"}
	assert.NotContains(t, short.String(), "tok")
}

func TestSessionClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	session := herodb.Session{
		Username: "alice",
		Token: mintToken(t, jwt.RegisteredClaims{
			Subject:   "alice",
			Issuer:    "memory-provider",
			ExpiresAt: jwt.NewNumericDate(exp),
		}),
	}

	claims, err := session.Claims()
	require.NoError(t, err)
	assert.Equal(t, "alice", claims["sub"])
	assert.Equal(t, "memory-provider", claims["iss"])
}

func TestSessionClaimsRejectsGarbage(t *testing.T) {
	session := herodb.Session{Username: "alice", Token: "not-a-jwt"}

	_, err := session.Claims()
	require.Error(t, err)
	assert.True(t, herodb.IsMalformedTokenError(err))

	var empty *herodb.Session
	_, err = empty.Claims()
	require.Error(t, err)
}

func TestSessionExpiresAt(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	session := herodb.Session{
		Username: "alice",
		Token: mintToken(t, jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
		}),
	}

	got, err := session.ExpiresAt()
	require.NoError(t, err)
	assert.True(t, got.Equal(exp))
}

func TestSessionExpiresAtWithoutExpClaim(t *testing.T) {
	session := herodb.Session{
		Username: "alice",
		Token:    mintToken(t, jwt.RegisteredClaims{Subject: "alice"}),
	}

	got, err := session.ExpiresAt()
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}
