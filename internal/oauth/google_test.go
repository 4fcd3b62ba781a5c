package oauth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_SignedAndExpiring(t *testing.T) {
	g := NewGoogle("cid", "sec", "http://localhost/cb", "state-key")
	now := time.Unix(1_700_000_000, 0)
	g.now = func() time.Time { return now }

	st := g.MakeState("abc")
	assert.True(t, g.VerifyState(st))
	assert.False(t, g.VerifyState(st+"x"))
	assert.False(t, g.VerifyState("abc~1700000000.AAAA"))
	assert.False(t, NewGoogle("cid", "sec", "", "other").VerifyState(st))

	g.now = func() time.Time { return now.Add(11 * time.Minute) }
	assert.False(t, g.VerifyState(st))
}

func idToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("irrelevant"))
	require.NoError(t, err)
	return s
}

func TestIdentity(t *testing.T) {
	g := NewGoogle("cid", "sec", "", "k")
	base := func() jwt.MapClaims {
		return jwt.MapClaims{"iss": "https://accounts.google.com", "aud": "cid", "sub": "123",
			"email": "a@b.com", "email_verified": true, "name": "Ann"}
	}

	u, err := g.identity(idToken(t, base()))
	require.NoError(t, err)
	assert.Equal(t, "123", u.Sub)
	assert.Equal(t, "Ann", u.Name)

	for name, mut := range map[string]func(jwt.MapClaims){
		"issuer":     func(c jwt.MapClaims) { c["iss"] = "evil" },
		"audience":   func(c jwt.MapClaims) { c["aud"] = "someone-else" },
		"unverified": func(c jwt.MapClaims) { c["email_verified"] = false },
		"no subject": func(c jwt.MapClaims) { delete(c, "sub") },
	} {
		c := base()
		mut(c)
		_, err := g.identity(idToken(t, c))
		assert.Error(t, err, name)
	}
}
