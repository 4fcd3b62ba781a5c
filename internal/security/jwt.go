package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "townboat"

// Claims of an access token. Name and Role let the realtime session render
// without a user lookup.
type Claims struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) Admin() bool { return c.Role == "admin" }

// Identity is what an access token says about its holder.
type Identity struct {
	UID, Email, Name, Role string
}

func MakeAccess(secret string, id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	c := Claims{
		UID: id.UID, Email: id.Email, Name: id.Name, Role: id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   id.UID,
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return t.SignedString([]byte(secret))
}

var ErrInvalidToken = errors.New("invalid token")

func ParseAccess(secret, token string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid || c.UID == "" {
		return nil, ErrInvalidToken
	}
	return c, nil
}
