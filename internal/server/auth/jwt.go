// Package auth implements the token codec: signed, time-limited bearer
// tokens carrying a username claim.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/registrar/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// saltBytes is the size of the random salt mixed into every token so two
// tokens for the same user and second never encode identically.
const saltBytes = 8

// Claims is the signed payload: standard claims (only exp is set) plus the
// username and a random salt.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Salt     string `json:"salt"`
}

// TokenData is what callers get back from a valid token. Expiry and salt are
// stripped.
type TokenData struct {
	Username string
}

// Codec issues and decodes tokens with a fixed secret, algorithm and TTL.
type Codec struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	now    func() time.Time
}

// NewCodec returns a Codec for an HMAC algorithm name (HS256, HS384, HS512).
func NewCodec(secret []byte, algorithm string, ttl time.Duration) (*Codec, error) {
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	if len(secret) == 0 {
		return nil, errors.New("empty signing secret")
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	return &Codec{secret: secret, method: method, ttl: ttl, now: time.Now}, nil
}

// TTL returns the configured validity of issued tokens.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for username that expires TTL from now.
func (c *Codec) Issue(username string) (string, error) {
	salt, err := common.MakeRandHexString(saltBytes)
	if err != nil {
		return "", fmt.Errorf("token salt: %w", err)
	}

	token := jwt.NewWithClaims(c.method, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(c.now().Add(c.ttl)),
		},
		Username: username,
		Salt:     salt,
	})

	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Decode verifies signature, algorithm and expiry. Every failure, whatever
// the cause, is reported as common.ErrInvalidToken.
func (c *Codec) Decode(tokenString string) (*TokenData, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !token.Valid {
		return nil, common.ErrInvalidToken
	}

	if claims.Username == "" {
		return nil, common.ErrInvalidToken
	}

	return &TokenData{Username: claims.Username}, nil
}
