// Package tokenfile keeps the CLI's access token on disk between runs.
package tokenfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/registrar/internal/filex"
)

var ErrNoToken = errors.New("not logged in")

// DefaultPath is ~/.registrar/token, or ./.registrar/token when the home
// directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".registrar", "token")
}

func Save(path, token string) error {
	if err := filex.WriteSecretFile(path, []byte(token+"\n")); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Load returns ErrNoToken when nothing has been saved yet.
func Load(path string) (string, error) {
	data, err := filex.ReadOptionalFile(path)
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	tok := strings.TrimSpace(string(data))
	if tok == "" {
		return "", ErrNoToken
	}
	return tok, nil
}

func Remove(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Claims is what the CLI can tell about a token without the signing key.
type Claims struct {
	Username  string
	ExpiresAt time.Time
}

// Inspect reads the claims without checking the signature. Only the server
// can decide whether the token is valid.
func Inspect(token string) (*Claims, error) {
	var mc jwt.MapClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &mc); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	c := &Claims{}
	if u, ok := mc["username"].(string); ok {
		c.Username = u
	}
	exp, err := mc.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}

func (c *Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}
