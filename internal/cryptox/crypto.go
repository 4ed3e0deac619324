// Package cryptox hashes passwords into the form the directory stores in
// userPassword: an Argon2id PHC string behind the {ARGON2} scheme tag
// understood by OpenLDAP's pw-argon2 module.
package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// SchemeArgon2 is the userPassword scheme prefix.
const SchemeArgon2 = "{ARGON2}"

const (
	saltLen   = 16
	timeCost  = uint32(2)
	memoryKiB = uint32(19 * 1024)
	threads   = uint8(1)
	keyLen    = uint32(32)
)

var ErrInvalidHash = errors.New("invalid password hash")

// HashPassword derives an Argon2id hash of password with a fresh salt.
//
//	{ARGON2}$argon2id$v=19$m=19456,t=2,p=1$<b64 salt>$<b64 hash>
func HashPassword(password []byte) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	hash := argon2.IDKey(password, salt, timeCost, memoryKiB, threads, keyLen)

	return fmt.Sprintf("%s$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		SchemeArgon2,
		argon2.Version,
		memoryKiB, timeCost, threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifyPassword checks password against a value produced by HashPassword.
// Parameters are read from the stored string, so older hashes keep verifying.
func VerifyPassword(password []byte, stored string) (bool, error) {
	phc, ok := strings.CutPrefix(stored, SchemeArgon2)
	if !ok {
		return false, ErrInvalidHash
	}

	parts := strings.Split(phc, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false, ErrInvalidHash
	}

	var m, t uint32
	var p uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil {
		return false, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, ErrInvalidHash
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, ErrInvalidHash
	}

	hash := argon2.IDKey(password, salt, t, m, p, uint32(len(expected)))
	return subtle.ConstantTimeCompare(hash, expected) == 1, nil
}
