// Package secret holds the admin credential material and performs
// constant-time verification against login attempts.
package secret

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"

	"github.com/awnumar/memguard"
	"golang.org/x/crypto/bcrypt"
)

// Credentials is the expected admin username and password material.
// Both live in memguard enclaves so they are encrypted at rest in
// process memory and only decrypted for the duration of a comparison.
type Credentials struct {
	username *memguard.Enclave
	secret   *memguard.Enclave
	// hashed is true when secret holds a bcrypt hash rather than a
	// SHA-256 digest of a plaintext dev password.
	hashed bool
}

// New builds Credentials from config values. passwordHash (bcrypt)
// takes precedence; password is the development fallback.
func New(username, password, passwordHash string) (*Credentials, error) {
	if username == "" {
		return nil, errors.New("admin username must not be empty")
	}
	c := &Credentials{
		username: memguard.NewEnclave(digest(username)),
	}
	switch {
	case passwordHash != "":
		// Fail early on a malformed hash instead of rejecting every
		// future login.
		if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
			return nil, errors.New("admin password_hash is not a valid bcrypt hash")
		}
		c.secret = memguard.NewEnclave([]byte(passwordHash))
		c.hashed = true
	case password != "":
		c.secret = memguard.NewEnclave(digest(password))
	default:
		return nil, errors.New("admin password or password_hash must be set")
	}
	return c, nil
}

// Verify reports whether the candidate username and password match.
// Both comparisons always run; there is no short-circuit that would
// reveal which of the two was wrong through timing.
func (c *Credentials) Verify(username, password string) bool {
	userOK := c.verifyUsername(username)
	passOK := c.verifyPassword(password)
	return userOK && passOK
}

func (c *Credentials) verifyUsername(candidate string) bool {
	buf, err := c.username.Open()
	if err != nil {
		return false
	}
	defer buf.Destroy()
	// Comparing fixed-size digests keeps the comparison independent of
	// input length.
	return subtle.ConstantTimeCompare(buf.Bytes(), digest(candidate)) == 1
}

func (c *Credentials) verifyPassword(candidate string) bool {
	buf, err := c.secret.Open()
	if err != nil {
		return false
	}
	defer buf.Destroy()
	if c.hashed {
		return bcrypt.CompareHashAndPassword(buf.Bytes(), []byte(candidate)) == nil
	}
	return subtle.ConstantTimeCompare(buf.Bytes(), digest(candidate)) == 1
}

func digest(s string) []byte {
	sum := sha256.Sum256([]byte(s))
	return sum[:]
}
