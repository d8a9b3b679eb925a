package util

import (
	"crypto/rand"
	"fmt"
)

// sessionTokenBytes is the entropy of a session token: 256 bits,
// rendered as 64 lowercase hex characters.
const sessionTokenBytes = 32

func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generating random bytes: %w", err)
	}
	return b, nil
}

// SessionToken returns a new opaque session token drawn from the
// system CSPRNG.
func SessionToken() (string, error) {
	b, err := RandomBytes(sessionTokenBytes)
	if err != nil {
		return "", err
	}
	return HexEncode(b), nil
}
