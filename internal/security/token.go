package security

import (
	"crypto/rand"
	"encoding/base64"
)

func NewRandomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// NewTokenPair issues a fresh opaque access/refresh token pair for a login or
// a refresh rotation. Tokens are random bearer secrets, not signed claims; the
// session store resolves them by digest.
func NewTokenPair() (access, refresh string, err error) {
	if access, err = NewRandomString(32); err != nil {
		return "", "", err
	}
	if refresh, err = NewRandomString(32); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}
