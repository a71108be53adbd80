package session

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
)

// NewID generates a cryptographically secure session ID.
// 32 bytes = 256 bits of entropy.
func NewID() (string, error) {
	const size = 32

	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session: failed to generate id: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Sign returns the cookie value for a session ID: "<id>.<mac>".
func Sign(secret []byte, id string) string {
	return id + "." + mac(secret, id)
}

// Verify checks a signed cookie value and returns the session ID it carries.
func Verify(secret []byte, value string) (string, error) {
	i := strings.LastIndexByte(value, '.')
	if i <= 0 || i == len(value)-1 {
		return "", ErrInvalidCookie
	}

	id, sig := value[:i], value[i+1:]
	if !hmac.Equal([]byte(sig), []byte(mac(secret, id))) {
		return "", ErrInvalidCookie
	}
	return id, nil
}

func mac(secret []byte, id string) string {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
