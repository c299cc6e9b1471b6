package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// CredentialHasher derives the stored form of an admin password. The hash is
// keyed but unsalted: equal passwords produce equal hashes.
type CredentialHasher struct {
	key []byte
}

// NewCredentialHasher keys the hasher with key, normally the PKCS#8 DER of
// the password-hash private key.
func NewCredentialHasher(key []byte) *CredentialHasher {
	return &CredentialHasher{key: key}
}

// Hash returns HMAC-SHA256(key, secret) as 64 uppercase hex characters.
func (h *CredentialHasher) Hash(secret string) string {
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(secret))
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
}

// Verify reports whether secret hashes to stored, in constant time.
func (h *CredentialHasher) Verify(secret, stored string) bool {
	return hmac.Equal([]byte(h.Hash(secret)), []byte(stored))
}
