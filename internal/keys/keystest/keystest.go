// Package keystest provides shared key material for tests. RSA generation is
// slow, so one set is generated per test binary.
package keystest

import (
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"testing"

	"github.com/UNI-BIG-CAT/gatekeeper/internal/keys"
)

var (
	once     sync.Once
	material *keys.Material
	genErr   error
)

// Material returns a process-wide key set, generating it on first use.
func Material(t testing.TB) *keys.Material {
	t.Helper()
	once.Do(func() {
		var pw, sig *rsa.PrivateKey
		if pw, genErr = rsa.GenerateKey(rand.Reader, 2048); genErr != nil {
			return
		}
		if sig, genErr = rsa.GenerateKey(rand.Reader, 2048); genErr != nil {
			return
		}
		material, genErr = keys.New(pw, sig)
	})
	if genErr != nil {
		t.Fatalf("keystest: %v", genErr)
	}
	return material
}

// Fresh returns a newly generated key set, distinct from Material.
func Fresh(t testing.TB) *keys.Material {
	t.Helper()
	pw, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("keystest: %v", err)
	}
	sig, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("keystest: %v", err)
	}
	m, err := keys.New(pw, sig)
	if err != nil {
		t.Fatalf("keystest: %v", err)
	}
	return m
}
