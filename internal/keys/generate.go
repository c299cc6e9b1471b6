package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultBits is the RSA modulus size used by Generate when bits is zero.
const DefaultBits = 2048

// Generate writes a fresh password-hash key pair and token-signing key pair
// into dir. Private keys are PKCS#8, public keys PKIX. Existing files are
// left alone unless force is set.
func Generate(dir string, bits int, force bool) error {
	if bits == 0 {
		bits = DefaultBits
	}
	if !force {
		for _, name := range []string{PasswordPrivateFile, PasswordPublicFile, JWTPrivateFile, JWTPublicFile} {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", filepath.Join(dir, name))
			} else if !errors.Is(err, fs.ErrNotExist) {
				return err
			}
		}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create key dir: %w", err)
	}

	if err := writePair(dir, PasswordPrivateFile, PasswordPublicFile, bits); err != nil {
		return err
	}
	return writePair(dir, JWTPrivateFile, JWTPublicFile, bits)
}

func writePair(dir, privName, pubName string, bits int) error {
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return fmt.Errorf("generate %s: %w", privName, err)
	}
	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return fmt.Errorf("encode %s: %w", privName, err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return fmt.Errorf("encode %s: %w", pubName, err)
	}

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})
	if err := os.WriteFile(filepath.Join(dir, privName), privPEM, 0600); err != nil {
		return fmt.Errorf("write %s: %w", privName, err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	if err := os.WriteFile(filepath.Join(dir, pubName), pubPEM, 0644); err != nil {
		return fmt.Errorf("write %s: %w", pubName, err)
	}
	return nil
}
