// Package keys loads and holds the RSA key material used for credential
// hashing and bearer-token signing.
package keys

import (
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	"github.com/golang-jwt/jwt/v5"
)

// File names expected inside the key directory.
const (
	PasswordPrivateFile = "password-private-key.pem"
	PasswordPublicFile  = "password-public-key.pem"
	JWTPrivateFile      = "jwt-private-key.pem"
	JWTPublicFile       = "jwt-public-key.pem"
)

var ErrKeyMismatch = errors.New("public key does not match private key")

// Material is the immutable set of keys loaded at startup. All accessors are
// safe for concurrent use.
type Material struct {
	passwordKey *rsa.PrivateKey
	passwordDER []byte
	signingKey  *rsa.PrivateKey
	verifyKey   *rsa.PublicKey
	keyID       string
}

// Load reads the four PEM files from dir. Any missing, unparsable or
// mismatched file is an error.
func Load(dir string) (*Material, error) {
	pwPriv, err := readPrivateKey(filepath.Join(dir, PasswordPrivateFile))
	if err != nil {
		return nil, err
	}
	pwPub, err := readPublicKey(filepath.Join(dir, PasswordPublicFile))
	if err != nil {
		return nil, err
	}
	if !pwPub.Equal(&pwPriv.PublicKey) {
		return nil, fmt.Errorf("password key pair: %w", ErrKeyMismatch)
	}

	jwtPriv, err := readPrivateKey(filepath.Join(dir, JWTPrivateFile))
	if err != nil {
		return nil, err
	}
	jwtPub, err := readPublicKey(filepath.Join(dir, JWTPublicFile))
	if err != nil {
		return nil, err
	}
	if !jwtPub.Equal(&jwtPriv.PublicKey) {
		return nil, fmt.Errorf("jwt key pair: %w", ErrKeyMismatch)
	}

	return New(pwPriv, jwtPriv)
}

// New builds Material from already-parsed private keys. The verification key
// is derived from signingKey.
func New(passwordKey, signingKey *rsa.PrivateKey) (*Material, error) {
	if passwordKey == nil || signingKey == nil {
		return nil, errors.New("keys: nil private key")
	}
	der, err := x509.MarshalPKCS8PrivateKey(passwordKey)
	if err != nil {
		return nil, fmt.Errorf("encode password key as PKCS#8: %w", err)
	}
	m := &Material{
		passwordKey: passwordKey,
		passwordDER: der,
		signingKey:  signingKey,
		verifyKey:   &signingKey.PublicKey,
	}
	m.keyID = thumbprint(m.verifyKey)
	return m, nil
}

// PasswordKey returns the password-hash private key.
func (m *Material) PasswordKey() *rsa.PrivateKey { return m.passwordKey }

// PasswordKeyDER returns the PKCS#8 DER encoding of the password-hash private
// key. Callers must not modify the returned slice.
func (m *Material) PasswordKeyDER() []byte { return m.passwordDER }

// SigningKey returns the token-signing private key.
func (m *Material) SigningKey() *rsa.PrivateKey { return m.signingKey }

// VerifyKey returns the token-verification public key.
func (m *Material) VerifyKey() *rsa.PublicKey { return m.verifyKey }

// KeyID returns the RFC 7638 thumbprint of the verification key.
func (m *Material) KeyID() string { return m.keyID }

func readPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return key, nil
}

func readPublicKey(path string) (*rsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return key, nil
}

// thumbprint computes base64url(SHA-256({"e":..,"kty":"RSA","n":..})).
func thumbprint(pub *rsa.PublicKey) string {
	canonical := `{"e":"` + encodeExponent(pub.E) + `","kty":"RSA","n":"` +
		base64.RawURLEncoding.EncodeToString(pub.N.Bytes()) + `"}`
	sum := sha256.Sum256([]byte(canonical))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func encodeExponent(e int) string {
	return base64.RawURLEncoding.EncodeToString(big.NewInt(int64(e)).Bytes())
}
