package keys

import "encoding/base64"

// JWKSet is the JSON Web Key Set published for token verification.
type JWKSet struct {
	Keys []JWK `json:"keys"`
}

// JWK is a single RSA public key in JWK form.
type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use,omitempty"`
	Kid string `json:"kid,omitempty"`
	Alg string `json:"alg,omitempty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKS returns the verification key as a one-entry key set.
func (m *Material) JWKS() JWKSet {
	return JWKSet{Keys: []JWK{{
		Kty: "RSA",
		Use: "sig",
		Alg: "RS256",
		Kid: m.keyID,
		N:   base64.RawURLEncoding.EncodeToString(m.verifyKey.N.Bytes()),
		E:   encodeExponent(m.verifyKey.E),
	}}}
}
