package service

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/UNI-BIG-CAT/gatekeeper/internal/keys/keystest"
	"github.com/UNI-BIG-CAT/gatekeeper/internal/model"
)

var testPayload = model.Payload{AdminID: 42, Token: "0f8e4c1a-7d2b-4b8e-9a51-3c6d2e1f0a99"}

func TestTokenRoundTrip(t *testing.T) {
	m := keystest.Material(t)
	codec := NewTokenCodec(m)

	raw, err := codec.Issue(testPayload)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	got, ok := codec.Verify(raw)
	if !ok {
		t.Fatal("Verify rejected a freshly issued token")
	}
	if got != testPayload {
		t.Errorf("payload = %+v, want %+v", got, testPayload)
	}

	tok, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		t.Fatalf("ParseUnverified: %v", err)
	}
	if tok.Header["kid"] != m.KeyID() {
		t.Errorf("kid = %v, want %s", tok.Header["kid"], m.KeyID())
	}
	claims := tok.Claims.(jwt.MapClaims)
	if _, ok := claims["payload"].(map[string]interface{}); !ok {
		t.Errorf("claims missing payload object: %v", claims)
	}
}

func TestTokenExpiry(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	codec := NewTokenCodec(keystest.Material(t), WithClock(clock))

	raw, err := codec.Issue(testPayload)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	now = now.Add(DefaultTokenLifetime - time.Minute)
	if _, ok := codec.Verify(raw); !ok {
		t.Fatal("token rejected before expiry")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := codec.Verify(raw); ok {
		t.Fatal("token accepted after expiry")
	}
}

func TestTokenRejectsTampering(t *testing.T) {
	codec := NewTokenCodec(keystest.Material(t))
	raw, err := codec.Issue(testPayload)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	parts := strings.Split(raw, ".")

	t.Run("signature", func(t *testing.T) {
		sig, _ := base64.RawURLEncoding.DecodeString(parts[2])
		sig[0] ^= 0xff
		forged := parts[0] + "." + parts[1] + "." + base64.RawURLEncoding.EncodeToString(sig)
		if _, ok := codec.Verify(forged); ok {
			t.Error("flipped signature accepted")
		}
	})

	t.Run("payload", func(t *testing.T) {
		body, _ := base64.RawURLEncoding.DecodeString(parts[1])
		altered := strings.Replace(string(body), `"admin_id":42`, `"admin_id":43`, 1)
		if altered == string(body) {
			t.Fatal("payload replacement did not apply")
		}
		forged := parts[0] + "." + base64.RawURLEncoding.EncodeToString([]byte(altered)) + "." + parts[2]
		if _, ok := codec.Verify(forged); ok {
			t.Error("altered payload accepted")
		}
	})

	t.Run("garbage", func(t *testing.T) {
		for _, raw := range []string{"", "abc", "a.b.c"} {
			if _, ok := codec.Verify(raw); ok {
				t.Errorf("Verify(%q) accepted", raw)
			}
		}
	})
}

func TestTokenRejectsOtherKey(t *testing.T) {
	other := NewTokenCodec(keystest.Fresh(t))
	raw, err := other.Issue(testPayload)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, ok := NewTokenCodec(keystest.Material(t)).Verify(raw); ok {
		t.Error("token signed with a different key accepted")
	}
}

func TestTokenRejectsOtherAlgorithms(t *testing.T) {
	codec := NewTokenCodec(keystest.Material(t))
	claims := tokenClaims{
		Payload: testPayload,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	hs, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign HS256: %v", err)
	}
	if _, ok := codec.Verify(hs); ok {
		t.Error("HS256 token accepted")
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, ok := codec.Verify(none); ok {
		t.Error("alg=none token accepted")
	}
}

func TestTokenRequiresExpiry(t *testing.T) {
	m := keystest.Material(t)
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, tokenClaims{Payload: testPayload})
	raw, err := tok.SignedString(m.SigningKey())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, ok := NewTokenCodec(m).Verify(raw); ok {
		t.Error("token without exp accepted")
	}
}
