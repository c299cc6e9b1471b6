package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/UNI-BIG-CAT/gatekeeper/internal/keys"
	"github.com/UNI-BIG-CAT/gatekeeper/internal/model"
	"github.com/UNI-BIG-CAT/gatekeeper/internal/service"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Inspect bearer tokens",
	}
	cmd.AddCommand(newTokenVerifyCmd())
	return cmd
}

// ---------- token verify ----------

func newTokenVerifyCmd() *cobra.Command {
	var (
		jwksURL string
		live    bool
	)

	cmd := &cobra.Command{
		Use:   "verify <token>",
		Short: "Check a bearer token's signature and expiry",
		Long: `Verify a bearer token against the local signing key, or against a remote
JWK set with --jwks-url. With --live the session cache is also consulted, so a
logged-out token is reported as such.`,
		Example: `  gatekeeper token verify eyJhbGciOi...
  gatekeeper token verify --jwks-url http://localhost:3000/.well-known/jwks.json eyJhbGciOi...
  gatekeeper token verify --live "Bearer eyJhbGciOi..."`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(args[0]), "Bearer "))
			return runTokenVerify(cmd.Context(), raw, jwksURL, live)
		},
	}

	cmd.Flags().StringVar(&jwksURL, "jwks-url", "", "Verify against this JWK set instead of the local key")
	cmd.Flags().BoolVar(&live, "live", false, "Also require a live session in Redis")

	return cmd
}

type verifyResult struct {
	Valid     bool           `json:"valid"`
	Payload   model.Payload  `json:"payload"`
	KeyID     string         `json:"kid,omitempty"`
	ExpiresAt string         `json:"expires_at,omitempty"`
	Session   *model.Profile `json:"session,omitempty"`
}

func runTokenVerify(ctx context.Context, raw, jwksURL string, live bool) error {
	var (
		p   model.Payload
		ok  bool
		err error
	)
	if jwksURL != "" {
		p, ok, err = verifyRemote(raw, jwksURL)
	} else {
		p, ok, err = verifyLocal(raw)
	}
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("token is invalid: bad signature, wrong algorithm, malformed or expired")
	}

	res := verifyResult{Valid: true, Payload: p}
	if tok, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{}); err == nil {
		res.KeyID, _ = tok.Header["kid"].(string)
		if exp, err := tok.Claims.GetExpirationTime(); err == nil && exp != nil {
			res.ExpiresAt = exp.Time.UTC().Format(time.RFC3339)
		}
	}

	if live {
		profile, err := introspectLive(ctx, p)
		if err != nil {
			return fmt.Errorf("signature valid but session is not live: %w", err)
		}
		res.Session = &profile
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func verifyLocal(raw string) (model.Payload, bool, error) {
	cfg, err := loadConfig()
	if err != nil {
		return model.Payload{}, false, err
	}
	m, err := keys.Load(cfg.Keys.Dir)
	if err != nil {
		return model.Payload{}, false, fmt.Errorf("load keys: %w", err)
	}
	p, ok := service.NewTokenCodec(m).Verify(raw)
	return p, ok, nil
}

// verifyRemote checks raw against a published JWK set the way a downstream
// service would.
func verifyRemote(raw, url string) (model.Payload, bool, error) {
	jwks, err := keyfunc.Get(url, keyfunc.Options{RefreshTimeout: 5 * time.Second})
	if err != nil {
		return model.Payload{}, false, fmt.Errorf("fetch JWK set: %w", err)
	}
	defer jwks.EndBackground()

	var claims struct {
		Payload model.Payload `json:"payload"`
		jwt.RegisteredClaims
	}
	tok, err := jwt.ParseWithClaims(raw, &claims, jwks.Keyfunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !tok.Valid || claims.Payload.AdminID <= 0 || claims.Payload.Token == "" {
		return model.Payload{}, false, nil
	}
	return claims.Payload, true, nil
}

func introspectLive(ctx context.Context, p model.Payload) (model.Profile, error) {
	cfg, err := loadConfig()
	if err != nil {
		return model.Profile{}, err
	}
	a, err := openApp(ctx, cfg, quietLogger())
	if err != nil {
		return model.Profile{}, err
	}
	defer a.Close()
	return a.sessions.IntrospectPayload(ctx, p)
}
