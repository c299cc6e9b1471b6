package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/UNI-BIG-CAT/gatekeeper/internal/errcode"
	"github.com/UNI-BIG-CAT/gatekeeper/internal/model"
)

type contextKeyAuth string

const (
	// AuthPrincipalKey is the context key for the verified token payload.
	AuthPrincipalKey contextKeyAuth = "auth_principal"
	// AuthProfileKey is the context key for the live session profile.
	AuthProfileKey contextKeyAuth = "auth_profile"

	principalHolderKey contextKeyAuth = "principal_holder"
)

// principalHolder lets Authenticate report the admin back to Logger, which
// sits outside it in the chain and never sees the derived context.
type principalHolder struct {
	adminID int64
}

func withPrincipalHolder(ctx context.Context, h *principalHolder) context.Context {
	return context.WithValue(ctx, principalHolderKey, h)
}

// Principal is the identity carried by a verified bearer token.
type Principal struct {
	AdminID int64
	Token   string
}

// Payload converts p back into the token payload form.
func (p *Principal) Payload() model.Payload {
	return model.Payload{AdminID: p.AdminID, Token: p.Token}
}

// TokenVerifier checks a bearer token's signature and expiry.
type TokenVerifier interface {
	Verify(raw string) (model.Payload, bool)
}

// SessionChecker resolves the live session behind a verified payload.
type SessionChecker interface {
	IntrospectPayload(ctx context.Context, p model.Payload) (model.Profile, error)
}

// Authenticate returns an HTTP middleware that verifies the bearer token in
// the Authorization header. The "Bearer " prefix is optional. On success a
// Principal is attached to the request context; it does not check whether the
// session is still live, see RequireLiveSession.
func Authenticate(v TokenVerifier, msgs *errcode.Catalog) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
			if raw == "" {
				writeEnvelope(w, http.StatusUnauthorized, errcode.Unauthenticated, msgs)
				return
			}
			p, ok := v.Verify(raw)
			if !ok {
				writeEnvelope(w, http.StatusUnauthorized, errcode.Unauthenticated, msgs)
				return
			}
			if h, ok := r.Context().Value(principalHolderKey).(*principalHolder); ok {
				h.adminID = p.AdminID
			}
			ctx := context.WithValue(r.Context(), AuthPrincipalKey, &Principal{AdminID: p.AdminID, Token: p.Token})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireLiveSession returns an HTTP middleware that rejects requests whose
// session has been logged out or has expired from the cache. It must be used
// after Authenticate in the middleware chain.
func RequireLiveSession(s SessionChecker, msgs *errcode.Catalog) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := GetPrincipal(r.Context())
			if principal == nil {
				writeEnvelope(w, http.StatusUnauthorized, errcode.Unauthenticated, msgs)
				return
			}
			profile, err := s.IntrospectPayload(r.Context(), principal.Payload())
			if err != nil {
				writeEnvelope(w, http.StatusUnauthorized, errcode.Unauthenticated, msgs)
				return
			}
			ctx := context.WithValue(r.Context(), AuthProfileKey, &profile)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPrincipal extracts the authenticated principal from the context.
// Returns nil if no principal is present (i.e., unauthenticated request).
func GetPrincipal(ctx context.Context) *Principal {
	if p, ok := ctx.Value(AuthPrincipalKey).(*Principal); ok {
		return p
	}
	return nil
}

// GetProfile extracts the live session profile attached by
// RequireLiveSession, or nil.
func GetProfile(ctx context.Context) *model.Profile {
	if p, ok := ctx.Value(AuthProfileKey).(*model.Profile); ok {
		return p
	}
	return nil
}
