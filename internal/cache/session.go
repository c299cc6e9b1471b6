package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/UNI-BIG-CAT/gatekeeper/internal/model"
)

// Key prefixes of the three session namespaces.
const (
	ActivationCodePrefix = "admin_email_code:"
	AdminTokenPrefix     = "admin_id_token:"
	TokenProfilePrefix   = "admin_cache:"
)

// ActivationCodeTTL is how long an activation code stays redeemable.
const ActivationCodeTTL = 24 * time.Hour

// SessionStore layers the activation-code, admin→token and token→profile
// namespaces over a RedisCache.
type SessionStore struct {
	cache  *RedisCache
	ttl    time.Duration
	atomic bool
}

// NewSessionStore returns a store whose sessions live for ttl. With atomic
// set, the two entries of a session are written in one transaction.
func NewSessionStore(c *RedisCache, ttl time.Duration, atomic bool) *SessionStore {
	return &SessionStore{cache: c, ttl: ttl, atomic: atomic}
}

// TTL returns the session lifetime.
func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}

func activationKey(adminID int64) string {
	return ActivationCodePrefix + strconv.FormatInt(adminID, 10)
}

func adminTokenKey(adminID int64) string {
	return AdminTokenPrefix + strconv.FormatInt(adminID, 10)
}

func profileKey(token string) string {
	return TokenProfilePrefix + token
}

// PutActivationCode caches code for adminID for ActivationCodeTTL.
func (s *SessionStore) PutActivationCode(ctx context.Context, adminID int64, code model.ActivationCode) bool {
	return s.cache.SetWithExpiry(ctx, activationKey(adminID), code, ActivationCodeTTL)
}

// ActivationCode returns the pending code for adminID.
func (s *SessionStore) ActivationCode(ctx context.Context, adminID int64) (model.ActivationCode, bool) {
	var code model.ActivationCode
	ok := s.cache.Get(ctx, activationKey(adminID), &code)
	return code, ok
}

// DeleteActivationCode consumes the pending code for adminID.
func (s *SessionStore) DeleteActivationCode(ctx context.Context, adminID int64) bool {
	return s.cache.Delete(ctx, activationKey(adminID))
}

// CreateSession writes the admin→token and token→profile entries with the
// same TTL. Without atomic writes both are attempted independently and a
// failure of either leaves the other behind; the result is false in that case.
func (s *SessionStore) CreateSession(ctx context.Context, adminID int64, token string, profile model.Profile) bool {
	ref := model.TokenRef{AdminID: adminID, Token: token}
	if s.atomic {
		return s.cache.SetManyWithExpiry(ctx, map[string]interface{}{
			adminTokenKey(adminID): ref,
			profileKey(token):      profile,
		}, s.ttl)
	}
	indexed := s.cache.SetWithExpiry(ctx, adminTokenKey(adminID), ref, s.ttl)
	stored := s.cache.SetWithExpiry(ctx, profileKey(token), profile, s.ttl)
	return indexed && stored
}

// CurrentToken returns the latest session token indexed for adminID.
func (s *SessionStore) CurrentToken(ctx context.Context, adminID int64) (string, bool) {
	var ref model.TokenRef
	if !s.cache.Get(ctx, adminTokenKey(adminID), &ref) {
		return "", false
	}
	return ref.Token, ref.Token != ""
}

// Profile returns the identity snapshot stored under token.
func (s *SessionStore) Profile(ctx context.Context, token string) (model.Profile, bool) {
	var p model.Profile
	ok := s.cache.Get(ctx, profileKey(token), &p)
	return p, ok
}

// DeleteProfile removes only the token→profile entry of token.
func (s *SessionStore) DeleteProfile(ctx context.Context, token string) bool {
	return s.cache.Delete(ctx, profileKey(token))
}

// DestroySession removes the token→profile entry of token, and the admin→token
// index only while it still points at token. A superseded token therefore
// cannot unindex the admin's newer session. The result reflects the
// token→profile deletion.
func (s *SessionStore) DestroySession(ctx context.Context, adminID int64, token string) bool {
	s.cache.DeleteIfEqual(ctx, adminTokenKey(adminID), model.TokenRef{AdminID: adminID, Token: token})
	return s.cache.Delete(ctx, profileKey(token))
}
