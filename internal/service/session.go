package service

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/UNI-BIG-CAT/gatekeeper/internal/config"
	"github.com/UNI-BIG-CAT/gatekeeper/internal/model"
)

// AdminRepository is the admin record store. *config.Store implements it.
type AdminRepository interface {
	GetAdmin(ctx context.Context, id int64) (*model.Admin, error)
	GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error)
	CreateAdmin(ctx context.Context, admin *model.Admin) error
	SetAdminEnabled(ctx context.Context, id int64, enabled int16) error
	DeleteAdmin(ctx context.Context, id int64) error
}

// SessionStore is the session cache. *cache.SessionStore implements it.
type SessionStore interface {
	PutActivationCode(ctx context.Context, adminID int64, code model.ActivationCode) bool
	ActivationCode(ctx context.Context, adminID int64) (model.ActivationCode, bool)
	DeleteActivationCode(ctx context.Context, adminID int64) bool
	CreateSession(ctx context.Context, adminID int64, token string, profile model.Profile) bool
	CurrentToken(ctx context.Context, adminID int64) (string, bool)
	Profile(ctx context.Context, token string) (model.Profile, bool)
	DeleteProfile(ctx context.Context, token string) bool
	DestroySession(ctx context.Context, adminID int64, token string) bool
}

// Notifier delivers activation codes to new admins.
type Notifier interface {
	SendActivation(ctx context.Context, admin *model.Admin, code string) error
}

// EventRecorder counts authentication outcomes.
type EventRecorder interface {
	AuthEvent(event, outcome string)
}

// Policy decides what happens to an admin's earlier session on a new login.
type Policy string

const (
	// PolicyMulti leaves earlier sessions valid until they expire.
	PolicyMulti Policy = "multi"
	// PolicySingle revokes the previous session before creating a new one.
	PolicySingle Policy = "single"
)

// Options tunes a SessionManager. Zero values select the defaults.
type Options struct {
	Policy   Policy
	NewToken func() string
	Events   EventRecorder
}

// Session is the result of a successful activation or login.
type Session struct {
	Profile     model.Profile
	BearerToken string
}

// SessionManager runs the admin lifecycle: registration, activation, login,
// introspection and logout.
type SessionManager struct {
	admins   AdminRepository
	sessions SessionStore
	hasher   *CredentialHasher
	tokens   *TokenCodec
	notifier Notifier
	logger   *slog.Logger
	opts     Options
}

// NewSessionManager wires the manager. A nil notifier or logger is replaced
// by a no-op.
func NewSessionManager(admins AdminRepository, sessions SessionStore, hasher *CredentialHasher, tokens *TokenCodec, notifier Notifier, logger *slog.Logger, opts Options) *SessionManager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if notifier == nil {
		notifier = LogNotifier{Logger: logger}
	}
	if opts.Policy == "" {
		opts.Policy = PolicyMulti
	}
	if opts.NewToken == nil {
		opts.NewToken = func() string { return uuid.NewString() }
	}
	if opts.Events == nil {
		opts.Events = nopRecorder{}
	}
	return &SessionManager{
		admins:   admins,
		sessions: sessions,
		hasher:   hasher,
		tokens:   tokens,
		notifier: notifier,
		logger:   logger,
		opts:     opts,
	}
}

// ---------------------------------------------------------------------------
// Registration and activation
// ---------------------------------------------------------------------------

// Register creates a pending admin and caches a fresh activation code for it.
// When the code cannot be cached the admin row is removed again, so the email
// can register once the cache is back.
func (m *SessionManager) Register(ctx context.Context, req model.RegisterRequest) (*model.Admin, error) {
	if err := req.Validate(); err != nil {
		m.opts.Events.AuthEvent("register", "invalid")
		return nil, NewValidationError(err)
	}

	admin := &model.Admin{
		RoleID:       model.DefaultRoleID,
		Name:         req.AdminName,
		PasswordHash: m.hasher.Hash(req.Password),
		Email:        req.Email,
		Phone:        req.Phone,
		Enabled:      model.AdminPending,
	}
	if err := m.admins.CreateAdmin(ctx, admin); err != nil {
		if errors.Is(err, config.ErrDuplicate) {
			m.opts.Events.AuthEvent("register", "conflict")
			return nil, ErrEmailTaken
		}
		return nil, storageError(err)
	}

	code := m.opts.NewToken()
	if !m.sessions.PutActivationCode(ctx, admin.ID, model.ActivationCode{Email: admin.Email, Code: code}) {
		m.opts.Events.AuthEvent("register", "error")
		if err := m.admins.DeleteAdmin(ctx, admin.ID); err != nil {
			m.logger.ErrorContext(ctx, "pending admin left without activation code", "admin_id", admin.ID, "error", err)
		}
		return nil, ErrSessionUnavailable
	}
	if err := m.notifier.SendActivation(ctx, admin, code); err != nil {
		m.logger.WarnContext(ctx, "activation notice failed", "admin_id", admin.ID, "error", err)
	}

	m.opts.Events.AuthEvent("register", "ok")
	return admin, nil
}

// Activate redeems code for adminID, enables the admin and starts a session.
// A mismatched code is left in place for another attempt.
func (m *SessionManager) Activate(ctx context.Context, req model.ActivateRequest) (*Session, error) {
	if err := req.Validate(); err != nil {
		return nil, NewValidationError(err)
	}

	pending, ok := m.sessions.ActivationCode(ctx, req.AdminID)
	if !ok {
		m.opts.Events.AuthEvent("activate", "missing")
		return nil, ErrActivationCodeMissing
	}
	if pending.Code != req.Code {
		m.opts.Events.AuthEvent("activate", "mismatch")
		return nil, ErrActivationCodeMismatch
	}

	if err := m.admins.SetAdminEnabled(ctx, req.AdminID, model.AdminEnabled); err != nil {
		return nil, m.lookupError(err)
	}
	admin, err := m.admins.GetAdmin(ctx, req.AdminID)
	if err != nil {
		return nil, m.lookupError(err)
	}
	m.sessions.DeleteActivationCode(ctx, req.AdminID)

	s, err := m.startSession(ctx, admin)
	if err != nil {
		m.opts.Events.AuthEvent("activate", "error")
		return nil, err
	}
	m.opts.Events.AuthEvent("activate", "ok")
	return s, nil
}

// ---------------------------------------------------------------------------
// Login and sessions
// ---------------------------------------------------------------------------

// Login checks the credentials of an enabled admin and starts a session.
func (m *SessionManager) Login(ctx context.Context, req model.LoginRequest) (*Session, error) {
	if err := req.Validate(); err != nil {
		m.opts.Events.AuthEvent("login", "invalid")
		return nil, NewValidationError(err)
	}

	admin, err := m.admins.GetAdminByEmail(ctx, req.Email)
	if err != nil {
		m.opts.Events.AuthEvent("login", "unknown")
		return nil, m.lookupError(err)
	}
	if !m.hasher.Verify(req.Password, admin.PasswordHash) {
		m.opts.Events.AuthEvent("login", "wrong_password")
		return nil, ErrWrongPassword
	}
	if !admin.IsEnabled() {
		m.opts.Events.AuthEvent("login", "not_enabled")
		return nil, ErrNotEnabled
	}

	s, err := m.startSession(ctx, admin)
	if err != nil {
		m.opts.Events.AuthEvent("login", "error")
		return nil, err
	}
	m.opts.Events.AuthEvent("login", "ok")
	return s, nil
}

func (m *SessionManager) startSession(ctx context.Context, admin *model.Admin) (*Session, error) {
	token := m.opts.NewToken()
	profile := admin.Profile()

	if m.opts.Policy == PolicySingle {
		if prev, ok := m.sessions.CurrentToken(ctx, admin.ID); ok {
			m.sessions.DeleteProfile(ctx, prev)
		}
	}
	if !m.sessions.CreateSession(ctx, admin.ID, token, profile) {
		return nil, ErrSessionUnavailable
	}

	bearer, err := m.tokens.Issue(model.Payload{AdminID: admin.ID, Token: token})
	if err != nil {
		return nil, err
	}
	return &Session{Profile: profile, BearerToken: bearer}, nil
}

// Introspect verifies raw and returns the profile of its live session.
func (m *SessionManager) Introspect(ctx context.Context, raw string) (model.Profile, error) {
	p, ok := m.tokens.Verify(raw)
	if !ok {
		return model.Profile{}, ErrUnauthenticated
	}
	return m.IntrospectPayload(ctx, p)
}

// IntrospectPayload returns the profile of an already verified payload's
// session.
func (m *SessionManager) IntrospectPayload(ctx context.Context, p model.Payload) (model.Profile, error) {
	profile, ok := m.sessions.Profile(ctx, p.Token)
	if !ok {
		return model.Profile{}, ErrUnauthenticated
	}
	return profile, nil
}

// Logout removes the session of p. The admin→token index is cleared only while
// it still names p's token. Missing entries are not an error.
func (m *SessionManager) Logout(ctx context.Context, p model.Payload) error {
	m.sessions.DestroySession(ctx, p.AdminID, p.Token)
	m.opts.Events.AuthEvent("logout", "ok")
	return nil
}

// VerifyToken checks only the signature and expiry of raw.
func (m *SessionManager) VerifyToken(raw string) (model.Payload, bool) {
	return m.tokens.Verify(raw)
}

func (m *SessionManager) lookupError(err error) error {
	if errors.Is(err, config.ErrNotFound) {
		return ErrAdminNotFound
	}
	return storageError(err)
}

// ---------------------------------------------------------------------------
// Notifier
// ---------------------------------------------------------------------------

// LogNotifier writes activation codes to the log instead of sending mail.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) SendActivation(ctx context.Context, admin *model.Admin, code string) error {
	n.Logger.InfoContext(ctx, "activation code issued",
		"admin_id", admin.ID,
		"email", admin.Email,
		"code", code,
	)
	return nil
}

type nopRecorder struct{}

func (nopRecorder) AuthEvent(string, string) {}
