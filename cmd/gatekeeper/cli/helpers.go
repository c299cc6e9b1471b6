package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/UNI-BIG-CAT/gatekeeper/internal/cache"
	"github.com/UNI-BIG-CAT/gatekeeper/internal/config"
	"github.com/UNI-BIG-CAT/gatekeeper/internal/errcode"
	"github.com/UNI-BIG-CAT/gatekeeper/internal/keys"
	"github.com/UNI-BIG-CAT/gatekeeper/internal/metrics"
	"github.com/UNI-BIG-CAT/gatekeeper/internal/service"
)

// dataDir holds the --data-dir persistent flag value (set on root command).
var dataDir string

// resolveDataDir returns the data directory from --data-dir, the loaded
// configuration, or ~/.gatekeeper as fallback.
func resolveDataDir(cfg *config.Config) string {
	if dataDir != "" {
		return dataDir
	}
	if cfg != nil && cfg.DataDir != "" {
		return cfg.DataDir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".gatekeeper")
}

// newLogger builds the process logger from log.*. With log.save the output
// is duplicated into log.file. The returned func closes that file.
func newLogger(cfg *config.Config, dev bool) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if dev {
		level = slog.LevelDebug
	}

	var out io.Writer = os.Stderr
	closeFn := func() {}
	if cfg.Log.Save && cfg.Log.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = io.MultiWriter(os.Stderr, f)
		closeFn = func() { f.Close() }
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(out, opts)), closeFn, nil
	}
	return slog.New(slog.NewTextHandler(out, opts)), closeFn, nil
}

// quietLogger is used by short-lived commands that print their own output.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// openStore opens the configured admin store.
func openStore(ctx context.Context, cfg *config.Config) (*config.Store, error) {
	store, err := config.Open(ctx, cfg.Database, resolveDataDir(cfg))
	if err != nil {
		return nil, fmt.Errorf("open admin store: %w", err)
	}
	return store, nil
}

// ---------------------------------------------------------------------------
// Application wiring
// ---------------------------------------------------------------------------

// app is the fully wired service graph shared by serve and mcp.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *config.Store
	cache    *cache.RedisCache
	keys     *keys.Material
	tokens   *service.TokenCodec
	sessions *service.SessionManager
	messages *errcode.Catalog
	metrics  *metrics.Metrics
}

// openApp loads keys and messages, connects the store and cache, and builds
// the session manager. Key or catalogue problems are fatal; an unreachable
// Redis is only logged because cache failures degrade rather than abort.
func openApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	material, err := keys.Load(cfg.Keys.Dir)
	if err != nil {
		return nil, fmt.Errorf("load keys from %s: %w (run: gatekeeper keys generate)", cfg.Keys.Dir, err)
	}
	msgs, err := errcode.Load(cfg.ErrCodes.Dir)
	if err != nil {
		return nil, fmt.Errorf("load error codes: %w", err)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("admin store opened", "driver", store.Driver())

	m := metrics.New()
	client := cache.NewClient(cfg.Redis)
	rc := cache.NewRedisCache(client,
		cache.WithLogger(logger),
		cache.WithErrorHook(m.CacheError),
	)
	if err := rc.Ping(ctx); err != nil {
		logger.Warn("redis unreachable at startup", "addr", cfg.Redis.Addr, "error", err)
	}
	sessions := cache.NewSessionStore(rc, cfg.Session.TTL(), cfg.Session.AtomicWrites)

	tokens := service.NewTokenCodec(material)
	mgr := service.NewSessionManager(
		store,
		sessions,
		service.NewCredentialHasher(material.PasswordKeyDER()),
		tokens,
		service.LogNotifier{Logger: logger},
		logger,
		service.Options{
			Policy: service.Policy(cfg.Session.Policy),
			Events: m,
		},
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		cache:    rc,
		keys:     material,
		tokens:   tokens,
		sessions: mgr,
		messages: msgs,
		metrics:  m,
	}, nil
}

// Close releases the cache and store connections.
func (a *app) Close() error {
	a.cache.Close()
	return a.store.Close()
}

// --- PID file management ---

func pidFilePath(dir string) string {
	return filepath.Join(dir, "gatekeeper.pid")
}

func writePID(dir string, pid int) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(pidFilePath(dir), []byte(strconv.Itoa(pid)), 0644)
}

func readPID(dir string) (int, error) {
	data, err := os.ReadFile(pidFilePath(dir))
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePID(dir string) {
	os.Remove(pidFilePath(dir))
}

func daemonLogPath(dir string) string {
	return filepath.Join(dir, "gatekeeper.log")
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}
