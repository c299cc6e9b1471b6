package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/UNI-BIG-CAT/gatekeeper/internal/model"
)

// Store persists admin accounts. It speaks to SQLite, PostgreSQL or MySQL
// through sqlx; queries are written with ? placeholders and rebound per
// driver.
type Store struct {
	db     *sqlx.DB
	driver string
}

// NewStore opens the embedded SQLite store under dataDir. Pass empty string
// for an in-memory database.
func NewStore(dataDir string) (*Store, error) {
	cfg := DatabaseConfig{Driver: DriverSQLite}
	return Open(context.Background(), cfg, dataDir)
}

// Open connects to the configured database, applies the pool settings and
// runs migrations. For SQLite an empty DSN resolves to gatekeeper.db inside
// dataDir, or an in-memory database when dataDir is also empty.
func Open(ctx context.Context, cfg DatabaseConfig, dataDir string) (*Store, error) {
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLite
	}
	driverName, dsn, err := resolveDSN(cfg, dataDir)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes
	} else {
		if cfg.MaxConnections > 0 {
			db.SetMaxOpenConns(cfg.MaxConnections)
		}
		if cfg.MinConnections > 0 {
			db.SetMaxIdleConns(cfg.MinConnections)
		}
		if cfg.MaxLifetime > 0 {
			db.SetConnMaxLifetime(cfg.MaxLifetime)
		}
		if cfg.IdleTimeout > 0 {
			db.SetConnMaxIdleTime(cfg.IdleTimeout)
		}
	}

	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s: %w", cfg.Driver, err)
	}

	s := &Store{db: db, driver: cfg.Driver}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func resolveDSN(cfg DatabaseConfig, dataDir string) (driverName, dsn string, err error) {
	switch cfg.Driver {
	case DriverSQLite:
		if cfg.DSN != "" {
			return "sqlite", cfg.DSN, nil
		}
		if dataDir == "" {
			return "sqlite", ":memory:?_journal_mode=WAL", nil
		}
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return "", "", fmt.Errorf("create data dir: %w", err)
		}
		return "sqlite", filepath.Join(dataDir, "gatekeeper.db") + "?_journal_mode=WAL&_busy_timeout=5000", nil
	case DriverPostgres:
		return "pgx", cfg.DSN, nil
	case DriverMySQL:
		mc, err := mysql.ParseDSN(cfg.DSN)
		if err != nil {
			return "", "", fmt.Errorf("parse mysql dsn: %w", err)
		}
		// created_at/updated_at are scanned into time.Time.
		mc.ParseTime = true
		return "mysql", mc.FormatDSN(), nil
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Driver returns the configured driver name.
func (s *Store) Driver() string {
	return s.driver
}

// ---------------------------------------------------------------------------
// Admin CRUD
// ---------------------------------------------------------------------------

// CreateAdmin inserts a new admin account. ID, CreatedAt and UpdatedAt are
// populated after a successful insert. A duplicate email yields ErrDuplicate.
func (s *Store) CreateAdmin(ctx context.Context, admin *model.Admin) error {
	now := time.Now().UTC().Truncate(time.Microsecond)
	admin.CreatedAt = now
	admin.UpdatedAt = now

	const q = `INSERT INTO admins
		(role_id, admin_name, password, email, phone, enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	args := []interface{}{
		admin.RoleID, admin.Name, admin.PasswordHash, admin.Email, admin.Phone,
		admin.Enabled, admin.CreatedAt, admin.UpdatedAt,
	}

	if s.driver == DriverPostgres {
		var id int64
		err := s.db.QueryRowxContext(ctx, s.db.Rebind(q+" RETURNING admin_id"), args...).Scan(&id)
		if err != nil {
			return classifyWriteError("insert admin", err)
		}
		admin.ID = id
		return nil
	}

	result, err := s.db.ExecContext(ctx, s.db.Rebind(q), args...)
	if err != nil {
		return classifyWriteError("insert admin", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get admin id: %w", err)
	}
	admin.ID = id
	return nil
}

// GetAdmin returns an admin by id.
func (s *Store) GetAdmin(ctx context.Context, id int64) (*model.Admin, error) {
	var admin model.Admin
	if err := s.db.GetContext(ctx, &admin, s.db.Rebind(selectAdmin+" WHERE admin_id = ?"), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return &admin, nil
}

// GetAdminByEmail returns an admin by email address.
func (s *Store) GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	var admin model.Admin
	if err := s.db.GetContext(ctx, &admin, s.db.Rebind(selectAdmin+" WHERE email = ?"), email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get admin by email: %w", err)
	}
	return &admin, nil
}

// ListAdmins returns all admin accounts ordered by id.
func (s *Store) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	var admins []model.Admin
	if err := s.db.SelectContext(ctx, &admins, selectAdmin+" ORDER BY admin_id"); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

// SetAdminEnabled updates the enabled flag of an admin.
func (s *Store) SetAdminEnabled(ctx context.Context, id int64, enabled int16) error {
	now := time.Now().UTC().Truncate(time.Microsecond)
	result, err := s.db.ExecContext(ctx,
		s.db.Rebind("UPDATE admins SET enabled = ?, updated_at = ? WHERE admin_id = ?"), enabled, now, id)
	if err != nil {
		return fmt.Errorf("update admin enabled: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update admin enabled rows affected: %w", err)
	}
	// MySQL reports 0 affected rows when the value is unchanged, so confirm
	// the row exists before calling it missing.
	if n == 0 {
		if _, err := s.GetAdmin(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// DeleteAdmin removes an admin account. A missing id yields ErrNotFound.
func (s *Store) DeleteAdmin(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM admins WHERE admin_id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete admin rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const selectAdmin = `SELECT admin_id, role_id, admin_name, password, email, phone, enabled, created_at, updated_at FROM admins`

// classifyWriteError maps driver-specific unique violations to ErrDuplicate.
func classifyWriteError(op string, err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
