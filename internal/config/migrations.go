package config

import (
	"context"
	"fmt"
)

var migrations = map[string][]string{
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS admins (
			admin_id INTEGER PRIMARY KEY AUTOINCREMENT,
			role_id INTEGER NOT NULL DEFAULT 1,
			admin_name TEXT NOT NULL DEFAULT '',
			password TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			enabled INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_admins_role_id ON admins(role_id)`,
	},
	DriverPostgres: {
		`CREATE TABLE IF NOT EXISTS admins (
			admin_id SERIAL PRIMARY KEY,
			role_id INTEGER NOT NULL DEFAULT 1,
			admin_name VARCHAR(64) NOT NULL DEFAULT '',
			password VARCHAR(128) NOT NULL,
			email VARCHAR(255) UNIQUE NOT NULL,
			phone VARCHAR(32) NOT NULL DEFAULT '',
			enabled SMALLINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_admins_role_id ON admins(role_id)`,
	},
	DriverMySQL: {
		`CREATE TABLE IF NOT EXISTS admins (
			admin_id INT AUTO_INCREMENT PRIMARY KEY,
			role_id INT NOT NULL DEFAULT 1,
			admin_name VARCHAR(64) NOT NULL DEFAULT '',
			password VARCHAR(128) NOT NULL,
			email VARCHAR(255) NOT NULL,
			phone VARCHAR(32) NOT NULL DEFAULT '',
			enabled SMALLINT NOT NULL DEFAULT 0,
			created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
			updated_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
			UNIQUE KEY uq_admins_email (email),
			KEY idx_admins_role_id (role_id)
		)`,
	},
}

func (s *Store) migrate(ctx context.Context) error {
	stmts, ok := migrations[s.driver]
	if !ok {
		return fmt.Errorf("no migrations for driver %q", s.driver)
	}
	for _, m := range stmts {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
