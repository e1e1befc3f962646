package store

import (
	"fmt"
	"strings"
)

// Schema bootstrap. Statements are idempotent; the integer primary key
// clause is the only part that differs between dialects.

func (s *Store) migrate() error {
	autoPK := map[string]string{
		"sqlite":   "INTEGER PRIMARY KEY AUTOINCREMENT",
		"postgres": "BIGSERIAL PRIMARY KEY",
		"mysql":    "BIGINT PRIMARY KEY AUTO_INCREMENT",
	}[s.dialect.Name]

	// MySQL has no CREATE INDEX IF NOT EXISTS; duplicates are sniffed below.
	indexClause := "CREATE INDEX IF NOT EXISTS"
	if s.dialect.Name == "mysql" {
		indexClause = "CREATE INDEX"
	}

	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id ` + autoPK + `,
			username VARCHAR(50) UNIQUE NOT NULL,
			password VARCHAR(156) NOT NULL,
			access_level INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS sessions (
			token VARCHAR(36) PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMP NOT NULL
		)`,

		indexClause + ` idx_users_username ON users(username)`,
		indexClause + ` idx_sessions_user_id ON sessions(user_id)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			if strings.Contains(err.Error(), "Duplicate key name") {
				continue
			}
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
