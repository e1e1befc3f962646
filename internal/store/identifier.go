package store

import (
	"fmt"
	"regexp"
	"strings"
)

// identifierRegex validates SQL identifiers (column and table names): a
// letter or underscore followed by alphanumerics or underscores.
var identifierRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// sqlReservedWords rejects SQL keywords as identifiers. Parameterization is
// the primary injection defence; this prevents query structure abuse through
// column names arriving from callers.
var sqlReservedWords = map[string]bool{
	"SELECT": true, "INSERT": true, "UPDATE": true, "DELETE": true,
	"DROP": true, "CREATE": true, "ALTER": true, "TRUNCATE": true,
	"UNION": true, "INTO": true, "FROM": true, "WHERE": true,
	"TABLE": true, "DATABASE": true, "GRANT": true, "REVOKE": true,
	"INDEX": true, "VIEW": true, "TRIGGER": true, "SCHEMA": true,
}

// validateIdentifier ensures a single SQL identifier is safe to interpolate.
func validateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(name) > 128 {
		return fmt.Errorf("identifier too long (max 128 chars): %q", name)
	}
	if !identifierRegex.MatchString(name) {
		return fmt.Errorf("invalid identifier %q: must match [a-zA-Z_][a-zA-Z0-9_]*", name)
	}
	if sqlReservedWords[strings.ToUpper(name)] {
		return fmt.Errorf("identifier %q is a SQL reserved word", name)
	}
	return nil
}

// validateColumnRef validates a column reference that may be qualified, e.g.
// "sessions.user_id". Each component is validated independently.
func validateColumnRef(ref string) error {
	parts := strings.Split(ref, ".")
	if len(parts) > 2 {
		return fmt.Errorf("column reference %q has too many parts (max: table.column)", ref)
	}
	for _, part := range parts {
		if err := validateIdentifier(part); err != nil {
			return fmt.Errorf("in column reference %q: %w", ref, err)
		}
	}
	return nil
}

// quoteColumnRef quotes each component of a possibly qualified column
// reference with the dialect's identifier quoting.
func quoteColumnRef(d Dialect, ref string) string {
	parts := strings.Split(ref, ".")
	for i, part := range parts {
		parts[i] = d.Quote(part)
	}
	return strings.Join(parts, ".")
}
