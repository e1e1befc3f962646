package store

import (
	"fmt"
	"strings"
)

// Dialect captures the SQL surface differences between supported drivers:
// placeholder style, identifier quoting, row locking, and how generated keys
// are retrieved.
type Dialect struct {
	Name string

	// Placeholder returns the bind marker for a 1-based parameter index.
	Placeholder func(index int) string

	// Quote returns a safely quoted identifier.
	Quote func(name string) string

	// SupportsForUpdate reports whether SELECT ... FOR UPDATE is available.
	// SQLite has a single writer, so write transactions already serialize.
	SupportsForUpdate bool

	// UseReturning selects INSERT ... RETURNING over LastInsertId for
	// retrieving generated keys.
	UseReturning bool
}

func dollarPlaceholder(index int) string { return fmt.Sprintf("$%d", index) }

func questionPlaceholder(_ int) string { return "?" }

func doubleQuote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func backtickQuote(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

var dialects = map[string]Dialect{
	"sqlite": {
		Name:              "sqlite",
		Placeholder:       questionPlaceholder,
		Quote:             doubleQuote,
		SupportsForUpdate: false,
		UseReturning:      false,
	},
	"postgres": {
		Name:              "postgres",
		Placeholder:       dollarPlaceholder,
		Quote:             doubleQuote,
		SupportsForUpdate: true,
		UseReturning:      true,
	},
	"mysql": {
		Name:              "mysql",
		Placeholder:       questionPlaceholder,
		Quote:             backtickQuote,
		SupportsForUpdate: true,
		UseReturning:      false,
	},
}

// DialectFor returns the dialect for a driver name.
func DialectFor(driver string) (Dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return Dialect{}, fmt.Errorf("unsupported driver %q (supported: sqlite, postgres, mysql)", driver)
	}
	return d, nil
}
