package migrate

import (
	"database/sql"
	"fmt"
	"strings"
)

// Environment is one independently addressable deployment target.
type Environment struct {
	Name string
	URL  string
}

// OpenFunc opens a database connection for a target URL. The caller owns the
// returned handle. Injected so checks and syncs against additional
// environments can be pointed at any driver.
type OpenFunc func(url string) (*sql.DB, error)

// OpenPostgres is the default OpenFunc, backed by the lib/pq driver.
func OpenPostgres(url string) (*sql.DB, error) {
	return sql.Open("postgres", url)
}

// ParseEnvironment parses the "name=url" form used by command-line
// environment arguments.
func ParseEnvironment(arg string) (Environment, error) {
	name, url, ok := strings.Cut(arg, "=")
	name, url = strings.TrimSpace(name), strings.TrimSpace(url)
	if !ok || name == "" || url == "" {
		return Environment{}, fmt.Errorf("environment argument %q must be in name=url form", arg)
	}
	return Environment{Name: name, URL: url}, nil
}
