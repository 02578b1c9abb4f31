package revision

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Directory reads and authors migration scripts in a single directory.
//
// Scripts are .sql files whose leading comment block carries directives:
//
//	-- revision: 3f2a9c41d7e0
//	-- parents: 1a2b3c4d5e6f, 9f8e7d6c5b4a
//	-- message: add users table
//
//	CREATE TABLE users (...);
//
// A root revision omits parents (or leaves the directive empty). Everything
// after the header is the upgrade SQL.
type Directory struct {
	path string
}

// NewDirectory returns a Directory rooted at path.
func NewDirectory(path string) *Directory {
	return &Directory{path: path}
}

// Path returns the directory location.
func (d *Directory) Path() string {
	return d.path
}

// Load parses every .sql script in the directory into a Graph.
// An empty or missing directory yields an empty graph.
func (d *Directory) Load() (*Graph, error) {
	entries, err := os.ReadDir(d.path)
	if os.IsNotExist(err) {
		return NewGraph(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("reading script directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	revs := make([]*Revision, 0, len(names))
	for _, name := range names {
		path := filepath.Join(d.path, name)
		r, err := ParseScript(path)
		if err != nil {
			return nil, err
		}
		revs = append(revs, r)
	}
	return NewGraph(revs)
}

// CreateRevision authors a new script with the given parents and returns the
// parsed revision. The id is generated; parents may be empty for a root
// revision or multiple for a merge revision.
func (d *Directory) CreateRevision(message string, parents []string, sql string) (*Revision, error) {
	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return nil, fmt.Errorf("creating script directory: %w", err)
	}

	id := NewID()
	name := fmt.Sprintf("%s_%s.sql", id, slugify(message))
	path := filepath.Join(d.path, name)

	var b strings.Builder
	fmt.Fprintf(&b, "-- revision: %s\n", id)
	fmt.Fprintf(&b, "-- parents: %s\n", strings.Join(parents, ", "))
	fmt.Fprintf(&b, "-- message: %s\n", message)
	b.WriteString("\n")
	if sql != "" {
		b.WriteString(strings.TrimRight(sql, "\n"))
		b.WriteString("\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return nil, fmt.Errorf("writing migration script: %w", err)
	}

	return &Revision{
		ID:      id,
		Parents: append([]string(nil), parents...),
		Message: message,
		Path:    path,
		SQL:     strings.TrimSpace(sql),
	}, nil
}

// ParseScript reads one migration script file.
func ParseScript(path string) (*Revision, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening migration script: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := &Revision{Path: path}
	var body []string
	inHeader := true

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if inHeader {
			trimmed := strings.TrimSpace(line)
			if strings.HasPrefix(trimmed, "--") {
				key, value := splitDirective(trimmed)
				switch key {
				case "revision":
					r.ID = value
				case "parents":
					r.Parents = splitList(value)
				case "message":
					r.Message = value
				}
				continue
			}
			if trimmed == "" {
				continue
			}
			inHeader = false
		}
		body = append(body, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading migration script %s: %w", path, err)
	}
	if r.ID == "" {
		return nil, fmt.Errorf("migration script %s is missing a revision directive", path)
	}
	r.SQL = strings.TrimSpace(strings.Join(body, "\n"))
	return r, nil
}

// NewID returns a fresh 12-character revision identifier.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func splitDirective(line string) (key, value string) {
	line = strings.TrimSpace(strings.TrimPrefix(line, "--"))
	k, v, ok := strings.Cut(line, ":")
	if !ok {
		return "", ""
	}
	return strings.TrimSpace(k), strings.TrimSpace(v)
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func slugify(message string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(message) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('_')
		}
	}
	s := strings.Trim(b.String(), "_")
	if s == "" {
		return "revision"
	}
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
