package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"text/template"
	"time"
)

// versionWidth matches the zero padded names golang-migrate's -seq flag writes
const versionWidth = 6

var migrationFileRE = regexp.MustCompile(`^(\d+)_([a-z0-9_]+)\.(up|down)\.sql$`)

var fileTemplate = template.Must(template.New("migration").Parse(`-- Migration: {{.Name}}{{if .Down}} (Rollback){{end}}
-- Created: {{.Created}}
{{- if .Description}}
-- Description: {{.Description}}
{{- end}}

`))

// Migration is one versioned up/down pair found in a source
type Migration struct {
	Version uint64
	Name    string
	HasDown bool
}

// String renders the migration the way its files are named
func (m Migration) String() string {
	return fmt.Sprintf("%0*d_%s", versionWidth, m.Version, m.Name)
}

// MigrationFile describes a freshly created pair
type MigrationFile struct {
	Migration
	Description string
	UpPath      string
	DownPath    string
}

// CreateMigration writes an empty up/down pair numbered one past the highest
// version in dir
func CreateMigration(dir, name, description string) (*MigrationFile, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, errors.New("migration name must contain letters or digits")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	existing, err := ListMigrations(os.DirFS(dir))
	if err != nil {
		return nil, err
	}
	next := uint64(1)
	if n := len(existing); n > 0 {
		next = existing[n-1].Version + 1
	}

	mf := &MigrationFile{
		Migration:   Migration{Version: next, Name: slug, HasDown: true},
		Description: description,
	}
	mf.UpPath = filepath.Join(dir, mf.String()+".up.sql")
	mf.DownPath = filepath.Join(dir, mf.String()+".down.sql")

	created := time.Now().Format(time.RFC3339)
	if err := writeMigrationFile(mf.UpPath, name, description, created, false); err != nil {
		return nil, err
	}
	if err := writeMigrationFile(mf.DownPath, name, description, created, true); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, err
	}
	return mf, nil
}

func writeMigrationFile(path, name, description, created string, down bool) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	return fileTemplate.Execute(f, map[string]any{
		"Name":        name,
		"Description": description,
		"Created":     created,
		"Down":        down,
	})
}

// sanitizeName lowercases name and folds spaces and dashes into single underscores
func sanitizeName(name string) string {
	result := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			result = append(result, c)
		case c >= 'A' && c <= 'Z':
			result = append(result, c+'a'-'A')
		case c == ' ' || c == '-' || c == '_':
			if len(result) > 0 && result[len(result)-1] != '_' {
				result = append(result, '_')
			}
		}
	}
	if len(result) > 0 && result[len(result)-1] == '_' {
		result = result[:len(result)-1]
	}
	return string(result)
}

// ListMigrations returns the versioned migrations in fsys in order.
// A missing directory yields an empty list.
func ListMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Migration{}, nil
		}
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	byVersion := make(map[uint64]*Migration)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := migrationFileRE.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		version, err := strconv.ParseUint(match[1], 10, 64)
		if err != nil {
			continue
		}
		m, ok := byVersion[version]
		if !ok {
			m = &Migration{Version: version, Name: match[2]}
			byVersion[version] = m
		}
		if match[3] == "down" {
			m.HasDown = true
		}
	}

	out := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}
