package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"
)

const migrationUpTemplate = `-- Migration: {{.Name}}
-- Created: {{.Timestamp}}
-- Description: {{.Description}}

-- Write your UP migration SQL here

`

const migrationDownTemplate = `-- Migration: {{.Name}} (Rollback)
-- Created: {{.Timestamp}}
-- Description: Rollback for {{.Description}}

-- Write your DOWN migration SQL here

`

// Migration is one versioned up/down pair found in a source
type Migration struct {
	Version uint
	Name    string
	HasDown bool
}

// BaseName returns the file name without the direction suffix
func (m Migration) BaseName() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

// MigrationFile represents a newly created migration file pair
type MigrationFile struct {
	Version     string
	Name        string
	Description string
	Timestamp   string
	UpPath      string
	DownPath    string
}

// CreateMigration writes the next sequential NNNNNN_name.{up,down}.sql pair
func CreateMigration(migrationsDir, name, description string) (*MigrationFile, error) {
	base := sanitizeName(name)
	if base == "" {
		return nil, errors.New("migration name must contain letters or digits")
	}
	if err := os.MkdirAll(migrationsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	existing, err := ListMigrations(os.DirFS(migrationsDir))
	if err != nil {
		return nil, err
	}
	next := uint(1)
	if n := len(existing); n > 0 {
		next = existing[n-1].Version + 1
	}

	mg := Migration{Version: next, Name: base}
	mf := &MigrationFile{
		Version:     fmt.Sprintf("%06d", next),
		Name:        name,
		Description: description,
		Timestamp:   time.Now().Format(time.RFC3339),
		UpPath:      filepath.Join(migrationsDir, mg.BaseName()+".up.sql"),
		DownPath:    filepath.Join(migrationsDir, mg.BaseName()+".down.sql"),
	}

	if err := createMigrationFile(mf.UpPath, migrationUpTemplate, mf); err != nil {
		return nil, fmt.Errorf("failed to create up migration: %w", err)
	}
	if err := createMigrationFile(mf.DownPath, migrationDownTemplate, mf); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, fmt.Errorf("failed to create down migration: %w", err)
	}
	return mf, nil
}

func createMigrationFile(path, tmplContent string, data *MigrationFile) error {
	tmpl, err := template.New("migration").Parse(tmplContent)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer f.Close()

	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return nil
}

// sanitizeName converts a migration name to a safe file name format
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
	return strings.TrimSuffix(string(result), "_")
}

// ListMigrations returns the migrations of fsys ordered by version.
// Files that do not follow NNNN_name.{up,down}.sql are ignored; a missing
// directory yields an empty list.
func ListMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Migration{}, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	byVersion := make(map[uint]*Migration)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version, name, up, ok := parseFileName(entry.Name())
		if !ok {
			continue
		}
		mg, seen := byVersion[version]
		if !seen {
			mg = &Migration{Version: version, Name: name}
			byVersion[version] = mg
		}
		if !up {
			mg.HasDown = true
		}
	}

	out := make([]Migration, 0, len(byVersion))
	for _, mg := range byVersion {
		out = append(out, *mg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func parseFileName(file string) (version uint, name string, up, ok bool) {
	var base string
	switch {
	case strings.HasSuffix(file, ".up.sql"):
		base, up = strings.TrimSuffix(file, ".up.sql"), true
	case strings.HasSuffix(file, ".down.sql"):
		base = strings.TrimSuffix(file, ".down.sql")
	default:
		return 0, "", false, false
	}
	num, name, found := strings.Cut(base, "_")
	if !found || name == "" {
		return 0, "", false, false
	}
	v, err := strconv.ParseUint(num, 10, 32)
	if err != nil {
		return 0, "", false, false
	}
	return uint(v), name, up, true
}
