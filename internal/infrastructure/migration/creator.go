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

const upTemplate = `-- Migration: {{.Name}}
-- Created: {{.Timestamp}}
{{- if .Description}}
-- Description: {{.Description}}
{{- end}}

`

const downTemplate = `-- Migration: {{.Name}} (Rollback)
-- Created: {{.Timestamp}}

`

// versionWidth matches the zero padded prefix of 000001_init_schema.
const versionWidth = 6

// MigrationFile describes a generated up/down pair.
type MigrationFile struct {
	Version     uint
	Name        string
	Description string
	Timestamp   string
	UpPath      string
	DownPath    string
}

// CreateMigration writes the next sequential up/down pair into dir.
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
	var next uint = 1
	if n := len(existing); n > 0 {
		next = existing[n-1].Version + 1
	}

	base := fmt.Sprintf("%0*d_%s", versionWidth, next, slug)
	mf := &MigrationFile{
		Version:     next,
		Name:        slug,
		Description: description,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		UpPath:      filepath.Join(dir, base+".up.sql"),
		DownPath:    filepath.Join(dir, base+".down.sql"),
	}

	if err := writeTemplate(mf.UpPath, upTemplate, mf); err != nil {
		return nil, fmt.Errorf("failed to create up migration: %w", err)
	}
	if err := writeTemplate(mf.DownPath, downTemplate, mf); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, fmt.Errorf("failed to create down migration: %w", err)
	}
	return mf, nil
}

func writeTemplate(path, text string, data *MigrationFile) error {
	tmpl, err := template.New("migration").Parse(text)
	if err != nil {
		return err
	}
	// O_EXCL so a concurrent create never clobbers a pair.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	return tmpl.Execute(f, data)
}

// sanitizeName lower-cases name and collapses separators into single
// underscores, dropping everything else.
func sanitizeName(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			pendingSep = true
		}
	}
	return b.String()
}

// Entry is one migration found in a source directory.
type Entry struct {
	Version uint
	Name    string
	HasDown bool
}

// ListMigrations returns the migrations in fsys ordered by version. Files
// that do not look like NNNNNN_name.{up,down}.sql are ignored; a missing
// directory yields an empty list.
func ListMigrations(fsys fs.FS) ([]Entry, error) {
	dirEntries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	byVersion := make(map[uint]*Entry)
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		version, name, direction, ok := parseFileName(de.Name())
		if !ok {
			continue
		}
		e, seen := byVersion[version]
		if !seen {
			e = &Entry{Version: version, Name: name}
			byVersion[version] = e
		}
		if direction == "down" {
			e.HasDown = true
		}
	}

	out := make([]Entry, 0, len(byVersion))
	for _, e := range byVersion {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func parseFileName(file string) (version uint, name, direction string, ok bool) {
	rest, found := strings.CutSuffix(file, ".sql")
	if !found {
		return 0, "", "", false
	}
	switch {
	case strings.HasSuffix(rest, ".up"):
		direction, rest = "up", strings.TrimSuffix(rest, ".up")
	case strings.HasSuffix(rest, ".down"):
		direction, rest = "down", strings.TrimSuffix(rest, ".down")
	default:
		return 0, "", "", false
	}
	prefix, name, found := strings.Cut(rest, "_")
	if !found || name == "" {
		return 0, "", "", false
	}
	v, err := strconv.ParseUint(prefix, 10, 32)
	if err != nil {
		return 0, "", "", false
	}
	return uint(v), name, direction, true
}
