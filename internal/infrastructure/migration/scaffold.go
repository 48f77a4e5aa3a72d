package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Pair names the two files of a scaffolded migration
type Pair struct {
	Version  string
	Base     string
	UpPath   string
	DownPath string
}

// Scaffold writes an empty up/down migration pair into dir, creating
// the directory when needed. Versions are second-resolution
// timestamps, so files sort in creation order.
func Scaffold(dir, name string) (*Pair, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	slug := slugify(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q contains no usable characters", name)
	}

	now := time.Now()
	version := now.Format("20060102150405")
	base := version + "_" + slug
	p := &Pair{
		Version:  version,
		Base:     base,
		UpPath:   filepath.Join(dir, base+".up.sql"),
		DownPath: filepath.Join(dir, base+".down.sql"),
	}

	header := fmt.Sprintf("-- %s\n-- Created %s\n\n", name, now.Format(time.RFC3339))
	if err := os.WriteFile(p.UpPath, []byte(header+"-- Apply the change\n"), 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", p.UpPath, err)
	}
	if err := os.WriteFile(p.DownPath, []byte(header+"-- Undo the change\n"), 0644); err != nil {
		_ = os.Remove(p.UpPath)
		return nil, fmt.Errorf("failed to write %s: %w", p.DownPath, err)
	}
	return p, nil
}

// slugify lowers a free-form name into a file-safe slug: lowercase
// alphanumerics with single underscores between words
func slugify(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
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

// List returns the base names of the migration pairs in dir, sorted.
// A missing directory is an empty list, not an error.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".up.sql"))
	}
	sort.Strings(names)
	return names, nil
}
