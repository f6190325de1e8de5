package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"strings"
)

var fileNameRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

const (
	upMarker   = "-- +goose Up"
	downMarker = "-- +goose Down"
)

// ValidateDir checks the migrations under dir on disk.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	return ValidateFS(os.DirFS(dir))
}

// ValidateFS requires every .sql file to be named <14-digit version>_<name>.sql
// with a unique version and an Up section before its Down section.
func ValidateFS(fsys fs.FS) error {
	files, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no migrations found")
	}

	versions := make(map[string]string, len(files))
	for _, name := range files {
		match := fileNameRe.FindStringSubmatch(path.Base(name))
		if match == nil {
			return fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		if prev, dup := versions[match[1]]; dup {
			return fmt.Errorf("migrations %q and %q share version %s", prev, name, match[1])
		}
		versions[match[1]] = name

		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read %q: %w", name, err)
		}
		up := strings.Index(string(body), upMarker)
		down := strings.Index(string(body), downMarker)
		switch {
		case up < 0:
			return fmt.Errorf("migration %q has no %q section", name, upMarker)
		case down < 0:
			return fmt.Errorf("migration %q has no %q section", name, downMarker)
		case down < up:
			return fmt.Errorf("migration %q lists Down before Up", name)
		}
	}
	return nil
}
