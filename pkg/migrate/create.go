package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var nonSlugRe = regexp.MustCompile(`[^a-z0-9]+`)

const migrationTemplate = `-- +goose Up
-- +goose StatementBegin
-- %[1]s: write the forward change here
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- %[1]s: undo the forward change here
-- +goose StatementEnd
`

// CreateSQLMigration writes <dir>/<version>_<slug>.sql. The version is the current UTC time,
// bumped past the newest migration already in dir so goose never sees an out-of-order file.
func CreateSQLMigration(dir, name string) (string, error) {
	return createSQLMigrationAt(dir, name, time.Now().UTC())
}

func createSQLMigrationAt(dir, name string, now time.Time) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	slug := strings.Trim(nonSlugRe.ReplaceAllString(strings.ToLower(name), "_"), "_")
	if slug == "" {
		return "", fmt.Errorf("name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	latest, err := latestVersion(os.DirFS(dir))
	if err != nil {
		return "", err
	}
	version := now.Truncate(time.Second)
	if !version.After(latest) {
		version = latest.Add(time.Second)
	}

	filename := version.Format(versionLayout) + "_" + slug + ".sql"
	if !sqlFileRe.MatchString(filename) {
		return "", fmt.Errorf("generated filename %q does not match migration naming", filename)
	}
	body := fmt.Sprintf(migrationTemplate, slug)
	if err := checkAnnotations(filename, body); err != nil {
		return "", err
	}

	fullpath := filepath.Join(dir, filename)
	f, err := os.OpenFile(fullpath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create migration %q: %w", fullpath, err)
	}
	if _, err := f.WriteString(body); err != nil {
		f.Close()
		return "", fmt.Errorf("write migration %q: %w", fullpath, err)
	}
	return fullpath, f.Close()
}

// latestVersion returns the zero time for a directory without migrations.
func latestVersion(fsys fs.FS) (time.Time, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return time.Time{}, fmt.Errorf("read migrations: %w", err)
	}
	var latest time.Time
	for _, e := range entries {
		m := sqlFileRe.FindStringSubmatch(e.Name())
		if e.IsDir() || m == nil {
			continue
		}
		v, err := time.Parse(versionLayout, m[1])
		if err != nil {
			return time.Time{}, fmt.Errorf("migration %q: bad version: %w", e.Name(), err)
		}
		if v.After(latest) {
			latest = v
		}
	}
	return latest, nil
}
