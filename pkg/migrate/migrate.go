package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/pressly/goose/v3"

	"github.com/garagehub/procurement-backend/pkg/logger"
)

// DefaultDir is where `-cmd=create` writes new files; builds embed the same directory.
const DefaultDir = "pkg/migrate/migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// Source returns the migration set: dir on disk when given, otherwise the files compiled into the binary.
func Source(dir string) (fs.FS, error) {
	if dir == "" {
		return fs.Sub(embedded, "migrations")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("migrations dir %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("migrations dir %q is not a directory", dir)
	}
	return os.DirFS(dir), nil
}

// NewProvider binds the procurement schema (Postgres only) to db.
func NewProvider(db *sql.DB, fsys fs.FS) (*goose.Provider, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return provider, nil
}

// Run executes up, down, redo or status and logs each applied step.
func Run(ctx context.Context, provider *goose.Provider, command string, logg *logger.Logger) error {
	switch command {
	case "up":
		results, err := provider.Up(ctx)
		logResults(ctx, logg, results)
		return wrapGoose(command, err)
	case "down":
		result, err := provider.Down(ctx)
		logResults(ctx, logg, []*goose.MigrationResult{result})
		return wrapGoose(command, err)
	case "redo":
		down, err := provider.Down(ctx)
		logResults(ctx, logg, []*goose.MigrationResult{down})
		if err != nil {
			return wrapGoose(command, err)
		}
		up, err := provider.UpByOne(ctx)
		logResults(ctx, logg, []*goose.MigrationResult{up})
		return wrapGoose(command, err)
	case "status":
		statuses, err := provider.Status(ctx)
		if err != nil {
			return wrapGoose(command, err)
		}
		for _, st := range statuses {
			fields := map[string]any{
				"version": st.Source.Version,
				"path":    st.Source.Path,
				"state":   string(st.State),
			}
			if !st.AppliedAt.IsZero() {
				fields["applied_at"] = st.AppliedAt
			}
			logg.Info(logg.WithFields(ctx, fields), "migration status")
		}
		return nil
	default:
		return fmt.Errorf("unsupported goose command %q", command)
	}
}

// MigrateToVersion moves up or down until the database sits at targetVersion.
func MigrateToVersion(ctx context.Context, provider *goose.Provider, targetVersion string, logg *logger.Logger) error {
	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}
	current, err := provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	var results []*goose.MigrationResult
	switch {
	case current == target:
		return nil
	case current < target:
		results, err = provider.UpTo(ctx, target)
	default:
		results, err = provider.DownTo(ctx, target)
	}
	logResults(ctx, logg, results)
	return wrapGoose(fmt.Sprintf("migrate to %d", target), err)
}

func logResults(ctx context.Context, logg *logger.Logger, results []*goose.MigrationResult) {
	for _, res := range results {
		if res == nil || res.Source == nil {
			continue
		}
		logg.Info(logg.WithFields(ctx, map[string]any{
			"version":     res.Source.Version,
			"path":        res.Source.Path,
			"direction":   res.Direction,
			"duration_ms": res.Duration.Milliseconds(),
		}), "migration applied")
	}
}

func wrapGoose(command string, err error) error {
	if err == nil || errors.Is(err, goose.ErrNoNextVersion) || errors.Is(err, goose.ErrNoMigrations) {
		return nil
	}
	return fmt.Errorf("goose %s: %w", command, err)
}
