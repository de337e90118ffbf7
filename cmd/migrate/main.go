package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/garagehub/procurement-backend/pkg/config"
	"github.com/garagehub/procurement-backend/pkg/db"
	"github.com/garagehub/procurement-backend/pkg/logger"
	"github.com/garagehub/procurement-backend/pkg/migrate"
)

var gooseCommands = map[string]struct{}{
	"up":     {},
	"down":   {},
	"status": {},
	"redo":   {},
}

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: up|down|status|redo|version|create|validate")
	dir := flag.String("dir", "", "migrations directory on disk (default: embedded set; create writes to "+migrate.DefaultDir+")")
	name := flag.String("name", "", "migration name (for create)")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	// create and validate only touch the filesystem
	switch *cmd {
	case "create":
		if *name == "" {
			exitf("missing -name for create")
		}
		target := *dir
		if target == "" {
			target = migrate.DefaultDir
		}
		path, err := migrate.CreateSQLMigration(target, *name)
		if err != nil {
			exitf("failed to create migration: %v", err)
		}
		fmt.Println("created migration:", path)
		return

	case "validate":
		if err := migrate.ValidateDir(*dir); err != nil {
			exitf("migration validation failed: %v", err)
		}
		fmt.Println("migration validation passed")
		return
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{
		"env": cfg.App.Env,
		"cmd": *cmd,
		"dir": *dir,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	if dbClient.Driver() != db.DriverPostgres {
		exitf("goose migrations require %s, got %s", db.DriverPostgres, dbClient.Driver())
	}

	sqlDB, err := dbClient.DB().DB()
	requireResource(ctx, logg, "sql database", err)

	fsys, err := migrate.Source(*dir)
	requireResource(ctx, logg, "migrations source", err)

	provider, err := migrate.NewProvider(sqlDB, fsys)
	requireResource(ctx, logg, "goose provider", err)

	logg.Info(ctx, "migrate ready")

	if _, ok := gooseCommands[*cmd]; ok {
		if err := migrate.Run(ctx, provider, *cmd, logg); err != nil {
			exitf("goose %s failed: %v", *cmd, err)
		}
		return
	}

	if *cmd != "version" {
		exitf("unknown -cmd value: %s", *cmd)
	}
	if *version == "" {
		exitf("missing -version for version command")
	}
	if err := migrate.MigrateToVersion(ctx, provider, *version, logg); err != nil {
		exitf("goose version migrate failed: %v", err)
	}
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
