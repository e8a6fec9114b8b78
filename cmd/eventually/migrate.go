package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/BaSui01/eventually/internal/migration"
)

// =============================================================================
// Database Migration Commands
// =============================================================================

// runMigrate 解析公共参数并把子命令交给 migration.CLI
func runMigrate(ctx context.Context, args []string) error {
	if len(args) < 1 {
		printMigrateUsage()
		return fmt.Errorf("migrate subcommand is required")
	}

	sub := args[0]
	switch sub {
	case "help", "-h", "--help":
		printMigrateUsage()
		return nil
	case "up", "down", "status", "version", "info", "goto", "force", "reset":
	default:
		printMigrateUsage()
		return fmt.Errorf("unknown migrate subcommand: %s", sub)
	}

	fs := flag.NewFlagSet("migrate "+sub, flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	envDir := fs.String("env-dir", "env_files", "Directory holding .env_base and .env_<env> files")
	dbType := fs.String("db-type", "", "Database type (postgres, mysql, sqlite)")
	dbURL := fs.String("db-url", "", "Database connection URL")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()

	m, err := newMigrator(*configPath, *envDir, *dbType, *dbURL, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close migrator: %v\n", err)
		}
	}()

	return migration.NewCLI(m).Run(ctx, sub, fs.Args())
}

// newMigrator --db-type 与 --db-url 同时给出时直接使用，否则从配置加载
func newMigrator(configPath, envDir, dbType, dbURL string, logger *zap.Logger) (*migration.DefaultMigrator, error) {
	if dbType != "" && dbURL != "" {
		return migration.NewFromURL(dbType, dbURL, logger)
	}

	cfg, err := loadConfig(configPath, envDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dbType != "" {
		cfg.Database.Driver = dbType
	}
	return migration.NewFromConfig(cfg, logger)
}

func printMigrateUsage() {
	fmt.Println(`Database Migration Commands

Usage:
  eventually migrate <subcommand> [options] [args]

Subcommands:
  up        Apply all pending migrations
  down      Rollback the last migration
  status    Show migration status
  version   Show current migration version
  info      Show current and latest versions
  goto <v>  Migrate to a specific version
  force <v> Force set migration version (use with caution)
  reset     Rollback all migrations and re-apply
  help      Show this help message

Options:
  --config <path>     Path to configuration file (YAML)
  --env-dir <dir>     Directory with env files (default: env_files)
  --db-type <type>    Database type: postgres, mysql, sqlite (default: from config)
  --db-url <url>      Database connection URL (default: from config)

Examples:
  eventually migrate up
  eventually migrate status --config /etc/eventually/config.yaml
  eventually migrate goto 2
  eventually migrate force 1
  eventually migrate up --db-type sqlite --db-url "file:eventually.db?mode=rwc"`)
}
