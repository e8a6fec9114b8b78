// =============================================================================
// Eventually 主入口
// =============================================================================
// REST API 服务入口点，包含 HTTP 服务、健康检查、Prometheus 指标与数据库迁移
//
// 使用方法:
//
//	eventually serve                       # 启动服务
//	eventually serve --config config.yaml  # 指定 YAML 配置
//	eventually serve --migrate             # 启动前执行迁移
//	eventually version                     # 显示版本信息
//	eventually health                      # 健康检查
//	eventually migrate up                  # 运行数据库迁移
//	eventually migrate down                # 回滚最后一次迁移
//	eventually migrate status              # 查看迁移状态
//	eventually import --events events.json --images images.json  # 导入 JSON 数据
// =============================================================================

// @title Eventually API
// @version 1.0.0
// @description REST API for products, images and events.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8000
// @BasePath /
// @schemes http https

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/eventually/api/handlers"
	"github.com/BaSui01/eventually/config"
	"github.com/BaSui01/eventually/internal/metrics"
	"github.com/BaSui01/eventually/internal/migration"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func buildInfo() handlers.BuildInfo {
	return handlers.BuildInfo{Version: Version, BuildTime: BuildTime, GitCommit: GitCommit}
}

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx, os.Args[2:])
	case "migrate":
		err = runMigrate(ctx, os.Args[2:])
	case "import":
		err = runImport(ctx, os.Args[2:])
	case "version":
		printVersion()
	case "health":
		err = runHealthCheck(ctx, os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// =============================================================================
// 🖥️ serve 命令
// =============================================================================

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	envDir := fs.String("env-dir", "env_files", "Directory holding .env_base and .env_<env> files")
	runMigrations := fs.Bool("migrate", false, "Apply pending migrations before starting")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath, *envDir)
	if err != nil {
		return err
	}

	logger := initLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting eventually",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
		zap.String("env", cfg.Env.String()),
	)

	if *runMigrations {
		if err := migrateUp(ctx, cfg, logger); err != nil {
			logger.Error("migration failed", zap.Error(err))
			return err
		}
	}

	srv, err := NewServer(cfg, logger, buildInfo(), metrics.NewCollector("eventually", logger))
	if err != nil {
		return err
	}
	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return err
	}

	logger.Info("eventually stopped")
	return nil
}

func loadConfig(configPath, envDir string) (*config.Config, error) {
	loader := config.NewLoader().WithEnvDir(envDir)
	if configPath != "" {
		loader = loader.WithConfigPath(configPath)
	}
	return loader.Load()
}

func migrateUp(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	m, err := migration.NewFromConfig(cfg, logger)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up(ctx)
}

// =============================================================================
// 🏥 健康检查命令
// =============================================================================

func runHealthCheck(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	addr := fs.String("addr", "http://localhost:8000", "Server address")
	timeout := fs.Duration("timeout", 5*time.Second, "Request timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	url := strings.TrimRight(*addr, "/") + "/healthz"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: status %d", resp.StatusCode)
	}

	fmt.Println("OK")
	return nil
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion() {
	fmt.Printf("Eventually %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`Eventually - REST API service

Usage:
  eventually <command> [options]

Commands:
  serve     Start the API server
  migrate   Database migration commands
  import    Import events and images from JSON files
  version   Show version information
  health    Check server health
  help      Show this help message

Options for 'serve':
  --config <path>    Path to configuration file (YAML)
  --env-dir <dir>    Directory with .env_base / .env_<env> (default: env_files)
  --migrate          Apply pending migrations before starting

Options for 'import':
  --events <path>    JSON array of events (title, description, date, time, location, image)
  --images <path>    JSON array of images (path, caption); existing paths are skipped
  --config, --env-dir  As for 'serve'
  --migrate          Apply pending migrations before importing

Migration subcommands:
  migrate up        Apply all pending migrations
  migrate down      Rollback the last migration
  migrate status    Show migration status
  migrate version   Show current migration version
  migrate info      Show current and latest versions
  migrate goto <v>  Migrate to a specific version
  migrate force <v> Force set migration version
  migrate reset     Rollback all migrations and re-apply

Examples:
  eventually serve
  ENV=dev eventually serve --config /etc/eventually/config.yaml
  eventually migrate up
  eventually migrate status
  eventually import --events data/events.json --images data/images.json
  eventually health --addr http://localhost:8000
  eventually version`)
}

// =============================================================================
// 🔧 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	encoding := "json"
	if cfg.Format == "console" {
		encoding = "console"
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}

	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       cfg.Format == "console",
		Encoding:          encoding,
		EncoderConfig:     encoderConfig,
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     !cfg.EnableCaller,
		DisableStacktrace: !cfg.EnableStacktrace,
	}

	logger, err := zapConfig.Build()
	if err != nil {
		// 回退到基本 logger
		logger, _ = zap.NewProduction()
	}
	return logger
}
