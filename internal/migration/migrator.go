package migration

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BaSui01/eventually/config"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// =============================================================================
// 📦 内嵌迁移文件
// =============================================================================

//go:embed migrations
var migrationsFS embed.FS

// DatabaseType 数据库方言
type DatabaseType string

const (
	DatabaseTypePostgres DatabaseType = "postgres"
	DatabaseTypeMySQL    DatabaseType = "mysql"
	DatabaseTypeSQLite   DatabaseType = "sqlite"
)

// sqlDriverName database/sql 注册名
func (t DatabaseType) sqlDriverName() (string, error) {
	switch t {
	case DatabaseTypePostgres:
		return "postgres", nil
	case DatabaseTypeMySQL:
		return "mysql", nil
	case DatabaseTypeSQLite:
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("unsupported database type: %s", t)
	}
}

// dir 方言对应的内嵌目录
func (t DatabaseType) dir() string {
	return path.Join("migrations", string(t))
}

// MigrationStatus 单个迁移的状态
type MigrationStatus struct {
	Version uint
	Name    string
	Applied bool
	Dirty   bool
}

// MigrationInfo 迁移摘要
type MigrationInfo struct {
	CurrentVersion    uint
	Dirty             bool
	TotalMigrations   int
	AppliedMigrations int
	PendingMigrations int
}

// Config 迁移器配置
type Config struct {
	DatabaseType DatabaseType
	// DatabaseURL 方言相关的连接串，见 BuildDatabaseURL
	DatabaseURL string
	// TableName 版本表名，默认 schema_migrations
	TableName string
	// LockTimeout 获取迁移锁的超时，默认 15s
	LockTimeout time.Duration
	Logger      *zap.Logger
}

// Migrator 版本化 Schema 迁移
type Migrator interface {
	Up(ctx context.Context) error
	Down(ctx context.Context) error
	DownAll(ctx context.Context) error
	// Reset 回滚全部后重新应用
	Reset(ctx context.Context) error
	// Steps 正数前进 n 步，负数回滚 n 步
	Steps(ctx context.Context, n int) error
	Goto(ctx context.Context, version uint) error
	// Force 只改写版本号，不执行 SQL（用于修复 dirty 状态）
	Force(ctx context.Context, version int) error
	Version(ctx context.Context) (uint, bool, error)
	Status(ctx context.Context) ([]MigrationStatus, error)
	Info(ctx context.Context) (*MigrationInfo, error)
	Close() error
}

// =============================================================================
// 🛠️ golang-migrate 实现
// =============================================================================

// DefaultMigrator 基于 golang-migrate 与内嵌 SQL 的迁移器
type DefaultMigrator struct {
	cfg     Config
	logger  *zap.Logger
	db      *sql.DB
	migrate *migrate.Migrate
}

// NewMigrator 打开数据库并构建迁移实例
func NewMigrator(cfg *Config) (*DefaultMigrator, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required")
	}

	c := *cfg
	if c.TableName == "" {
		c.TableName = "schema_migrations"
	}
	if c.LockTimeout == 0 {
		c.LockTimeout = 15 * time.Second
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	m := &DefaultMigrator{
		cfg:    c,
		logger: c.Logger.With(zap.String("component", "migration"), zap.String("dialect", string(c.DatabaseType))),
	}
	if err := m.open(); err != nil {
		if m.db != nil {
			_ = m.db.Close()
		}
		return nil, fmt.Errorf("failed to initialize migrator: %w", err)
	}
	return m, nil
}

func (m *DefaultMigrator) open() error {
	driverName, err := m.cfg.DatabaseType.sqlDriverName()
	if err != nil {
		return err
	}

	m.db, err = sql.Open(driverName, m.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := m.db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	dbDriver, err := m.databaseDriver()
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, m.cfg.DatabaseType.dir())
	if err != nil {
		return fmt.Errorf("failed to create source driver: %w", err)
	}

	m.migrate, err = migrate.NewWithInstance("iofs", src, string(m.cfg.DatabaseType), dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.migrate.LockTimeout = m.cfg.LockTimeout
	m.migrate.Log = &migrateLogger{logger: m.logger}
	return nil
}

func (m *DefaultMigrator) databaseDriver() (database.Driver, error) {
	switch m.cfg.DatabaseType {
	case DatabaseTypePostgres:
		return postgres.WithInstance(m.db, &postgres.Config{MigrationsTable: m.cfg.TableName})
	case DatabaseTypeMySQL:
		return mysql.WithInstance(m.db, &mysql.Config{MigrationsTable: m.cfg.TableName})
	case DatabaseTypeSQLite:
		return sqlite3.WithInstance(m.db, &sqlite3.Config{MigrationsTable: m.cfg.TableName})
	default:
		return nil, fmt.Errorf("unsupported database type: %s", m.cfg.DatabaseType)
	}
}

// run 在后台执行迁移；ctx 结束时通知 golang-migrate 优雅停止
func (m *DefaultMigrator) run(ctx context.Context, op string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		return m.result(op, err)
	case <-ctx.Done():
		select {
		case m.migrate.GracefulStop <- true:
		default:
		}
		<-done
		return ctx.Err()
	}
}

func (m *DefaultMigrator) result(op string, err error) error {
	if err == nil || errors.Is(err, migrate.ErrNoChange) {
		if err != nil {
			m.logger.Debug("no migration to apply", zap.String("op", op))
		}
		return nil
	}
	return fmt.Errorf("migration %s failed: %w", op, err)
}

func (m *DefaultMigrator) Up(ctx context.Context) error {
	return m.run(ctx, "up", m.migrate.Up)
}

func (m *DefaultMigrator) Down(ctx context.Context) error {
	return m.run(ctx, "down", func() error { return m.migrate.Steps(-1) })
}

func (m *DefaultMigrator) DownAll(ctx context.Context) error {
	return m.run(ctx, "down all", m.migrate.Down)
}

func (m *DefaultMigrator) Reset(ctx context.Context) error {
	if err := m.DownAll(ctx); err != nil {
		return err
	}
	return m.Up(ctx)
}

func (m *DefaultMigrator) Steps(ctx context.Context, n int) error {
	if n == 0 {
		return nil
	}
	return m.run(ctx, "steps", func() error { return m.migrate.Steps(n) })
}

func (m *DefaultMigrator) Goto(ctx context.Context, version uint) error {
	return m.run(ctx, "goto", func() error { return m.migrate.Migrate(version) })
}

func (m *DefaultMigrator) Force(ctx context.Context, version int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("migration force failed: %w", err)
	}
	m.logger.Warn("migration version forced", zap.Int("version", version))
	return nil
}

// Version 当前版本；尚未应用任何迁移时返回 0
func (m *DefaultMigrator) Version(ctx context.Context) (uint, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	version, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get version: %w", err)
	}
	return version, dirty, nil
}

func (m *DefaultMigrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	current, dirty, err := m.Version(ctx)
	if err != nil {
		return nil, err
	}
	files, err := availableMigrations(m.cfg.DatabaseType)
	if err != nil {
		return nil, err
	}

	statuses := make([]MigrationStatus, 0, len(files))
	for _, f := range files {
		statuses = append(statuses, MigrationStatus{
			Version: f.version,
			Name:    f.name,
			Applied: f.version <= current,
			Dirty:   dirty && f.version == current,
		})
	}
	return statuses, nil
}

func (m *DefaultMigrator) Info(ctx context.Context) (*MigrationInfo, error) {
	statuses, err := m.Status(ctx)
	if err != nil {
		return nil, err
	}
	current, dirty, err := m.Version(ctx)
	if err != nil {
		return nil, err
	}

	info := &MigrationInfo{CurrentVersion: current, Dirty: dirty, TotalMigrations: len(statuses)}
	for _, s := range statuses {
		if s.Applied {
			info.AppliedMigrations++
		}
	}
	info.PendingMigrations = info.TotalMigrations - info.AppliedMigrations
	return info, nil
}

// Close 释放迁移实例；golang-migrate 会一并关闭底层连接
func (m *DefaultMigrator) Close() error {
	if m.migrate == nil {
		return nil
	}
	srcErr, dbErr := m.migrate.Close()
	return errors.Join(srcErr, dbErr)
}

// =============================================================================
// 📄 迁移文件枚举
// =============================================================================

type migrationFile struct {
	version uint
	name    string
}

// availableMigrations 按版本升序列出内嵌的 *.up.sql（文件名形如 000001_create_products.up.sql）
func availableMigrations(t DatabaseType) ([]migrationFile, error) {
	if _, err := t.sqlDriverName(); err != nil {
		return nil, err
	}
	entries, err := fs.ReadDir(migrationsFS, t.dir())
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	seen := make(map[uint]bool, len(entries))
	files := make([]migrationFile, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		prefix, rest, ok := strings.Cut(name, "_")
		if !ok {
			continue
		}
		v, err := strconv.ParseUint(prefix, 10, 32)
		if err != nil || seen[uint(v)] {
			continue
		}
		seen[uint(v)] = true
		files = append(files, migrationFile{version: uint(v), name: strings.TrimSuffix(rest, ".up.sql")})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].version < files[j].version })
	return files, nil
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// ParseDatabaseType 解析方言名，接受常见别名
func ParseDatabaseType(s string) (DatabaseType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "postgres", "postgresql", "pg":
		return DatabaseTypePostgres, nil
	case "mysql", "mariadb":
		return DatabaseTypeMySQL, nil
	case "sqlite", "sqlite3":
		return DatabaseTypeSQLite, nil
	default:
		return "", fmt.Errorf("unsupported database type: %s", s)
	}
}

// BuildDatabaseURL 按方言拼接迁移用连接串；sqlite 下 database 为文件路径
func BuildDatabaseURL(dbType DatabaseType, host string, port int, database, username, password, sslMode string) string {
	switch dbType {
	case DatabaseTypePostgres:
		if sslMode == "" {
			sslMode = "require"
		}
		return config.PostgresURL(host, port, username, password, database, sslMode)
	case DatabaseTypeMySQL:
		return config.MySQLDSN(host, port, username, password, database, true)
	case DatabaseTypeSQLite:
		return fmt.Sprintf("file:%s?mode=rwc&_foreign_keys=on", database)
	default:
		return ""
	}
}

// migrateLogger 将 golang-migrate 的日志转接到 zap
type migrateLogger struct {
	logger *zap.Logger
}

func (l *migrateLogger) Printf(format string, v ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l *migrateLogger) Verbose() bool {
	return l.logger.Core().Enabled(zap.DebugLevel)
}
