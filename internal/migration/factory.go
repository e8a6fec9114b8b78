package migration

import (
	"errors"
	"fmt"

	"github.com/BaSui01/eventually/config"
	"go.uber.org/zap"
)

// NewFromConfig 由应用配置创建迁移器
func NewFromConfig(cfg *config.Config, logger *zap.Logger) (*DefaultMigrator, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	return NewFromDatabaseConfig(cfg.Database, logger)
}

// NewFromDatabaseConfig 由数据库配置创建迁移器；连接参数与连接池共用同一份配置
func NewFromDatabaseConfig(db config.DatabaseConfig, logger *zap.Logger) (*DefaultMigrator, error) {
	dbType, err := ParseDatabaseType(db.Driver)
	if err != nil {
		return nil, fmt.Errorf("invalid database type: %w", err)
	}

	var url string
	switch dbType {
	case DatabaseTypePostgres:
		url = BuildDatabaseURL(dbType, db.Host, db.Port, db.Name, db.User, db.Password, db.SSLMode)
	case DatabaseTypeMySQL:
		url = BuildDatabaseURL(dbType, db.Host, db.Port, db.Name, db.User, db.Password, "")
	case DatabaseTypeSQLite:
		url = BuildDatabaseURL(dbType, "", 0, db.Name, "", "", "")
	}

	return NewMigrator(&Config{
		DatabaseType: dbType,
		DatabaseURL:  url,
		Logger:       logger,
	})
}

// NewFromURL 由方言名与连接串创建迁移器
func NewFromURL(dbType, url string, logger *zap.Logger) (*DefaultMigrator, error) {
	t, err := ParseDatabaseType(dbType)
	if err != nil {
		return nil, err
	}
	return NewMigrator(&Config{DatabaseType: t, DatabaseURL: url, Logger: logger})
}
