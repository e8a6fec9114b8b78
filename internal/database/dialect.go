package database

import (
	"fmt"

	"github.com/BaSui01/eventually/config"
	"github.com/BaSui01/eventually/types"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open 按驱动类型构建 gorm 方言，不建立连接
func Open(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	if cfg.Driver == "" {
		return nil, types.NewConfigurationError("database driver not configured")
	}

	dsn := cfg.DSN()
	switch cfg.Driver {
	case "postgres":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	default:
		return nil, types.NewConfigurationError(
			fmt.Sprintf("unsupported database driver: %s (supported: postgres, mysql, sqlite)", cfg.Driver),
		)
	}
}
