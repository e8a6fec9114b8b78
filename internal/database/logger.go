package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// slowQueryThreshold 超过该耗时的语句以 Warn 输出
const slowQueryThreshold = 200 * time.Millisecond

// GormLogger 将 gorm 日志桥接到 zap
type GormLogger struct {
	logger *zap.Logger
	level  gormlogger.LogLevel
}

// NewGormLogger 创建 gorm 日志适配器；echo 为 true 时输出每条 SQL
func NewGormLogger(logger *zap.Logger, echo bool) *GormLogger {
	level := gormlogger.Warn
	if echo {
		level = gormlogger.Info
	}
	return &GormLogger{
		logger: logger.With(zap.String("component", "gorm")).WithOptions(zap.AddCallerSkip(3)),
		level:  level,
	}
}

// LogMode 实现 gormlogger.Interface
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	return &GormLogger{logger: l.logger, level: level}
}

// Info 实现 gormlogger.Interface
func (l *GormLogger) Info(_ context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		l.logger.Info(fmt.Sprintf(msg, args...))
	}
}

// Warn 实现 gormlogger.Interface
func (l *GormLogger) Warn(_ context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		l.logger.Warn(fmt.Sprintf(msg, args...))
	}
}

// Error 实现 gormlogger.Interface
func (l *GormLogger) Error(_ context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		l.logger.Error(fmt.Sprintf(msg, args...))
	}
}

// Trace 实现 gormlogger.Interface
func (l *GormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	// 未找到记录属于正常结果
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		sql, rows := fc()
		l.logger.Error("sql error",
			zap.Error(err),
			zap.String("sql", sql),
			zap.Int64("rows", rows),
			zap.Duration("elapsed", elapsed),
		)
	case elapsed > slowQueryThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.logger.Warn("slow sql",
			zap.String("sql", sql),
			zap.Int64("rows", rows),
			zap.Duration("elapsed", elapsed),
		)
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		l.logger.Debug("sql",
			zap.String("sql", sql),
			zap.Int64("rows", rows),
			zap.Duration("elapsed", elapsed),
		)
	}
}
