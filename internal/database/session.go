package database

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// =============================================================================
// 🔗 会话
// =============================================================================

// ErrNoTransaction 会话上没有进行中的事务
var ErrNoTransaction = errors.New("no transaction in progress")

// ErrTransactionInProgress 会话上已有进行中的事务
var ErrTransactionInProgress = errors.New("transaction already in progress")

// Session 绑定单个连接的工作单元，由获取它的 goroutine 独占使用，不可并发共享。
// 仓储不提交也不回滚，事务边界由持有会话的调用方决定。
type Session struct {
	ctx    context.Context
	db     *gorm.DB
	tx     *gorm.DB
	conn   *sql.Conn
	logger *zap.Logger

	release func()
	once    sync.Once
	err     error
}

// Context 返回会话作用域的 ctx，池被强制释放时取消
func (s *Session) Context() context.Context { return s.ctx }

// DB 返回当前句柄：事务进行中时为事务句柄
func (s *Session) DB() *gorm.DB {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// InTransaction 是否有进行中的事务
func (s *Session) InTransaction() bool { return s.tx != nil }

// Begin 在会话连接上开启事务
func (s *Session) Begin(opts ...*sql.TxOptions) error {
	if s.tx != nil {
		return ErrTransactionInProgress
	}
	tx := s.db.Begin(opts...)
	if tx.Error != nil {
		return tx.Error
	}
	s.tx = tx
	return nil
}

// Commit 提交事务
func (s *Session) Commit() error {
	if s.tx == nil {
		return ErrNoTransaction
	}
	err := s.tx.Commit().Error
	s.tx = nil
	return err
}

// Rollback 回滚事务
func (s *Session) Rollback() error {
	if s.tx == nil {
		return ErrNoTransaction
	}
	err := s.tx.Rollback().Error
	s.tx = nil
	return err
}

// Close 回滚未提交事务并归还连接；可重复调用
func (s *Session) Close() error {
	s.once.Do(func() {
		if s.tx != nil {
			if err := s.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				s.logger.Warn("rollback on session close failed", zap.Error(err))
			}
		}
		if err := s.conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
			s.err = err
		}
		s.release()
	})
	return s.err
}
