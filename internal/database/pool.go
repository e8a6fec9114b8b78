package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BaSui01/eventually/config"
	"github.com/BaSui01/eventually/types"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"gorm.io/gorm"
)

// =============================================================================
// 🗄️ 数据库连接池管理器
// =============================================================================

// poolName 用于错误详情与指标标签
const poolName = "database"

// State 连接池生命周期状态
type State int32

const (
	StateUninitialized State = iota
	StateReady
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// StatsObserver 接收连接池统计，由指标收集器实现
type StatsObserver interface {
	RecordDBPool(pool string, open, inUse, idle, inFlight int)
	RecordDBPoolExhausted(pool string)
}

// Option 连接池管理器选项
type Option func(*PoolManager)

// WithDialector 使用指定方言替代按配置构建的方言（测试注入 sqlmock 时使用）
func WithDialector(d gorm.Dialector) Option {
	return func(pm *PoolManager) { pm.dialector = d }
}

// WithStatsObserver 注册统计观察者
func WithStatsObserver(o StatsObserver) Option {
	return func(pm *PoolManager) { pm.observer = o }
}

// PoolManager 数据库连接池管理器。
// 由生命周期在启动时 Init、关闭时 Dispose，显式传递给需要会话的组件。
type PoolManager struct {
	logger    *zap.Logger
	dialector gorm.Dialector
	observer  StatsObserver

	mu    sync.RWMutex
	state State
	gen   *generation
}

// generation 一次 Init 到 Dispose 之间的全部资源
type generation struct {
	db    *gorm.DB
	sqlDB *sql.DB
	cfg   config.DatabaseConfig
	sem   *semaphore.Weighted

	// inflight 统计已进入获取流程的会话（含等待中）
	inflight sync.WaitGroup
	active   atomic.Int64

	// closing 取消后不再接受新会话；force 取消后进行中会话的 ctx 被取消
	closing     context.Context
	stopAccept  context.CancelFunc
	force       context.Context
	forceCancel context.CancelFunc

	healthDone chan struct{}
}

// NewPoolManager 创建未初始化的连接池管理器
func NewPoolManager(logger *zap.Logger, opts ...Option) *PoolManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	pm := &PoolManager{
		logger: logger.With(zap.String("component", "db_pool")),
	}
	for _, opt := range opts {
		opt(pm)
	}
	return pm
}

// Init 构建连接池并进入 READY。重复 Init（中间没有 Dispose）返回配置错误。
func (pm *PoolManager) Init(ctx context.Context, cfg config.DatabaseConfig) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.state == StateReady {
		return types.NewConfigurationError("database pool already initialized")
	}
	if err := validatePoolBounds(cfg); err != nil {
		return err
	}

	dialector := pm.dialector
	if dialector == nil {
		d, err := Open(cfg)
		if err != nil {
			return err
		}
		dialector = d
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         NewGormLogger(pm.logger, cfg.Echo),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	capacity := cfg.PoolSize + cfg.MaxOverflow
	sqlDB.SetMaxOpenConns(capacity)
	sqlDB.SetMaxIdleConns(cfg.PoolSize)
	sqlDB.SetConnMaxLifetime(cfg.PoolRecycle)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	g := &generation{
		db:    db,
		sqlDB: sqlDB,
		cfg:   cfg,
		sem:   semaphore.NewWeighted(int64(capacity)),
	}
	g.closing, g.stopAccept = context.WithCancel(context.Background())
	g.force, g.forceCancel = context.WithCancel(context.Background())

	if cfg.HealthCheckInterval > 0 {
		g.healthDone = make(chan struct{})
		go pm.healthCheckLoop(g)
	}

	pm.gen = g
	pm.state = StateReady

	pm.logger.Info("database pool initialized",
		zap.String("driver", cfg.Driver),
		zap.Int("pool_size", cfg.PoolSize),
		zap.Int("max_overflow", cfg.MaxOverflow),
		zap.Duration("pool_timeout", cfg.PoolTimeout),
		zap.Duration("pool_recycle", cfg.PoolRecycle),
		zap.Bool("pre_ping", cfg.PoolPrePing),
	)
	return nil
}

func validatePoolBounds(cfg config.DatabaseConfig) error {
	switch {
	case cfg.PoolSize <= 0:
		return types.NewConfigurationError("database pool_size must be positive")
	case cfg.MaxOverflow < 0:
		return types.NewConfigurationError("database max_overflow must not be negative")
	case cfg.PoolTimeout <= 0:
		return types.NewConfigurationError("database pool_timeout must be positive")
	case cfg.PoolRecycle < 0:
		return types.NewConfigurationError("database pool_recycle must not be negative")
	}
	return nil
}

// State 返回当前生命周期状态
func (pm *PoolManager) State() State {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.state
}

// =============================================================================
// 🎯 会话获取
// =============================================================================

// Acquire 获取绑定单个连接的会话，调用方必须 Close。
// 优先使用 WithSession，它保证所有退出路径都会释放。
func (pm *PoolManager) Acquire(ctx context.Context) (*Session, error) {
	pm.mu.RLock()
	if pm.state != StateReady {
		pm.mu.RUnlock()
		return nil, types.NewPoolNotReadyError(poolName)
	}
	g := pm.gen
	g.inflight.Add(1)
	pm.mu.RUnlock()

	if err := pm.acquireSlot(ctx, g); err != nil {
		g.inflight.Done()
		return nil, err
	}

	sessCtx, cancel := context.WithCancel(ctx)
	stopForce := context.AfterFunc(g.force, cancel)

	// 名额之外的连接（如其它 sql.DB 使用方）可能占满底层池，取连接同样受 PoolTimeout 约束
	connCtx, connCancel := context.WithTimeout(sessCtx, g.cfg.PoolTimeout)
	conn, err := g.conn(connCtx)
	timedOut := connCtx.Err() != nil && sessCtx.Err() == nil
	connCancel()
	if err != nil {
		stopForce()
		cancel()
		g.sem.Release(1)
		g.inflight.Done()
		switch {
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case timedOut:
			return nil, pm.exhausted(g, err)
		}
		return nil, fmt.Errorf("failed to acquire database connection: %w", err)
	}

	g.active.Add(1)

	db := g.db.Session(&gorm.Session{NewDB: true, Context: sessCtx})
	db.Statement.ConnPool = conn

	return &Session{
		ctx:    sessCtx,
		db:     db,
		conn:   conn,
		logger: pm.logger,
		release: func() {
			stopForce()
			cancel()
			g.active.Add(-1)
			g.sem.Release(1)
			g.inflight.Done()
		},
	}, nil
}

// acquireSlot 在 PoolTimeout 内等待空闲名额。
// 超时返回 PoolExhausted；调用方 ctx 结束返回其错误；释放中返回 PoolNotReady。
func (pm *PoolManager) acquireSlot(ctx context.Context, g *generation) error {
	waitCtx, cancel := context.WithTimeout(ctx, g.cfg.PoolTimeout)
	defer cancel()
	stop := context.AfterFunc(g.closing, cancel)
	defer stop()

	err := g.sem.Acquire(waitCtx, 1)
	if err == nil {
		return nil
	}

	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case g.closing.Err() != nil:
		return types.NewPoolNotReadyError(poolName)
	default:
		return pm.exhausted(g, err)
	}
}

func (pm *PoolManager) exhausted(g *generation, cause error) error {
	if pm.observer != nil {
		pm.observer.RecordDBPoolExhausted(poolName)
	}
	pm.logger.Warn("database pool exhausted",
		zap.Duration("pool_timeout", g.cfg.PoolTimeout),
		zap.Int64("in_flight", g.active.Load()),
	)
	return types.NewPoolExhaustedError(poolName, cause).
		WithDetail("pool_timeout", g.cfg.PoolTimeout.String())
}

// conn 从 sql.DB 取出连接；开启 PrePing 时探活，失效则丢弃并重试一次
func (g *generation) conn(ctx context.Context) (*sql.Conn, error) {
	conn, err := g.sqlDB.Conn(ctx)
	if err != nil {
		return nil, err
	}
	if !g.cfg.PoolPrePing {
		return conn, nil
	}
	if err := conn.PingContext(ctx); err == nil {
		return conn, nil
	}

	discard(conn)
	conn, err = g.sqlDB.Conn(ctx)
	if err != nil {
		return nil, err
	}
	if err := conn.PingContext(ctx); err != nil {
		discard(conn)
		return nil, fmt.Errorf("pre-ping failed: %w", err)
	}
	return conn, nil
}

// discard 关闭连接且不放回池中
func discard(conn *sql.Conn) {
	_ = conn.Raw(func(any) error { return driver.ErrBadConn })
	_ = conn.Close()
}

// WithSession 在作用域内使用会话，fn 返回（或 panic）后连接一定归还。
// 传给 fn 的 ctx 在强制释放时会被取消，仓储调用应使用该 ctx。
func (pm *PoolManager) WithSession(ctx context.Context, fn func(ctx context.Context, s *Session) error) error {
	s, err := pm.Acquire(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	return fn(s.Context(), s)
}

// =============================================================================
// 🔄 事务管理
// =============================================================================

// TransactionFunc 事务函数类型
type TransactionFunc func(ctx context.Context, s *Session) error

// WithTransaction 在事务中执行函数：返回 nil 提交，返回错误或 panic 回滚
func (pm *PoolManager) WithTransaction(ctx context.Context, fn TransactionFunc) error {
	return pm.WithSession(ctx, func(ctx context.Context, s *Session) (err error) {
		if err := s.Begin(); err != nil {
			return err
		}

		defer func() {
			if r := recover(); r != nil {
				_ = s.Rollback()
				panic(r)
			}
		}()

		if err := fn(ctx, s); err != nil {
			if rbErr := s.Rollback(); rbErr != nil {
				pm.logger.Warn("transaction rollback failed", zap.Error(rbErr))
			}
			return err
		}
		return s.Commit()
	})
}

// WithTransactionRetry 在事务中执行函数，可重试错误（死锁、序列化失败等）最多再重试 maxRetries 次。
// maxRetries <= 0 时只执行一次。
func (pm *PoolManager) WithTransactionRetry(ctx context.Context, maxRetries int, fn TransactionFunc) error {
	attempts := max(maxRetries, 0) + 1

	var lastErr error
	for i := 0; i < attempts; i++ {
		err := pm.WithTransaction(ctx, fn)
		if err == nil {
			return nil
		}

		lastErr = err

		if !isRetryableError(err) {
			return err
		}
		if i == attempts-1 {
			break
		}

		pm.logger.Warn("transaction failed, retrying",
			zap.Int("attempt", i+1),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
		)

		// 指数退避
		backoff := time.Duration(1<<uint(i)) * 100 * time.Millisecond
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("transaction failed after %d attempts: %w", attempts, lastErr)
}

// isRetryableError 判断事务错误是否可重试
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// PostgreSQL: 40001 序列化失败，40P01 死锁
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}

	errMsg := strings.ToLower(err.Error())

	// 死锁
	if strings.Contains(errMsg, "deadlock") {
		return true
	}

	// 序列化失败
	if strings.Contains(errMsg, "serialization failure") || strings.Contains(errMsg, "40001") {
		return true
	}

	// 连接相关错误
	if strings.Contains(errMsg, "connection reset") ||
		strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "broken pipe") {
		return true
	}

	// 锁超时（MySQL 1205）
	if strings.Contains(errMsg, "lock timeout") || strings.Contains(errMsg, "lock wait timeout") {
		return true
	}

	if strings.Contains(errMsg, "bad connection") {
		return true
	}

	return false
}

// =============================================================================
// 🧹 释放
// =============================================================================

// Dispose 停止接受新会话，等待进行中会话至多 DisposeGrace（或 ctx 结束），
// 之后取消剩余会话并关闭连接池。未初始化或已释放时为空操作。
func (pm *PoolManager) Dispose(ctx context.Context) error {
	pm.mu.Lock()
	if pm.state != StateReady {
		pm.mu.Unlock()
		return nil
	}
	g := pm.gen
	pm.gen = nil
	pm.state = StateDisposed
	pm.mu.Unlock()

	g.stopAccept()
	if g.healthDone != nil {
		<-g.healthDone
	}

	drained := make(chan struct{})
	go func() {
		g.inflight.Wait()
		close(drained)
	}()

	grace := g.cfg.DisposeGrace
	if grace <= 0 {
		grace = time.Nanosecond
	}
	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-drained:
	case <-timer.C:
		pm.logger.Warn("dispose grace period elapsed, cancelling in-flight sessions",
			zap.Duration("grace", g.cfg.DisposeGrace),
			zap.Int64("in_flight", g.active.Load()),
		)
	case <-ctx.Done():
		pm.logger.Warn("dispose interrupted, cancelling in-flight sessions",
			zap.Int64("in_flight", g.active.Load()),
			zap.Error(ctx.Err()),
		)
	}
	g.forceCancel()

	pm.logger.Info("closing database pool")
	return g.sqlDB.Close()
}

// =============================================================================
// 🏥 健康检查
// =============================================================================

// Ping 检查数据库连接；与会话共享名额，PoolTimeout 内无空闲名额返回 PoolExhausted
func (pm *PoolManager) Ping(ctx context.Context) error {
	pm.mu.RLock()
	if pm.state != StateReady {
		pm.mu.RUnlock()
		return types.NewPoolNotReadyError(poolName)
	}
	g := pm.gen
	g.inflight.Add(1)
	pm.mu.RUnlock()
	defer g.inflight.Done()

	if err := pm.acquireSlot(ctx, g); err != nil {
		return err
	}
	defer g.sem.Release(1)

	pingCtx, cancel := context.WithTimeout(ctx, g.cfg.PoolTimeout)
	defer cancel()
	return g.sqlDB.PingContext(pingCtx)
}

// healthCheckLoop 健康检查循环，随所属 generation 停止
func (pm *PoolManager) healthCheckLoop(g *generation) {
	defer close(g.healthDone)

	ticker := time.NewTicker(g.cfg.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-g.closing.Done():
			return
		case <-ticker.C:
		}

		// 名额全部被会话占用时跳过探活，只上报统计
		var err error
		pinged := g.sem.TryAcquire(1)
		if pinged {
			ctx, cancel := context.WithTimeout(g.closing, 5*time.Second)
			err = g.sqlDB.PingContext(ctx)
			cancel()
			g.sem.Release(1)
		}

		stats := g.stats()
		switch {
		case !pinged:
			pm.logger.Debug("database health check skipped, pool busy",
				zap.Int64("in_flight_sessions", stats.InFlightSessions),
			)
		case err != nil:
			if g.closing.Err() != nil {
				return
			}
			pm.logger.Error("database health check failed", zap.Error(err))
		default:
			pm.logger.Debug("database health check passed",
				zap.Int("open_connections", stats.OpenConnections),
				zap.Int("in_use", stats.InUse),
				zap.Int("idle", stats.Idle),
				zap.Int64("in_flight_sessions", stats.InFlightSessions),
			)
		}
		if pm.observer != nil {
			pm.observer.RecordDBPool(poolName, stats.OpenConnections, stats.InUse, stats.Idle, int(stats.InFlightSessions))
		}
	}
}

// =============================================================================
// 📊 统计信息
// =============================================================================

// PoolStats 连接池统计信息
type PoolStats struct {
	State              string        `json:"state"`
	Capacity           int           `json:"capacity"`
	InFlightSessions   int64         `json:"in_flight_sessions"`
	MaxOpenConnections int           `json:"max_open_connections"`
	OpenConnections    int           `json:"open_connections"`
	InUse              int           `json:"in_use"`
	Idle               int           `json:"idle"`
	WaitCount          int64         `json:"wait_count"`
	WaitDuration       time.Duration `json:"wait_duration"`
	MaxIdleClosed      int64         `json:"max_idle_closed"`
	MaxLifetimeClosed  int64         `json:"max_lifetime_closed"`
}

// Stats 返回连接池统计；非 READY 时只有 State 字段有值
func (pm *PoolManager) Stats() PoolStats {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	if pm.state != StateReady {
		return PoolStats{State: pm.state.String()}
	}
	return pm.gen.stats()
}

func (g *generation) stats() PoolStats {
	s := g.sqlDB.Stats()
	return PoolStats{
		State:              StateReady.String(),
		Capacity:           g.cfg.PoolSize + g.cfg.MaxOverflow,
		InFlightSessions:   g.active.Load(),
		MaxOpenConnections: s.MaxOpenConnections,
		OpenConnections:    s.OpenConnections,
		InUse:              s.InUse,
		Idle:               s.Idle,
		WaitCount:          s.WaitCount,
		WaitDuration:       s.WaitDuration,
		MaxIdleClosed:      s.MaxIdleClosed,
		MaxLifetimeClosed:  s.MaxLifetimeClosed,
	}
}
