package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// =============================================================================
// 🔄 应用生命周期
// =============================================================================

// Hook 一个生命周期阶段；Start 与 Stop 均可为空
type Hook struct {
	Name  string
	Start func(ctx context.Context) error
	Stop  func(ctx context.Context) error
}

// Lifecycle 按注册顺序启动、逆序停止的钩子列表。
// Start 失败时已启动的钩子逆序回滚；Stop 幂等。
type Lifecycle struct {
	logger *zap.Logger

	mu      sync.Mutex
	hooks   []Hook
	started []Hook
	running bool
	stopped bool
}

// New 创建生命周期
func New(logger *zap.Logger) *Lifecycle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lifecycle{logger: logger.With(zap.String("component", "lifecycle"))}
}

// Append 追加钩子；启动后追加返回错误
func (l *Lifecycle) Append(h Hook) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if h.Name == "" {
		return errors.New("lifecycle hook name is required")
	}
	if l.running {
		return fmt.Errorf("cannot append hook %q after start", h.Name)
	}
	for _, existing := range l.hooks {
		if existing.Name == h.Name {
			return fmt.Errorf("duplicate lifecycle hook %q", h.Name)
		}
	}
	l.hooks = append(l.hooks, h)
	return nil
}

// Start 顺序启动全部钩子。某个钩子失败时逆序停止已启动的钩子，
// 返回启动错误与回滚错误的合并结果。
func (l *Lifecycle) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return errors.New("lifecycle already started")
	}
	l.running = true

	for _, h := range l.hooks {
		if h.Start != nil {
			l.logger.Info("starting", zap.String("hook", h.Name))
			if err := h.Start(ctx); err != nil {
				startErr := fmt.Errorf("start %s: %w", h.Name, err)
				l.logger.Error("startup failed, rolling back",
					zap.String("hook", h.Name),
					zap.Error(err),
				)
				rollbackErr := l.stopLocked(ctx)
				return errors.Join(startErr, rollbackErr)
			}
		}
		l.started = append(l.started, h)
	}

	l.logger.Info("startup complete", zap.Int("hooks", len(l.started)))
	return nil
}

// Stop 逆序停止已启动的钩子，汇总所有错误；重复调用返回 nil
func (l *Lifecycle) Stop(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stopLocked(ctx)
}

func (l *Lifecycle) stopLocked(ctx context.Context) error {
	if l.stopped {
		return nil
	}
	l.stopped = true

	var errs []error
	for i := len(l.started) - 1; i >= 0; i-- {
		h := l.started[i]
		if h.Stop == nil {
			continue
		}
		l.logger.Info("stopping", zap.String("hook", h.Name))
		if err := h.Stop(ctx); err != nil {
			l.logger.Error("stop failed", zap.String("hook", h.Name), zap.Error(err))
			errs = append(errs, fmt.Errorf("stop %s: %w", h.Name, err))
		}
	}
	l.started = nil
	return errors.Join(errs...)
}

// Running 是否已启动且尚未停止
func (l *Lifecycle) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running && !l.stopped
}
