package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/BaSui01/eventually/api"
	"go.uber.org/zap"
)

// =============================================================================
// 🏥 健康检查 Handler
// =============================================================================

// HealthCheck 就绪检查项
type HealthCheck interface {
	Name() string
	Check(ctx context.Context) error
}

// HealthStatus 健康状态响应
type HealthStatus struct {
	Status    string                 `json:"status"` // "healthy", "unhealthy"
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult 单个检查结果
type CheckResult struct {
	Status  string `json:"status"` // "pass", "fail"
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// BuildInfo 版本信息
type BuildInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GitCommit string `json:"git_commit"`
}

// HealthHandler 健康检查处理器
type HealthHandler struct {
	logger       *zap.Logger
	build        BuildInfo
	checkTimeout time.Duration

	mu     sync.RWMutex
	checks []HealthCheck
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(logger *zap.Logger, build BuildInfo) *HealthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandler{
		logger:       logger.With(zap.String("component", "health")),
		build:        build,
		checkTimeout: 5 * time.Second,
	}
}

// RegisterCheck 注册就绪检查
func (h *HealthHandler) RegisterCheck(check HealthCheck) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, check)
}

// HandleRoot 处理 GET /api/
func (h *HealthHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, api.RootInfo{
		Message: "Eventually API",
		Version: h.build.Version,
		Docs:    "/docs",
	})
}

// HandleHealth 处理 GET /api/health
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// HandleHealthz 存活探针，只说明进程在运行
func (h *HealthHandler) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthStatus{Status: "healthy", Timestamp: time.Now().UTC()})
}

// HandleReady 就绪探针：所有检查通过返回 200，否则 503
func (h *HealthHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.checkTimeout)
	defer cancel()

	h.mu.RLock()
	checks := make([]HealthCheck, len(h.checks))
	copy(checks, h.checks)
	h.mu.RUnlock()

	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Checks:    make(map[string]CheckResult, len(checks)),
	}

	for _, check := range checks {
		start := time.Now()
		err := check.Check(ctx)
		latency := time.Since(start)

		result := CheckResult{Status: "pass", Latency: latency.String()}
		if err != nil {
			result.Status = "fail"
			result.Message = err.Error()
			status.Status = "unhealthy"

			h.logger.Warn("readiness check failed",
				zap.String("check", check.Name()),
				zap.Duration("latency", latency),
				zap.Error(err),
			)
		}
		status.Checks[check.Name()] = result
	}

	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	WriteJSON(w, code, status)
}

// HandleVersion 处理 GET /version
func (h *HealthHandler) HandleVersion(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.build)
}

// =============================================================================
// 🔧 检查项
// =============================================================================

// CheckFunc 以函数实现 HealthCheck
type CheckFunc struct {
	name string
	fn   func(ctx context.Context) error
}

// NewCheck 创建命名检查项
func NewCheck(name string, fn func(ctx context.Context) error) *CheckFunc {
	return &CheckFunc{name: name, fn: fn}
}

func (c *CheckFunc) Name() string { return c.name }

func (c *CheckFunc) Check(ctx context.Context) error { return c.fn(ctx) }

// ReadyChecker 由连接池实现的就绪状态
type ReadyChecker interface {
	Ready() bool
}

// NewReadyCheck 池未就绪时检查失败
func NewReadyCheck(name string, rc ReadyChecker) *CheckFunc {
	return NewCheck(name, func(context.Context) error {
		if !rc.Ready() {
			return errNotReady(name)
		}
		return nil
	})
}

type errNotReady string

func (e errNotReady) Error() string { return string(e) + " is not ready" }
