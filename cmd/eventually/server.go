package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/BaSui01/eventually/api/handlers"
	"github.com/BaSui01/eventually/api/routes"
	"github.com/BaSui01/eventually/config"
	"github.com/BaSui01/eventually/internal/database"
	"github.com/BaSui01/eventually/internal/httpclient"
	"github.com/BaSui01/eventually/internal/lifecycle"
	"github.com/BaSui01/eventually/internal/metrics"
	"github.com/BaSui01/eventually/internal/server"
	"github.com/BaSui01/eventually/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// =============================================================================
// 🖥️ Server
// =============================================================================

// Server 持有全部进程级资源，按生命周期顺序启动：
// database → http_client → telemetry → http_server → metrics_server
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	build  handlers.BuildInfo

	collector   *metrics.Collector
	db          *database.PoolManager
	httpClients *httpclient.Pool
	telemetry   *telemetry.Providers

	api     *server.Manager
	metrics *server.Manager
	lc      *lifecycle.Lifecycle

	limiterCancel context.CancelFunc
}

// NewServer 创建服务器并注册生命周期钩子；collector 由调用方创建以便共享注册表
func NewServer(cfg *config.Config, logger *zap.Logger, build handlers.BuildInfo, collector *metrics.Collector) (*Server, error) {
	s := &Server{
		cfg:       cfg,
		logger:    logger,
		build:     build,
		collector: collector,
		db:        database.NewPoolManager(logger, database.WithStatsObserver(collector)),
		httpClients: httpclient.NewPool(logger,
			httpclient.WithMetrics(collector),
		),
		lc: lifecycle.New(logger),
	}

	hooks := []lifecycle.Hook{
		{
			Name:  "database",
			Start: func(ctx context.Context) error { return s.db.Init(ctx, cfg.Database) },
			Stop:  s.db.Dispose,
		},
		{
			Name:  "http_client",
			Start: func(context.Context) error { return s.httpClients.Configure(cfg.HTTPClient) },
			Stop: func(context.Context) error {
				s.httpClients.Dispose()
				return nil
			},
		},
		{
			Name:  "telemetry",
			Start: s.startTelemetry,
			Stop:  func(ctx context.Context) error { return s.telemetry.Shutdown(ctx) },
		},
		{
			Name:  "http_server",
			Start: s.startHTTPServer,
			Stop:  s.stopHTTPServer,
		},
	}
	if cfg.Server.MetricsPort > 0 {
		hooks = append(hooks, lifecycle.Hook{
			Name:  "metrics_server",
			Start: s.startMetricsServer,
			Stop:  func(ctx context.Context) error { return s.metrics.Shutdown(ctx) },
		})
	}
	for _, h := range hooks {
		if err := s.lc.Append(h); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// =============================================================================
// 🚀 启动与关闭
// =============================================================================

// Start 依次执行全部钩子；任一失败时已启动的部分已回滚
func (s *Server) Start(ctx context.Context) error {
	if err := s.lc.Start(ctx); err != nil {
		return err
	}
	s.logger.Info("all servers started",
		zap.String("addr", s.api.Addr()),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.String("env", s.cfg.Env.String()),
	)
	return nil
}

// Shutdown 逆序停止，优雅期为服务器关闭超时与连接池宽限期之和
func (s *Server) Shutdown() error {
	timeout := s.cfg.Server.ShutdownTimeout + s.cfg.Database.DisposeGrace
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("starting graceful shutdown", zap.Duration("timeout", timeout))
	err := s.lc.Stop(ctx)
	if err != nil {
		s.logger.Error("graceful shutdown finished with errors", zap.Error(err))
	} else {
		s.logger.Info("graceful shutdown completed")
	}
	return err
}

// Run 启动后阻塞到 ctx 结束或服务器异常退出，然后关闭
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}

	var serveErr error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case serveErr = <-s.api.Errors():
	case serveErr = <-s.metricsErrors():
	}
	return errors.Join(serveErr, s.Shutdown())
}

// metricsErrors 未启用 metrics 服务器时返回永不就绪的 channel
func (s *Server) metricsErrors() <-chan error {
	if s.metrics == nil {
		return nil
	}
	return s.metrics.Errors()
}

// Addr API 服务器实际监听地址
func (s *Server) Addr() string {
	if s.api == nil {
		return ""
	}
	return s.api.Addr()
}

// =============================================================================
// 🔧 钩子实现
// =============================================================================

func (s *Server) startTelemetry(ctx context.Context) error {
	p, err := telemetry.Init(ctx, s.cfg.Telemetry, s.cfg.Env, s.logger, telemetry.WithServiceVersion(s.build.Version))
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	s.telemetry = p
	return nil
}

// Handler 构建 API 路由与中间件链
func (s *Server) Handler(ctx context.Context) (http.Handler, error) {
	ew := handlers.ErrorWriter{Logger: s.logger, Debug: s.cfg.Debug}

	health := handlers.NewHealthHandler(s.logger, s.build)
	health.RegisterCheck(handlers.NewCheck("database", s.db.Ping))
	health.RegisterCheck(handlers.NewReadyCheck("http_client", s.httpClients))

	return routes.NewRouter(routes.Deps{
		DB:     s.db,
		Health: health,
		Errors: ew,
		Demo:   !s.cfg.Env.IsProd(),
		Logger: s.logger,
	},
		Recovery(ew),
		RequestID(),
		SecurityHeaders(),
		OTelTracing(),
		RequestLogger(s.logger),
		MetricsMiddleware(s.collector),
		CORS(s.cfg.CORS),
		RateLimiter(ctx, float64(s.cfg.Server.RateLimitRPS), s.cfg.Server.RateLimitBurst, ew),
	)
}

func (s *Server) startHTTPServer(ctx context.Context) error {
	// 限流器的清理 goroutine 跟随服务器，而非启动 ctx
	limiterCtx, cancel := context.WithCancel(context.Background())
	handler, err := s.Handler(limiterCtx)
	if err != nil {
		cancel()
		return err
	}
	s.limiterCancel = cancel

	s.api = server.NewManager("api", handler, server.FromServerConfig(s.cfg.Server, s.cfg.Server.Port), s.logger)
	if err := s.api.Start(ctx); err != nil {
		cancel()
		return err
	}
	return nil
}

func (s *Server) stopHTTPServer(ctx context.Context) error {
	if s.limiterCancel != nil {
		s.limiterCancel()
	}
	return s.api.Shutdown(ctx)
}

func (s *Server) startMetricsServer(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	s.metrics = server.NewManager("metrics", mux, server.FromServerConfig(s.cfg.Server, s.cfg.Server.MetricsPort), s.logger)
	return s.metrics.Start(ctx)
}
