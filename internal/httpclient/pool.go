package httpclient

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/BaSui01/eventually/config"
	"github.com/BaSui01/eventually/internal/tlsutil"
	"github.com/BaSui01/eventually/types"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/sync/semaphore"
)

const poolName = "http_client"

// =============================================================================
// 🌐 HTTP 客户端池
// =============================================================================

// Metrics 出站请求指标，由 metrics.Collector 实现
type Metrics interface {
	RecordOutboundRequest(method, host string, status int, duration time.Duration)
	RecordOutboundRetry(host string)
}

// Option 客户端池选项
type Option func(*Pool)

// WithMetrics 注入出站请求指标
func WithMetrics(m Metrics) Option {
	return func(p *Pool) { p.metrics = m }
}

// WithBackoff 设置重试退避的初始与最大间隔
func WithBackoff(initial, maxDelay time.Duration) Option {
	return func(p *Pool) {
		p.initialBackoff = initial
		p.maxBackoff = maxDelay
	}
}

// WithBaseTransport 替换底层 RoundTripper（测试用）
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(p *Pool) { p.base = rt }
}

// Pool 共享的出站 HTTP 客户端。Configure 之后可用，Dispose 之后拒绝获取。
type Pool struct {
	logger  *zap.Logger
	metrics Metrics
	base    http.RoundTripper

	initialBackoff time.Duration
	maxBackoff     time.Duration

	mu        sync.RWMutex
	cfg       config.HTTPClientConfig
	client    *http.Client
	transport *http.Transport
}

// NewPool 创建未配置的客户端池
func NewPool(logger *zap.Logger, opts ...Option) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pool{
		logger:         logger.With(zap.String("component", "http_client")),
		initialBackoff: 200 * time.Millisecond,
		maxBackoff:     5 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Configure 按配置构建客户端；已有客户端时先关闭其空闲连接再替换
func (p *Pool) Configure(cfg config.HTTPClientConfig) error {
	if err := cfg.Validate(); err != nil {
		return types.NewConfigurationError("invalid http client config").WithCause(err)
	}

	var base http.RoundTripper = p.base
	var transport *http.Transport
	if base == nil {
		tr, err := newTransport(cfg)
		if err != nil {
			return err
		}
		transport = tr
		base = tr
	}

	client := &http.Client{
		Transport: &retryTransport{
			base:           base,
			maxRetries:     cfg.MaxRetries,
			poolTimeout:    cfg.PoolTimeout,
			initialBackoff: p.initialBackoff,
			maxBackoff:     p.maxBackoff,
			logger:         p.logger,
			metrics:        p.metrics,
		},
	}
	if !cfg.FollowRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	p.mu.Lock()
	old := p.transport
	p.cfg = cfg
	p.client = client
	p.transport = transport
	p.mu.Unlock()

	if old != nil {
		old.CloseIdleConnections()
	}

	p.logger.Info("http client pool configured",
		zap.Int("max_connections", cfg.MaxConnections),
		zap.Int("max_keepalive", cfg.MaxKeepalive),
		zap.Duration("keepalive_expiry", cfg.KeepaliveExpiry),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Bool("http2", cfg.HTTP2),
	)
	return nil
}

// Client 返回共享客户端；未配置或已释放时返回 POOL_NOT_READY
func (p *Pool) Client(ctx context.Context) (*http.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.client == nil {
		return nil, types.NewPoolNotReadyError(poolName)
	}
	return p.client, nil
}

// WithClient 在作用域内使用共享客户端
func (p *Pool) WithClient(ctx context.Context, fn func(ctx context.Context, c *http.Client) error) error {
	c, err := p.Client(ctx)
	if err != nil {
		return err
	}
	return fn(ctx, c)
}

// Config 当前生效的配置
func (p *Pool) Config() config.HTTPClientConfig {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg
}

// Ready 是否可获取客户端
func (p *Pool) Ready() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.client != nil
}

// Dispose 关闭空闲连接并拒绝后续获取；重复调用无副作用
func (p *Pool) Dispose() {
	p.mu.Lock()
	transport := p.transport
	wasReady := p.client != nil
	p.client = nil
	p.transport = nil
	p.mu.Unlock()

	if transport != nil {
		transport.CloseIdleConnections()
	}
	if wasReady {
		p.logger.Info("http client pool disposed")
	}
}

// =============================================================================
// 🔧 传输层构建
// =============================================================================

// newTransport MaxConnections 为全部 host 共享的连接上限，空闲连接同样占用名额。
// 名额用尽时先关闭空闲连接，再在 PoolTimeout 内等待。
func newTransport(cfg config.HTTPClientConfig) (*http.Transport, error) {
	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: cfg.KeepaliveExpiry,
	}
	limit := semaphore.NewWeighted(int64(cfg.MaxConnections))

	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		TLSClientConfig:       tlsutil.ClientTLSConfig(cfg.VerifySSL),
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		MaxConnsPerHost:       cfg.MaxConnections,
		MaxIdleConns:          cfg.MaxKeepalive,
		MaxIdleConnsPerHost:   cfg.MaxKeepalive,
		IdleConnTimeout:       cfg.KeepaliveExpiry,
		ResponseHeaderTimeout: cfg.ReadTimeout,
		ExpectContinueTimeout: time.Second,
		DisableKeepAlives:     cfg.MaxKeepalive == 0,
	}
	tr.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		if err := acquireConnSlot(ctx, limit, tr, cfg.PoolTimeout); err != nil {
			return nil, err
		}
		conn, err := dialer.DialContext(ctx, network, addr)
		if err != nil {
			limit.Release(1)
			return nil, err
		}
		return &pooledConn{
			Conn:    conn,
			timeout: cfg.WriteTimeout,
			release: sync.OnceFunc(func() { limit.Release(1) }),
		}, nil
	}

	if cfg.HTTP2 {
		if err := http2.ConfigureTransport(tr); err != nil {
			return nil, fmt.Errorf("failed to enable http2: %w", err)
		}
	} else {
		// 非 nil 空 map 关闭 ALPN 协商的 h2
		tr.TLSNextProto = map[string]func(string, *tls.Conn) http.RoundTripper{}
	}
	return tr, nil
}

func acquireConnSlot(ctx context.Context, limit *semaphore.Weighted, tr *http.Transport, timeout time.Duration) error {
	if limit.TryAcquire(1) {
		return nil
	}
	tr.CloseIdleConnections()

	waitCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := limit.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return types.NewPoolExhaustedError(poolName, err)
		}
		return err
	}
	return nil
}

// pooledConn 每次写入前刷新写超时；关闭时归还连接名额
type pooledConn struct {
	net.Conn
	timeout time.Duration
	release func()
}

func (c *pooledConn) Write(b []byte) (int, error) {
	if c.timeout > 0 {
		if err := c.Conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Write(b)
}

func (c *pooledConn) Close() error {
	err := c.Conn.Close()
	c.release()
	return err
}
