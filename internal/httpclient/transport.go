package httpclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/BaSui01/eventually/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

// =============================================================================
// 🔁 重试传输层
// =============================================================================

var errPoolTimeout = errors.New("timed out waiting for a connection")

// retryTransport 仅对瞬时网络错误重试；应用层状态码原样返回，不重试。
// 请求已写出后只重放幂等方法或携带幂等键的请求。重试耗尽后返回最后一次的原始错误。
type retryTransport struct {
	base           http.RoundTripper
	maxRetries     int
	poolTimeout    time.Duration
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *zap.Logger
	metrics        Metrics
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	host := req.URL.Host

	var lastErr error
	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		if attempt > 0 {
			delay := t.backoff(attempt)
			if !t.wait(ctx, delay) {
				return nil, lastErr
			}
			if t.metrics != nil {
				t.metrics.RecordOutboundRetry(host)
			}
			t.logger.Debug("retrying outbound request",
				zap.String("method", req.Method),
				zap.String("host", host),
				zap.Int("attempt", attempt),
				zap.Int("max_retries", t.maxRetries),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
		}

		attemptReq, err := rewind(req, attempt)
		if err != nil {
			// 请求体不可重放
			return nil, lastErr
		}

		start := time.Now()
		resp, written, err := t.roundTripOnce(attemptReq)
		t.record(req.Method, host, resp, time.Since(start))
		if err == nil {
			if attempt > 0 {
				t.logger.Info("outbound request succeeded after retry",
					zap.String("host", host),
					zap.Int("attempt", attempt),
				)
			}
			return resp, nil
		}

		lastErr = err
		if ctx.Err() != nil || !isTransient(err) {
			return nil, err
		}
		if written && !replayable(req) {
			t.logger.Warn("outbound request not retried after being sent",
				zap.String("method", req.Method),
				zap.String("host", host),
				zap.Error(err),
			)
			return nil, err
		}
	}

	t.logger.Warn("outbound request retries exhausted",
		zap.String("method", req.Method),
		zap.String("host", host),
		zap.Int("attempts", t.maxRetries+1),
		zap.Error(lastErr),
	)
	return nil, lastErr
}

// roundTripOnce 单次请求；written 表示请求已完整写出。
// PoolTimeout 内未拿到连接时返回 POOL_EXHAUSTED。
func (t *retryTransport) roundTripOnce(req *http.Request) (*http.Response, bool, error) {
	var written atomic.Bool
	trace := &httptrace.ClientTrace{
		WroteRequest: func(info httptrace.WroteRequestInfo) {
			if info.Err == nil {
				written.Store(true)
			}
		},
	}

	if t.poolTimeout <= 0 {
		resp, err := t.base.RoundTrip(req.WithContext(httptrace.WithClientTrace(req.Context(), trace)))
		return resp, written.Load(), err
	}

	ctx, cancel := context.WithCancelCause(req.Context())
	timer := time.AfterFunc(t.poolTimeout, func() { cancel(errPoolTimeout) })
	trace.GotConn = func(httptrace.GotConnInfo) { timer.Stop() }

	resp, err := t.base.RoundTrip(req.WithContext(httptrace.WithClientTrace(ctx, trace)))
	if err != nil {
		timer.Stop()
		timedOut := errors.Is(context.Cause(ctx), errPoolTimeout)
		cancel(nil)
		if timedOut && !types.IsCode(err, types.ErrPoolExhausted) {
			return nil, written.Load(), types.NewPoolExhaustedError(poolName, err)
		}
		return nil, written.Load(), err
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: func() {
		timer.Stop()
		cancel(nil)
	}}
	return resp, written.Load(), nil
}

// replayable 已送达服务端的请求能否重放：幂等方法或带幂等键
func replayable(req *http.Request) bool {
	switch req.Method {
	case "", http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace,
		http.MethodPut, http.MethodDelete:
		return true
	}
	return req.Header.Get("Idempotency-Key") != "" || req.Header.Get("X-Idempotency-Key") != ""
}

func (t *retryTransport) record(method, host string, resp *http.Response, d time.Duration) {
	if t.metrics == nil {
		return
	}
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	t.metrics.RecordOutboundRequest(method, host, status, d)
}

// backoff 指数退避：initial * 2^(attempt-1)，不超过 maxBackoff
func (t *retryTransport) backoff(attempt int) time.Duration {
	delay := t.initialBackoff << (attempt - 1)
	if delay <= 0 || (t.maxBackoff > 0 && delay > t.maxBackoff) {
		delay = t.maxBackoff
	}
	return delay
}

// wait 等待退避间隔；调用方 ctx 结束或截止时间不足以完成等待时返回 false
func (t *retryTransport) wait(ctx context.Context, delay time.Duration) bool {
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < delay {
		return false
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// rewind 为本次尝试克隆请求并注入追踪头；重试时重置请求体
func rewind(req *http.Request, attempt int) (*http.Request, error) {
	r := req.Clone(req.Context())
	if attempt > 0 && req.Body != nil && req.Body != http.NoBody {
		if req.GetBody == nil {
			return nil, errors.New("request body cannot be replayed")
		}
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		r.Body = body
	}
	otel.GetTextMapPropagator().Inject(r.Context(), propagation.HeaderCarrier(r.Header))
	return r, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel func()
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// =============================================================================
// 🔍 瞬时错误判定
// =============================================================================

// isTransient 连接建立失败、连接被重置/拒绝、EOF 与超时视为瞬时错误。
// 证书错误、ctx 取消与已分类的应用错误不重试。
func isTransient(err error) bool {
	if err == nil {
		return false
	}

	var appErr *types.Error
	if errors.As(err, &appErr) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var certErr *tls.CertificateVerificationError
	var authErr x509.UnknownAuthorityError
	var hostErr x509.HostnameError
	if errors.As(err, &certErr) || errors.As(err, &authErr) || errors.As(err, &hostErr) {
		return false
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) || errors.Is(err, syscall.EPIPE) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTimeout || dnsErr.IsTemporary
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial" || opErr.Op == "read" || opErr.Op == "write"
	}

	// net/http 与 http2 的部分错误只暴露文本
	msg := err.Error()
	for _, s := range []string{
		"connection reset",
		"connection refused",
		"broken pipe",
		"server closed idle connection",
		"transport connection broken",
		"http2: server sent GOAWAY",
		"http2: client connection lost",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
