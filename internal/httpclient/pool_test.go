package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/http/httptrace"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/BaSui01/eventually/config"
	"github.com/BaSui01/eventually/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// =============================================================================
// 🧪 测试辅助
// =============================================================================

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func okResponse(r *http.Request) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{},
		Body:       io.NopCloser(http.NoBody),
		Request:    r,
	}
}

type countingMetrics struct {
	mu       sync.Mutex
	requests int
	retries  int
	statuses []int
}

func (m *countingMetrics) RecordOutboundRequest(_, _ string, status int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests++
	m.statuses = append(m.statuses, status)
}

func (m *countingMetrics) RecordOutboundRetry(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retries++
}

func testConfig() config.HTTPClientConfig {
	cfg := config.DefaultHTTPClientConfig()
	cfg.ConnectTimeout = time.Second
	cfg.ReadTimeout = 2 * time.Second
	cfg.WriteTimeout = 2 * time.Second
	cfg.PoolTimeout = 2 * time.Second
	cfg.HTTP2 = false
	return cfg
}

func newTestPool(t *testing.T, cfg config.HTTPClientConfig, opts ...Option) *Pool {
	t.Helper()
	opts = append([]Option{WithBackoff(time.Millisecond, 5*time.Millisecond)}, opts...)
	p := NewPool(zap.NewNop(), opts...)
	require.NoError(t, p.Configure(cfg))
	t.Cleanup(p.Dispose)
	return p
}

// flakyServer 前 failures 次请求直接断开连接，之后返回 JSON
func flakyServer(t *testing.T, failures int32) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= failures {
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			_ = conn.Close()
			return
		}
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "echo": string(body)})
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

// =============================================================================
// 🧪 生命周期
// =============================================================================

func TestPool_NotReadyBeforeConfigure(t *testing.T) {
	p := NewPool(zap.NewNop())

	_, err := p.Client(context.Background())
	assert.True(t, types.IsCode(err, types.ErrPoolNotReady))
	assert.False(t, p.Ready())
}

func TestPool_ConfigureInvalid(t *testing.T) {
	p := NewPool(zap.NewNop())

	cfg := testConfig()
	cfg.MaxConnections = 0
	err := p.Configure(cfg)
	assert.True(t, types.IsCode(err, types.ErrConfiguration))
	assert.False(t, p.Ready())
}

func TestPool_DisposeIdempotent(t *testing.T) {
	p := NewPool(zap.NewNop())
	require.NoError(t, p.Configure(testConfig()))
	require.True(t, p.Ready())

	p.Dispose()
	p.Dispose()

	_, err := p.Client(context.Background())
	assert.True(t, types.IsCode(err, types.ErrPoolNotReady))

	err = p.WithClient(context.Background(), func(context.Context, *http.Client) error {
		t.Fatal("fn must not run after dispose")
		return nil
	})
	assert.True(t, types.IsCode(err, types.ErrPoolNotReady))

	// 重新配置后恢复可用
	require.NoError(t, p.Configure(testConfig()))
	assert.True(t, p.Ready())
	p.Dispose()
}

func TestPool_ReconfigureReplacesClient(t *testing.T) {
	p := newTestPool(t, testConfig())
	first, err := p.Client(context.Background())
	require.NoError(t, err)

	cfg := testConfig()
	cfg.MaxRetries = 1
	require.NoError(t, p.Configure(cfg))

	second, err := p.Client(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, 1, p.Config().MaxRetries)
}

func TestPool_ClientHonoursCancelledContext(t *testing.T) {
	p := newTestPool(t, testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Client(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// =============================================================================
// 🧪 重试策略
// =============================================================================

func TestPool_RetriesTransientFailures(t *testing.T) {
	srv, hits := flakyServer(t, 2)

	cfg := testConfig()
	cfg.MaxRetries = 3
	m := &countingMetrics{}
	p := newTestPool(t, cfg, WithMetrics(m))

	var out struct {
		OK bool `json:"ok"`
	}
	resp, err := p.FetchURL(context.Background(), srv.URL, FetchOptions{Out: &out})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, out.OK)
	assert.Equal(t, int32(3), hits.Load())

	assert.Equal(t, 3, m.requests)
	assert.Equal(t, 2, m.retries)
	assert.Equal(t, []int{0, 0, http.StatusOK}, m.statuses)
}

func TestPool_ReplaysRequestBody(t *testing.T) {
	srv, hits := flakyServer(t, 1)

	cfg := testConfig()
	cfg.MaxRetries = 2
	p := newTestPool(t, cfg)

	var out struct {
		Echo string `json:"echo"`
	}
	_, err := p.FetchURL(context.Background(), srv.URL, FetchOptions{
		Method: http.MethodPost,
		Header: http.Header{"Idempotency-Key": []string{"order-42"}},
		JSON:   map[string]string{"name": "widget"},
		Out:    &out,
	})
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
	assert.JSONEq(t, `{"name":"widget"}`, out.Echo)
}

// droppingServer 读完请求体后断开连接，不返回响应
func droppingServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = io.ReadAll(r.Body)
		conn, _, err := http.NewResponseController(w).Hijack()
		if err != nil {
			return
		}
		_ = conn.Close()
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestPool_SentPostNotReplayed(t *testing.T) {
	srv, hits := droppingServer(t)

	cfg := testConfig()
	cfg.MaxRetries = 3
	m := &countingMetrics{}
	p := newTestPool(t, cfg, WithMetrics(m))

	_, err := p.FetchURL(context.Background(), srv.URL+"/orders", FetchOptions{
		Method: http.MethodPost,
		JSON:   map[string]int{"qty": 1},
	})
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load(), "server must see the order once")
	assert.Zero(t, m.retries)
}

func TestPool_SentRequestReplayedWhenIdempotent(t *testing.T) {
	tests := []struct {
		name   string
		method string
		header http.Header
	}{
		{"get", http.MethodGet, nil},
		{"put", http.MethodPut, nil},
		{"delete", http.MethodDelete, nil},
		{"post with idempotency key", http.MethodPost, http.Header{"Idempotency-Key": []string{"k1"}}},
		{"post with x-idempotency key", http.MethodPost, http.Header{"X-Idempotency-Key": []string{"k2"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, hits := droppingServer(t)

			cfg := testConfig()
			cfg.MaxRetries = 3
			p := newTestPool(t, cfg)

			_, err := p.FetchURL(context.Background(), srv.URL, FetchOptions{
				Method: tt.method,
				Header: tt.header,
				JSON:   map[string]int{"qty": 1},
			})
			require.Error(t, err)
			assert.Equal(t, int32(4), hits.Load())
		})
	}
}

func TestPool_UnsentPostRetried(t *testing.T) {
	var calls atomic.Int32
	base := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if calls.Add(1) == 1 {
			return nil, &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}
		}
		return okResponse(r), nil
	})

	cfg := testConfig()
	cfg.MaxRetries = 2
	p := newTestPool(t, cfg, WithBaseTransport(base))

	_, err := p.FetchURL(context.Background(), "http://upstream.invalid/orders", FetchOptions{
		Method: http.MethodPost,
		JSON:   map[string]int{"qty": 1},
	})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestPool_RetriesExhaustedReturnsLastError(t *testing.T) {
	var calls atomic.Int32
	errs := []error{
		&net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED},
		&net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNRESET},
	}
	base := roundTripFunc(func(*http.Request) (*http.Response, error) {
		n := calls.Add(1)
		return nil, errs[(n-1)%2]
	})

	cfg := testConfig()
	cfg.MaxRetries = 1
	p := newTestPool(t, cfg, WithBaseTransport(base))

	c, err := p.Client(context.Background())
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, "http://upstream.invalid/", nil)
	require.NoError(t, err)

	_, err = c.Transport.RoundTrip(req)
	assert.Same(t, errs[1], err)
	assert.Equal(t, int32(2), calls.Load())

	// http.Client 只在外层包一层 *url.Error
	calls.Store(0)
	_, err = c.Do(req)
	assert.ErrorIs(t, err, errs[1])
}

func TestPool_StatusCodesNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		http.Error(w, "upstream down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := newTestPool(t, testConfig())

	resp, err := p.FetchURL(context.Background(), srv.URL, FetchOptions{})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Contains(t, string(statusErr.Body), "upstream down")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, int32(1), hits.Load())

	resp, err = p.FetchURL(context.Background(), srv.URL, FetchOptions{AllowErrorStatus: true})
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestPool_NonTransientNotRetried(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("boom")
	base := roundTripFunc(func(*http.Request) (*http.Response, error) {
		calls.Add(1)
		return nil, boom
	})

	p := newTestPool(t, testConfig(), WithBaseTransport(base))
	_, err := p.FetchURL(context.Background(), "http://upstream.invalid/", FetchOptions{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPool_BackoffBoundedByContext(t *testing.T) {
	var calls atomic.Int32
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}
	base := roundTripFunc(func(*http.Request) (*http.Response, error) {
		calls.Add(1)
		return nil, refused
	})

	cfg := testConfig()
	cfg.MaxRetries = 5
	p := NewPool(zap.NewNop(), WithBaseTransport(base), WithBackoff(time.Second, time.Second))
	require.NoError(t, p.Configure(cfg))
	defer p.Dispose()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := p.FetchURL(ctx, "http://upstream.invalid/", FetchOptions{})
	assert.ErrorIs(t, err, refused)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPool_PoolTimeout(t *testing.T) {
	var calls atomic.Int32
	base := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls.Add(1)
		<-r.Context().Done()
		return nil, r.Context().Err()
	})

	cfg := testConfig()
	cfg.PoolTimeout = 50 * time.Millisecond
	p := newTestPool(t, cfg, WithBaseTransport(base))

	_, err := p.FetchURL(context.Background(), "http://upstream.invalid/", FetchOptions{})
	assert.True(t, types.IsCode(err, types.ErrPoolExhausted))
	assert.Equal(t, int32(1), calls.Load())
}

// =============================================================================
// 🧪 连接复用与上限
// =============================================================================

// countReused 顺序发起 n 次请求，返回复用空闲连接的次数
func countReused(t *testing.T, p *Pool, url string, n int) int32 {
	t.Helper()
	var reused atomic.Int32
	ctx := httptrace.WithClientTrace(context.Background(), &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			if info.Reused {
				reused.Add(1)
			}
		},
	})
	for i := 0; i < n; i++ {
		_, err := p.FetchURL(ctx, url, FetchOptions{})
		require.NoError(t, err)
	}
	return reused.Load()
}

func TestPool_ReusesIdleConnections(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	p := newTestPool(t, testConfig())
	assert.Equal(t, int32(4), countReused(t, p, srv.URL, 5))
}

func TestPool_NoReuseWithoutKeepalive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxKeepalive = 0
	require.NoError(t, cfg.Validate())
	p := newTestPool(t, cfg)
	assert.Zero(t, countReused(t, p, srv.URL, 5))
}

func TestPool_MaxConnectionsSharedAcrossHosts(t *testing.T) {
	release := make(chan struct{})
	var entered sync.WaitGroup
	newServer := func() *httptest.Server {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/block" {
				entered.Done()
				<-release
			}
			w.WriteHeader(http.StatusOK)
		}))
		t.Cleanup(srv.Close)
		return srv
	}
	srv1, srv2, srv3 := newServer(), newServer(), newServer()
	var once sync.Once
	unblock := func() { once.Do(func() { close(release) }) }
	t.Cleanup(unblock)

	cfg := testConfig()
	cfg.MaxConnections = 2
	cfg.MaxKeepalive = 2
	cfg.PoolTimeout = 100 * time.Millisecond
	p := newTestPool(t, cfg)

	entered.Add(2)
	results := make(chan error, 2)
	for _, srv := range []*httptest.Server{srv1, srv2} {
		go func(url string) {
			_, err := p.FetchURL(context.Background(), url+"/block", FetchOptions{})
			results <- err
		}(srv.URL)
	}
	entered.Wait()

	// srv1 只占一条连接，但全局名额已满
	start := time.Now()
	_, err := p.FetchURL(context.Background(), srv1.URL, FetchOptions{})
	assert.True(t, types.IsCode(err, types.ErrPoolExhausted), "got %v", err)
	assert.Less(t, time.Since(start), time.Second)

	unblock()
	for i := 0; i < 2; i++ {
		require.NoError(t, <-results)
	}

	// 空闲连接让出名额
	_, err = p.FetchURL(context.Background(), srv3.URL, FetchOptions{})
	require.NoError(t, err)
}

// =============================================================================
// 🧪 请求行为
// =============================================================================

func TestPool_FetchURLBodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		size := 16
		if r.URL.Path == "/large" {
			size = 32
		}
		_, _ = w.Write(bytes.Repeat([]byte("x"), size))
	}))
	defer srv.Close()

	p := newTestPool(t, testConfig())

	resp, err := p.FetchURL(context.Background(), srv.URL+"/exact", FetchOptions{MaxBody: 16})
	require.NoError(t, err)
	assert.Len(t, resp.Body, 16)

	resp, err = p.FetchURL(context.Background(), srv.URL+"/large", FetchOptions{MaxBody: 16})
	assert.ErrorIs(t, err, ErrBodyTooLarge)
	assert.Nil(t, resp)

	resp, err = p.FetchURL(context.Background(), srv.URL+"/large", FetchOptions{})
	require.NoError(t, err)
	assert.Len(t, resp.Body, 32)
}

func TestPool_PropagatesTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	var traceparent string
	base := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		traceparent = r.Header.Get("traceparent")
		return okResponse(r), nil
	})
	p := newTestPool(t, testConfig(), WithBaseTransport(base))

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		SpanID:     trace.SpanID{1, 2, 3, 4, 5, 6, 7, 8},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	_, err := p.FetchURL(ctx, "http://upstream.invalid/", FetchOptions{})
	require.NoError(t, err)
	assert.Equal(t, "00-0102030405060708090a0b0c0d0e0f10-0102030405060708-01", traceparent)
}

func TestPool_FetchURLHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 7}`))
	}))
	defer srv.Close()

	p := newTestPool(t, testConfig())

	var out struct {
		ID int `json:"id"`
	}
	resp, err := p.FetchURL(context.Background(), srv.URL, FetchOptions{
		Method: http.MethodPost,
		Header: http.Header{"X-Request-Id": []string{"abc"}},
		JSON:   map[string]int{"n": 1},
		Out:    &out,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 7, out.ID)
	assert.Equal(t, "abc", got.Get("X-Request-Id"))
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, "application/json", got.Get("Accept"))
}

func TestPool_RedirectPolicy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old" {
			http.Redirect(w, r, "/new", http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	follow := newTestPool(t, testConfig())
	resp, err := follow.FetchURL(context.Background(), srv.URL+"/old", FetchOptions{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cfg := testConfig()
	cfg.FollowRedirects = false
	stay := newTestPool(t, cfg)
	resp, err = stay.FetchURL(context.Background(), srv.URL+"/old", FetchOptions{AllowErrorStatus: true})
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/new", resp.Header.Get("Location"))
}

func TestNewTransport(t *testing.T) {
	cfg := testConfig()
	cfg.MaxKeepalive = 7
	cfg.KeepaliveExpiry = 11 * time.Second
	cfg.VerifySSL = false

	tr, err := newTransport(cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.MaxConnections, tr.MaxConnsPerHost)
	assert.Equal(t, 7, tr.MaxIdleConnsPerHost)
	assert.Equal(t, 11*time.Second, tr.IdleConnTimeout)
	assert.Equal(t, cfg.ReadTimeout, tr.ResponseHeaderTimeout)
	assert.True(t, tr.TLSClientConfig.InsecureSkipVerify)
	assert.NotNil(t, tr.TLSNextProto)
	assert.Empty(t, tr.TLSNextProto)

	cfg.HTTP2 = true
	tr, err = newTransport(cfg)
	require.NoError(t, err)
	assert.Contains(t, tr.TLSClientConfig.NextProtos, "h2")
}

func TestBackoff(t *testing.T) {
	rt := &retryTransport{initialBackoff: 100 * time.Millisecond, maxBackoff: time.Second}

	assert.Equal(t, 100*time.Millisecond, rt.backoff(1))
	assert.Equal(t, 200*time.Millisecond, rt.backoff(2))
	assert.Equal(t, 400*time.Millisecond, rt.backoff(3))
	assert.Equal(t, time.Second, rt.backoff(5))
	assert.Equal(t, time.Second, rt.backoff(60))
}

func TestReplayable(t *testing.T) {
	newReq := func(method string, header http.Header) *http.Request {
		r, err := http.NewRequest(method, "http://upstream.invalid/", nil)
		require.NoError(t, err)
		for k, vs := range header {
			r.Header[k] = vs
		}
		return r
	}

	assert.True(t, replayable(newReq(http.MethodGet, nil)))
	assert.True(t, replayable(newReq(http.MethodHead, nil)))
	assert.True(t, replayable(newReq(http.MethodOptions, nil)))
	assert.True(t, replayable(newReq(http.MethodPut, nil)))
	assert.True(t, replayable(newReq(http.MethodDelete, nil)))
	assert.False(t, replayable(newReq(http.MethodPost, nil)))
	assert.False(t, replayable(newReq(http.MethodPatch, nil)))
	assert.True(t, replayable(newReq(http.MethodPost, http.Header{"Idempotency-Key": []string{"a"}})))
	assert.True(t, replayable(newReq(http.MethodPatch, http.Header{"X-Idempotency-Key": []string{"b"}})))
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"eof", io.EOF, true},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, true},
		{"reset", &net.OpError{Op: "read", Err: syscall.ECONNRESET}, true},
		{"dns not found", &net.DNSError{Err: "no such host", IsNotFound: true}, false},
		{"dns timeout", &net.DNSError{Err: "timeout", IsTimeout: true}, true},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"pool exhausted", types.NewPoolExhaustedError(poolName, nil), false},
		{"goaway", errors.New("http2: server sent GOAWAY and closed the connection"), true},
		{"other", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTransient(tt.err))
		})
	}
}
