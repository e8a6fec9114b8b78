package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BaSui01/eventually/api/handlers"
	"github.com/BaSui01/eventually/config"
	"github.com/BaSui01/eventually/internal/ctxkeys"
	"github.com/BaSui01/eventually/internal/metrics"
	"github.com/BaSui01/eventually/types"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Middleware 类型定义
type Middleware func(http.Handler) http.Handler

// Chain 将多个中间件串联，第一个为最外层
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// Recovery panic 恢复中间件，按统一错误结构返回 500
func Recovery(ew handlers.ErrorWriter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					ew.Write(w, r, fmt.Errorf("panic: %v", rec))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequestID 透传或生成 X-Request-ID 并写入上下文
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
			if id == "" || len(id) > 128 {
				id = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", id)
			next.ServeHTTP(w, r.WithContext(ctxkeys.WithRequestID(r.Context(), id)))
		})
	}
}

// SecurityHeaders 常用安全响应头
func SecurityHeaders() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("X-XSS-Protection", "1; mode=block")
			w.Header().Set("Content-Security-Policy", "default-src 'self'")
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger 请求日志中间件
func RequestLogger(logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := handlers.NewResponseWriter(w)
			next.ServeHTTP(rw, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rw.StatusCode),
				zap.Int("bytes", rw.Bytes),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr),
			}
			if id, ok := ctxkeys.RequestID(r.Context()); ok {
				fields = append(fields, zap.String("request_id", id))
			}
			logger.Info("request", fields...)
		})
	}
}

// =============================================================================
// 📊 MetricsMiddleware
// =============================================================================

// MetricsMiddleware 记录请求耗时与大小。path 标签取 chi 路由模板，
// 未匹配的请求统一记为 "unmatched"，避免标签基数失控。
func MetricsMiddleware(collector *metrics.Collector) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := handlers.NewResponseWriter(w)

			next.ServeHTTP(rw, r)

			requestSize := r.ContentLength
			if requestSize < 0 {
				requestSize = 0
			}
			collector.RecordHTTPRequest(
				r.Method,
				routePattern(r),
				rw.StatusCode,
				time.Since(start),
				requestSize,
				int64(rw.Bytes),
			)
		})
	}
}

// routePattern 在 handler 执行后读取匹配到的路由模板
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return "unmatched"
	}
	pattern := rctx.RoutePattern()
	if pattern == "" {
		return "unmatched"
	}
	return pattern
}

// =============================================================================
// 🔭 OTelTracing
// =============================================================================

// OTelTracing 为每个请求创建服务端 span，并从请求头提取上游 trace 上下文
func OTelTracing() Middleware {
	tracer := otel.Tracer("eventually/http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.URLPath(r.URL.Path),
				),
			)
			defer span.End()

			if sc := span.SpanContext(); sc.HasTraceID() {
				ctx = ctxkeys.WithTraceID(ctx, sc.TraceID().String())
			}

			rw := handlers.NewResponseWriter(w)
			next.ServeHTTP(rw, r.WithContext(ctx))

			span.SetName(r.Method + " " + routePattern(r))
			span.SetAttributes(attribute.Int("http.response.status_code", rw.StatusCode))
		})
	}
}

// =============================================================================
// 🚦 RateLimiter
// =============================================================================

// RateLimiter 基于客户端 IP 的令牌桶限流；rps <= 0 时不限流。
// ctx 结束后停止清理过期访客。
func RateLimiter(ctx context.Context, rps float64, burst int, ew handlers.ErrorWriter) Middleware {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst < 1 {
		burst = 1
	}

	type visitor struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}
	var (
		mu       sync.Mutex
		visitors = make(map[string]*visitor)
	)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				mu.Lock()
				for ip, v := range visitors {
					if time.Since(v.lastSeen) > 3*time.Minute {
						delete(visitors, ip)
					}
				}
				mu.Unlock()
			}
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			mu.Lock()
			v, ok := visitors[ip]
			if !ok {
				v = &visitor{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
				visitors[ip] = v
			}
			v.lastSeen = time.Now()
			mu.Unlock()

			if !v.limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				ew.Write(w, r, types.NewError(types.ErrRateLimited, "Too many requests").WithRetryable(true))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// =============================================================================
// 🌍 CORS
// =============================================================================

// CORS 跨域中间件。未配置来源时不输出任何 CORS 头，预检请求返回 403。
func CORS(cfg config.CORSConfig) Middleware {
	origins := make(map[string]struct{}, len(cfg.AllowOrigins))
	anyOrigin := false
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			anyOrigin = true
		}
		origins[o] = struct{}{}
	}
	methods := joinOrDefault(cfg.AllowMethods, "GET, POST, PUT, DELETE, OPTIONS")
	headers := joinOrDefault(cfg.AllowHeaders, "Content-Type, X-Request-ID, Authorization")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			_, allowed := origins[origin]
			if !allowed && !anyOrigin {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Add("Vary", "Origin")
			// 携带凭证时浏览器不接受通配来源，回显具体 Origin
			if anyOrigin && !cfg.AllowCredentials {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
			}
			if cfg.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				if methods == "*" {
					h.Set("Access-Control-Allow-Methods", r.Header.Get("Access-Control-Request-Method"))
				} else {
					h.Set("Access-Control-Allow-Methods", methods)
				}
				if headers == "*" {
					if req := r.Header.Get("Access-Control-Request-Headers"); req != "" {
						h.Set("Access-Control-Allow-Headers", req)
					}
				} else {
					h.Set("Access-Control-Allow-Headers", headers)
				}
				h.Set("Access-Control-Max-Age", strconv.Itoa(86400))
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func joinOrDefault(values []string, def string) string {
	if len(values) == 0 {
		return def
	}
	for _, v := range values {
		if v == "*" {
			return "*"
		}
	}
	return strings.Join(values, ", ")
}
