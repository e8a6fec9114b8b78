package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/BaSui01/eventually/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// =============================================================================
// 🛰️ Providers
// =============================================================================

// Providers 持有 SDK 的 TracerProvider 与 MeterProvider。
// 遥测禁用时两者均为 nil，Tracer/Meter 回落到全局 noop 实现。
type Providers struct {
	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider
}

// Option 调整 Init 的行为
type Option func(*options)

type options struct {
	version      string
	spanExporter sdktrace.SpanExporter
	metricReader sdkmetric.Reader
}

// WithServiceVersion 写入 service.version 资源属性；空值保留 "dev"
func WithServiceVersion(v string) Option {
	return func(o *options) {
		if v != "" {
			o.version = v
		}
	}
}

// WithSpanExporter 替换默认的 OTLP gRPC span 导出器
func WithSpanExporter(e sdktrace.SpanExporter) Option {
	return func(o *options) { o.spanExporter = e }
}

// WithMetricReader 替换默认的 OTLP gRPC 周期性 metric reader
func WithMetricReader(r sdkmetric.Reader) Option {
	return func(o *options) { o.metricReader = r }
}

// =============================================================================
// 🚀 初始化
// =============================================================================

// Init 安装 W3C 传播器；启用时创建导出器并注册为全局 provider。
// 禁用时不连接任何外部服务。
func Init(ctx context.Context, cfg config.TelemetryConfig, env config.Environment, logger *zap.Logger, opts ...Option) (*Providers, error) {
	o := options{version: "dev"}
	for _, opt := range opts {
		opt(&o)
	}
	logger = logger.With(zap.String("component", "telemetry"))

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if !cfg.Enabled {
		logger.Info("telemetry disabled, using noop providers")
		return &Providers{}, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(o.version),
			attribute.String("deployment.environment", env.String()),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create otel resource: %w", err)
	}

	spanExporter := o.spanExporter
	if spanExporter == nil {
		spanExporter, err = otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("create trace exporter: %w", err)
		}
	}

	reader := o.metricReader
	if reader == nil {
		metricExporter, err := otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			// trace 导出器已建立连接，需一并关闭
			return nil, errors.Join(
				fmt.Errorf("create metric exporter: %w", err),
				spanExporter.Shutdown(ctx),
			)
		}
		reader = sdkmetric.NewPeriodicReader(metricExporter)
	}

	ratio := clampRatio(cfg.SampleRate)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spanExporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	logger.Info("telemetry initialized",
		zap.String("endpoint", cfg.OTLPEndpoint),
		zap.String("service_name", cfg.ServiceName),
		zap.String("service_version", o.version),
		zap.Float64("sample_rate", ratio),
	)
	return &Providers{tp: tp, mp: mp}, nil
}

// clampRatio 采样率限制在 [0, 1]
func clampRatio(r float64) float64 {
	switch {
	case r < 0:
		return 0
	case r > 1:
		return 1
	default:
		return r
	}
}

// =============================================================================
// 🔧 访问与关闭
// =============================================================================

// Enabled 是否持有真实的 SDK provider
func (p *Providers) Enabled() bool {
	return p != nil && p.tp != nil
}

// Tracer 返回命名 tracer；未启用时为全局实现
func (p *Providers) Tracer(name string) trace.Tracer {
	if !p.Enabled() {
		return otel.Tracer(name)
	}
	return p.tp.Tracer(name)
}

// Meter 返回命名 meter；未启用时为全局实现
func (p *Providers) Meter(name string) metric.Meter {
	if p == nil || p.mp == nil {
		return otel.Meter(name)
	}
	return p.mp.Meter(name)
}

// Shutdown 刷出未导出的数据并关闭导出器；nil 与 noop Providers 上调用安全
func (p *Providers) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	var errs []error
	if p.tp != nil {
		if err := p.tp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracer provider: %w", err))
		}
	}
	if p.mp != nil {
		if err := p.mp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown meter provider: %w", err))
		}
	}
	return errors.Join(errs...)
}
