// Package telemetry 封装 OpenTelemetry SDK 初始化：OTLP gRPC 导出的
// TracerProvider 与 MeterProvider、service 资源属性、父级优先的比例采样，
// 以及全局 W3C traceparent/baggage 传播器。禁用时只安装传播器，
// 入站追踪头仍可随出站请求透传。
package telemetry
