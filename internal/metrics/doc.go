// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的指标采集能力，覆盖入站 HTTP、
数据库连接池与出站 HTTP 三个维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
自动注册到默认 registry，由 metrics 服务器的 /metrics 暴露。所有指标
按 namespace 隔离。

# 核心类型

  - Collector：同时实现 database.StatsObserver 与 httpclient.Metrics，
    由 cmd/eventually 注入两个连接池。

# 主要能力

  - HTTP 指标：请求总数、请求耗时、请求/响应体大小，
    按 method/path/status 分组，状态码归类为 2xx/3xx/4xx/5xx。
  - 连接池指标：打开/使用中/空闲连接数、进行中会话数 Gauge，
    获取超时计数。
  - 出站指标：每次尝试的计数与耗时（网络错误记为 error），重试计数。
*/
package metrics
