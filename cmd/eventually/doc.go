// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package main 提供 Eventually 服务端程序入口。

# 概述

cmd/eventually 提供 HTTP API 服务、数据库迁移、数据导入、健康检查和版本查询等子命令。
配置按 环境变量 > 密钥文件 > env 文件 > YAML > 默认值 的优先级加载，
日志使用 zap，指标通过独立端口以 Prometheus 格式暴露。

# 核心类型

  - Server     ：持有连接池与服务器，以 lifecycle 钩子顺序启动、逆序关闭
  - Middleware ：HTTP 中间件函数签名 func(http.Handler) http.Handler

# 主要能力

  - 子命令：serve、migrate、import、version、health
  - import：在单个事务中从 JSON 导入图片与活动，失败整体回滚
  - 中间件链：Recovery、RequestID、SecurityHeaders、OTelTracing、
    RequestLogger、MetricsMiddleware、CORS、RateLimiter（基于 IP）
  - 启动顺序：database → http_client → telemetry → http_server → metrics_server
  - 信号处理：SIGINT/SIGTERM 触发优雅关闭
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
