// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package httpclient 提供进程内共享的出站 HTTP 客户端池。

Pool 在 Configure 之后可用：连接、读写与取连接超时，最大连接数，
keep-alive 空闲连接数与过期时间，HTTP/2 开关，TLS 校验与重定向策略
均来自 config.HTTPClientConfig。Dispose 关闭空闲连接，之后的获取返回
POOL_NOT_READY。

重试只针对瞬时网络错误（建连失败、连接重置/拒绝、EOF、超时），
采用受调用方 ctx 截止时间约束的指数退避；应用层状态码从不重试，
重试耗尽后返回最后一次的原始错误。每次尝试都会通过全局
OpenTelemetry propagator 注入追踪头，并上报出站请求指标。

FetchURL 是便捷封装：JSON 请求体、非 2xx 返回 *StatusError、可选 JSON 解码。
*/
package httpclient
