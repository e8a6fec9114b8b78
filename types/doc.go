// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package types 提供 eventually 服务的全局共享错误类型。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 config、database、
repository、httpclient 与 api 等上层模块提供统一的错误契约，
以避免循环依赖。

# 核心类型

  - Error / ErrorCode：结构化错误，含 HTTP 状态码、Retryable 标记与 Detail
  - StatusForCode    ：错误码到 HTTP 状态码的默认映射

# 主要能力

  - 生命周期错误：NewConfigurationError / NewPoolNotReadyError / NewPoolExhaustedError
  - 仓储错误：NewConflictError / NewValidationError
  - 网络错误：NewTransientNetworkError（可重试）
  - 错误判定：IsCode / IsRetryable / GetErrorCode，均支持 errors.Is / errors.As 链
*/
package types
