// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package handlers 提供 Eventually HTTP API 的请求处理器实现。

# 概述

handlers 包实现商品、图片、事件三组 CRUD 端点，以及健康检查、
错误示例和统一的 JSON 响应/错误处理。每个请求从 SessionProvider
获取一个作用域会话，在其上构建仓储完成读写，退出时会话自动释放。

# 核心类型

  - ProductHandler  ：商品 CRUD、搜索、按部门与价格区间查询
  - ImageHandler    ：图片 CRUD 与按路径查找，路径唯一
  - EventHandler    ：事件列表、即将到来的事件、软删除
  - HealthHandler   ：/health、/healthz、/ready、/version
  - DemoHandler     ：非生产环境下演示错误响应格式
  - ErrorWriter     ：types.Error → HTTP 状态码与 ErrorResponse
  - ResponseWriter  ：包装 http.ResponseWriter 以捕获状态码与字节数

# 请求约束

  - DecodeJSONBody：1 MB 上限，拒绝未知字段与尾随内容
  - ParsePage：offset ≥ 0，1 ≤ limit ≤ MaxLimit
  - 日期与时间分别按 YYYY-MM-DD、HH:MM:SS 解析
*/
package handlers
