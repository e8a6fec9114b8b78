// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 server 提供 HTTP 服务器生命周期管理，支持非阻塞启动与优雅关闭。

# 概述

Manager 封装 net/http.Server，统一管理监听、服务、关闭与错误传播。
API 服务器与 metrics 服务器各自持有一个 Manager，作为生命周期钩子
由 cmd/eventually 注册：Start 在监听失败时同步返回错误，使启动中止；
Shutdown 在 ShutdownTimeout 内排空请求。

# 核心类型

  - Manager：持有 http.Server、net.Listener 与异步错误通道。
  - Config：监听地址、读写超时、空闲超时、最大请求头大小与优雅关闭超时，
    可由 FromServerConfig 从应用配置生成。

# 主要能力

  - 非阻塞启动：Start 在后台 goroutine 中运行服务。
  - 优雅关闭：Shutdown 幂等，关闭后不可再次启动。
  - 错误传播：Errors() 返回运行期错误，供主循环触发关闭。
  - 地址查询：Addr 在启动后返回实际监听地址（支持 :0 随机端口）。
*/
package server
