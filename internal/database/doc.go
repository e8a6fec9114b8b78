// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 database 提供基于 GORM 的数据库连接池生命周期管理与作用域会话。

# 概述

PoolManager 是显式传递的连接池句柄，生命周期为
UNINITIALIZED → READY → DISPOSED。Init 构建引擎并进入 READY，
Dispose 等待进行中会话（至多 DisposeGrace）后关闭引擎，
之后可以再次 Init 开启新的一代资源。

# 核心类型

  - PoolManager：Init / Acquire / WithSession / Dispose，附带 Ping、
    Stats 与后台健康检查。
  - Session：绑定单个连接的工作单元，提供 DB()、Begin、Commit、
    Rollback，Close 时回滚未提交事务并归还连接。
  - PoolStats：连接池运行统计，包含进行中会话数。
  - StatsObserver：统计观察者接口，由指标收集器实现。

# 主要能力

  - 获取上限：PoolSize+MaxOverflow 个并发会话，超出的调用方最多
    等待 PoolTimeout，之后返回 POOL_EXHAUSTED。
  - 连接回收：PoolRecycle 作为连接最大生命周期。
  - 使用前探活：PoolPrePing 开启时对取出的连接 Ping，失效则换新连接重试一次。
  - 事务管理：WithTransaction 提供单次事务执行，
    WithTransactionRetry 支持指数退避重试（死锁、序列化失败等场景）。
  - 多方言：Open 支持 postgres、mysql 与纯 Go 的 sqlite。
*/
package database
