// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package lifecycle 编排进程级资源的启动与关闭顺序。

钩子按 Append 顺序启动：数据库连接池、HTTP 客户端池、遥测、
HTTP 服务器、指标服务器。任一钩子启动失败时，已启动的钩子逆序
回滚，错误返回给调用方并终止启动。Stop 逆序执行，使用 errors.Join
汇总每个钩子的错误，重复调用无副作用。
*/
package lifecycle
