// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 migration 管理 products、images、events 三张表的版本化 Schema，
基于 golang-migrate，支持 PostgreSQL、MySQL 与 SQLite。

SQL 文件按方言内嵌于 migrations/<dialect>/，文件名形如
000001_create_products.up.sql。连接参数与连接池共用
config.DatabaseConfig（NewFromDatabaseConfig）。

CLI 为 `eventually migrate up|down|status|version|goto|force|reset`
提供终端输出。
*/
package migration
