/*
Package repository 提供绑定会话的通用 CRUD 仓储与领域仓储。

Repository[T, ID] 对任意实体提供 Create、GetByID、Update、Delete、
GetAll 以及批量、过滤、软删除、计数等操作。未找到是结构化结果
（found=false），不是错误。唯一性冲突映射为 CONFLICT，字段非法映射为
VALIDATION_ERROR。

仓储从不提交或回滚：调用方通过 database.PoolManager 的 WithSession /
WithTransaction 决定事务边界。

GetAll 在本层不设 limit 上限（0 表示不限），由 HTTP 层负责截断。
*/
package repository
