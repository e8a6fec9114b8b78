// Package api 定义 Eventually HTTP API 的请求与响应结构。
//
// 处理器位于 api/handlers，路由注册表位于 api/routes。所有错误响应
// 使用 ErrorResponse：
//
//	{"success": false, "error_code": "NOT_FOUND", "message": "...", "detail": {...}, "path": "/api/product/7"}
//
// 商品与图片的 *Update 结构只包含客户端提供的字段（指针非 nil），
// Fields 返回待更新的列并在写入前完成校验。
package api
