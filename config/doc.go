// Package config 提供 eventually 的配置管理功能。
//
// 配置按固定优先级在启动时一次性解析：进程环境变量、密钥来源、
// env_files/.env_{env}、env_files/.env_base、可选 YAML 文件、代码默认值。
// 解析结果在 Load 内完成校验，校验失败视为启动期致命错误。
package config
