// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

// Package model 定义持久化实体：Product、Image、Event。
//
// 所有实体嵌入 Timestamps（created_at / updated_at 由 gorm 自动维护），
// 并实现 Validate，在写入存储前校验必填字段。Product 与 Event 带可空的
// deleted_at 列，支持软删除。
package model
