package repository

import (
	"strings"

	"gorm.io/gorm"
)

// notDeleted 排除已软删除的记录
func notDeleted(db *gorm.DB) *gorm.DB {
	return db.Where(softDeleteField + " IS NULL")
}

// likePattern 构造大小写不敏感的包含匹配模式，以 ! 转义通配符
func likePattern(term string) string {
	r := strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)
	return "%" + strings.ToLower(r.Replace(term)) + "%"
}

// containsAny 任一列包含 term（LOWER(col) LIKE ?），各方言通用
func containsAny(term string, cols ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		pattern := likePattern(term)
		conds := make([]string, len(cols))
		args := make([]any, len(cols))
		for i, col := range cols {
			conds[i] = "LOWER(" + col + ") LIKE ? ESCAPE '!'"
			args[i] = pattern
		}
		return db.Where("("+strings.Join(conds, " OR ")+")", args...)
	}
}
