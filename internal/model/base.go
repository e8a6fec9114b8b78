package model

import (
	"strings"
	"time"

	"github.com/BaSui01/eventually/types"
)

// Timestamps 创建与更新时间，由 gorm 自动填充
type Timestamps struct {
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// fieldErrors 收集字段级校验错误
type fieldErrors map[string]string

func (f fieldErrors) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		f[field] = "is required"
	}
}

func (f fieldErrors) maxLen(field, value string, n int) {
	if len(value) > n {
		f[field] = "is too long"
	}
}

func (f fieldErrors) positive(field string, value float64) {
	if value <= 0 {
		f[field] = "must be greater than 0"
	}
}

// err 无错误时返回 nil，否则返回带字段详情的 VALIDATION_ERROR
func (f fieldErrors) err(entity string) error {
	if len(f) == 0 {
		return nil
	}
	e := types.NewValidationError("invalid " + entity)
	for field, msg := range f {
		e.WithDetail(field, msg)
	}
	return e
}
