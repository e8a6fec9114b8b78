package model

import "time"

// Product 商品
type Product struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Name       string     `gorm:"size:255;not null;index" json:"name"`
	Department string     `gorm:"size:255;not null;index" json:"department"`
	Price      float64    `gorm:"type:decimal(10,2);not null" json:"price"`
	Weight     float64    `gorm:"type:decimal(10,2);not null" json:"weight"`
	DeletedAt  *time.Time `gorm:"index" json:"deleted_at,omitempty"`
	Timestamps
}

// TableName 指定表名
func (Product) TableName() string { return "products" }

// Validate 校验必填字段
func (p *Product) Validate() error {
	f := fieldErrors{}
	f.required("name", p.Name)
	f.maxLen("name", p.Name, 255)
	f.required("department", p.Department)
	f.maxLen("department", p.Department, 255)
	f.positive("price", p.Price)
	f.positive("weight", p.Weight)
	return f.err("product")
}

// ProductSummary 列表视图
type ProductSummary struct {
	ID         uint    `json:"id"`
	Name       string  `json:"name"`
	Department string  `json:"department"`
	Price      float64 `json:"price"`
}

// Summary 转换为列表视图
func (p *Product) Summary() ProductSummary {
	return ProductSummary{ID: p.ID, Name: p.Name, Department: p.Department, Price: p.Price}
}
