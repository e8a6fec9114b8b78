package repository

import (
	"context"

	"github.com/BaSui01/eventually/internal/database"
	"github.com/BaSui01/eventually/internal/model"
)

// ProductRepository 商品仓储。领域查询排除已软删除的商品。
type ProductRepository struct {
	*Repository[model.Product, uint]
}

// NewProductRepository 创建商品仓储
func NewProductRepository(s *database.Session) *ProductRepository {
	return &ProductRepository{Repository: New[model.Product, uint](s)}
}

// Search 按名称模糊匹配并可按部门过滤，最新创建的在前
func (r *ProductRepository) Search(ctx context.Context, term, department string, limit, offset int) ([]model.Product, error) {
	page, err := Paginate(limit, offset)
	if err != nil {
		return nil, err
	}

	query := r.db(ctx).Scopes(notDeleted, page).Order("created_at DESC").Order("id DESC")
	if term != "" {
		query = query.Scopes(containsAny(term, "name"))
	}
	if department != "" {
		query = query.Where("department = ?", department)
	}

	var out []model.Product
	return out, mapError(query.Find(&out).Error)
}

// GetByDepartment 部门下的商品，按插入顺序
func (r *ProductRepository) GetByDepartment(ctx context.Context, department string, limit, offset int) ([]model.Product, error) {
	page, err := Paginate(limit, offset)
	if err != nil {
		return nil, err
	}

	var out []model.Product
	err = r.db(ctx).Scopes(notDeleted, page).
		Where("department = ?", department).
		Order("id ASC").
		Find(&out).Error
	return out, mapError(err)
}

// GetByPriceRange 价格区间（闭区间，nil 表示不限）内的商品，价格升序
func (r *ProductRepository) GetByPriceRange(ctx context.Context, minPrice, maxPrice *float64, limit, offset int) ([]model.Product, error) {
	page, err := Paginate(limit, offset)
	if err != nil {
		return nil, err
	}

	query := r.db(ctx).Scopes(notDeleted, page).Order("price ASC").Order("id ASC")
	if minPrice != nil {
		query = query.Where("price >= ?", *minPrice)
	}
	if maxPrice != nil {
		query = query.Where("price <= ?", *maxPrice)
	}

	var out []model.Product
	return out, mapError(query.Find(&out).Error)
}
