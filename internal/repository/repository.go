package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BaSui01/eventually/internal/database"
	"github.com/BaSui01/eventually/types"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// =============================================================================
// 📚 通用仓储
// =============================================================================

// Entity 可持久化实体
type Entity interface {
	TableName() string
}

// Validator 写入前的字段校验，由实体指针实现
type Validator interface {
	Validate() error
}

const (
	primaryKey      = "id"
	softDeleteField = "deleted_at"
)

// 更新时不允许修改的列
var immutableColumns = map[string]bool{
	primaryKey:   true,
	"created_at": true,
}

// Repository 实体 T、主键 ID 的通用 CRUD，绑定一个会话。
// 仓储不提交也不回滚，事务边界由会话持有者决定。
type Repository[T Entity, ID comparable] struct {
	session *database.Session
}

// New 创建绑定到会话的仓储
func New[T Entity, ID comparable](s *database.Session) *Repository[T, ID] {
	return &Repository[T, ID]{session: s}
}

// db 返回带调用方 ctx 的会话句柄（事务进行中时为事务句柄）
func (r *Repository[T, ID]) db(ctx context.Context) *gorm.DB {
	return r.session.DB().WithContext(ctx)
}

// Create 校验并写入实体，返回时已填充主键与时间戳
func (r *Repository[T, ID]) Create(ctx context.Context, entity *T) error {
	if entity == nil {
		return types.NewValidationError("entity is required")
	}
	if err := validate(entity); err != nil {
		return err
	}
	return mapError(r.db(ctx).Create(entity).Error)
}

// CreateMany 批量写入；任一实体校验失败时不写入
func (r *Repository[T, ID]) CreateMany(ctx context.Context, entities []*T) error {
	if len(entities) == 0 {
		return nil
	}
	for i, e := range entities {
		if e == nil {
			return types.NewValidationError("entity is required").WithDetail("index", i)
		}
		if err := validate(e); err != nil {
			var appErr *types.Error
			if errors.As(err, &appErr) {
				appErr.WithDetail("index", i)
			}
			return err
		}
	}
	return mapError(r.db(ctx).Create(entities).Error)
}

// GetByID 按主键查找；不存在时 found=false 且 err=nil
func (r *Repository[T, ID]) GetByID(ctx context.Context, id ID) (*T, bool, error) {
	return r.take(r.db(ctx).Where(primaryKey+" = ?", id))
}

// GetBy 按字段等值条件查找单个实体（主键最小者），filters 不可为空
func (r *Repository[T, ID]) GetBy(ctx context.Context, filters map[string]any) (*T, bool, error) {
	db := r.db(ctx)
	cond, err := r.requireFilters(db, filters)
	if err != nil {
		return nil, false, err
	}
	return r.take(db.Where(cond).Order(primaryKey + " ASC"))
}

// GetAll 按插入顺序（主键升序）分页；limit 为 0 表示不限制
func (r *Repository[T, ID]) GetAll(ctx context.Context, limit, offset int) ([]T, error) {
	return r.Filter(ctx, nil, limit, offset)
}

// Filter 按字段等值条件分页查询，主键升序
func (r *Repository[T, ID]) Filter(ctx context.Context, filters map[string]any, limit, offset int) ([]T, error) {
	db := r.db(ctx)
	cond, err := r.columns(db, filters)
	if err != nil {
		return nil, err
	}
	page, err := Paginate(limit, offset)
	if err != nil {
		return nil, err
	}

	query := db.Scopes(page).Order(primaryKey + " ASC")
	if len(cond) > 0 {
		query = query.Where(cond)
	}

	var out []T
	if err := query.Find(&out).Error; err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

// Update 只更新给定字段；不存在时 found=false，不会创建。
func (r *Repository[T, ID]) Update(ctx context.Context, id ID, fields map[string]any) (*T, bool, error) {
	db := r.db(ctx)
	values, err := r.updateColumns(db, fields)
	if err != nil {
		return nil, false, err
	}

	res := db.Model(new(T)).Where(primaryKey+" = ?", id).Updates(values)
	if res.Error != nil {
		return nil, false, mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, false, nil
	}
	return r.GetByID(ctx, id)
}

// UpdateMany 按条件批量更新，返回受影响行数；filters 不可为空
func (r *Repository[T, ID]) UpdateMany(ctx context.Context, filters, fields map[string]any) (int64, error) {
	db := r.db(ctx)
	cond, err := r.requireFilters(db, filters)
	if err != nil {
		return 0, err
	}
	values, err := r.updateColumns(db, fields)
	if err != nil {
		return 0, err
	}

	res := db.Model(new(T)).Where(cond).Updates(values)
	return res.RowsAffected, mapError(res.Error)
}

// Delete 物理删除；返回是否删除了记录，删除不存在的主键返回 false
func (r *Repository[T, ID]) Delete(ctx context.Context, id ID) (bool, error) {
	res := r.db(ctx).Where(primaryKey+" = ?", id).Delete(new(T))
	if res.Error != nil {
		return false, mapError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// DeleteMany 按条件批量删除，返回删除行数；filters 不可为空
func (r *Repository[T, ID]) DeleteMany(ctx context.Context, filters map[string]any) (int64, error) {
	db := r.db(ctx)
	cond, err := r.requireFilters(db, filters)
	if err != nil {
		return 0, err
	}
	res := db.Where(cond).Delete(new(T))
	return res.RowsAffected, mapError(res.Error)
}

// SoftDelete 设置 deleted_at；实体没有该列时返回 VALIDATION_ERROR。
// 已软删除的记录返回 false。
func (r *Repository[T, ID]) SoftDelete(ctx context.Context, id ID) (bool, error) {
	db := r.db(ctx)
	s, err := r.schemaOf(db)
	if err != nil {
		return false, err
	}
	if s.LookUpField(softDeleteField) == nil {
		return false, types.NewValidationError(s.Table + " does not support soft delete").
			WithDetail("field", softDeleteField)
	}

	res := db.Model(new(T)).
		Where(primaryKey+" = ?", id).
		Where(softDeleteField + " IS NULL").
		Update(softDeleteField, time.Now().UTC())
	if res.Error != nil {
		return false, mapError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Exists 主键是否存在
func (r *Repository[T, ID]) Exists(ctx context.Context, id ID) (bool, error) {
	var n int64
	err := r.db(ctx).Model(new(T)).Where(primaryKey+" = ?", id).Count(&n).Error
	return n > 0, mapError(err)
}

// Count 统计满足条件的记录数，filters 为空时统计全部
func (r *Repository[T, ID]) Count(ctx context.Context, filters map[string]any) (int64, error) {
	db := r.db(ctx)
	cond, err := r.columns(db, filters)
	if err != nil {
		return 0, err
	}

	query := db.Model(new(T))
	if len(cond) > 0 {
		query = query.Where(cond)
	}
	var n int64
	return n, mapError(query.Count(&n).Error)
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

func (r *Repository[T, ID]) take(query *gorm.DB) (*T, bool, error) {
	var out T
	err := query.Take(&out).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, nil
	case err != nil:
		return nil, false, mapError(err)
	}
	return &out, true, nil
}

func validate(entity any) error {
	if v, ok := entity.(Validator); ok {
		return v.Validate()
	}
	return nil
}

// Paginate 分页 scope：负数返回 VALIDATION_ERROR，0 表示不限制 / 不跳过
func Paginate(limit, offset int) (func(*gorm.DB) *gorm.DB, error) {
	if limit < 0 {
		return nil, types.NewValidationError("limit must not be negative").WithDetail("limit", limit)
	}
	if offset < 0 {
		return nil, types.NewValidationError("offset must not be negative").WithDetail("offset", offset)
	}
	return func(db *gorm.DB) *gorm.DB {
		if limit > 0 {
			db = db.Limit(limit)
		}
		if offset > 0 {
			db = db.Offset(offset)
		}
		return db
	}, nil
}

// schemaOf 解析实体 schema（gorm 内部缓存）
func (r *Repository[T, ID]) schemaOf(db *gorm.DB) (*schema.Schema, error) {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(new(T)); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	return stmt.Schema, nil
}

// columns 将字段名（Go 字段名或列名）归一为列名，未知字段返回 VALIDATION_ERROR
func (r *Repository[T, ID]) columns(db *gorm.DB, fields map[string]any) (map[string]any, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	s, err := r.schemaOf(db)
	if err != nil {
		return nil, err
	}

	out := make(map[string]any, len(fields))
	for name, value := range fields {
		f := s.LookUpField(name)
		if f == nil || f.DBName == "" {
			return nil, types.NewValidationError("unknown field " + name).WithDetail("field", name)
		}
		out[f.DBName] = value
	}
	return out, nil
}

func (r *Repository[T, ID]) updateColumns(db *gorm.DB, fields map[string]any) (map[string]any, error) {
	if len(fields) == 0 {
		return nil, types.NewValidationError("no fields to update")
	}
	values, err := r.columns(db, fields)
	if err != nil {
		return nil, err
	}
	for col := range values {
		if immutableColumns[col] {
			return nil, types.NewValidationError("field " + col + " cannot be updated").WithDetail("field", col)
		}
	}
	return values, nil
}

func (r *Repository[T, ID]) requireFilters(db *gorm.DB, filters map[string]any) (map[string]any, error) {
	if len(filters) == 0 {
		return nil, types.NewValidationError("filters are required")
	}
	return r.columns(db, filters)
}
