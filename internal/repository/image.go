package repository

import (
	"context"

	"github.com/BaSui01/eventually/internal/database"
	"github.com/BaSui01/eventually/internal/model"
)

// ImageRepository 图片仓储
type ImageRepository struct {
	*Repository[model.Image, uint]
}

// NewImageRepository 创建图片仓储
func NewImageRepository(s *database.Session) *ImageRepository {
	return &ImageRepository{Repository: New[model.Image, uint](s)}
}

// FindByPath 按路径查找
func (r *ImageRepository) FindByPath(ctx context.Context, path string) (*model.Image, bool, error) {
	return r.GetBy(ctx, map[string]any{"path": path})
}

// PathExists 路径是否已被占用
func (r *ImageRepository) PathExists(ctx context.Context, path string) (bool, error) {
	n, err := r.Count(ctx, map[string]any{"path": path})
	return n > 0, err
}
