package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/BaSui01/eventually/config"
	"github.com/BaSui01/eventually/internal/database"
	"github.com/BaSui01/eventually/internal/model"
	"github.com/BaSui01/eventually/types"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"pgregory.net/rapid"
)

// =============================================================================
// 🧪 测试辅助
// =============================================================================

func setupPool(t *testing.T) *database.PoolManager {
	t.Helper()

	cfg := config.DefaultDatabaseConfig()
	cfg.Driver = "sqlite"
	cfg.Name = filepath.Join(t.TempDir(), "repo.db")
	cfg.HealthCheckInterval = 0

	pm := database.NewPoolManager(zap.NewNop())
	require.NoError(t, pm.Init(context.Background(), cfg))
	t.Cleanup(func() { _ = pm.Dispose(context.Background()) })

	inSession(t, pm, func(ctx context.Context, s *database.Session) {
		require.NoError(t, s.DB().AutoMigrate(&model.Product{}, &model.Image{}, &model.Event{}))
	})
	return pm
}

func inSession(t *testing.T, pm *database.PoolManager, fn func(ctx context.Context, s *database.Session)) {
	t.Helper()
	require.NoError(t, pm.WithSession(context.Background(), func(ctx context.Context, s *database.Session) error {
		fn(ctx, s)
		return nil
	}))
}

func newProduct(name, department string, price float64) *model.Product {
	return &model.Product{Name: name, Department: department, Price: price, Weight: 1}
}

func seedProducts(t *testing.T, ctx context.Context, repo *ProductRepository, n int) []model.Product {
	t.Helper()
	out := make([]model.Product, 0, n)
	for i := 0; i < n; i++ {
		p := newProduct(fmt.Sprintf("product-%02d", i), "dept", float64(i+1))
		require.NoError(t, repo.Create(ctx, p))
		out = append(out, *p)
	}
	return out
}

func ids(products []model.Product) []uint {
	out := make([]uint, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

// =============================================================================
// 🧪 通用仓储
// =============================================================================

func TestRepository_CreateAndGetByID(t *testing.T) {
	pm := setupPool(t)

	inSession(t, pm, func(ctx context.Context, s *database.Session) {
		repo := NewProductRepository(s)

		p := newProduct("Widget", "tools", 9.99)
		require.NoError(t, repo.Create(ctx, p))
		assert.NotZero(t, p.ID)
		assert.False(t, p.CreatedAt.IsZero())
		assert.False(t, p.UpdatedAt.IsZero())

		got, found, err := repo.GetByID(ctx, p.ID)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, p.ID, got.ID)
		assert.Equal(t, "Widget", got.Name)
		assert.Equal(t, "tools", got.Department)
		assert.InDelta(t, 9.99, got.Price, 0.001)
		assert.WithinDuration(t, p.CreatedAt, got.CreatedAt, time.Second)

		deleted, err := repo.Delete(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = repo.Delete(ctx, p.ID)
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}

func TestRepository_GetByIDNotFound(t *testing.T) {
	pm := setupPool(t)

	inSession(t, pm, func(ctx context.Context, s *database.Session) {
		got, found, err := NewProductRepository(s).GetByID(ctx, 4242)
		assert.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, got)
	})
}

func TestRepository_CreateValidation(t *testing.T) {
	pm := setupPool(t)

	inSession(t, pm, func(ctx context.Context, s *database.Session) {
		repo := NewProductRepository(s)

		err := repo.Create(ctx, &model.Product{Department: "tools", Price: 1, Weight: 1})
		assert.True(t, types.IsCode(err, types.ErrValidation))

		err = repo.Create(ctx, nil)
		assert.True(t, types.IsCode(err, types.ErrValidation))

		n, err := repo.Count(ctx, nil)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestRepository_CreateDuplicateConflict(t *testing.T) {
	pm := setupPool(t)

	inSession(t, pm, func(ctx context.Context, s *database.Session) {
		repo := NewImageRepository(s)

		require.NoError(t, repo.Create(ctx, &model.Image{Path: "a@x.com.png"}))

		err := repo.Create(ctx, &model.Image{Path: "a@x.com.png"})
		require.Error(t, err)
		assert.True(t, types.IsCode(err, types.ErrConflict))
		assert.Equal(t, 409, types.StatusForCode(types.GetErrorCode(err)))
	})
}

func TestRepository_UpdatePartial(t *testing.T) {
	pm := setupPool(t)

	inSession(t, pm, func(ctx context.Context, s *database.Session) {
		repo := NewProductRepository(s)
		p := newProduct("Widget", "tools", 5)
		require.NoError(t, repo.Create(ctx, p))

		got, found, err := repo.Update(ctx, p.ID, map[string]any{"price": 7.5})
		require.NoError(t, err)
		require.True(t, found)
		assert.InDelta(t, 7.5, got.Price, 0.001)
		assert.Equal(t, "Widget", got.Name)
		assert.Equal(t, "tools", got.Department)
		assert.False(t, got.UpdatedAt.Before(p.UpdatedAt))

		// Go 字段名同样可用
		got, found, err = repo.Update(ctx, p.ID, map[string]any{"Name": "Gadget"})
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "Gadget", got.Name)
	})
}

func TestRepository_UpdateNotFound(t *testing.T) {
	pm := setupPool(t)

	inSession(t, pm, func(ctx context.Context, s *database.Session) {
		repo := NewProductRepository(s)
		seedProducts(t, ctx, repo, 2)

		got, found, err := repo.Update(ctx, 999, map[string]any{"name": "ghost"})
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, got)

		n, err := repo.Count(ctx, map[string]any{"name": "ghost"})
		require.NoError(t, err)
		assert.Zero(t, n)

		total, err := repo.Count(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})
}

func TestRepository_UpdateInvalidFields(t *testing.T) {
	pm := setupPool(t)

	inSession(t, pm, func(ctx context.Context, s *database.Session) {
		repo := NewProductRepository(s)
		p := newProduct("Widget", "tools", 5)
		require.NoError(t, repo.Create(ctx, p))

		tests := []struct {
			name   string
			fields map[string]any
		}{
			{"empty", map[string]any{}},
			{"unknown column", map[string]any{"colour": "red"}},
			{"primary key", map[string]any{"id": 77}},
			{"created_at", map[string]any{"created_at": time.Now()}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, _, err := repo.Update(ctx, p.ID, tt.fields)
				assert.True(t, types.IsCode(err, types.ErrValidation))
			})
		}
	})
}

func TestRepository_UpdateConflict(t *testing.T) {
	pm := setupPool(t)

	inSession(t, pm, func(ctx context.Context, s *database.Session) {
		repo := NewImageRepository(s)
		a := &model.Image{Path: "a.png"}
		b := &model.Image{Path: "b.png"}
		require.NoError(t, repo.Create(ctx, a))
		require.NoError(t, repo.Create(ctx, b))

		_, _, err := repo.Update(ctx, b.ID, map[string]any{"path": "a.png"})
		assert.True(t, types.IsCode(err, types.ErrConflict))
	})
}

func TestRepository_GetAllPagination(t *testing.T) {
	pm := setupPool(t)

	inSession(t, pm, func(ctx context.Context, s *database.Session) {
		repo := NewProductRepository(s)
		all := seedProducts(t, ctx, repo, 5)

		first, err := repo.GetAll(ctx, 2, 0)
		require.NoError(t, err)
		second, err := repo.GetAll(ctx, 2, 2)
		require.NoError(t, err)

		assert.Equal(t, ids(all[0:2]), ids(first))
		assert.Equal(t, ids(all[2:4]), ids(second))

		everything, err := repo.GetAll(ctx, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, ids(all), ids(everything))

		tail, err := repo.GetAll(ctx, 0, 3)
		require.NoError(t, err)
		assert.Equal(t, ids(all[3:]), ids(tail))

		_, err = repo.GetAll(ctx, -1, 0)
		assert.True(t, types.IsCode(err, types.ErrValidation))
		_, err = repo.GetAll(ctx, 1, -1)
		assert.True(t, types.IsCode(err, types.ErrValidation))
	})
}

func TestRepository_GetAllPagesProperty(t *testing.T) {
	pm := setupPool(t)

	inSession(t, pm, func(ctx context.Context, s *database.Session) {
		repo := NewProductRepository(s)
		all := ids(seedProducts(t, ctx, repo, 17))

		rapid.Check(t, func(rt *rapid.T) {
			limit := rapid.IntRange(1, 8).Draw(rt, "limit")
			offset := rapid.IntRange(0, 20).Draw(rt, "offset")

			page, err := repo.GetAll(ctx, limit, offset)
			if err != nil {
				rt.Fatalf("GetAll(%d, %d): %v", limit, offset, err)
			}

			lo := min(offset, len(all))
			hi := min(offset+limit, len(all))
			if got, want := ids(page), all[lo:hi]; !equalIDs(got, want) {
				rt.Fatalf("GetAll(%d, %d) = %v, want %v", limit, offset, got, want)
			}
		})
	})
}

func equalIDs(a, b []uint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRepository_FilterGetByCountExists(t *testing.T) {
	pm := setupPool(t)

	inSession(t, pm, func(ctx context.Context, s *database.Session) {
		repo := NewProductRepository(s)
		require.NoError(t, repo.CreateMany(ctx, []*model.Product{
			newProduct("a", "garden", 1),
			newProduct("b", "kitchen", 2),
			newProduct("c", "garden", 3),
		}))

		garden, err := repo.Filter(ctx, map[string]any{"department": "garden"}, 0, 0)
		require.NoError(t, err)
		require.Len(t, garden, 2)
		assert.Equal(t, "a", garden[0].Name)
		assert.Equal(t, "c", garden[1].Name)

		got, found, err := repo.GetBy(ctx, map[string]any{"department": "kitchen"})
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "b", got.Name)

		_, found, err = repo.GetBy(ctx, map[string]any{"department": "garage"})
		require.NoError(t, err)
		assert.False(t, found)

		_, _, err = repo.GetBy(ctx, nil)
		assert.True(t, types.IsCode(err, types.ErrValidation))

		n, err := repo.Count(ctx, map[string]any{"department": "garden"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		ok, err := repo.Exists(ctx, got.ID)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = repo.Exists(ctx, 999)
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = repo.Filter(ctx, map[string]any{"nope": 1}, 0, 0)
		assert.True(t, types.IsCode(err, types.ErrValidation))
	})
}

func TestRepository_CreateManyValidatesAll(t *testing.T) {
	pm := setupPool(t)

	inSession(t, pm, func(ctx context.Context, s *database.Session) {
		repo := NewProductRepository(s)

		err := repo.CreateMany(ctx, []*model.Product{
			newProduct("ok", "d", 1),
			{Name: "bad"},
		})
		require.Error(t, err)

		var e *types.Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, types.ErrValidation, e.Code)
		assert.Equal(t, 1, e.Detail["index"])

		n, err := repo.Count(ctx, nil)
		require.NoError(t, err)
		assert.Zero(t, n)

		assert.NoError(t, repo.CreateMany(ctx, nil))
	})
}

func TestRepository_BulkUpdateDelete(t *testing.T) {
	pm := setupPool(t)

	inSession(t, pm, func(ctx context.Context, s *database.Session) {
		repo := NewProductRepository(s)
		require.NoError(t, repo.CreateMany(ctx, []*model.Product{
			newProduct("a", "garden", 1),
			newProduct("b", "garden", 2),
			newProduct("c", "kitchen", 3),
		}))

		updated, err := repo.UpdateMany(ctx, map[string]any{"department": "garden"}, map[string]any{"weight": 9.0})
		require.NoError(t, err)
		assert.Equal(t, int64(2), updated)

		_, err = repo.UpdateMany(ctx, nil, map[string]any{"weight": 1.0})
		assert.True(t, types.IsCode(err, types.ErrValidation))

		removed, err := repo.DeleteMany(ctx, map[string]any{"department": "garden"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), removed)

		_, err = repo.DeleteMany(ctx, map[string]any{})
		assert.True(t, types.IsCode(err, types.ErrValidation))

		n, err := repo.Count(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}

func TestRepository_SoftDelete(t *testing.T) {
	pm := setupPool(t)

	inSession(t, pm, func(ctx context.Context, s *database.Session) {
		products := NewProductRepository(s)
		p := newProduct("Widget", "tools", 5)
		require.NoError(t, products.Create(ctx, p))

		ok, err := products.SoftDelete(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = products.SoftDelete(ctx, p.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		got, found, err := products.GetByID(ctx, p.ID)
		require.NoError(t, err)
		require.True(t, found)
		require.NotNil(t, got.DeletedAt)

		// 领域查询排除软删除记录
		res, err := products.Search(ctx, "", "", 0, 0)
		require.NoError(t, err)
		assert.Empty(t, res)

		images := NewImageRepository(s)
		img := &model.Image{Path: "x.png"}
		require.NoError(t, images.Create(ctx, img))
		_, err = images.SoftDelete(ctx, img.ID)
		assert.True(t, types.IsCode(err, types.ErrValidation))
	})
}

func TestRepository_NeverCommits(t *testing.T) {
	pm := setupPool(t)
	ctx := context.Background()

	var id uint
	require.NoError(t, pm.WithSession(ctx, func(ctx context.Context, s *database.Session) error {
		require.NoError(t, s.Begin())
		p := newProduct("temp", "d", 1)
		require.NoError(t, NewProductRepository(s).Create(ctx, p))
		id = p.ID
		// 未提交，关闭会话时回滚
		return nil
	}))

	inSession(t, pm, func(ctx context.Context, s *database.Session) {
		_, found, err := NewProductRepository(s).GetByID(ctx, id)
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestRepository_TransactionCommit(t *testing.T) {
	pm := setupPool(t)
	ctx := context.Background()

	var id uint
	require.NoError(t, pm.WithTransaction(ctx, func(ctx context.Context, s *database.Session) error {
		p := newProduct("kept", "d", 1)
		if err := NewProductRepository(s).Create(ctx, p); err != nil {
			return err
		}
		id = p.ID
		return nil
	}))

	inSession(t, pm, func(ctx context.Context, s *database.Session) {
		ok, err := NewProductRepository(s).Exists(ctx, id)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

// =============================================================================
// 🧪 错误映射
// =============================================================================

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code types.ErrorCode
	}{
		{"gorm duplicated", gorm.ErrDuplicatedKey, types.ErrConflict},
		{"gorm foreign key", gorm.ErrForeignKeyViolated, types.ErrConflict},
		{"gorm missing where", gorm.ErrMissingWhereClause, types.ErrValidation},
		{"pg unique", &pgconn.PgError{Code: "23505", ConstraintName: "images_path_key"}, types.ErrConflict},
		{"pg foreign key", &pgconn.PgError{Code: "23503"}, types.ErrConflict},
		{"pg not null", &pgconn.PgError{Code: "23502", ColumnName: "name"}, types.ErrValidation},
		{"mysql duplicate", &gomysql.MySQLError{Number: 1062}, types.ErrConflict},
		{"mysql fk", &gomysql.MySQLError{Number: 1452}, types.ErrConflict},
		{"mysql null", &gomysql.MySQLError{Number: 1048}, types.ErrValidation},
		{"sqlite unique", errors.New("constraint failed: UNIQUE constraint failed: images.path (2067)"), types.ErrConflict},
		{"sqlite not null", errors.New("NOT NULL constraint failed: products.name"), types.ErrValidation},
		{"wrapped pg", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), types.ErrConflict},
		{"already mapped", types.NewValidationError("x"), types.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, types.GetErrorCode(mapError(tt.err)))
		})
	}

	assert.NoError(t, mapError(nil))

	other := errors.New("syntax error")
	assert.Same(t, other, mapError(other))
}
