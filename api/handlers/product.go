package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/BaSui01/eventually/api"
	"github.com/BaSui01/eventually/internal/database"
	"github.com/BaSui01/eventually/internal/model"
	"github.com/BaSui01/eventually/internal/repository"
	"github.com/BaSui01/eventually/types"
	"github.com/go-chi/chi/v5"
)

// =============================================================================
// 🗄️ 会话来源
// =============================================================================

// SessionProvider 提供作用域会话与事务，由 database.PoolManager 实现
type SessionProvider interface {
	WithSession(ctx context.Context, fn func(ctx context.Context, s *database.Session) error) error
	WithTransaction(ctx context.Context, fn database.TransactionFunc) error
}

// =============================================================================
// 🛒 商品 Handler
// =============================================================================

// ProductHandler /api/product 端点
type ProductHandler struct {
	db     SessionProvider
	errors ErrorWriter
}

// NewProductHandler 创建商品处理器
func NewProductHandler(db SessionProvider, ew ErrorWriter) *ProductHandler {
	return &ProductHandler{db: db, errors: ew}
}

// Routes 挂载商品端点
func (h *ProductHandler) Routes(r chi.Router) {
	r.Post("/", h.HandleCreate)
	r.Get("/", h.HandleList)
	r.Get("/department/{department}", h.HandleByDepartment)
	r.Get("/price-range/search", h.HandleByPriceRange)
	r.Get("/{id}", h.HandleGet)
	r.Put("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)
}

func productNotFound(id uint) error {
	return types.NewNotFoundError(fmt.Sprintf("Product with id %d not found", id)).
		WithDetail("id", id)
}

// HandleCreate POST /api/product/
func (h *ProductHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req api.ProductCreate
	if err := DecodeJSONBody(w, r, &req); err != nil {
		h.errors.Write(w, r, err)
		return
	}

	product := req.Model()
	err := h.db.WithTransaction(r.Context(), func(ctx context.Context, s *database.Session) error {
		return repository.NewProductRepository(s).Create(ctx, product)
	})
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, api.NewProductResponse(product))
}

// HandleList GET /api/product/?search=&department=&limit=&offset=
func (h *ProductHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, err := ParsePage(r)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	search := r.URL.Query().Get("search")
	department := r.URL.Query().Get("department")

	h.list(w, r, func(ctx context.Context, repo *repository.ProductRepository) ([]api.ProductSummary, error) {
		var (
			products []model.Product
			err      error
		)
		if search == "" && department == "" {
			products, err = repo.GetAll(ctx, page.Limit, page.Offset)
		} else {
			products, err = repo.Search(ctx, search, department, page.Limit, page.Offset)
		}
		return api.ProductSummaries(products), err
	})
}

// HandleGet GET /api/product/{id}
func (h *ProductHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	var resp api.ProductResponse
	err = h.db.WithSession(r.Context(), func(ctx context.Context, s *database.Session) error {
		p, found, err := repository.NewProductRepository(s).GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !found {
			return productNotFound(id)
		}
		resp = api.NewProductResponse(p)
		return nil
	})
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}

// HandleUpdate PUT /api/product/{id}，只更新请求中出现的字段
func (h *ProductHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	var req api.ProductUpdate
	if err := DecodeJSONBody(w, r, &req); err != nil {
		h.errors.Write(w, r, err)
		return
	}
	fields, err := req.Fields()
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	if len(fields) == 0 {
		h.errors.Write(w, r, types.NewError(types.ErrBadRequest, "No fields to update"))
		return
	}

	var resp api.ProductResponse
	err = h.db.WithTransaction(r.Context(), func(ctx context.Context, s *database.Session) error {
		p, found, err := repository.NewProductRepository(s).Update(ctx, id, fields)
		if err != nil {
			return err
		}
		if !found {
			return productNotFound(id)
		}
		resp = api.NewProductResponse(p)
		return nil
	})
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}

// HandleDelete DELETE /api/product/{id}
func (h *ProductHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	err = h.db.WithTransaction(r.Context(), func(ctx context.Context, s *database.Session) error {
		deleted, err := repository.NewProductRepository(s).Delete(ctx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return productNotFound(id)
		}
		return nil
	})
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleByDepartment GET /api/product/department/{department}
func (h *ProductHandler) HandleByDepartment(w http.ResponseWriter, r *http.Request) {
	page, err := ParsePage(r)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	department := chi.URLParam(r, "department")

	h.list(w, r, func(ctx context.Context, repo *repository.ProductRepository) ([]api.ProductSummary, error) {
		products, err := repo.GetByDepartment(ctx, department, page.Limit, page.Offset)
		return api.ProductSummaries(products), err
	})
}

// HandleByPriceRange GET /api/product/price-range/search?min_price=&max_price=
func (h *ProductHandler) HandleByPriceRange(w http.ResponseWriter, r *http.Request) {
	page, err := ParsePage(r)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	minPrice, err := QueryFloat(r, "min_price")
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	maxPrice, err := QueryFloat(r, "max_price")
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	h.list(w, r, func(ctx context.Context, repo *repository.ProductRepository) ([]api.ProductSummary, error) {
		products, err := repo.GetByPriceRange(ctx, minPrice, maxPrice, page.Limit, page.Offset)
		return api.ProductSummaries(products), err
	})
}

func (h *ProductHandler) list(w http.ResponseWriter, r *http.Request,
	query func(ctx context.Context, repo *repository.ProductRepository) ([]api.ProductSummary, error)) {
	var out []api.ProductSummary
	err := h.db.WithSession(r.Context(), func(ctx context.Context, s *database.Session) error {
		var err error
		out, err = query(ctx, repository.NewProductRepository(s))
		return err
	})
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}
