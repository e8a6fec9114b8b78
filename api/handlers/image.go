package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/BaSui01/eventually/api"
	"github.com/BaSui01/eventually/internal/database"
	"github.com/BaSui01/eventually/internal/repository"
	"github.com/BaSui01/eventually/types"
	"github.com/go-chi/chi/v5"
)

// =============================================================================
// 🖼️ 图片 Handler
// =============================================================================

// ImageHandler /api/image 端点
type ImageHandler struct {
	db     SessionProvider
	errors ErrorWriter
}

// NewImageHandler 创建图片处理器
func NewImageHandler(db SessionProvider, ew ErrorWriter) *ImageHandler {
	return &ImageHandler{db: db, errors: ew}
}

// Routes 挂载图片端点
func (h *ImageHandler) Routes(r chi.Router) {
	r.Post("/", h.HandleCreate)
	r.Get("/", h.HandleList)
	r.Get("/by-path", h.HandleByPath)
	r.Get("/{id}", h.HandleGet)
	r.Put("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)
}

func imageNotFound(id uint) error {
	return types.NewNotFoundError(fmt.Sprintf("Image with id %d not found", id)).
		WithDetail("id", id)
}

// HandleCreate POST /api/image/；路径重复返回 409
func (h *ImageHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req api.ImageCreate
	if err := DecodeJSONBody(w, r, &req); err != nil {
		h.errors.Write(w, r, err)
		return
	}

	img := req.Model()
	err := h.db.WithTransaction(r.Context(), func(ctx context.Context, s *database.Session) error {
		return repository.NewImageRepository(s).Create(ctx, img)
	})
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, api.NewImageResponse(img))
}

// HandleList GET /api/image/?limit=&offset=
func (h *ImageHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, err := ParsePage(r)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	var out []api.ImageResponse
	err = h.db.WithSession(r.Context(), func(ctx context.Context, s *database.Session) error {
		images, err := repository.NewImageRepository(s).GetAll(ctx, page.Limit, page.Offset)
		if err != nil {
			return err
		}
		out = make([]api.ImageResponse, len(images))
		for i := range images {
			out[i] = api.NewImageResponse(&images[i])
		}
		return nil
	})
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}

// HandleByPath GET /api/image/by-path?path=
func (h *ImageHandler) HandleByPath(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSpace(r.URL.Query().Get("path"))
	if path == "" {
		h.errors.Write(w, r, types.NewValidationError("invalid query parameter").
			WithDetail("path", "is required"))
		return
	}

	var resp api.ImageResponse
	err := h.db.WithSession(r.Context(), func(ctx context.Context, s *database.Session) error {
		img, found, err := repository.NewImageRepository(s).FindByPath(ctx, path)
		if err != nil {
			return err
		}
		if !found {
			return types.NewNotFoundError("Image not found").WithDetail("path", path)
		}
		resp = api.NewImageResponse(img)
		return nil
	})
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}

// HandleGet GET /api/image/{id}
func (h *ImageHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	var resp api.ImageResponse
	err = h.db.WithSession(r.Context(), func(ctx context.Context, s *database.Session) error {
		img, found, err := repository.NewImageRepository(s).GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !found {
			return imageNotFound(id)
		}
		resp = api.NewImageResponse(img)
		return nil
	})
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}

// HandleUpdate PUT /api/image/{id}
func (h *ImageHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	var req api.ImageUpdate
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

	var resp api.ImageResponse
	err = h.db.WithTransaction(r.Context(), func(ctx context.Context, s *database.Session) error {
		img, found, err := repository.NewImageRepository(s).Update(ctx, id, fields)
		if err != nil {
			return err
		}
		if !found {
			return imageNotFound(id)
		}
		resp = api.NewImageResponse(img)
		return nil
	})
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}

// HandleDelete DELETE /api/image/{id}
func (h *ImageHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	err = h.db.WithTransaction(r.Context(), func(ctx context.Context, s *database.Session) error {
		deleted, err := repository.NewImageRepository(s).Delete(ctx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return imageNotFound(id)
		}
		return nil
	})
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
