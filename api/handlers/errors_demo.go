package handlers

import (
	"errors"
	"net/http"

	"github.com/BaSui01/eventually/api"
	"github.com/BaSui01/eventually/types"
	"github.com/go-chi/chi/v5"
)

// DemoHandler /test 下的错误响应示例，仅在非生产环境挂载
type DemoHandler struct {
	errors ErrorWriter
}

// NewDemoHandler 创建示例处理器
func NewDemoHandler(ew ErrorWriter) *DemoHandler {
	return &DemoHandler{errors: ew}
}

// Routes 挂载示例端点
func (h *DemoHandler) Routes(r chi.Router) {
	r.Get("/success", h.HandleSuccess)
	r.Get("/not-found", h.HandleNotFound)
	r.Get("/server-error", h.HandleServerError)
	r.Get("/unexpected-error", h.HandleUnexpectedError)
}

func (h *DemoHandler) HandleSuccess(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, api.MessageResponse{Message: "Success!"})
}

func (h *DemoHandler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	h.errors.Write(w, r, types.NewNotFoundError("User not found").
		WithDetail("user_id", 123).
		WithDetail("reason", "User does not exist in database"))
}

func (h *DemoHandler) HandleServerError(w http.ResponseWriter, r *http.Request) {
	h.errors.Write(w, r, types.NewError(types.ErrInternalError, "Database connection failed").
		WithDetail("server", "db-primary"))
}

// HandleUnexpectedError 未分类错误走 500 兜底
func (h *DemoHandler) HandleUnexpectedError(w http.ResponseWriter, r *http.Request) {
	h.errors.Write(w, r, errors.New("unexpected error occurred"))
}
