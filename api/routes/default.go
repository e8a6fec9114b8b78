package routes

import (
	"fmt"
	"net/http"

	"github.com/BaSui01/eventually/api/handlers"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// =============================================================================
// 🗺️ 应用路由
// =============================================================================

// Deps 构造处理器所需的依赖
type Deps struct {
	DB     handlers.SessionProvider
	Health *handlers.HealthHandler
	Errors handlers.ErrorWriter
	// Demo 为 true 时挂载 /test 错误示例路由（生产环境关闭）
	Demo   bool
	Logger *zap.Logger
}

// Default 应用的完整注册列表，顺序即挂载顺序
func Default(d Deps) (*Registry, error) {
	if d.DB == nil {
		return nil, fmt.Errorf("routes: database session provider is required")
	}
	if d.Health == nil {
		return nil, fmt.Errorf("routes: health handler is required")
	}

	list := []Route{
		{Name: "health", Prefix: "/api", Mount: func(r chi.Router) {
			r.Get("/", d.Health.HandleRoot)
			r.Get("/health", d.Health.HandleHealth)
		}},
		{Name: "product", Mount: handlers.NewProductHandler(d.DB, d.Errors).Routes},
		{Name: "image", Mount: handlers.NewImageHandler(d.DB, d.Errors).Routes},
		{Name: "event", Mount: handlers.NewEventHandler(d.DB, d.Errors).Routes},
	}
	if d.Demo {
		list = append(list, Route{
			Name:   "test",
			Prefix: "/test",
			Tags:   []string{"test"},
			Mount:  handlers.NewDemoHandler(d.Errors).Routes,
		})
	}
	return NewRegistry(list...)
}

// NewRouter 构建根路由：错误处理器、中间件、探针端点，再挂载 Default 列表。
// 中间件必须在任何路由之前注册。
func NewRouter(d Deps, middlewares ...func(http.Handler) http.Handler) (chi.Router, error) {
	reg, err := Default(d)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.NotFound(d.Errors.NotFound)
	r.MethodNotAllowed(d.Errors.MethodNotAllowed)
	r.Use(middlewares...)

	r.Get("/healthz", d.Health.HandleHealthz)
	r.Get("/ready", d.Health.HandleReady)
	r.Get("/readyz", d.Health.HandleReady)
	r.Get("/version", d.Health.HandleVersion)

	reg.Mount(r, d.Logger)
	return r, nil
}
