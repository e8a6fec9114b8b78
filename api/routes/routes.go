package routes

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// =============================================================================
// 🧭 路由注册表
// =============================================================================

// Route 一组挂载在同一前缀下的端点
type Route struct {
	// Name 路由组名；缺省前缀与标签均由它推导
	Name string
	// Prefix 缺省为 /api/<name>
	Prefix string
	// Tags 缺省为 [name]
	Tags []string
	// Mount 在子路由上注册端点
	Mount func(r chi.Router)
}

// Registry 有序的路由注册表，按 Add 的顺序挂载
type Registry struct {
	routes   []Route
	prefixes map[string]string
}

// NewRegistry 创建注册表并按顺序添加路由；任一条目非法时返回错误
func NewRegistry(routes ...Route) (*Registry, error) {
	reg := &Registry{prefixes: make(map[string]string)}
	for _, r := range routes {
		if err := reg.Add(r); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Add 补全缺省值后追加路由；重复前缀被拒绝
func (reg *Registry) Add(r Route) error {
	resolved, err := resolve(r)
	if err != nil {
		return err
	}
	if owner, ok := reg.prefixes[resolved.Prefix]; ok {
		return fmt.Errorf("route %q: prefix %s already registered by %q", resolved.Name, resolved.Prefix, owner)
	}
	reg.prefixes[resolved.Prefix] = resolved.Name
	reg.routes = append(reg.routes, resolved)
	return nil
}

// Routes 已解析的路由，按注册顺序
func (reg *Registry) Routes() []Route {
	out := make([]Route, len(reg.routes))
	copy(out, reg.routes)
	return out
}

// Mount 将全部路由挂到 router 上
func (reg *Registry) Mount(router chi.Router, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, r := range reg.routes {
		router.Route(r.Prefix, r.Mount)
		logger.Debug("route registered",
			zap.String("name", r.Name),
			zap.String("prefix", r.Prefix),
			zap.Strings("tags", r.Tags),
		)
	}
	logger.Info("routes registered", zap.Int("count", len(reg.routes)))
}

// Walk 列出已挂载的 method + pattern，用于启动日志与测试
func Walk(router chi.Routes) ([]string, error) {
	var out []string
	err := chi.Walk(router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		out = append(out, method+" "+route)
		return nil
	})
	return out, err
}

func resolve(r Route) (Route, error) {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return r, fmt.Errorf("route name is required")
	}
	if r.Mount == nil {
		return r, fmt.Errorf("route %q: mount function is required", r.Name)
	}
	if r.Prefix == "" {
		r.Prefix = DefaultPrefix(r.Name)
	}
	prefix, err := normalizePrefix(r.Prefix)
	if err != nil {
		return r, fmt.Errorf("route %q: %w", r.Name, err)
	}
	r.Prefix = prefix
	if len(r.Tags) == 0 {
		r.Tags = []string{r.Name}
	} else {
		r.Tags = append([]string(nil), r.Tags...)
	}
	return r, nil
}

// DefaultPrefix 由名称推导前缀：小写，空白与下划线替换为连字符
func DefaultPrefix(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Join(strings.FieldsFunc(slug, func(c rune) bool {
		return c == ' ' || c == '_' || c == '\t'
	}), "-")
	return "/api/" + slug
}

func normalizePrefix(p string) (string, error) {
	if !strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("prefix %q must start with /", p)
	}
	if strings.ContainsAny(p, "{}*") {
		return "", fmt.Errorf("prefix %q must not contain patterns", p)
	}
	clean := path.Clean(p)
	if clean == "/" {
		return "", fmt.Errorf("prefix must not be the root path")
	}
	return clean, nil
}
