package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BaSui01/eventually/api"
	"github.com/BaSui01/eventually/api/handlers"
	"github.com/BaSui01/eventually/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// noDB 不访问数据库的会话来源，仅用于路由装配
type noDB struct{}

func (noDB) WithSession(context.Context, func(context.Context, *database.Session) error) error {
	return nil
}

func (noDB) WithTransaction(context.Context, database.TransactionFunc) error { return nil }

func testDeps(demo bool) Deps {
	return Deps{
		DB:     noDB{},
		Health: handlers.NewHealthHandler(zap.NewNop(), handlers.BuildInfo{Version: "1.2.3"}),
		Errors: handlers.ErrorWriter{Logger: zap.NewNop()},
		Demo:   demo,
	}
}

func TestDefault_Prefixes(t *testing.T) {
	reg, err := Default(testDeps(true))
	require.NoError(t, err)

	var prefixes []string
	for _, r := range reg.Routes() {
		prefixes = append(prefixes, r.Prefix)
	}
	assert.Equal(t, []string{"/api", "/api/product", "/api/image", "/api/event", "/test"}, prefixes)

	reg, err = Default(testDeps(false))
	require.NoError(t, err)
	assert.Len(t, reg.Routes(), 4)
}

func TestDefault_RequiresDeps(t *testing.T) {
	d := testDeps(false)
	d.DB = nil
	_, err := Default(d)
	assert.Error(t, err)

	d = testDeps(false)
	d.Health = nil
	_, err = Default(d)
	assert.Error(t, err)
}

func TestNewRouter(t *testing.T) {
	var seen []string
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = append(seen, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}

	router, err := NewRouter(testDeps(false), mw)
	require.NoError(t, err)

	for path, want := range map[string]int{
		"/api/":         http.StatusOK,
		"/api/health":   http.StatusOK,
		"/healthz":      http.StatusOK,
		"/ready":        http.StatusOK,
		"/version":      http.StatusOK,
		"/test/success": http.StatusNotFound,
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, rec.Code, path)
	}
	assert.Len(t, seen, 6)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp api.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "NOT_FOUND", resp.ErrorCode)
	assert.Equal(t, "/nowhere", resp.Path)

	patterns, err := Walk(router)
	require.NoError(t, err)
	for _, want := range []string{
		"GET /api/product/{id}",
		"GET /api/product/price-range/search",
		"GET /api/image/by-path",
		"GET /api/event/upcoming",
		"DELETE /api/event/{id}",
	} {
		assert.Contains(t, patterns, want)
	}
}
