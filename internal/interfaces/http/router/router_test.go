package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/bullion/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.SetupValidator(); err != nil {
		panic(err)
	}
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
	assert.Equal(t, "v2", NewRouter(gin.New(), WithAPIVersion("v2")).apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("system", "/system")
	g.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	NewRouter(engine, WithAPIVersion("v1")).Register(g).Setup()

	w := serve(engine, http.MethodGet, "/api/v1/system/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/system/ping").Code)
}

func TestRouterUse(t *testing.T) {
	engine := gin.New()
	engine.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	g := NewDomainGroup("products", "/products")
	g.GET("", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("api")) })

	NewRouter(engine).
		Use(func(c *gin.Context) { c.Set("api", "seen"); c.Header("X-API", "1") }).
		Register(g).
		Setup()

	w := serve(engine, http.MethodGet, "/api/v1/products")
	assert.Equal(t, "seen", w.Body.String())
	assert.Equal(t, "1", w.Header().Get("X-API"))

	w = serve(engine, http.MethodGet, "/health")
	assert.Empty(t, w.Header().Get("X-API"))
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("transactions", "/transactions")
		assert.Equal(t, "transactions", g.Name())
		assert.Equal(t, "/transactions", g.Prefix())
	})

	t.Run("methods", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("products", "/products")
		ok := func(c *gin.Context) { c.String(http.StatusOK, c.Request.Method) }
		g.GET("/:id", ok).
			POST("", ok).
			PUT("/:id", ok).
			DELETE("/:id", ok)
		NewRouter(engine).Register(g).Setup()

		for _, tt := range []struct{ method, path string }{
			{http.MethodGet, "/api/v1/products/1"},
			{http.MethodPost, "/api/v1/products"},
			{http.MethodPut, "/api/v1/products/1"},
			{http.MethodDelete, "/api/v1/products/1"},
		} {
			w := serve(engine, tt.method, tt.path)
			assert.Equal(t, http.StatusOK, w.Code, "%s %s", tt.method, tt.path)
			assert.Equal(t, tt.method, w.Body.String())
		}
	})

	t.Run("group middleware stays inside the group", func(t *testing.T) {
		engine := gin.New()
		guarded := NewDomainGroup("transactions", "/transactions").
			Use(func(c *gin.Context) { c.AbortWithStatus(http.StatusForbidden) })
		guarded.GET("", func(c *gin.Context) { c.Status(http.StatusOK) })
		open := NewDomainGroup("products", "/products")
		open.GET("", func(c *gin.Context) { c.Status(http.StatusOK) })

		NewRouter(engine).Register(guarded).Register(open).Setup()

		assert.Equal(t, http.StatusForbidden, serve(engine, http.MethodGet, "/api/v1/transactions").Code)
		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v1/products").Code)
	})

	t.Run("subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("transactions", "/transactions")
		g.Group("reports", "/reports").
			GET("/daily", func(c *gin.Context) { c.String(http.StatusOK, "daily") })
		NewRouter(engine).Register(g).Setup()

		w := serve(engine, http.MethodGet, "/api/v1/transactions/reports/daily")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "daily", w.Body.String())
	})
}
