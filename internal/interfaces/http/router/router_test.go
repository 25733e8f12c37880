package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func pong(c *gin.Context) { c.String(http.StatusOK, "pong") }

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
	assert.Empty(t, r.middleware)
}

func TestRouterWithAPIVersion(t *testing.T) {
	engine := gin.New()
	NewRouter(engine, WithAPIVersion("v2")).
		Register(NewDomainGroup("test", "/test").GET("/ping", pong)).
		Setup()

	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v2/test/ping").Code)
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/api/v1/test/ping").Code)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)
	r.Register(
		NewDomainGroup("a", "/a").GET("/ping", pong),
		NewDomainGroup("b", "/b").POST("/ping", pong),
	)
	assert.Len(t, r.registrars, 2)
	r.Setup()

	w := serve(engine, http.MethodGet, "/api/v1/a/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodPost, "/api/v1/b/ping").Code)
}

func TestRouterWithMiddleware_ScopedToAPIGroup(t *testing.T) {
	engine := gin.New()
	engine.GET("/health", pong)

	deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }
	NewRouter(engine, WithMiddleware(deny)).
		Register(NewDomainGroup("test", "/test").GET("/ping", pong)).
		Setup()

	assert.Equal(t, http.StatusUnauthorized, serve(engine, http.MethodGet, "/api/v1/test/ping").Code)
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/health").Code)
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("cashboxes", "/cashboxes")
		assert.Equal(t, "cashboxes", g.Name())
		assert.Equal(t, "/cashboxes", g.Prefix())
	})

	t.Run("Handle registers arbitrary methods", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test").Handle(http.MethodPut, "/item", pong)
		g.RegisterRoutes(engine.Group("/api"))

		assert.Equal(t, http.StatusOK, serve(engine, http.MethodPut, "/api/test/item").Code)
		assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/api/test/item").Code)
	})

	t.Run("group middleware runs before handlers", func(t *testing.T) {
		engine := gin.New()
		var order []string
		g := NewDomainGroup("test", "/test").
			Use(func(c *gin.Context) { order = append(order, "mw"); c.Next() }).
			GET("/ping", func(c *gin.Context) { order = append(order, "handler"); pong(c) })
		g.RegisterRoutes(engine.Group("/api"))

		serve(engine, http.MethodGet, "/api/test/ping")
		assert.Equal(t, []string{"mw", "handler"}, order)
	})

	t.Run("subgroups nest under the parent prefix", func(t *testing.T) {
		engine := gin.New()
		parent := NewDomainGroup("finance", "/finance")
		parent.Group("payments", "/payments").GET("/ping", pong)
		parent.RegisterRoutes(engine.Group("/api"))

		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/finance/payments/ping").Code)
	})

	t.Run("static route beside param route", func(t *testing.T) {
		engine := gin.New()
		NewDomainGroup("cashboxes", "/cashboxes").
			GET("/verify", func(c *gin.Context) { c.String(http.StatusOK, "all") }).
			GET("/:id", func(c *gin.Context) { c.String(http.StatusOK, c.Param("id")) }).
			RegisterRoutes(engine.Group("/api"))

		assert.Equal(t, "all", serve(engine, http.MethodGet, "/api/cashboxes/verify").Body.String())
		assert.Equal(t, "abc", serve(engine, http.MethodGet, "/api/cashboxes/abc").Body.String())
	})
}
