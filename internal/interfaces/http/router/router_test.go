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

func TestNewRouter(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))

	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v1"))

	group := NewDomainGroup("lending", "/lending")
	group.GET("/tariffs", func(c *gin.Context) {
		c.String(http.StatusOK, "tariffs")
	})

	r.Register(group)
	r.Setup()

	req := httptest.NewRequest("GET", "/api/v1/lending/tariffs", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tariffs", w.Body.String())
}

func TestDomainGroup(t *testing.T) {
	t.Run("creates group with name and prefix", func(t *testing.T) {
		g := NewDomainGroup("lending", "/lending")
		assert.Equal(t, "lending", g.Name())
		assert.Equal(t, "/lending", g.Prefix())
	})

	t.Run("registers routes for each verb", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("lending", "/lending")
		g.GET("/loans", func(c *gin.Context) { c.String(http.StatusOK, "loans") }).
			POST("/applications", func(c *gin.Context) { c.String(http.StatusCreated, "filed") }).
			PUT("/processing/date", func(c *gin.Context) { c.String(http.StatusOK, "moved") }).
			DELETE("/tariffs/:id", func(c *gin.Context) { c.String(http.StatusNoContent, "") })

		api := engine.Group("/api/v1")
		g.RegisterRoutes(api)

		tests := []struct {
			method string
			path   string
			status int
		}{
			{"GET", "/api/v1/lending/loans", http.StatusOK},
			{"POST", "/api/v1/lending/applications", http.StatusCreated},
			{"PUT", "/api/v1/lending/processing/date", http.StatusOK},
			{"DELETE", "/api/v1/lending/tariffs/123", http.StatusNoContent},
		}

		for _, tt := range tests {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code, "%s %s", tt.method, tt.path)
		}
	})

	t.Run("applies middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("lending", "/lending")

		g.Use(func(c *gin.Context) {
			c.Header("X-Group-Middleware", "applied")
			c.Next()
		})

		g.GET("/loans", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		api := engine.Group("/api/v1")
		g.RegisterRoutes(api)

		req := httptest.NewRequest("GET", "/api/v1/lending/loans", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, "applied", w.Header().Get("X-Group-Middleware"))
	})

	t.Run("creates subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("lending", "/lending")

		processing := g.Group("processing", "/processing")
		processing.GET("/date", func(c *gin.Context) {
			c.String(http.StatusOK, "bank date")
		})

		api := engine.Group("/api/v1")
		g.RegisterRoutes(api)

		req := httptest.NewRequest("GET", "/api/v1/lending/processing/date", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "bank date", w.Body.String())
	})
}

func TestMultipleDomainGroups(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	lending := NewDomainGroup("lending", "/lending")
	lending.GET("/loans", func(c *gin.Context) {
		c.String(http.StatusOK, "loans")
	})

	system := NewDomainGroup("system", "/system")
	system.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	r.Register(lending).Register(system)
	r.Setup()

	req1 := httptest.NewRequest("GET", "/api/v1/lending/loans", nil)
	w1 := httptest.NewRecorder()
	engine.ServeHTTP(w1, req1)
	assert.Equal(t, http.StatusOK, w1.Code)
	assert.Equal(t, "loans", w1.Body.String())

	req2 := httptest.NewRequest("GET", "/api/v1/system/ping", nil)
	w2 := httptest.NewRecorder()
	engine.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusOK, w2.Code)
	assert.Equal(t, "pong", w2.Body.String())
}
