package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

func TestRegistry_Register_Apply(t *testing.T) {
	RegisterModule(func(g *echo.Group, db *gorm.DB) {
		g.GET("/registry/check", func(c echo.Context) error {
			return c.JSON(200, map[string]string{"status": "ok"})
		})
	})

	e := echo.New()
	ApplyModules(e.Group("/api"), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/registry/check", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
