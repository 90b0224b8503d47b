package store

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"ballstore.GO/api"
	"ballstore.GO/core/apperr"
	entity "ballstore.GO/model/entity"
)

func init() {
	api.RegisterModule(RegisterStoreRoutes)
}

type storeBody struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func RegisterStoreRoutes(apiGroup *echo.Group, db *gorm.DB) {
	g := apiGroup.Group("/stores")

	g.GET("", func(c echo.Context) error {
		var rows []entity.Store
		if err := db.Order("id ASC").Find(&rows).Error; err != nil {
			return api.Fail(c, err)
		}
		return c.JSON(http.StatusOK, rows)
	})

	g.POST("", func(c echo.Context) error {
		var body storeBody
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		if body.Name == "" {
			return api.Fail(c, apperr.Validation("name is required"))
		}
		row := entity.Store{Name: body.Name, Type: body.Type}
		if err := db.Create(&row).Error; err != nil {
			return api.Fail(c, err)
		}
		return c.JSON(http.StatusOK, row)
	})

	g.PUT("/:id", func(c echo.Context) error {
		id, err := api.ParamID(c, "id")
		if err != nil {
			return api.Fail(c, err)
		}
		var body storeBody
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		var row entity.Store
		if err := db.First(&row, id).Error; err != nil {
			return api.Fail(c, apperr.NotFound("store %d not found", id))
		}
		if body.Name != "" {
			row.Name = body.Name
		}
		if body.Type != "" {
			row.Type = body.Type
		}
		if err := db.Save(&row).Error; err != nil {
			return api.Fail(c, err)
		}
		return c.JSON(http.StatusOK, row)
	})

	g.DELETE("/:id", func(c echo.Context) error {
		id, err := api.ParamID(c, "id")
		if err != nil {
			return api.Fail(c, err)
		}
		if err := db.Delete(&entity.Store{}, id).Error; err != nil {
			return api.Fail(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"ok": true})
	})
}
