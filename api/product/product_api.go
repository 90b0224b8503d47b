package product

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"ballstore.GO/api"
	"ballstore.GO/core/apperr"
	entity "ballstore.GO/model/entity"
)

func init() {
	api.RegisterModule(RegisterProductRoutes)
}

type productBody struct {
	Name      string `json:"name"`
	Category  string `json:"category"`
	Grade     string `json:"grade"`
	Stock     *int   `json:"stock"`
	PricePcs  *int64 `json:"pricePcs"`
	PriceBulk *int64 `json:"priceBulk"`
	PriceKg   *int64 `json:"priceKg"`
}

func RegisterProductRoutes(apiGroup *echo.Group, db *gorm.DB) {
	g := apiGroup.Group("/products")

	g.GET("", func(c echo.Context) error {
		limit, _ := strconv.Atoi(c.QueryParam("limit"))
		if limit < 1 {
			limit = 20
		}
		if limit > 100 {
			limit = 100
		}
		offset, _ := strconv.Atoi(c.QueryParam("offset"))
		if offset == 0 {
			offset, _ = strconv.Atoi(c.QueryParam("skip"))
		}

		q := db.Model(&entity.Product{}).Where("is_deleted = ?", false)
		if cat := c.QueryParam("category"); cat != "" {
			q = q.Where("category = ?", cat)
		}
		if search := c.QueryParam("search"); search != "" {
			q = q.Where("name LIKE ?", "%"+search+"%")
		}
		if c.QueryParam("kind") == "sortir" {
			q = q.Where("ball_id IS NOT NULL")
		} else if c.QueryParam("kind") == "manual" {
			q = q.Where("ball_id IS NULL")
		}

		var total int64
		if err := q.Count(&total).Error; err != nil {
			return api.Fail(c, err)
		}
		var rows []entity.Product
		if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
			return api.Fail(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"items": rows, "total": total})
	})

	g.GET("/:id", func(c echo.Context) error {
		id, err := api.ParamID(c, "id")
		if err != nil {
			return api.Fail(c, err)
		}
		var row entity.Product
		if err := db.First(&row, id).Error; err != nil {
			return api.Fail(c, apperr.NotFound("product %d not found", id))
		}
		return c.JSON(http.StatusOK, row)
	})

	g.POST("", func(c echo.Context) error {
		var body productBody
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		if body.Name == "" || body.Category == "" {
			return api.Fail(c, apperr.Validation("name and category are required"))
		}
		row := entity.Product{
			Name:      body.Name,
			Category:  body.Category,
			Grade:     body.Grade,
			PricePcs:  body.PricePcs,
			PriceBulk: body.PriceBulk,
			PriceKg:   body.PriceKg,
		}
		// Initial stock may be seeded at creation; afterwards the stock
		// column only moves through the ledger.
		if body.Stock != nil {
			if *body.Stock < 0 {
				return api.Fail(c, apperr.Validation("stock must be >= 0"))
			}
			row.Stock = *body.Stock
		}
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
		var body productBody
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		var row entity.Product
		if err := db.First(&row, id).Error; err != nil {
			return api.Fail(c, apperr.NotFound("product %d not found", id))
		}
		patch := map[string]interface{}{}
		if body.Name != "" {
			patch["name"] = body.Name
		}
		if body.Category != "" {
			patch["category"] = body.Category
		}
		if body.Grade != "" {
			patch["grade"] = body.Grade
		}
		if body.PricePcs != nil {
			patch["price_pcs"] = *body.PricePcs
		}
		if body.PriceBulk != nil {
			patch["price_bulk"] = *body.PriceBulk
		}
		if body.PriceKg != nil {
			patch["price_kg"] = *body.PriceKg
		}
		if len(patch) > 0 {
			if err := db.Model(&row).Updates(patch).Error; err != nil {
				return api.Fail(c, err)
			}
		}
		return c.JSON(http.StatusOK, row)
	})

	g.DELETE("/:id", func(c echo.Context) error {
		id, err := api.ParamID(c, "id")
		if err != nil {
			return api.Fail(c, err)
		}
		res := db.Model(&entity.Product{}).Where("id = ?", id).Update("is_deleted", true)
		if res.Error != nil {
			return api.Fail(c, res.Error)
		}
		if res.RowsAffected == 0 {
			return api.Fail(c, apperr.NotFound("product %d not found", id))
		}
		return c.JSON(http.StatusOK, echo.Map{"ok": true})
	})
}
