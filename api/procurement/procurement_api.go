package procurement

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"ballstore.GO/api"
	procurementService "ballstore.GO/service/procurement"
)

func init() {
	api.RegisterModule(RegisterProcurementRoutes)
}

func RegisterProcurementRoutes(apiGroup *echo.Group, db *gorm.DB) {
	g := apiGroup.Group("/procurements")

	g.POST("", func(c echo.Context) error {
		var body procurementService.Input
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		created, err := procurementService.Create(db, api.ActorID(c), body)
		if err != nil {
			return api.Fail(c, err)
		}
		return c.JSON(http.StatusOK, created)
	})

	g.GET("", func(c echo.Context) error {
		limit, _ := strconv.Atoi(c.QueryParam("limit"))
		offset, _ := strconv.Atoi(c.QueryParam("offset"))
		if offset == 0 {
			offset, _ = strconv.Atoi(c.QueryParam("skip"))
		}
		rows, total, err := procurementService.List(db, procurementService.ListFilter{
			Supplier:     c.QueryParam("supplier"),
			PurchaseType: c.QueryParam("purchaseType"),
			Limit:        limit,
			Offset:       offset,
		})
		if err != nil {
			return api.Fail(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"items": rows, "total": total})
	})

	g.GET("/:id", func(c echo.Context) error {
		id, err := api.ParamID(c, "id")
		if err != nil {
			return api.Fail(c, err)
		}
		row, err := procurementService.Get(db, id)
		if err != nil {
			return api.Fail(c, err)
		}
		return c.JSON(http.StatusOK, row)
	})

	g.PUT("/:id", func(c echo.Context) error {
		id, err := api.ParamID(c, "id")
		if err != nil {
			return api.Fail(c, err)
		}
		var body procurementService.Input
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		updated, err := procurementService.Update(db, api.ActorID(c), id, body)
		if err != nil {
			return api.Fail(c, err)
		}
		return c.JSON(http.StatusOK, updated)
	})

	g.DELETE("/:id", func(c echo.Context) error {
		id, err := api.ParamID(c, "id")
		if err != nil {
			return api.Fail(c, err)
		}
		if err := procurementService.Delete(db, api.ActorID(c), id); err != nil {
			return api.Fail(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"ok": true})
	})
}
