package transaction

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"ballstore.GO/api"
	"ballstore.GO/config"
	salesService "ballstore.GO/service/sales"
)

func init() {
	api.RegisterModule(RegisterTransactionRoutes)
}

func RegisterTransactionRoutes(apiGroup *echo.Group, db *gorm.DB) {
	g := apiGroup.Group("/transactions")

	g.POST("", func(c echo.Context) error {
		var body salesService.Input
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		if cfg := config.AppConfig; cfg != nil {
			body.AllowSorted = cfg.AllowSellSorted
		}
		created, err := salesService.Create(db, api.ActorID(c), body)
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
		storeID, _ := strconv.ParseUint(c.QueryParam("storeId"), 10, 64)
		channelID, _ := strconv.ParseUint(c.QueryParam("channelAccountId"), 10, 64)

		f := salesService.ListFilter{
			StoreID:   uint(storeID),
			ChannelID: uint(channelID),
			Limit:     limit,
			Offset:    offset,
		}
		if from, err := time.Parse(time.RFC3339, c.QueryParam("from")); err == nil {
			f.From = &from
		}
		if to, err := time.Parse(time.RFC3339, c.QueryParam("to")); err == nil {
			f.To = &to
		}

		rows, total, err := salesService.List(db, f)
		if err != nil {
			return api.Fail(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"items": rows, "total": total})
	})

	g.PUT("/:id", func(c echo.Context) error {
		id, err := api.ParamID(c, "id")
		if err != nil {
			return api.Fail(c, err)
		}
		var body salesService.UpdateInput
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		updated, err := salesService.Update(db, api.ActorID(c), id, body)
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
		if err := salesService.Delete(db, id); err != nil {
			return api.Fail(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"ok": true})
	})
}
