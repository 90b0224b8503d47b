package ball

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"ballstore.GO/api"
	sortingService "ballstore.GO/service/sorting"
)

func init() {
	api.RegisterModule(RegisterBallRoutes)
}

func RegisterBallRoutes(apiGroup *echo.Group, db *gorm.DB) {
	g := apiGroup.Group("/balls")

	g.POST("", func(c echo.Context) error {
		var body sortingService.BallInput
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		created, err := sortingService.CreateBall(db, api.ActorID(c), body)
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
		rows, total, err := sortingService.ListBalls(db, sortingService.BallFilter{
			Status:   strings.ToUpper(c.QueryParam("status")),
			Origin:   c.QueryParam("origin"),
			Supplier: c.QueryParam("supplier"),
			Limit:    limit,
			Offset:   offset,
		})
		if err != nil {
			return api.Fail(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"items": rows, "total": total})
	})

	g.GET("/categories", func(c echo.Context) error {
		cats, err := sortingService.BallCategories(db)
		if err != nil {
			return api.Fail(c, err)
		}
		return c.JSON(http.StatusOK, cats)
	})

	g.GET("/:id", func(c echo.Context) error {
		id, err := api.ParamID(c, "id")
		if err != nil {
			return api.Fail(c, err)
		}
		row, err := sortingService.GetBall(db, id)
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
		var body sortingService.BallInput
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		updated, err := sortingService.UpdateBall(db, api.ActorID(c), id, body)
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
		if err := sortingService.DeleteBall(db, id); err != nil {
			return api.Fail(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"ok": true})
	})
}
