package sort

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"ballstore.GO/api"
	sortingService "ballstore.GO/service/sorting"
)

func init() {
	api.RegisterModule(RegisterSortRoutes)
}

type countsBody struct {
	GradeA int `json:"gradeA"`
	GradeB int `json:"gradeB"`
	Reject int `json:"reject"`
}

func RegisterSortRoutes(apiGroup *echo.Group, db *gorm.DB) {
	g := apiGroup.Group("/sort")

	// POST /api/sort/:code – sort a ball by its code
	g.POST("/:code", func(c echo.Context) error {
		var body countsBody
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		result, err := sortingService.Sort(db, api.ActorID(c), c.Param("code"),
			body.GradeA, body.GradeB, body.Reject)
		if err != nil {
			return api.Fail(c, err)
		}
		return c.JSON(http.StatusOK, result)
	})

	g.GET("", func(c echo.Context) error {
		rows, err := sortingService.ListSessions(db)
		if err != nil {
			return api.Fail(c, err)
		}
		return c.JSON(http.StatusOK, rows)
	})

	g.GET("/:id", func(c echo.Context) error {
		id, err := api.ParamID(c, "id")
		if err != nil {
			return api.Fail(c, err)
		}
		row, err := sortingService.GetSession(db, id)
		if err != nil {
			return api.Fail(c, err)
		}
		return c.JSON(http.StatusOK, row)
	})

	// Counts only. Generated products are never resized retroactively.
	g.PUT("/:id", func(c echo.Context) error {
		id, err := api.ParamID(c, "id")
		if err != nil {
			return api.Fail(c, err)
		}
		var body countsBody
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		updated, err := sortingService.UpdateSession(db, api.ActorID(c), id,
			body.GradeA, body.GradeB, body.Reject)
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
		if err := sortingService.DeleteSession(db, id); err != nil {
			return api.Fail(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"ok": true})
	})
}
