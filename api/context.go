package api

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"ballstore.GO/core/apperr"
)

const actorKey = "actor_id"

// SetActor stores the acting user id on the request context. Called by
// the auth middleware once the caller is identified.
func SetActor(c echo.Context, id uint) {
	c.Set(actorKey, id)
}

// ActorID returns the acting user id for the request, 0 when the caller
// is unidentified (key auth without a user mapping).
func ActorID(c echo.Context) uint {
	if v, ok := c.Get(actorKey).(uint); ok {
		return v
	}
	return 0
}

// ParamID parses a numeric path parameter.
func ParamID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid %s", name)
	}
	return uint(id), nil
}

// Fail writes the error envelope with the status mapped from its kind.
func Fail(c echo.Context, err error) error {
	resp := echo.Map{"error": err.Error()}
	if kind := apperr.KindOf(err); kind != "" {
		resp["kind"] = string(kind)
	}
	return c.JSON(apperr.HTTPStatus(err), resp)
}
