package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/udisondev/combatcore/internal/model"
)

func characterParam(c echo.Context) (model.CharacterID, error) {
	v, err := strconv.ParseUint(c.Param("character"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid character id %q", c.Param("character")))
	}
	return model.CharacterID(v), nil
}

func uint32Param(c echo.Context, name string) (uint32, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid %s id %q", name, c.Param(name)))
	}
	return uint32(v), nil
}

func elementParam(c echo.Context, name string) (model.Element, error) {
	e, err := model.ParseElement(c.Param(name))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return e, nil
}

// bind decodes and validates the request body into req.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	return c.Validate(req)
}
