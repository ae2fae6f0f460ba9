package echoapi

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/studytrack/studytrack/core"
)

// bindQuery reads the list parameters of the request.
func bindQuery(ctx echo.Context) core.Query {
	return core.ParseQuery(ctx.QueryParams())
}

// idParam reads a numeric path parameter; anything else is not found.
func idParam(ctx echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}

// DateRange filters a list by date, both ends inclusive.
type DateRange struct {
	From string `query:"from" json:"from" validate:"omitempty,date"`
	To   string `query:"to" json:"to" validate:"omitempty,date"`
}

func (dr *DateRange) Bind(ctx echo.Context, validate *validator.Validate) error {
	dr.From = core.CleanString(ctx.QueryParam("from"))
	dr.To = core.CleanString(ctx.QueryParam("to"))
	return validate.Struct(dr)
}
