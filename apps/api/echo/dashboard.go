package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/studytrack/studytrack/core/dashboard"
)

func registerDashboardAPI(g *echo.Group, required echo.MiddlewareFunc, svc *dashboard.Service) {
	g.GET("/dashboard", func(ctx echo.Context) error {
		userID, err := contextUserID(ctx)
		if err != nil {
			return err
		}
		sum, err := svc.Summary(ctx.Request().Context(), userID)
		if err != nil {
			return errors.Wrap(err, "building dashboard")
		}
		return ctx.JSON(http.StatusOK, sum)
	}, required)
}
