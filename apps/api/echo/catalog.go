package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/studytrack/studytrack/core/catalog"
)

type catalogApi struct {
	svc *catalog.Service
}

func registerCatalogAPI(g *echo.Group, optional echo.MiddlewareFunc, svc *catalog.Service) {
	api := catalogApi{svc: svc}

	// public: the session token is forwarded when there is one
	for _, kind := range catalog.Kinds {
		g.GET("/"+string(kind), api.list(kind), optional)
	}
	g.GET("/"+string(catalog.KindExamCourse)+"/:id", api.retrieveExamCourse, optional)
	g.GET("/"+string(catalog.KindContent)+"/:id", api.retrieveContent, optional)
}

func (api *catalogApi) list(kind catalog.Kind) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		page, err := api.svc.List(ctx.Request().Context(), kind, bindQuery(ctx))
		if err != nil {
			return errors.Wrapf(err, "listing %s", kind)
		}
		return ctx.JSON(http.StatusOK, page)
	}
}

func (api *catalogApi) retrieveExamCourse(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	course, err := api.svc.GetExamCourse(ctx.Request().Context(), id, bindQuery(ctx))
	if err != nil {
		return errors.Wrap(err, "getting exam course")
	}
	return ctx.JSON(http.StatusOK, course)
}

func (api *catalogApi) retrieveContent(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	content, err := api.svc.GetContent(ctx.Request().Context(), id, bindQuery(ctx))
	if err != nil {
		return errors.Wrap(err, "getting content")
	}
	return ctx.JSON(http.StatusOK, content)
}
