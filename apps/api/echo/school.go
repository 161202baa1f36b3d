package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/carbonschool/dashboard/core/school"
)

type schoolApi struct {
	svc *school.Service
}

func registerSchoolAPI(g *echo.Group, auth *authenticator, svc *school.Service) {
	api := schoolApi{svc: svc}

	sg := g.Group("/schools", auth.jwt)
	sg.GET("", api.list)

	// detail endpoints
	dg := sg.Group("/:id", schoolMiddleware())
	dg.GET("", api.retrieve)
	dg.PUT("/basic", api.saveBasic, auth.schoolWriteMiddleware())
	dg.PUT("/bce", api.saveBCE, auth.schoolWriteMiddleware())
}

func (api *schoolApi) list(ctx echo.Context) error {
	opts, err := api.svc.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing schools")
	}
	return ctx.JSON(http.StatusOK, opts)
}

func (api *schoolApi) retrieve(ctx echo.Context) error {
	rec, err := api.svc.Load(ctx.Request().Context(), contextSchoolID(ctx))
	if err != nil {
		return errors.Wrap(err, "loading school")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *schoolApi) saveBasic(ctx echo.Context) error {
	var form school.Basic
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to school.Basic")
	}

	rec, err := api.svc.SaveBasic(ctx.Request().Context(), contextSchoolID(ctx), form)
	if err != nil {
		return errors.Wrap(err, "saving basic information")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *schoolApi) saveBCE(ctx echo.Context) error {
	var form school.BCE
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to school.BCE")
	}

	rec, err := api.svc.SaveBCE(ctx.Request().Context(), contextSchoolID(ctx), form)
	if err != nil {
		return errors.Wrap(err, "saving behavior, culture and environment")
	}
	return ctx.JSON(http.StatusOK, rec)
}
