package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/carbonschool/dashboard/core/energy"
)

type energyApi struct {
	svc *energy.Service
}

func registerEnergyAPI(g *echo.Group, auth *authenticator, svc *energy.Service) {
	api := energyApi{svc: svc}

	sg := g.Group("/schools/:id", auth.jwt, schoolMiddleware())
	sg.GET("/carbon", api.carbon)

	eg := sg.Group("/energy/:metric")
	eg.GET("/compare", api.compare)
	eg.GET("/monthly", api.monthly)
	eg.GET("/hourly", api.hourly)
	eg.PUT("/monthly", api.saveMonthly, auth.schoolWriteMiddleware())
	eg.PUT("/hourly", api.saveHourly, auth.schoolWriteMiddleware())
}

func (api *energyApi) compare(ctx echo.Context) error {
	metric, err := bindMetric(ctx)
	if err != nil {
		return err
	}
	var query seriesQuery
	if err = query.Bind(ctx, api.svc.Now()); err != nil {
		return err
	}

	s, err := api.svc.CompareSeries(ctx.Request().Context(), contextSchoolID(ctx), metric, query.To, query.Months)
	if err != nil {
		return errors.Wrap(err, "comparing monthly series")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *energyApi) monthly(ctx echo.Context) error {
	metric, err := bindMetric(ctx)
	if err != nil {
		return err
	}
	var query seriesQuery
	if err = query.Bind(ctx, api.svc.Now()); err != nil {
		return err
	}

	s, err := api.svc.MonthlySeries(ctx.Request().Context(), contextSchoolID(ctx), metric, query.To, query.Months)
	if err != nil {
		return errors.Wrap(err, "building monthly series")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *energyApi) hourly(ctx echo.Context) error {
	metric, err := bindMetric(ctx)
	if err != nil {
		return err
	}
	day, err := bindDay(ctx, api.svc.Now(), api.svc.Location())
	if err != nil {
		return err
	}

	s, err := api.svc.HourlySeries(ctx.Request().Context(), contextSchoolID(ctx), metric, day)
	if err != nil {
		return errors.Wrap(err, "building hourly series")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *energyApi) carbon(ctx echo.Context) error {
	var query carbonQuery
	if err := query.Bind(ctx, api.svc.Now()); err != nil {
		return err
	}

	c, err := api.svc.CarbonSummary(ctx.Request().Context(), contextSchoolID(ctx), query.Year, query.Through)
	if err != nil {
		return errors.Wrap(err, "summarizing carbon")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *energyApi) saveMonthly(ctx echo.Context) error {
	metric, err := bindMetric(ctx)
	if err != nil {
		return err
	}
	var data MonthlyReadingsRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MonthlyReadingsRequest")
	}

	if err = api.svc.SaveMonthly(ctx.Request().Context(), contextSchoolID(ctx), metric, data.Readings); err != nil {
		return errors.Wrap(err, "saving monthly readings")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *energyApi) saveHourly(ctx echo.Context) error {
	metric, err := bindMetric(ctx)
	if err != nil {
		return err
	}
	var data HourlyReadingsRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to HourlyReadingsRequest")
	}

	if err = api.svc.SaveHourly(ctx.Request().Context(), contextSchoolID(ctx), metric, data.Readings); err != nil {
		return errors.Wrap(err, "saving hourly readings")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type (
	MonthlyReadingsRequest struct {
		Readings []energy.MonthlyReading `json:"readings"`
	}

	HourlyReadingsRequest struct {
		Readings []energy.HourlyReading `json:"readings"`
	}
)
