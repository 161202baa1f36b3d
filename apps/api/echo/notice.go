package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/carbonschool/dashboard/core/notice"
)

func registerNoticeAPI(g *echo.Group, notices *notice.Rotator) {
	g.GET("/notices", func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, notices.Current(time.Now()))
	})
}
