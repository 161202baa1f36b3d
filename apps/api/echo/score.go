package echoapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/carbonschool/dashboard/core/dashboard"
)

const scoresEvent = "scores"

type scoreApi struct {
	svc       *dashboard.Service
	heartbeat time.Duration
}

func registerScoreAPI(g *echo.Group, auth *authenticator, svc *dashboard.Service, heartbeat time.Duration) {
	api := scoreApi{svc: svc, heartbeat: heartbeat}

	sg := g.Group("/schools/:id/scores", auth.jwt, schoolMiddleware())
	sg.GET("", api.retrieve)
	sg.GET("/stream", api.stream)
}

func (api *scoreApi) retrieve(ctx echo.Context) error {
	snap, err := api.svc.Snapshot(ctx.Request().Context(), contextSchoolID(ctx))
	if err != nil {
		return errors.Wrap(err, "computing scores")
	}
	return ctx.JSON(http.StatusOK, snap)
}

// stream sends a `scores` Server-Sent Event with the current snapshot, then one
// after each saved change, until the client goes away.
func (api *scoreApi) stream(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	snaps, err := api.svc.Subscribe(reqCtx, contextSchoolID(ctx))
	if err != nil {
		return errors.Wrap(err, "subscribing to scores")
	}

	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	var ping <-chan time.Time
	if api.heartbeat > 0 {
		ticker := time.NewTicker(api.heartbeat)
		defer ticker.Stop()
		ping = ticker.C
	}

	for {
		select {
		case <-reqCtx.Done():
			return nil
		case snap, ok := <-snaps:
			if !ok {
				return nil
			}
			if err := writeEvent(res, scoresEvent, snap); err != nil {
				return nil // client gone
			}
		case <-ping:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

func writeEvent(res *echo.Response, event string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "encoding event")
	}
	if _, err = fmt.Fprintf(res, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	res.Flush()
	return nil
}
