package echoapi

import (
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/carbonschool/dashboard/core"
	"github.com/carbonschool/dashboard/core/school"
)

const contextSchoolKey = "schoolID"

// schoolMiddleware cleans and checks the :id path parameter.
func schoolMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			id, err := url.PathUnescape(ctx.Param("id"))
			if err != nil {
				return school.ErrInvalidSchoolID
			}
			id = core.CleanSchoolID(id)
			if !core.ValidSchoolID(id) {
				return school.ErrInvalidSchoolID
			}
			ctx.Set(contextSchoolKey, id)
			return next(ctx)
		}
	}
}

func contextSchoolID(ctx echo.Context) string {
	id, _ := ctx.Get(contextSchoolKey).(string)
	return id
}

// schoolWriteMiddleware only lets active accounts write to their own school, admins to any.
func (a *authenticator) schoolWriteMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			acc, err := a.getContextAccount(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context account")
			}
			if !acc.IsActive {
				return errAccountDeactivated
			}
			if !acc.CanEdit(contextSchoolID(ctx)) {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}
