package handler

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// dbTimeout bounds every database round trip made by a handler.  No
// operation in this API blocks longer than a single store call.
const dbTimeout = 5 * time.Second

func dbCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

var errBadLimit = errors.New("limit must be an integer")

// parseLimit reads the optional ?limit query parameter.  An absent
// parameter yields def (negative means unbounded for the people
// endpoints, 10 for the movie listing).  A present parameter must parse
// as an integer; anything else is a validation failure reported as
// errBadLimit.  Negative client values are clamped to zero, which the
// repositories turn into an empty result.
func parseLimit(c echo.Context, def int) (int, error) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errBadLimit
	}
	if n < 0 {
		n = 0
	}
	return n, nil
}

// fieldErrors accumulates per-field validation messages for a 400
// response, mirroring the {"errors": {field: message}} body shape.
type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, dup := f[field]; !dup {
		f[field] = msg
	}
}
