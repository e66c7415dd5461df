package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// Health answers liveness probes.  It does not touch the database or the
// broker; a healthy process with a dead dependency still reports ok here
// and fails loudly on the real endpoints instead.
func Health(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
