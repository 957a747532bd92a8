package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// Health is the liveness probe the mobile client pings on startup to
// verify connectivity before attempting login.
func Health(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{"message": "Server is running!"})
}
