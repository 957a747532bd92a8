package handler // handler defines the HTTP handlers of the API

import (
    "errors"

    "github.com/labstack/echo/v4"
)

// getUserID extracts the authenticated user's ULID placed in the context
// by the JWTAuth middleware.
func getUserID(c echo.Context) (string, error) {
    if s, ok := c.Get("user_id").(string); ok && s != "" {
        return s, nil
    }
    return "", errors.New("missing user_id in context")
}
