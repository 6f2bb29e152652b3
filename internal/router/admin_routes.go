package router // router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"

    "github.com/cinetick/movie-booking/internal/handler"    // catalog write handlers
    "github.com/cinetick/movie-booking/internal/middleware" // JWT + role middlewares
)

// RegisterAdmin registers ADMIN-scoped catalog management endpoints
// under /v1.  All routes require a valid JWT and the ADMIN role.
// Listing is handled by the public browse API; these routes only
// create catalog entries.
func RegisterAdmin(e *echo.Echo, cat *handler.CatalogHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("ADMIN"),
    )

    g.POST("/movies", cat.CreateMovie)
    g.POST("/theaters", cat.CreateTheater)
    g.POST("/theaters/:id/screens", cat.CreateScreen)
    g.POST("/shows", cat.CreateShow)
}
