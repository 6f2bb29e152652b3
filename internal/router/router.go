package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // Echo web framework used for routing

    "github.com/cinetick/movie-booking/internal/handler"    // handlers implementing the endpoints
    "github.com/cinetick/movie-booking/internal/middleware" // JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    // Used by load balancers and monitoring to verify the service is up.
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies
// the necessary middleware.  Unauthenticated operations live under
// /v1/auth, while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    // Rotates the refresh token.
    g.POST("/refresh", a.Refresh)
    // Issues a new access token without rotating the refresh token.
    g.POST("/refresh-access", a.RefreshAccess)
    // Logout accepts a refresh token in the body or a bearer token in
    // the Authorization header, so it does not sit behind JWTAuth.
    g.POST("/logout", a.Logout)

    auth := e.Group("/v1")
    auth.Use(middleware.JWTAuth(jwtSecret))
    auth.Use(middleware.RequireRole("ADMIN", "CUSTOMER"))
    auth.GET("/me", a.Me)
}

// RegisterPublic registers unauthenticated browse endpoints: the movie
// catalog, theaters and screens, show details and seat availability.
// The availability endpoint may additionally be wrapped in the response
// cache middleware by the caller.
func RegisterPublic(e *echo.Echo, cat *handler.CatalogHandler, bk *handler.BookingHandler, seatsMW ...echo.MiddlewareFunc) {
    e.GET("/v1/movies", cat.ListMovies)
    e.GET("/v1/movies/:id", cat.GetMovie)
    e.GET("/v1/theaters", cat.ListTheaters)
    e.GET("/v1/theaters/:id/screens", cat.ListScreens)
    e.GET("/v1/shows/:id", cat.GetShow)
    // Seat availability is public so guests can preview occupancy
    // before registering.
    e.GET("/v1/shows/:id/seats", bk.GetShowSeats, seatsMW...)
}
