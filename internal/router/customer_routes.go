package router

import (
    "github.com/labstack/echo/v4"

    "github.com/cinetick/movie-booking/internal/handler"
    "github.com/cinetick/movie-booking/internal/middleware"
)

// RegisterCustomer registers customer-scoped endpoints under /v1.  All
// routes require a valid JWT and the CUSTOMER role.  Customers can hold
// seats, book them, attach and confirm payments, download tickets and
// list their own bookings.
func RegisterCustomer(e *echo.Echo, bk *handler.BookingHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("CUSTOMER"),
    )
    // Note: GET /v1/shows/:id/seats is registered on the public router
    // so that guests can view availability.  Customer-specific
    // endpoints begin here.
    g.POST("/shows/:id/bookings", bk.CreateBooking)
    g.POST("/shows/:id/holds", bk.HoldSeats)
    g.DELETE("/shows/:id/holds", bk.ReleaseHolds)

    g.GET("/my-bookings", bk.MyBookings)
    g.GET("/bookings/:id", bk.GetBooking)
    g.POST("/bookings/:id/payment", bk.AttachPayment)
    g.POST("/bookings/:id/payment/confirm", bk.ConfirmPayment)
    g.GET("/bookings/:id/ticket", bk.DownloadTicket)
}
