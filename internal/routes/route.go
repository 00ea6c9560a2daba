package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/churchbook/internal/container"
	"github.com/joshua-takyi/churchbook/internal/handlers"
	"github.com/joshua-takyi/churchbook/internal/middleware"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(c *container.Container) *gin.Engine {
	if c.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     c.Config.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(c.Logger))
	r.Use(middleware.ErrorHandler(c.Logger))
	r.Use(middleware.Recovery(c.Logger))

	api := r.Group("/api")
	api.GET("/health", handlers.Health(c.HealthChecks))

	auth := api.Group("/auth")
	auth.Use(middleware.RateLimit(middleware.RateLimitConfig{
		Capacity: c.Config.RateLimitCapacity,
		Window:   c.Config.RateLimitWindow,
		Prefix:   "churchbook:auth",
	}, c.Clients.Redis, c.Logger))
	{
		auth.POST("/signup", handlers.Signup(c.UserService))
		auth.POST("/login", handlers.Login(c.UserService))
		auth.POST("/admin/login", handlers.AdminLogin(c.UserService))
	}

	protected := api.Group("")
	protected.Use(c.Authenticator.AuthMiddleware())

	admin := protected.Group("")
	admin.Use(middleware.RequireAdmin())

	profile := protected.Group("/profile")
	{
		profile.GET("/my", handlers.GetProfile(c.UserService))
		profile.PATCH("/my", handlers.UpdateProfile(c.UserService))
	}

	admin.PATCH("/users/:id/role", handlers.ChangeUserRole(c.UserService))

	protected.GET("/venues", handlers.ListVenues(c.VenueService))
	protected.GET("/venues/:id", handlers.GetVenue(c.VenueService))
	admin.POST("/venues", handlers.CreateVenue(c.VenueService))
	admin.PATCH("/venues/:id", handlers.UpdateVenue(c.VenueService))

	bs := c.BookingService
	protected.POST("/bookings", handlers.CreateBooking(bs))
	protected.GET("/bookings/my", handlers.MyBookings(bs))
	protected.GET("/bookings/:id", handlers.GetBooking(bs))
	admin.GET("/bookings", handlers.ListBookings(bs.ListAllBookings))
	admin.GET("/bookings/pending/list", handlers.ListBookings(bs.ListPendingBookings))
	admin.GET("/bookings/upcoming/list", handlers.ListBookings(bs.ListUpcomingBookings))
	admin.GET("/bookings/approved/list", handlers.ListBookings(bs.ListReviewedBookings))
	admin.PATCH("/bookings/:id/status", handlers.ChangeBookingStatus(bs))
	admin.PATCH("/bookings/:id", handlers.UpdateBooking(bs))
	admin.DELETE("/bookings/:id", handlers.DeleteBooking(bs))
	admin.GET("/bookings/:id/notifications", handlers.BookingNotifications(bs))

	cr := c.ChangeRequestService
	protected.POST("/change-requests", handlers.SubmitChangeRequest(cr))
	protected.GET("/change-requests/my", handlers.MyChangeRequests(cr))
	admin.GET("/change-requests", handlers.ListChangeRequests(cr))
	admin.PATCH("/change-requests/:id", handlers.ReviewChangeRequest(cr))
	admin.DELETE("/change-requests/:id", handlers.DeleteChangeRequest(cr))

	admin.POST("/audit-logs", handlers.CreateAuditLog(c.AuditService))
	admin.GET("/audit-logs", handlers.ListAuditLogs(c.AuditService))

	protected.GET("/calendar/venue/:venue/bookings", handlers.VenueCalendar(c.CalendarService))
	protected.GET("/calendar/venue/:venue/available", handlers.VenueAvailability(c.CalendarService))

	admin.GET("/metrics/counts", handlers.MetricsCounts(c.MetricsService))

	return r
}
