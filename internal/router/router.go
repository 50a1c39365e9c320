package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-bff/config"
	"github.com/ikkim/storefront-bff/internal/app/controller"
	"github.com/ikkim/storefront-bff/internal/middleware"
)

type Router struct {
	cartController         *controller.CartController
	guestCartController    *controller.GuestCartController
	checkoutController     *controller.CheckoutController
	sessionController      *controller.SessionController
	notificationController *controller.NotificationController
	sessionMiddleware      *middleware.SessionMiddleware
	rateLimiter            *middleware.RateLimiter
	healthChecks           []HealthCheck
	config                 *config.Config
}

// HealthCheck checks one dependency for /health. A failing required check
// makes the service report unhealthy.
type HealthCheck struct {
	Name     string
	Required bool
	Check    func(ctx context.Context) error
}

func NewRouter(
	cartController *controller.CartController,
	guestCartController *controller.GuestCartController,
	checkoutController *controller.CheckoutController,
	sessionController *controller.SessionController,
	notificationController *controller.NotificationController,
	sessionMiddleware *middleware.SessionMiddleware,
	rateLimiter *middleware.RateLimiter,
	cfg *config.Config,
) *Router {
	return &Router{
		cartController:         cartController,
		guestCartController:    guestCartController,
		checkoutController:     checkoutController,
		sessionController:      sessionController,
		notificationController: notificationController,
		sessionMiddleware:      sessionMiddleware,
		rateLimiter:            rateLimiter,
		config:                 cfg,
	}
}

func (r *Router) AddHealthCheck(check HealthCheck) {
	r.healthChecks = append(r.healthChecks, check)
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", r.health)

	v1 := router.Group("/api/v1")
	v1.Use(r.rateLimiter.Middleware())
	v1.Use(r.sessionMiddleware.Attach())
	{
		session := v1.Group("/session")
		{
			session.GET("", r.sessionController.GetSession)
			session.POST("/logout", r.sessionController.Logout)
		}

		cart := v1.Group("/cart")
		{
			cart.GET("", r.cartController.GetCart)
			cart.DELETE("", r.cartController.ClearCart)
			cart.POST("/refresh", r.cartController.RefreshCart)
			cart.POST("/items", r.cartController.AddToCart)
			cart.PUT("/items/:id", r.cartController.UpdateCartItem)
			cart.POST("/items/:id/adjust", r.cartController.AdjustCartItem)
			cart.DELETE("/items/:id", r.cartController.RemoveFromCart)
		}

		guest := v1.Group("/guest/cart")
		{
			guest.GET("", r.guestCartController.GetCart)
			guest.DELETE("", r.guestCartController.ClearCart)
			guest.POST("/items", r.guestCartController.AddItem)
			guest.PUT("/items/:sku", r.guestCartController.UpdateItem)
			guest.DELETE("/items/:sku", r.guestCartController.RemoveItem)
		}

		checkout := v1.Group("/checkout")
		{
			checkout.POST("", r.checkoutController.Checkout)
			checkout.GET("/orders/:id/confirmation", r.checkoutController.GetConfirmation)
		}

		v1.GET("/ws", r.notificationController.HandleWebSocket)
	}

	return router
}

func (r *Router) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(r.healthChecks))
	for _, hc := range r.healthChecks {
		if err := hc.Check(ctx); err != nil {
			checks[hc.Name] = err.Error()
			if hc.Required {
				status = http.StatusServiceUnavailable
			}
			continue
		}
		checks[hc.Name] = "ok"
	}

	if status != http.StatusOK {
		middleware.GetLoggerFromContext(c).Warn("Health check failed", map[string]interface{}{
			"checks": checks,
		})
		c.JSON(status, gin.H{
			"status": "unhealthy",
			"checks": checks,
		})
		return
	}

	c.JSON(status, gin.H{
		"status":  "healthy",
		"message": "Storefront BFF is running",
		"checks":  checks,
	})
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
