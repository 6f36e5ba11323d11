package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/01moynul/storefront-golang/internal/handlers"
	"github.com/01moynul/storefront-golang/internal/metrics"
	"github.com/01moynul/storefront-golang/internal/middleware"
)

type Options struct {
	// ClientURL is the only browser origin allowed to call the API with credentials.
	ClientURL    string
	Metrics      *metrics.Metrics
	OrderLimiter *middleware.UserRateLimiter
}

// CORSMiddleware allows the storefront client to send cookies and the Authorization header.
func CORSMiddleware(clientURL string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     []string{clientURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

func SetupRouter(h *handlers.Handlers, opts Options) *gin.Engine {
	router := gin.New()

	// --- Global middleware; CORS must run before anything can abort ---
	router.Use(CORSMiddleware(opts.ClientURL))
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(h.Log))
	if opts.Metrics != nil {
		router.Use(middleware.Metrics(opts.Metrics))
		router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}
	router.GET("/health", h.Health)

	authn := middleware.AuthMiddleware(h.Accounts)
	admin := middleware.AdminMiddleware()

	api := router.Group("/api")
	{
		// --- Auth Routes ---
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/signup", h.Signup)
			authGroup.POST("/login", h.Login)
			authGroup.POST("/logout", h.Logout)
			authGroup.POST("/refresh-token", h.RefreshToken)
			authGroup.GET("/profile", authn, h.GetProfile)
		}

		// --- Product Routes ---
		products := api.Group("/products")
		{
			products.GET("", authn, admin, h.GetAllProducts)
			products.GET("/featured", h.GetFeaturedProducts)
			products.GET("/category/:category", h.GetProductsByCategory)
			products.GET("/recommended", authn, admin, h.GetRecommendedProducts)
			products.GET("/:id", h.GetProduct)
			products.POST("", authn, admin, h.CreateProduct)
			products.PUT("/:id", authn, admin, h.UpdateProduct)
			products.PATCH("/:id", authn, admin, h.ToggleFeaturedProduct)
			products.DELETE("/:id", authn, admin, h.DeleteProduct)
		}

		// --- Cart Routes (Login Required) ---
		cartGroup := api.Group("/cart", authn)
		{
			cartGroup.GET("", h.GetCart)
			cartGroup.POST("", h.AddToCart)
			cartGroup.DELETE("", h.RemoveFromCart)
			cartGroup.PUT("/:id", h.UpdateCartItem)
		}

		// --- Order Routes (Login Required) ---
		ordersGroup := api.Group("/orders", authn)
		{
			place := []gin.HandlerFunc{}
			if opts.OrderLimiter != nil {
				place = append(place, opts.OrderLimiter.Middleware())
			}
			ordersGroup.POST("", append(place, h.PlaceOrder)...)
			ordersGroup.GET("", admin, h.GetAllOrders)
			ordersGroup.GET("/myorders", h.GetMyOrders)
			ordersGroup.GET("/live", admin, h.OrdersLive)
			ordersGroup.GET("/:id", h.GetOrderByID)
			ordersGroup.PUT("/:id/status", admin, h.UpdateOrderStatus)
		}

		// --- Analytics Routes (Admin Only) ---
		analyticsGroup := api.Group("/analytics", authn, admin)
		{
			analyticsGroup.GET("/summary", h.GetAnalyticsSummary)
			analyticsGroup.GET("/daily-sales", h.GetDailySales)
		}
	}

	return router
}
