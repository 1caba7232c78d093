package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rnbmx/bmxshop/internal/server/models"
)

func (s *Server) routes() *gin.Engine {
	useJSONFieldNames()

	r := gin.New()
	r.Use(s.requestLog())
	r.Use(gin.CustomRecovery(func(c *gin.Context, rec any) {
		s.logger.Error(c.Request.Context(), "panic while serving request", "path", c.Request.URL.Path, "panic", rec)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
	}))
	r.Use(s.cors())
	r.Use(s.authenticate())

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Resource not found"})
	})

	authed := s.requireAuth()
	admin := s.requireRole(models.RoleAdmin)

	api := r.Group("/api")

	a := api.Group("/auth")
	a.POST("/signin", s.signIn)
	a.POST("/login", s.signIn)
	a.POST("/signup", s.signUp)
	a.GET("/roles", s.listRoles)
	a.GET("/profile", authed, s.getProfile)
	a.PUT("/profile", authed, s.updateProfile)
	a.POST("/change-password", authed, s.changePassword)

	u := api.Group("/users", authed)
	u.GET("/profile", s.getProfile)
	u.PUT("/profile", s.updateProfile)
	u.POST("/profile/image", s.profileImageUpload)
	u.PUT("/password", s.changePassword)
	u.GET("", admin, s.listUsers)
	u.GET("/:id", admin, s.getUser)
	u.PUT("/:id", admin, s.updateUser)
	u.DELETE("/:id", admin, s.deleteUser)
	u.PUT("/:id/roles", admin, s.setUserRoles)

	p := api.Group("/products")
	p.GET("", s.listProducts)
	p.GET("/featured", s.featuredProducts)
	p.GET("/search", s.searchProducts)
	p.GET("/categories", s.listCategories)
	p.GET("/category/:name", s.productsByCategory)
	p.GET("/:id", s.getProduct)
	p.POST("", admin, s.createProduct)
	p.PUT("/:id", admin, s.updateProduct)
	p.DELETE("/:id", admin, s.deleteProduct)

	api.GET("/categories", s.listCategories)

	rv := api.Group("/reviews")
	rv.GET("/product/:productId", s.listReviews)
	rv.POST("/product/:productId", authed, s.createReview)
	rv.DELETE("/:reviewId", authed, s.deleteReview)

	o := api.Group("/orders", authed)
	o.POST("", s.createOrder)
	o.GET("/my-orders", s.myOrders)
	o.GET("/admin/all", admin, s.allOrders)
	o.PUT("/admin/:id/status", admin, s.updateOrderStatus)
	o.GET("/:id", s.getOrder)

	pay := api.Group("/payment")
	pay.POST("/process", authed, s.processPayment)
	pay.GET("/config", s.paymentConfig)

	d := api.Group("/debug")
	d.GET("/health", s.health)
	d.GET("/dbtest", admin, s.dbTest)

	return r
}
