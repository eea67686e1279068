package router

import (
	"github.com/gin-gonic/gin"

	"github.com/keremmican/zara-bot/internal/controller"
)

// InitRoutes registers the admin API routes.
func InitRoutes(r *gin.Engine,
	catalogCtl *controller.CatalogController,
	productCtl *controller.ProductController,
	subscriptionCtl *controller.SubscriptionController) {
	api := r.Group("/api")
	{
		catalog := api.Group("/catalog")
		{
			// POST /api/catalog/refresh
			catalog.POST("/refresh", catalogCtl.RefreshCatalog)
		}
		products := api.Group("/products")
		{
			// GET /api/products
			products.GET("", productCtl.GetProducts)
			// GET /api/products/search?code=1255/768
			products.GET("/search", productCtl.SearchProducts)
		}
		subscriptions := api.Group("/subscriptions")
		{
			subscriptions.GET("", subscriptionCtl.GetSubscriptions)
			subscriptions.POST("", subscriptionCtl.CreateSubscription)
			// POST /api/subscriptions/check
			subscriptions.POST("/check", subscriptionCtl.TriggerAvailabilityCheck)
		}
	}
}
