// Package restsvc реализует HTTP API витрины поверх доменных сервисов:
// публичный каталог, пользовательские заказы и административные маршруты.
// Аутентификация выполняется на внешнем периметре; сервис читает
// идентификатор пользователя из заголовка и авторизует администраторов
// через профиль (fail-closed).
package restsvc

import (
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/orders"
	"github.com/vladislavdragonenkov/storefront/internal/users"
)

// Config — зависимости и настройки HTTP API.
type Config struct {
	Catalog *catalog.Service
	Orders  *orders.Service
	Users   *users.Service
	// PlaceRetryAttempts — попытки оформления заказа при конфликте; <=1
	// означает одну попытку.
	PlaceRetryAttempts int
	Logger             *log.Entry
}

// NewRouter собирает gin-роутер со всеми маршрутами API.
func NewRouter(cfg Config) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New().WithField("component", "rest")
	}

	productHandler := NewProductHandler(cfg.Catalog, logger.WithField("handler", "products"))
	orderHandler := NewOrderHandler(cfg.Orders, cfg.PlaceRetryAttempts, logger.WithField("handler", "orders"))
	userHandler := NewUserHandler(cfg.Users, logger.WithField("handler", "users"))

	router := gin.New()
	router.Use(gin.Recovery(), loggingMiddleware(logger), metricsMiddleware())

	api := router.Group("/api/v1")

	products := api.Group("/products")
	{
		products.GET("", productHandler.List)
		products.GET("/featured", productHandler.Featured)
		products.GET("/:id", productHandler.Get)

		adminProducts := products.Group("", requireAdmin(cfg.Users, logger))
		{
			adminProducts.POST("", productHandler.Create)
			adminProducts.PATCH("/:id", productHandler.Update)
			adminProducts.DELETE("/:id", productHandler.Delete)
		}
	}

	userOrders := api.Group("/orders", requireUser())
	{
		userOrders.POST("", orderHandler.Place)
		userOrders.GET("", orderHandler.ListMine)
		userOrders.GET("/:id", orderHandler.Get)
		userOrders.POST("/:id/cancel", orderHandler.Cancel)
	}
	api.PATCH("/orders/:id/status", requireAdmin(cfg.Users, logger), orderHandler.UpdateStatus)

	profile := api.Group("/users", requireUser())
	{
		profile.POST("/login", userHandler.Login)
		profile.GET("/me", userHandler.Me)
	}

	admin := api.Group("/admin", requireAdmin(cfg.Users, logger))
	{
		admin.GET("/orders", orderHandler.ListAll)
		admin.GET("/orders/recent", orderHandler.ListRecent)
		admin.GET("/orders/statistics", orderHandler.Statistics)
		admin.POST("/users/:id/promote", userHandler.Promote)
	}

	return router
}
