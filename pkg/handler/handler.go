package handler

import (
	"time"

	"payment_reconciler/pkg/middleware"
	"payment_reconciler/pkg/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	service   *service.Service
	jwtSecret []byte
	origins   []string
}

func NewHandler(service *service.Service, jwtSecret []byte, origins []string) *Handler {
	return &Handler{
		service:   service,
		jwtSecret: jwtSecret,
		origins:   origins,
	}
}

func (h *Handler) InitRoute() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	if len(h.origins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     h.origins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/health", h.Health)

	// Уведомления провайдера, без авторизации
	router.POST("/webhook", h.Webhook)
	router.POST("/api/webhooks/mercadopago", h.Webhook)

	api := router.Group("/api", middleware.AuthMiddleware(h.jwtSecret, h.service.Authorization))
	{
		transfers := api.Group("/transferencias")
		{
			transfers.GET("", h.SearchTransfers)
			transfers.POST("/:id/claim", h.ClaimTransfer)
			transfers.POST("/:id/unclaim", middleware.AdminOnly(), h.UnclaimTransfer)
			transfers.POST("/confirm-batch", middleware.AdminOnly(), h.ConfirmBatch)
		}

		api.GET("/manual-transfers/me", h.MyManualTransfers)

		admin := api.Group("/admin", middleware.AdminOnly())
		{
			admin.GET("/manual-transfers", h.ListManualTransfers)
			admin.POST("/manual-transfers", h.CreateManualTransfer)
			admin.PATCH("/manual-transfers/:id", h.ReassignManualTransfer)
			admin.POST("/transferencias/:id/sync", h.SyncTransfer)
		}
	}
	return router
}

func (h *Handler) Health(c *gin.Context) {
	wrapOkJSON(c, map[string]interface{}{
		"status": "ok",
	})
}
