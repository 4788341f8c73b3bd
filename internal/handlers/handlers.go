package handlers

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/xLucasGitHubx/messagerie-api/internal/auth"
	"github.com/xLucasGitHubx/messagerie-api/internal/messaging"
	"github.com/xLucasGitHubx/messagerie-api/internal/metrics"
	"github.com/xLucasGitHubx/messagerie-api/internal/models"
	"github.com/xLucasGitHubx/messagerie-api/internal/status"
	"github.com/xLucasGitHubx/messagerie-api/internal/storage"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	db      *gorm.DB
	auth    *auth.Service
	catalog *status.Catalog
	store   *storage.Store
	svc     *messaging.Service
	metrics *metrics.Metrics
}

// NewHandlers creates new HTTP handlers
func NewHandlers(db *gorm.DB, a *auth.Service, c *status.Catalog, st *storage.Store, svc *messaging.Service, m *metrics.Metrics) *Handlers {
	return &Handlers{
		db:      db,
		auth:    a,
		catalog: c,
		store:   st,
		svc:     svc,
		metrics: m,
	}
}

// SetupRoutes sets up all HTTP routes
func (h *Handlers) SetupRoutes(router *gin.Engine) {
	// Health check
	router.GET("/healthz", h.HealthCheck)

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Accounts
	users := router.Group("/utilisateurs")
	{
		users.POST("/signup", h.Signup)
		users.POST("/login", h.Login)
	}

	// Messages
	messages := router.Group("/messages", h.auth.Middleware())
	{
		messages.POST("", h.SendMessage)
		messages.GET("/recu", h.ListReceived)
		messages.GET("/envoyes", h.ListSent)
		messages.PUT("/recu/lu", h.MarkRead)
		messages.PUT("/recu/non-lu", h.MarkUnread)
	}

	// Attachments
	attachments := router.Group("/pieces-jointes", h.auth.Middleware())
	{
		attachments.POST("/:messageId", h.UploadAttachment)
		attachments.GET("/:id", h.DownloadAttachment)
	}

	// Status catalog
	router.GET("/status", h.GetStatuses)
	router.POST("/status", h.CreateStatus)
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := models.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Database:  "ok",
		Storage:   "ok",
	}

	if err := h.db.Raw("SELECT 1").Error; err != nil {
		response.Status = "error"
		response.Database = "error"
		logrus.Errorf("Database health check failed: %v", err)
	}

	if _, err := os.Stat(h.store.Dir()); err != nil {
		response.Status = "error"
		response.Storage = "error"
		logrus.Errorf("Storage health check failed: %v", err)
	}

	statusCode := http.StatusOK
	if response.Status == "error" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}
