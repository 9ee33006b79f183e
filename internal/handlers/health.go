package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/safetytracker/safetytracker/internal/pkg/logger"
	"github.com/safetytracker/safetytracker/internal/pkg/worker"
)

type HealthHandler struct {
	db   *gorm.DB
	pool *worker.Pool
}

func NewHealthHandler(db *gorm.DB, pool *worker.Pool) *HealthHandler {
	return &HealthHandler{db: db, pool: pool}
}

func (h *HealthHandler) Check(c *gin.Context) {
	status := "ok"
	code := http.StatusOK
	database := "ok"

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		logger.Warn("Health check database ping failed", zap.Error(err))
		status = "degraded"
		database = "unreachable"
		code = http.StatusServiceUnavailable
	}

	body := gin.H{
		"status":    status,
		"message":   "Safety Tracker is running",
		"database":  database,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if h.pool != nil {
		body["workers"] = h.pool.Metrics()
	}

	c.JSON(code, body)
}
