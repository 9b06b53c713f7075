package api

import (
	"net/http"
	"strconv"

	"VesselTrack/internal/repository"
	"VesselTrack/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// HealthHandler 健康检查与数据源会话查询接口
type HealthHandler struct {
	ingest   *service.IngestService
	sessions repository.SessionRepository
	logger   *logrus.Logger
}

// NewHealthHandler 创建 HealthHandler
func NewHealthHandler(db *gorm.DB, ingest *service.IngestService, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		ingest:   ingest,
		sessions: repository.NewSessionRepository(db),
		logger:   logger,
	}
}

// Health 数据源连接状态
// GET /healthz
func (h *HealthHandler) Health(c *gin.Context) {
	state, sessionID := h.ingest.State()
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"feed_state": state,
		"connected":  state == "streaming" || state == "subscribed",
		"session_id": sessionID,
	})
}

// ListFeedSessions 最近的数据源连接会话
// GET /api/feed/sessions?limit=50
func (h *HealthHandler) ListFeedSessions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	sessions, err := h.sessions.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("ListFeedSessions failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions, "count": len(sessions)})
}
