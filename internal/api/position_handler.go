package api

import (
	"net/http"
	"strconv"
	"time"

	"VesselTrack/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PositionHandler 位置历史查询接口（只读）
type PositionHandler struct {
	positions repository.PositionRepository
	logger    *logrus.Logger
}

// NewPositionHandler 创建 PositionHandler
func NewPositionHandler(db *gorm.DB, logger *logrus.Logger) *PositionHandler {
	return &PositionHandler{
		positions: repository.NewPositionRepository(db),
		logger:    logger,
	}
}

// ListPositions 最近N条历史，可选按MMSI过滤
// GET /api/positions?mmsi=123456789&limit=500
func (h *PositionHandler) ListPositions(c *gin.Context) {
	mmsi := c.Query("mmsi")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "500"))

	records, err := h.positions.ListRecent(c.Request.Context(), mmsi, limit)
	if err != nil {
		h.logger.WithError(err).Error("ListPositions failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"positions": records, "count": len(records)})
}

// ListPositionsSince 指定入库时间之后的全部记录
// GET /api/positions/since?after=2026-08-30T00:00:00Z
func (h *PositionHandler) ListPositionsSince(c *gin.Context) {
	raw := c.Query("after")
	after, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "after must be RFC3339 timestamp"})
		return
	}

	records, err := h.positions.ListSince(c.Request.Context(), after)
	if err != nil {
		h.logger.WithError(err).Error("ListPositionsSince failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"positions": records, "count": len(records)})
}
