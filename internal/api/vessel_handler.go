package api

import (
	"errors"
	"net/http"

	"VesselTrack/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// VesselHandler 船舶最新状态查询接口（只读）
type VesselHandler struct {
	vessels repository.VesselRepository
	logger  *logrus.Logger
}

// NewVesselHandler 创建 VesselHandler
func NewVesselHandler(db *gorm.DB, logger *logrus.Logger) *VesselHandler {
	return &VesselHandler{
		vessels: repository.NewVesselRepository(db),
		logger:  logger,
	}
}

// ListVessels 全量船舶最新状态，最近更新在前
// GET /api/vessels
func (h *VesselHandler) ListVessels(c *gin.Context) {
	vessels, err := h.vessels.ListVessels(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("ListVessels failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"vessels": vessels, "count": len(vessels)})
}

// GetVessel 单船最新状态
// GET /api/vessels/:mmsi
func (h *VesselHandler) GetVessel(c *gin.Context) {
	mmsi := c.Param("mmsi")
	if mmsi == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mmsi is required"})
		return
	}

	vessel, err := h.vessels.GetByMMSI(c.Request.Context(), mmsi)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "vessel not found"})
			return
		}
		h.logger.WithError(err).Error("GetVessel failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, vessel)
}
