package service

import (
	"context"
	"time"

	"VesselTrack/internal/config"
	"VesselTrack/internal/repository"

	"github.com/sirupsen/logrus"
)

// sizePurgeFraction 超限时按量删除的比例（最旧10%）
const sizePurgeFraction = 10

// RetentionService 历史数据保留策略：固定周期执行，与摄入路径完全独立。
// 第一步按时限删除，第二步按容量兜底删除；两步均尽力而为，失败等下个周期重试
type RetentionService struct {
	cfg       *config.RetentionConfig
	positions repository.PositionRepository
	logger    *logrus.Logger
}

// NewRetentionService 创建保留策略服务
func NewRetentionService(cfg *config.RetentionConfig, positions repository.PositionRepository, logger *logrus.Logger) *RetentionService {
	return &RetentionService{cfg: cfg, positions: positions, logger: logger}
}

// Run 启动即执行一次（避免长期停机后积压等到首个周期才清理），之后按周期执行
func (s *RetentionService) Run(ctx context.Context) {
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce 执行一轮清理
func (s *RetentionService) RunOnce(ctx context.Context) {
	s.purgeByAge(ctx)
	s.purgeBySize(ctx)
}

// purgeByAge 第一步：删除入库时间超过保留窗口的历史记录
func (s *RetentionService) purgeByAge(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.cfg.MaxAge)
	deleted, err := s.positions.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.WithError(err).Error("按时限清理历史失败")
		return
	}
	if deleted > 0 {
		s.logger.Infof("按时限清理完成，删除%d条（早于%s）", deleted, cutoff.Format(time.RFC3339))
	}
}

// purgeBySize 第二步：容量兜底。历史表超限时删除现存最旧的10%，
// 与时限窗口无关，流量异常时即使数据都在窗口内也会触发
func (s *RetentionService) purgeBySize(ctx context.Context) {
	size, err := s.positions.TableSizeBytes(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("获取历史表容量失败，跳过按量清理")
		return
	}
	if size <= s.cfg.MaxTableBytes {
		return
	}

	total, err := s.positions.CountAll(ctx)
	if err != nil {
		s.logger.WithError(err).Error("统计历史条数失败")
		return
	}
	if total == 0 {
		return
	}
	// ceil(total / 10)
	n := (total + sizePurgeFraction - 1) / sizePurgeFraction
	deleted, err := s.positions.DeleteOldest(ctx, n)
	if err != nil {
		s.logger.WithError(err).Error("按量清理历史失败")
		return
	}
	s.logger.Warnf("历史表容量%d字节超过上限%d，按量删除最旧%d条", size, s.cfg.MaxTableBytes, deleted)
}
