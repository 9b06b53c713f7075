package service

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"VesselTrack/internal/config"
	"VesselTrack/internal/feed"
	"VesselTrack/internal/model"
	"VesselTrack/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// IngestService 摄入管线：数据源 → 分类归一化 → 双写（历史追加 + 最新状态合并）。
// 单协程顺序消费，一条报文完整处理后才取下一条，天然保证同船写入顺序
type IngestService struct {
	cfg       *config.Config
	client    *feed.Client
	vessels   repository.VesselRepository
	positions repository.PositionRepository
	sessions  repository.SessionRepository
	logger    *logrus.Logger

	shipTypes    map[int]struct{}
	messageCount atomic.Int64
}

// NewIngestService 创建摄入服务
func NewIngestService(
	cfg *config.Config,
	client *feed.Client,
	vessels repository.VesselRepository,
	positions repository.PositionRepository,
	sessions repository.SessionRepository,
	logger *logrus.Logger,
) *IngestService {
	s := &IngestService{
		cfg:       cfg,
		client:    client,
		vessels:   vessels,
		positions: positions,
		sessions:  sessions,
		logger:    logger,
	}
	if len(cfg.Feed.ShipTypes) > 0 {
		s.shipTypes = make(map[int]struct{}, len(cfg.Feed.ShipTypes))
		for _, t := range cfg.Feed.ShipTypes {
			s.shipTypes[t] = struct{}{}
		}
	}
	return s
}

// State 数据源连接状态与会话ID（供健康检查）
func (s *IngestService) State() (string, string) {
	return s.client.State().String(), s.client.SessionID()
}

// Run 启动摄入管线，阻塞直到 ctx 取消或数据源终态失败。
// 流内任何单条报文的失败只记日志，绝不向上传播
func (s *IngestService) Run(ctx context.Context) error {
	s.client.SetTransitionHook(s.onTransition)

	out := make(chan []byte)
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.client.Run(ctx, out)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			if err != nil && ctx.Err() == nil {
				s.logger.WithError(err).Error("数据源客户端终态退出")
				return err
			}
			return nil
		case raw := <-out:
			s.handleMessage(ctx, raw)
		}
	}
}

// handleMessage 处理单条报文：分类失败丢弃，两次写各自失败各自记日志
func (s *IngestService) handleMessage(ctx context.Context, raw []byte) {
	s.messageCount.Add(1)

	ev, err := feed.Classify(raw, time.Now().UTC())
	if err != nil {
		s.logger.WithError(err).Warn("报文校验失败，丢弃")
		return
	}

	switch e := ev.(type) {
	case *feed.PositionEvent:
		// 两次持久化相互独立：一边失败不影响另一边，也不中断数据流
		if err := s.positions.Append(ctx, &e.Record); err != nil {
			s.logger.WithError(err).WithField("mmsi", e.Record.MMSI).Error("位置历史入库失败")
		}
		if err := s.vessels.UpsertPosition(ctx, &e.Patch); err != nil {
			s.logger.WithError(err).WithField("mmsi", e.Patch.MMSI).Error("船舶位置合并失败")
		}
	case *feed.StaticEvent:
		if !s.interested(e.Patch.ShipType) {
			return
		}
		if err := s.vessels.UpsertStatic(ctx, &e.Patch); err != nil {
			s.logger.WithError(err).WithField("mmsi", e.Patch.MMSI).Error("船舶静态信息合并失败")
		}
	default:
		// 未识别的报文类型，静默丢弃
	}
}

// interested 部署期配置的船舶类型过滤；未配置则全部入库，
// 报文未携带类型时放行（位置报文由订阅侧过滤）
func (s *IngestService) interested(shipType *int) bool {
	if s.shipTypes == nil || shipType == nil {
		return true
	}
	_, ok := s.shipTypes[*shipType]
	return ok
}

// onTransition 状态迁移回调：记会话表，带超时避免拖慢重连
func (s *IngestService) onTransition(sessionID string, from, to feed.State, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var err error
	switch to {
	case feed.StateConnecting:
		s.messageCount.Store(0)
		sub, _ := json.Marshal(feed.NewSubscription(&s.cfg.Feed))
		err = s.sessions.Create(ctx, &model.FeedSession{
			ID:           sessionID,
			Subscription: datatypes.JSON(sub),
			State:        model.SessionStateConnecting,
			StartedAt:    time.Now().UTC(),
		})
	case feed.StateSubscribed:
		err = s.sessions.MarkState(ctx, sessionID, model.SessionStateSubscribed)
	case feed.StateStreaming:
		err = s.sessions.MarkState(ctx, sessionID, model.SessionStateStreaming)
	case feed.StateDisconnected:
		err = s.sessions.Close(ctx, sessionID, reason, s.messageCount.Load())
	}
	if err != nil {
		s.logger.WithError(err).WithField("session", sessionID).Warn("会话状态落库失败")
	}
}
