package repository

import (
	"context"
	"time"

	"VesselTrack/internal/model"

	"gorm.io/gorm"
)

// SessionRepository 数据源连接会话仓储
type SessionRepository interface {
	Create(ctx context.Context, session *model.FeedSession) error
	// MarkState 更新会话状态
	MarkState(ctx context.Context, id, state string) error
	// Close 会话收尾：记录断开时间、原因与报文计数
	Close(ctx context.Context, id, reason string, messageCount int64) error
	// ListRecent 最近N次会话，按建连时间倒序
	ListRecent(ctx context.Context, limit int) ([]*model.FeedSession, error)
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository 创建 SessionRepository 实例
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *model.FeedSession) error {
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepository) MarkState(ctx context.Context, id, state string) error {
	return r.db.WithContext(ctx).Model(&model.FeedSession{}).
		Where("id = ?", id).
		Update("state", state).Error
}

func (r *sessionRepository) Close(ctx context.Context, id, reason string, messageCount int64) error {
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"state":         model.SessionStateClosed,
		"message_count": messageCount,
		"ended_at":      now,
	}
	if reason != "" {
		updates["close_reason"] = reason
	}
	return r.db.WithContext(ctx).Model(&model.FeedSession{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *sessionRepository) ListRecent(ctx context.Context, limit int) ([]*model.FeedSession, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var sessions []*model.FeedSession
	if err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}
