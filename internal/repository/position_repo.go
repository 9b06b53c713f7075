package repository

import (
	"context"
	"time"

	"VesselTrack/internal/model"

	"gorm.io/gorm"
)

// 历史查询条数限制
const (
	defaultHistoryLimit = 500
	maxHistoryLimit     = 5000
)

// PositionRepository 位置历史仓储（追加与查询由摄入/查询路径用，删除仅保留策略用）
type PositionRepository interface {
	// Append 追加一条历史记录（不可变，不去重）
	Append(ctx context.Context, rec *model.PositionRecord) error
	// ListRecent 最近N条历史，mmsi为空则不过滤，按报文时间倒序
	ListRecent(ctx context.Context, mmsi string, limit int) ([]*model.PositionRecord, error)
	// ListSince 指定入库时间之后的全部记录，按入库时间倒序
	ListSince(ctx context.Context, after time.Time) ([]*model.PositionRecord, error)
	// CountAll 历史总条数
	CountAll(ctx context.Context) (int64, error)
	// DeleteOlderThan 删除入库时间早于 cutoff 的记录，返回删除条数
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	// DeleteOldest 按入库时间删除最旧的 n 条，返回删除条数
	DeleteOldest(ctx context.Context, n int64) (int64, error)
	// TableSizeBytes 历史表（含索引）占用字节数，仅PostgreSQL可用
	TableSizeBytes(ctx context.Context) (int64, error)
}

type positionRepository struct {
	db *gorm.DB
}

// NewPositionRepository 创建 PositionRepository 实例
func NewPositionRepository(db *gorm.DB) PositionRepository {
	return &positionRepository{db: db}
}

// Append 追加历史记录，入库时间以服务端时钟为准
func (r *positionRepository) Append(ctx context.Context, rec *model.PositionRecord) error {
	if rec.IngestedAt.IsZero() {
		rec.IngestedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(rec).Error
}

// ListRecent 最近N条历史，按报文时间倒序
func (r *positionRepository) ListRecent(ctx context.Context, mmsi string, limit int) ([]*model.PositionRecord, error) {
	if limit <= 0 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}
	db := r.db.WithContext(ctx).Model(&model.PositionRecord{})
	if mmsi != "" {
		db = db.Where("mmsi = ?", mmsi)
	}
	var records []*model.PositionRecord
	if err := db.Order("report_at DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ListSince 指定入库时间之后的全部记录
func (r *positionRepository) ListSince(ctx context.Context, after time.Time) ([]*model.PositionRecord, error) {
	var records []*model.PositionRecord
	if err := r.db.WithContext(ctx).
		Where("ingested_at > ?", after).
		Order("ingested_at DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// CountAll 历史总条数
func (r *positionRepository) CountAll(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.PositionRecord{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// DeleteOlderThan 按时限删除（以入库时间判断，不信任报文自述时间）
func (r *positionRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tx := r.db.WithContext(ctx).
		Where("ingested_at < ?", cutoff).
		Delete(&model.PositionRecord{})
	return tx.RowsAffected, tx.Error
}

// DeleteOldest 删除最旧的 n 条（子查询定位，单语句完成）
func (r *positionRepository) DeleteOldest(ctx context.Context, n int64) (int64, error) {
	if n <= 0 {
		return 0, nil
	}
	tx := r.db.WithContext(ctx).Exec(
		"DELETE FROM position_history WHERE id IN (SELECT id FROM position_history ORDER BY ingested_at ASC, id ASC LIMIT ?)",
		n,
	)
	return tx.RowsAffected, tx.Error
}

// TableSizeBytes 历史表及其索引的磁盘占用（只量历史表，船舶表不随流量增长）
func (r *positionRepository) TableSizeBytes(ctx context.Context) (int64, error) {
	var size int64
	if err := r.db.WithContext(ctx).
		Raw("SELECT pg_total_relation_size('position_history')").
		Scan(&size).Error; err != nil {
		return 0, err
	}
	return size, nil
}
