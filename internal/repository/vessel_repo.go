package repository

import (
	"context"
	"fmt"
	"time"

	"VesselTrack/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VesselRepository 船舶最新状态仓储
type VesselRepository interface {
	// UpsertPosition 位置事件合并：只覆盖位置相关列，标识/描述列保持不动
	UpsertPosition(ctx context.Context, patch *model.VesselPositionPatch) error
	// UpsertStatic 静态事件合并：只覆盖报文实际携带的标识/描述列
	UpsertStatic(ctx context.Context, patch *model.VesselStaticPatch) error
	// ListVessels 全量最新状态，按最后写入时间倒序
	ListVessels(ctx context.Context) ([]*model.Vessel, error)
	// GetByMMSI 查询单船最新状态
	GetByMMSI(ctx context.Context, mmsi string) (*model.Vessel, error)
}

type vesselRepository struct {
	db *gorm.DB
}

// NewVesselRepository 创建 VesselRepository 实例
func NewVesselRepository(db *gorm.DB) VesselRepository {
	return &vesselRepository{db: db}
}

// synthesizeName 首次见到某MMSI且报文未携带船名时的兜底显示名
func synthesizeName(mmsi string) string {
	return fmt.Sprintf("MMSI %s", mmsi)
}

// UpsertPosition 不存在则建行（船名缺省合成），存在则仅覆盖位置列与最后写入时间。
// 冲突合并走单条条件写语句，避免应用层读改写竞态
func (r *vesselRepository) UpsertPosition(ctx context.Context, patch *model.VesselPositionPatch) error {
	now := time.Now().UTC()
	name := patch.Name
	if name == nil {
		n := synthesizeName(patch.MMSI)
		name = &n
	}
	row := &model.Vessel{
		MMSI:       patch.MMSI,
		Name:       name,
		Latitude:   &patch.Latitude,
		Longitude:  &patch.Longitude,
		Speed:      &patch.Speed,
		Heading:    &patch.Heading,
		PositionAt: &patch.ReportAt,
		UpdatedAt:  now,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "mmsi"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"latitude":    patch.Latitude,
			"longitude":   patch.Longitude,
			"speed":       patch.Speed,
			"heading":     patch.Heading,
			"position_at": patch.ReportAt,
			"updated_at":  now,
		}),
	}).Create(row).Error
}

// UpsertStatic 不存在则建行，存在则仅覆盖报文携带的字段（nil 字段保持原值）
func (r *vesselRepository) UpsertStatic(ctx context.Context, patch *model.VesselStaticPatch) error {
	now := time.Now().UTC()
	name := patch.Name
	if name == nil {
		n := synthesizeName(patch.MMSI)
		name = &n
	}
	row := &model.Vessel{
		MMSI:      patch.MMSI,
		Name:      name,
		CallSign:  patch.CallSign,
		IMO:       patch.IMO,
		ShipType:  patch.ShipType,
		Flag:      patch.Flag,
		Length:    patch.Length,
		Width:     patch.Width,
		UpdatedAt: now,
	}

	assign := map[string]interface{}{"updated_at": now}
	if patch.Name != nil {
		assign["name"] = *patch.Name
	}
	if patch.CallSign != nil {
		assign["call_sign"] = *patch.CallSign
	}
	if patch.IMO != nil {
		assign["imo"] = *patch.IMO
	}
	if patch.ShipType != nil {
		assign["ship_type"] = *patch.ShipType
	}
	if patch.Flag != nil {
		assign["flag"] = *patch.Flag
	}
	if patch.Length != nil {
		assign["length"] = *patch.Length
	}
	if patch.Width != nil {
		assign["width"] = *patch.Width
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "mmsi"}},
		DoUpdates: clause.Assignments(assign),
	}).Create(row).Error
}

// ListVessels 全量最新状态，最近更新在前
func (r *vesselRepository) ListVessels(ctx context.Context) ([]*model.Vessel, error) {
	var vessels []*model.Vessel
	if err := r.db.WithContext(ctx).
		Order("updated_at DESC").
		Find(&vessels).Error; err != nil {
		return nil, err
	}
	return vessels, nil
}

// GetByMMSI 查询单船最新状态
func (r *vesselRepository) GetByMMSI(ctx context.Context, mmsi string) (*model.Vessel, error) {
	var v model.Vessel
	if err := r.db.WithContext(ctx).Where("mmsi = ?", mmsi).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}
