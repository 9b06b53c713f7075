package feed

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"VesselTrack/internal/model"
)

// Event 分类结果的封闭集合：PositionEvent / StaticEvent
type Event interface {
	isEvent()
}

// PositionEvent 归一化后的位置事件：一条历史记录 + 一份 vessels 表部分更新
type PositionEvent struct {
	Record model.PositionRecord
	Patch  model.VesselPositionPatch
}

// StaticEvent 归一化后的静态/标识事件：仅产出 vessels 表部分更新
type StaticEvent struct {
	Patch model.VesselStaticPatch
}

func (*PositionEvent) isEvent() {}
func (*StaticEvent) isEvent()   {}

// 报文自述时间的常见格式（aisstream 的 time_utc 为 Go time.String() 格式）
var reportTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999 -0700 MST",
	time.RFC3339Nano,
	time.RFC3339,
}

// Classify 解析一帧原始报文并归一化。
// 未识别的报文类型返回 (nil, nil)，静默丢弃；字段缺失或JSON非法返回错误，
// 由调用方记日志后丢弃，绝不中断数据流。
func Classify(raw []byte, now time.Time) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("解析报文失败: %w", err)
	}

	switch env.MessageType {
	case model.MsgTypePositionReport:
		return normalizePosition(&env, now)
	case model.MsgTypeShipStaticData:
		return normalizeStatic(&env)
	default:
		// 不关心的报文类型，不算错误
		return nil, nil
	}
}

// normalizePosition 位置报文规则：MMSI与经纬度必填，其余字段缺省补零
func normalizePosition(env *Envelope, now time.Time) (Event, error) {
	mmsi := strings.TrimSpace(string(env.MetaData.MMSI))
	if mmsi == "" {
		return nil, fmt.Errorf("位置报文缺少MMSI")
	}
	pr := env.Message.PositionReport
	if pr == nil || pr.Latitude == nil || pr.Longitude == nil {
		return nil, fmt.Errorf("位置报文缺少经纬度, mmsi: %s", mmsi)
	}

	rec := model.PositionRecord{
		MMSI:       mmsi,
		Latitude:   *pr.Latitude,
		Longitude:  *pr.Longitude,
		NavStatus:  model.NavStatusUnknown,
		ReportAt:   parseReportTime(env.MetaData.TimeUTC, now),
		MsgType:    model.MsgTypePositionReport,
		IngestedAt: now,
	}
	if pr.Sog != nil {
		rec.Speed = *pr.Sog
	}
	if pr.TrueHeading != nil {
		rec.Heading = *pr.TrueHeading
	}
	if pr.Cog != nil {
		rec.Course = *pr.Cog
	}
	if pr.NavigationalStatus != nil {
		rec.NavStatus = *pr.NavigationalStatus
	}
	if name := strings.TrimSpace(env.MetaData.ShipName); name != "" {
		rec.Name = &name
	}

	return &PositionEvent{
		Record: rec,
		Patch: model.VesselPositionPatch{
			MMSI:      mmsi,
			Name:      rec.Name,
			Latitude:  rec.Latitude,
			Longitude: rec.Longitude,
			Speed:     rec.Speed,
			Heading:   rec.Heading,
			ReportAt:  rec.ReportAt,
		},
	}, nil
}

// normalizeStatic 静态报文规则：MMSI必填；尺寸由双向偏移求和，零视为未知
func normalizeStatic(env *Envelope) (Event, error) {
	mmsi := strings.TrimSpace(string(env.MetaData.MMSI))
	if mmsi == "" {
		return nil, fmt.Errorf("静态报文缺少MMSI")
	}
	sd := env.Message.ShipStaticData
	if sd == nil {
		return nil, fmt.Errorf("静态报文缺少载荷, mmsi: %s", mmsi)
	}

	patch := model.VesselStaticPatch{MMSI: mmsi}
	if name := strings.TrimSpace(sd.Name); name != "" {
		patch.Name = &name
	}
	if cs := strings.TrimSpace(sd.CallSign); cs != "" {
		patch.CallSign = &cs
	}
	if sd.ImoNumber > 0 {
		imo := fmt.Sprintf("%d", sd.ImoNumber)
		patch.IMO = &imo
	}
	if sd.Type > 0 {
		t := sd.Type
		patch.ShipType = &t
	}
	if flag := strings.TrimSpace(sd.Flag); flag != "" {
		patch.Flag = &flag
	}
	if length := sd.Dimension.A + sd.Dimension.B; length > 0 {
		patch.Length = &length
	}
	if width := sd.Dimension.C + sd.Dimension.D; width > 0 {
		patch.Width = &width
	}
	return &StaticEvent{Patch: patch}, nil
}

// parseReportTime 解析报文自述时间，解析失败回退到入库时间
func parseReportTime(s string, fallback time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	for _, layout := range reportTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return fallback
}
