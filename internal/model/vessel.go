package model

import (
	"time"
)

// 报文类型标签（position_history.msg_type）
const (
	MsgTypePositionReport = "PositionReport"
	MsgTypeShipStaticData = "ShipStaticData"
)

// NavStatusUnknown AIS导航状态缺省值（15 = not defined）
const NavStatusUnknown = 15

// Vessel 船舶最新状态表（每个MMSI仅一行，原地覆盖更新）
type Vessel struct {
	MMSI       string     `gorm:"primaryKey;column:mmsi;type:varchar(32);comment:船舶MMSI（外部稳定标识，按字符串处理）"`
	Name       *string    `gorm:"column:name;type:varchar(128);comment:船名（静态报文覆盖）"`
	CallSign   *string    `gorm:"column:call_sign;type:varchar(32);comment:呼号"`
	IMO        *string    `gorm:"column:imo;type:varchar(32);comment:IMO注册号"`
	ShipType   *int       `gorm:"column:ship_type;type:int;comment:船舶类型代码"`
	Flag       *string    `gorm:"column:flag;type:varchar(64);comment:船旗国"`
	Length     *float64   `gorm:"column:length;type:numeric(8,2);comment:船长（米），未知为空"`
	Width      *float64   `gorm:"column:width;type:numeric(8,2);comment:船宽（米），未知为空"`
	Latitude   *float64   `gorm:"column:latitude;type:double precision;comment:最新纬度"`
	Longitude  *float64   `gorm:"column:longitude;type:double precision;comment:最新经度"`
	Speed      *float64   `gorm:"column:speed;type:double precision;comment:最新对地航速（节）"`
	Heading    *float64   `gorm:"column:heading;type:double precision;comment:最新船艏向（度）"`
	PositionAt *time.Time `gorm:"column:position_at;type:timestamp;comment:最新位置的报文时间"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;type:timestamp;index;comment:最后写入时间"`
}

// PositionRecord 位置历史表（只追加，仅由保留策略删除）
type PositionRecord struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	MMSI       string    `gorm:"column:mmsi;type:varchar(32);index;not null;comment:船舶MMSI"`
	Name       *string   `gorm:"column:name;type:varchar(128);comment:船名快照（报文冗余携带时记录）"`
	Latitude   float64   `gorm:"column:latitude;type:double precision;not null;comment:纬度"`
	Longitude  float64   `gorm:"column:longitude;type:double precision;not null;comment:经度"`
	Speed      float64   `gorm:"column:speed;type:double precision;default:0;comment:对地航速（节）"`
	Heading    float64   `gorm:"column:heading;type:double precision;default:0;comment:船艏向（度）"`
	Course     float64   `gorm:"column:course;type:double precision;default:0;comment:对地航向（度）"`
	NavStatus  int       `gorm:"column:nav_status;type:int;not null;comment:导航状态代码，15=未知"`
	ReportAt   time.Time `gorm:"column:report_at;type:timestamp;not null;comment:报文自述时间"`
	MsgType    string    `gorm:"column:msg_type;type:varchar(32);not null;comment:报文类型标签"`
	IngestedAt time.Time `gorm:"column:ingested_at;type:timestamp;not null;index;comment:服务端入库时间（保留策略以此为准）"`
}

func (Vessel) TableName() string         { return "vessels" }
func (PositionRecord) TableName() string { return "position_history" }
