package model

import "time"

// VesselPositionPatch 位置类事件对 vessels 行的部分更新（仅覆盖位置相关字段）
type VesselPositionPatch struct {
	MMSI      string
	Name      *string // 元数据冗余船名，仅建行时使用，不覆盖已有船名
	Latitude  float64
	Longitude float64
	Speed     float64
	Heading   float64
	ReportAt  time.Time
}

// VesselStaticPatch 静态类事件对 vessels 行的部分更新（仅覆盖标识/描述字段）
// 指针为 nil 表示报文未携带该字段，入库时保持原值不动
type VesselStaticPatch struct {
	MMSI     string
	Name     *string
	CallSign *string
	IMO      *string
	ShipType *int
	Flag     *string
	Length   *float64
	Width    *float64
}
