package feed

import (
	"encoding/json"

	"VesselTrack/internal/config"
)

// Subscription 建连后下发的首帧订阅指令
type Subscription struct {
	APIKey             string         `json:"APIKey"`
	BoundingBoxes      [][][2]float64 `json:"BoundingBoxes"`
	FilterMessageTypes []string       `json:"FilterMessageTypes,omitempty"`
	FilterShipTypes    []int          `json:"FilterShipTypes,omitempty"`
}

// NewSubscription 按配置构造订阅指令
func NewSubscription(cfg *config.FeedConfig) *Subscription {
	return &Subscription{
		APIKey:             cfg.APIKey,
		BoundingBoxes:      cfg.BoundingBoxes,
		FilterMessageTypes: cfg.MessageTypes,
		FilterShipTypes:    cfg.ShipTypes,
	}
}

// Envelope 数据源下行帧：顶层类型判别 + 元数据块 + 嵌套报文体
type Envelope struct {
	MessageType string      `json:"MessageType"`
	MetaData    MetaData    `json:"MetaData"`
	Message     MessageBody `json:"Message"`
}

// IdentityKey 船舶标识键：数据源下发的MMSI可能是JSON数字也可能是字符串，
// 统一收敛为不做数值运算的字符串
type IdentityKey string

func (k *IdentityKey) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*k = IdentityKey(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*k = IdentityKey(s)
	return nil
}

// MetaData 元数据块（至少携带MMSI，位置帧可冗余携带船名）
type MetaData struct {
	MMSI     IdentityKey `json:"MMSI"`
	ShipName string      `json:"ShipName"`
	TimeUTC  string      `json:"time_utc"`
}

// MessageBody 报文体，按类型只有一个子结构非空
type MessageBody struct {
	PositionReport *PositionReport `json:"PositionReport"`
	ShipStaticData *ShipStaticData `json:"ShipStaticData"`
}

// PositionReport 位置报文载荷
type PositionReport struct {
	Latitude           *float64 `json:"Latitude"`
	Longitude          *float64 `json:"Longitude"`
	Sog                *float64 `json:"Sog"`
	Cog                *float64 `json:"Cog"`
	TrueHeading        *float64 `json:"TrueHeading"`
	NavigationalStatus *int     `json:"NavigationalStatus"`
}

// ShipStaticData 静态/标识报文载荷
// Dimension 为相对天线的四向偏移：A船艏+B船艉=船长，C左舷+D右舷=船宽
type ShipStaticData struct {
	Name      string    `json:"Name"`
	CallSign  string    `json:"CallSign"`
	ImoNumber int64     `json:"ImoNumber"`
	Type      int       `json:"Type"`
	Flag      string    `json:"Flag"`
	Dimension Dimension `json:"Dimension"`
}

// Dimension 船体尺寸偏移量（米）
type Dimension struct {
	A float64 `json:"A"`
	B float64 `json:"B"`
	C float64 `json:"C"`
	D float64 `json:"D"`
}
