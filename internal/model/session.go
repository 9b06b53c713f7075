package model

import (
	"time"

	"gorm.io/datatypes"
)

// 连接会话状态（与 feed.State 对应的落库值）
const (
	SessionStateConnecting = "connecting"
	SessionStateSubscribed = "subscribed"
	SessionStateStreaming  = "streaming"
	SessionStateClosed     = "closed"
)

// FeedSession 数据源连接会话表（每次建连一行，供健康检查与排障回看）
type FeedSession struct {
	ID           string         `gorm:"primaryKey;column:id;type:varchar(64);comment:会话UUID"`
	Subscription datatypes.JSON `gorm:"column:subscription;type:jsonb;comment:本次连接下发的订阅过滤条件"`
	State        string         `gorm:"column:state;type:varchar(16);not null;comment:会话状态"`
	MessageCount int64          `gorm:"column:message_count;type:bigint;default:0;comment:本会话收到的报文数"`
	CloseReason  *string        `gorm:"column:close_reason;type:varchar(256);comment:断开原因"`
	StartedAt    time.Time      `gorm:"column:started_at;type:timestamp;not null;comment:建连时间"`
	EndedAt      *time.Time     `gorm:"column:ended_at;type:timestamp;comment:断开时间"`
}

func (FeedSession) TableName() string { return "feed_sessions" }
