package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"VesselTrack/internal/config"
	"VesselTrack/internal/utils/wsdialer"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// State 连接状态机状态
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateSubscribed
	StateStreaming
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StateStreaming:
		return "streaming"
	default:
		return "disconnected"
	}
}

// TransitionHook 状态迁移回调（用于日志与会话落库）。
// 回调需快速返回，不得阻塞重连节奏。
type TransitionHook func(sessionID string, from, to State, reason string)

// Client 数据源长连接客户端：建连→下发订阅→持续读帧，
// 断开后按配置的重连策略回到 Connecting 重试
type Client struct {
	cfg    *config.FeedConfig
	dialer *websocket.Dialer
	logger *logrus.Logger

	mu        sync.RWMutex
	state     State
	sessionID string
	hook      TransitionHook
}

// NewClient 创建数据源客户端
func NewClient(cfg *config.FeedConfig, logger *logrus.Logger) *Client {
	return &Client{
		cfg:    cfg,
		dialer: wsdialer.New(cfg, logger),
		logger: logger,
		state:  StateDisconnected,
	}
}

// SetTransitionHook 注册状态迁移回调，须在 Run 之前调用
func (c *Client) SetTransitionHook(h TransitionHook) {
	c.mu.Lock()
	c.hook = h
	c.mu.Unlock()
}

// State 当前状态（供健康检查读取）
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// SessionID 当前连接会话ID
func (c *Client) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

// Run 驱动连接循环，收到的原始帧写入 out。
// 断开期间在途报文直接丢弃（至多一次投递）。always 模式下仅在 ctx 取消时返回；
// bounded 模式下连续失败达上限时返回终态错误，交操作者处置。
func (c *Client) Run(ctx context.Context, out chan<- []byte) error {
	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		sessionID := uuid.NewString()
		c.transition(sessionID, StateConnecting, "")

		streamed, err := c.runOnce(ctx, sessionID, out)
		if streamed {
			attempts = 0
		}
		reason := ""
		if err != nil {
			reason = err.Error()
		}
		c.transition(sessionID, StateDisconnected, reason)

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		attempts++
		if c.cfg.Reconnect.Mode == config.ReconnectModeBounded && attempts >= c.cfg.Reconnect.MaxAttempts {
			return fmt.Errorf("数据源连续%d次连接失败，停止重试: %w", attempts, err)
		}
		if err := c.wait(ctx, c.cfg.Reconnect.Delay); err != nil {
			return err
		}
	}
}

// runOnce 单次连接生命周期：拨号→订阅→读帧直到出错。
// 返回本次连接是否进入过 Streaming（用于重置连续失败计数）
func (c *Client) runOnce(ctx context.Context, sessionID string, out chan<- []byte) (bool, error) {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	conn, _, err := c.dialer.DialContext(connCtx, c.cfg.URL, nil)
	if err != nil {
		return false, fmt.Errorf("连接数据源失败: %w", err)
	}
	defer func() {
		_ = conn.Close()
	}()
	// ctx 取消时关闭连接，使阻塞中的 ReadMessage 立即返回
	go func() {
		<-connCtx.Done()
		_ = conn.Close()
	}()

	if err := conn.WriteJSON(NewSubscription(c.cfg)); err != nil {
		return false, fmt.Errorf("下发订阅指令失败: %w", err)
	}
	c.transition(sessionID, StateSubscribed, "")

	streamed := false
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return streamed, fmt.Errorf("读取报文失败: %w", err)
		}
		if !streamed {
			streamed = true
			c.transition(sessionID, StateStreaming, "")
		}
		select {
		case out <- raw:
		case <-connCtx.Done():
			return streamed, connCtx.Err()
		}
	}
}

// wait 重连前等待固定间隔（可为0），ctx 取消时提前返回
func (c *Client) wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// transition 更新状态并触发回调
func (c *Client) transition(sessionID string, to State, reason string) {
	c.mu.Lock()
	from := c.state
	c.state = to
	c.sessionID = sessionID
	hook := c.hook
	c.mu.Unlock()

	entry := c.logger.WithFields(logrus.Fields{
		"session": sessionID,
		"from":    from.String(),
		"to":      to.String(),
	})
	if reason != "" {
		entry = entry.WithField("reason", reason)
	}
	entry.Info("数据源状态迁移")

	if hook != nil {
		hook(sessionID, from, to, reason)
	}
}
