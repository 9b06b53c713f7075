package wsdialer

import (
	"net/http"
	"net/url"
	"time"

	"VesselTrack/internal/config"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// New 通用websocket拨号器构建方法（支持代理、握手超时）
func New(cfg *config.FeedConfig, logger *logrus.Logger) *websocket.Dialer {
	d := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 10 * time.Second,
	}

	// 配置代理
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			logger.WithError(err).WithField("proxy", cfg.Proxy).Warn("代理地址解析失败，将不使用代理")
		} else {
			d.Proxy = http.ProxyURL(proxyURL)
			logger.WithField("proxy", cfg.Proxy).Info("websocket拨号器已配置代理")
		}
	}

	return d
}
