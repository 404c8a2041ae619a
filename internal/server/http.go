package server

import (
	"time"

	"vidociki/internal/conf"
	"vidociki/internal/service"

	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewHTTPServer 创建 HTTP 服务器（Webhook 回调 + 指标）
func NewHTTPServer(c *conf.Bootstrap, webhook *service.WebhookService) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
		),
	}
	if c.Server != nil && c.Server.Http != nil {
		if c.Server.Http.Network != "" {
			opts = append(opts, http.Network(c.Server.Http.Network))
		}
		if c.Server.Http.Addr != "" {
			opts = append(opts, http.Address(c.Server.Http.Addr))
		}
		if c.Server.Http.Timeout != "" {
			if timeout, err := time.ParseDuration(c.Server.Http.Timeout); err == nil {
				opts = append(opts, http.Timeout(timeout))
			}
		}
	}
	srv := http.NewServer(opts...)
	srv.HandlePrefix("/webhook/yookassa", webhook)
	srv.Handle("/metrics", promhttp.Handler())
	return srv
}
