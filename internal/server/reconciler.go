package server

import (
	"context"
	"sync"
	"time"

	"vidociki/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
)

// ReconcilerServer 定期轮询网关对账 pending 订单
// 进程重启后未完成的订单由首轮扫描恢复，支付链接仍然有效
type ReconcilerServer struct {
	payments *biz.PaymentUseCase
	interval time.Duration
	log      *log.Helper

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewReconcilerServer 创建 ReconcilerServer
func NewReconcilerServer(payments *biz.PaymentUseCase, conf *biz.BotConfig, logger log.Logger) *ReconcilerServer {
	return &ReconcilerServer{
		payments: payments,
		interval: conf.PollInterval,
		log:      log.NewHelper(logger),
	}
}

// Start 启动对账循环
func (s *ReconcilerServer) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.log.Infof("Starting ReconcilerServer, interval=%s", s.interval)

		// 启动即扫一轮，恢复重启前的 pending 订单
		s.sweep(runCtx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				s.sweep(runCtx)
			}
		}
	}()
	return nil
}

// Stop 停止对账循环
func (s *ReconcilerServer) Stop(ctx context.Context) error {
	s.log.Info("Stopping ReconcilerServer")
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	return nil
}

func (s *ReconcilerServer) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()
	if err := s.payments.ReconcilePending(sweepCtx); err != nil {
		s.log.Errorf("ReconcilePending failed: %v", err)
	}
}
