// Code generated by Wire. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package main

import (
	"github.com/go-kratos/kratos/v2/log"
	"vidociki/internal/biz"
	"vidociki/internal/conf"
	"vidociki/internal/data"
)

import (
	_ "go.uber.org/automaxprocs"
)

// Injectors from wire.go:

// wireApp 初始化应用
func wireApp(bootstrap *conf.Bootstrap, logger log.Logger) (*CronApp, func(), error) {
	db, err := data.NewDB(bootstrap)
	if err != nil {
		return nil, nil, err
	}
	client, err := data.NewRedis(bootstrap)
	if err != nil {
		return nil, nil, err
	}
	dataData, cleanup, err := data.NewData(bootstrap, logger, db, client)
	if err != nil {
		return nil, nil, err
	}
	redsync := data.NewRedsync(client)
	paymentIntentRepo := data.NewPaymentIntentRepo(dataData, redsync, logger)
	paymentGateway, err := data.NewYooKassaGateway(bootstrap, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	telegramClient, err := data.NewTelegramClient(bootstrap, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	botConfig := biz.NewBotConfig(bootstrap)
	paymentUseCase := biz.NewPaymentUseCase(paymentIntentRepo, paymentGateway, telegramClient, botConfig, logger)
	cronApp := &CronApp{
		payments: paymentUseCase,
	}
	return cronApp, func() {
		cleanup()
	}, nil
}

// wire.go:

// CronApp Cron 应用结构
type CronApp struct {
	payments *biz.PaymentUseCase
}
