// Code generated by Wire. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package main

import (
	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"vidociki/internal/biz"
	"vidociki/internal/conf"
	"vidociki/internal/data"
	"vidociki/internal/server"
	"vidociki/internal/service"
)

import (
	_ "go.uber.org/automaxprocs"
)

// Injectors from wire.go:

// wireApp init kratos application.
func wireApp(bootstrap *conf.Bootstrap, logger log.Logger) (*kratos.App, func(), error) {
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
	webhookService := service.NewWebhookService(paymentUseCase, logger)
	httpServer := server.NewHTTPServer(bootstrap, webhookService)
	accountRepo := data.NewAccountRepo(dataData, logger)
	accountUseCase := biz.NewAccountUseCase(accountRepo, botConfig, logger)
	referralRepo := data.NewReferralRepo(dataData, logger)
	referralUseCase := biz.NewReferralUseCase(referralRepo, accountRepo, botConfig, logger)
	sessionStore := data.NewSessionStore(dataData, logger)
	geminiAnalyzer, err := data.NewGeminiAnalyzer(bootstrap, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	analysisUseCase := biz.NewAnalysisUseCase(accountUseCase, sessionStore, telegramClient, geminiAnalyzer, logger)
	botService := service.NewBotService(telegramClient, accountUseCase, referralUseCase, paymentUseCase, analysisUseCase, botConfig, logger)
	botServer := server.NewBotServer(telegramClient, botService, logger)
	reconcilerServer := server.NewReconcilerServer(paymentUseCase, botConfig, logger)
	app := newApp(logger, httpServer, botServer, reconcilerServer)
	return app, func() {
		cleanup()
	}, nil
}
