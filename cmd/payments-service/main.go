// package main является точкой входа платежного сервиса витрины.
// Сервис поднимает HTTP-сервер с webhook'ом платежного шлюза и тонкими
// проксирующими ручками к CRM и шлюзу. Поддерживается graceful shutdown:
// при получении SIGINT или SIGTERM сервер перестает принимать новые
// запросы и дожидается завершения активных.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/NEOdinok/servisex-payments/internal/clients/retailcrm"
	"github.com/NEOdinok/servisex-payments/internal/clients/telegram"
	"github.com/NEOdinok/servisex-payments/internal/clients/yookassa"
	"github.com/NEOdinok/servisex-payments/internal/config"
	ordercreate "github.com/NEOdinok/servisex-payments/internal/http-server/handlers/order/create"
	orderget "github.com/NEOdinok/servisex-payments/internal/http-server/handlers/order/get"
	orderstatus "github.com/NEOdinok/servisex-payments/internal/http-server/handlers/order/status"
	paymentcreate "github.com/NEOdinok/servisex-payments/internal/http-server/handlers/payment/create"
	webhook "github.com/NEOdinok/servisex-payments/internal/http-server/handlers/payment/notification"
	productget "github.com/NEOdinok/servisex-payments/internal/http-server/handlers/product/get"
	"github.com/NEOdinok/servisex-payments/internal/http-server/middleware/cors"
	mwlogger "github.com/NEOdinok/servisex-payments/internal/http-server/middleware/logger"
	processor "github.com/NEOdinok/servisex-payments/internal/processor/notification"
	"github.com/NEOdinok/servisex-payments/internal/storage/redis"
	"github.com/NEOdinok/servisex-payments/lib/iprange"
	"github.com/NEOdinok/servisex-payments/lib/logger/sl"
	"github.com/NEOdinok/servisex-payments/lib/logger/slogpretty"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.MustLoad()

	log := slogpretty.SetupLogger(cfg.Env)

	log.Info("starting payments service", slog.String("env", cfg.Env))

	// Один HTTP-клиент на все внешние вызовы: таймаут из конфигурации
	// ограничивает каждый исходящий запрос.
	httpClient := &http.Client{Timeout: cfg.Client.Timeout}

	crm := retailcrm.New(cfg.RetailCRM, httpClient)
	gateway := yookassa.New(cfg.YooKassa, httpClient)

	var notifier processor.Notifier
	if cfg.Telegram.Token != "" {
		notifier = telegram.New(cfg.Telegram, httpClient)
		log.Info("telegram notifications enabled")
	} else {
		log.Warn("telegram token is not set, order notifications disabled")
	}

	var guard processor.Guard
	if cfg.Redis.Host != "" {
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			log.Error("failed to init idempotency guard", sl.Err(err))
			os.Exit(1)
		}

		guard = client
		log.Info("idempotency guard init successful")
	} else {
		log.Warn("redis is not configured, duplicate notifications are not filtered")
	}

	trusted := cfg.YooKassa.TrustedNetworks
	if len(trusted) == 0 {
		trusted = yookassa.TrustedNetworks
	}

	allowList, err := iprange.Parse(trusted)
	if err != nil {
		log.Error("failed to parse trusted networks", sl.Err(err))
		os.Exit(1)
	}

	proc := processor.New(crm, gateway, notifier, guard, log)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(mwlogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(cors.New())

	router.Route("/api", func(r chi.Router) {
		r.Post("/payments/notifications", webhook.New(log, allowList, proc))
		r.Post("/payments", paymentcreate.New(log, gateway, cfg.SiteURL))
		r.Post("/orders", ordercreate.New(log, crm))
		r.Get("/orders", orderget.New(log, crm))
		r.Get("/orders/status", orderstatus.New(log, crm))
		r.Get("/products", productget.New(log, crm))
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", sl.Err(err))
			cancel()
		}
	}()

	log.Info("server started", slog.String("address", cfg.HTTPServer.Address))

	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigchan:
	case <-ctx.Done():
	}

	log.Info("stopping server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTPServer.Timeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop server", sl.Err(err))
	}

	log.Info("server stopped")
}
