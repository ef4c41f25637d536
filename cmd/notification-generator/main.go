// package main является точкой входа генератора уведомлений.
// Его основная задача — эмулировать платежный шлюз: создавать случайные
// уведомления о смене статуса платежа и отправлять их в webhook сервиса.
// Адрес источника подставляется в X-Forwarded-For из доверенного списка,
// чтобы пройти проверку границы доверия на локальном стенде.
package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/NEOdinok/servisex-payments/internal/config"
	notificationGen "github.com/NEOdinok/servisex-payments/lib/generator/notification"
	"github.com/NEOdinok/servisex-payments/lib/logger/sl"
	"github.com/NEOdinok/servisex-payments/lib/logger/slogpretty"
	"github.com/joho/godotenv"
)

const (
	// Один из доверенных адресов шлюза: webhook пропустит такой источник.
	trustedIP = "77.75.156.11"

	MaxTimeToSleep = 10
)

func init() {
	// .env опционален: на стенде переменные могут приходить из окружения.
	_ = godotenv.Load()
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	cfg := config.MustLoad()

	log := slogpretty.SetupLogger(cfg.Env)

	log.Info("starting notification generator", slog.String("env", cfg.Env))

	endpoint := fmt.Sprintf("http://%s/api/payments/notifications", cfg.HTTPServer.Address)
	client := &http.Client{Timeout: cfg.Client.Timeout}

	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)

	wg := &sync.WaitGroup{}

	wg.Add(1)
	go produceNotifications(ctx, wg, client, endpoint, log)

	<-sigchan
	cancel()

	wg.Wait()

	log.Info("stopping generator")
}

func produceNotifications(ctx context.Context, wg *sync.WaitGroup, client *http.Client, endpoint string, log *slog.Logger) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		default:
			paymentID, notification := notificationGen.GenerateNotification()
			if notification == nil {
				continue
			}

			if err := sendNotification(ctx, client, endpoint, notification); err != nil {
				log.Error("can't send notification", sl.Err(err))
			} else {
				log.Info("notification sent", slog.String("payment_id", paymentID))
			}

			timeToSleep := rand.IntN(MaxTimeToSleep + 1)

			time.Sleep(time.Duration(timeToSleep) * time.Second)
		}
	}
}

func sendNotification(ctx context.Context, client *http.Client, endpoint string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("can't create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", trustedIP)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return nil
}
