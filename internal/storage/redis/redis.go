// Package redis реализует guard от повторной обработки уведомлений
// на основе Redis. Шлюз ретраит недоставленные уведомления и может
// прислать одно и то же событие дважды; свежий Idempotence-Key исходящих
// вызовов от этого не защищает. Guard захватывает ключ (paymentId, event)
// через SET NX и тем самым пропускает в обработку только одну доставку.
package redis

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/NEOdinok/servisex-payments/internal/config"
	"github.com/NEOdinok/servisex-payments/internal/models"
	"github.com/redis/go-redis/v9"
)

// Client является оберткой над стандартным клиентом `redis.Client`,
// что позволяет в будущем расширить его функциональность, не изменяя
// публичный API пакета.
type Client struct {
	*redis.Client

	ttl time.Duration
}

// New создает и настраивает новый клиент для подключения к Redis.
// Функция проверяет соединение с помощью команды PING и возвращает ошибку,
// если Redis недоступен.
func New(ctx context.Context, cfg config.Redis) (*Client, error) {
	address := net.JoinHostPort(cfg.Host, cfg.Port)

	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Проверяем, что соединение с Redis установлено и сервер отвечает.
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("can't ping redis: %v", err)
	}

	return &Client{Client: client, ttl: cfg.TTL}, nil
}

func key(paymentID string, event models.Event) string {
	return fmt.Sprintf("notification:%s:%s", paymentID, event)
}

// Acquire пытается захватить ключ уведомления. Возвращает false,
// если ключ уже захвачен - значит, эта доставка дубликат и обрабатывать
// ее не нужно. TTL страхует от вечно зависших ключей.
func (c *Client) Acquire(ctx context.Context, paymentID string, event models.Event) (bool, error) {
	const fn = "storage.redis.Acquire"

	ok, err := c.SetNX(ctx, key(paymentID, event), time.Now().UTC().Format(time.RFC3339), c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%s: can't set key: %v", fn, err)
	}

	return ok, nil
}

// Release снимает захват с ключа. Вызывается при сбое обработки,
// чтобы следующая доставка шлюза смогла пройти.
func (c *Client) Release(ctx context.Context, paymentID string, event models.Event) error {
	const fn = "storage.redis.Release"

	if err := c.Del(ctx, key(paymentID, event)).Err(); err != nil {
		return fmt.Errorf("%s: can't delete key: %v", fn, err)
	}

	return nil
}
