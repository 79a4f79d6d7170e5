package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/medicine-cart/medicine_cart/internal/apperr"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	idempotencyPrefix    = "idempotency:v1:"
	inProgressMarker     = "__in_progress__"
	idempotencyTimeout   = 2 * time.Second
)

var (
	// ErrRequestInFlight rejects a repeat of a keyed request that has not finished yet.
	ErrRequestInFlight  = apperr.Conflict("duplicate request currently processing")
	errDuplicateRequest = apperr.Conflict("duplicate request")
)

type storedResponse struct {
	Status  int               `json:"status"`
	Body    string            `json:"body"`
	Headers map[string]string `json:"headers"`
}

// Idempotency replays the stored response when a request repeats an
// Idempotency-Key already used by the same caller. Requests without the
// header pass straight through. Only successful responses are stored, so a
// failed attempt can be retried with the same key.
func Idempotency(cache *redis.Client, ttl time.Duration, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch strings.ToUpper(c.Method()) {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return c.Next()
		}

		key := strings.TrimSpace(c.Get(idempotencyKeyHeader))
		if key == "" {
			return c.Next()
		}
		cacheKey := idempotencyPrefix + Phone(c) + ":" + c.Path() + ":" + key

		ctx, cancel := context.WithTimeout(context.Background(), idempotencyTimeout)
		defer cancel()

		cached, err := cache.Get(ctx, cacheKey).Result()
		if err == nil {
			if cached == inProgressMarker {
				return apperr.Fiber(ErrRequestInFlight)
			}

			var stored storedResponse
			if err := json.Unmarshal([]byte(cached), &stored); err != nil {
				logger.Warn("failed to decode stored idempotent response", slog.String("key", key), slog.Any("error", err))
				return apperr.Fiber(errDuplicateRequest)
			}

			for header, value := range stored.Headers {
				if strings.EqualFold(header, fiber.HeaderContentLength) {
					continue
				}
				c.Set(header, value)
			}
			return c.Status(stored.Status).SendString(stored.Body)
		}
		if !errors.Is(err, redis.Nil) {
			logger.Error("idempotency lookup failed", slog.String("key", key), slog.Any("error", err))
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency store failure")
		}

		reserved, err := cache.SetNX(ctx, cacheKey, inProgressMarker, ttl).Result()
		if err != nil {
			logger.Error("idempotency reservation failed", slog.String("key", key), slog.Any("error", err))
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency reservation failure")
		}
		if !reserved {
			return apperr.Fiber(ErrRequestInFlight)
		}

		release := func() {
			cleanupCtx, cancel := context.WithTimeout(context.Background(), idempotencyTimeout)
			defer cancel()
			cache.Del(cleanupCtx, cacheKey)
		}

		if err := c.Next(); err != nil {
			release()
			return err
		}

		status := c.Response().StatusCode()
		if status < fiber.StatusOK || status >= fiber.StatusMultipleChoices {
			release()
			return nil
		}

		stored := storedResponse{
			Status:  status,
			Body:    string(c.Response().Body()),
			Headers: map[string]string{},
		}
		c.Response().Header.VisitAll(func(k, v []byte) {
			stored.Headers[string(k)] = string(v)
		})

		payload, err := json.Marshal(stored)
		if err != nil {
			logger.Error("failed to encode idempotent response", slog.String("key", key), slog.Any("error", err))
			release()
			return nil
		}

		persistCtx, persistCancel := context.WithTimeout(context.Background(), idempotencyTimeout)
		defer persistCancel()
		if err := cache.Set(persistCtx, cacheKey, payload, ttl).Err(); err != nil {
			logger.Error("failed to persist idempotent response", slog.String("key", key), slog.Any("error", err))
			release()
		}
		return nil
	}
}
