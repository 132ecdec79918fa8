// Package redis holds the optional Redis-backed webhook event deduper. The
// platform redelivers webhook events it could not confirm; marking event ids
// lets redelivered events be skipped instead of replayed against the
// conversation state.
package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/morinaga/stockbot-backend/internal/logger"
)

type Deduper interface {
	// Seen marks eventID and reports whether it had been marked before.
	Seen(ctx context.Context, eventID string) (bool, error)
}

type eventDeduper struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewEventDeduper(log *logger.Logger) (Deduper, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &eventDeduper{
		log: log.With("client", "EventDeduper"),
		rdb: rdb,
		ttl: time.Hour,
	}, nil
}

func (d *eventDeduper) Seen(ctx context.Context, eventID string) (bool, error) {
	if d == nil || d.rdb == nil {
		return false, fmt.Errorf("event deduper not initialized")
	}
	if eventID == "" {
		return false, nil
	}
	set, err := d.rdb.SetNX(ctx, "webhook:event:"+eventID, 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return !set, nil
}
