package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stemsi/exproctor/internal/config"
)

func TestWaitReady(t *testing.T) {
	readyBackoff = time.Millisecond
	errDown := errors.New("connection refused")

	t.Run("retries until ready", func(t *testing.T) {
		calls := 0
		err := waitReady(context.Background(), zerolog.Nop(), func(context.Context) error {
			calls++
			if calls < 3 {
				return errDown
			}
			return nil
		})
		if err != nil || calls != 3 {
			t.Errorf("err = %v after %d calls, want nil after 3", err, calls)
		}
	})

	t.Run("gives up", func(t *testing.T) {
		calls := 0
		err := waitReady(context.Background(), zerolog.Nop(), func(context.Context) error {
			calls++
			return errDown
		})
		if !errors.Is(err, errDown) || calls != readyAttempts {
			t.Errorf("err = %v after %d calls", err, calls)
		}
	})

	t.Run("stops on cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		err := waitReady(ctx, zerolog.Nop(), func(context.Context) error {
			cancel()
			return errDown
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	})
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := NewRedisClient(context.Background(), &config.Config{RedisURL: "redis://" + mr.Addr() + "/0"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewRedisClient: %v", err)
	}
	defer rdb.Close()

	if err := rdb.Set(context.Background(), "k", "v", 0).Err(); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, _ := mr.Get("k"); got != "v" {
		t.Errorf("stored %q, want v", got)
	}

	if _, err := NewRedisClient(context.Background(), &config.Config{RedisURL: "://bad"}, zerolog.Nop()); err == nil {
		t.Error("expected error for malformed URL")
	}
}
