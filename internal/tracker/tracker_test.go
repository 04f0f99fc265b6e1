package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/openkra/etims-relay/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

func newTestRedisClient(t *testing.T) *goredis.Client {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run() error = %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := goredis.NewClient(&goredis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		_ = rdb.Close()
	})

	return rdb
}

func TestRedisTrackerUpdateAndRead(t *testing.T) {
	t.Parallel()

	tr, err := NewRedisTracker(newTestRedisClient(t))
	if err != nil {
		t.Fatalf("NewRedisTracker() error = %v", err)
	}

	if err := tr.UpdateLastSuccess(context.Background(), "20260831093015", "/saveItem"); err != nil {
		t.Fatalf("UpdateLastSuccess() error = %v", err)
	}

	got, err := tr.LastSuccess(context.Background(), "/saveItem")
	if err != nil {
		t.Fatalf("LastSuccess() error = %v", err)
	}
	if got != "20260831093015" {
		t.Fatalf("LastSuccess() = %q, want 20260831093015", got)
	}
}

func TestRedisTrackerLatestWins(t *testing.T) {
	t.Parallel()

	tr, err := NewRedisTracker(newTestRedisClient(t))
	if err != nil {
		t.Fatalf("NewRedisTracker() error = %v", err)
	}

	for _, dt := range []string{"20260830110000", "20260831093015"} {
		if err := tr.UpdateLastSuccess(context.Background(), dt, "/selectCodeList"); err != nil {
			t.Fatalf("UpdateLastSuccess(%s) error = %v", dt, err)
		}
	}

	got, err := tr.LastSuccess(context.Background(), "/selectCodeList")
	if err != nil {
		t.Fatalf("LastSuccess() error = %v", err)
	}
	if got != "20260831093015" {
		t.Fatalf("LastSuccess() = %q, want latest value", got)
	}
}

func TestRedisTrackerUnknownRoute(t *testing.T) {
	t.Parallel()

	tr, err := NewRedisTracker(newTestRedisClient(t))
	if err != nil {
		t.Fatalf("NewRedisTracker() error = %v", err)
	}

	_, err = tr.LastSuccess(context.Background(), "/neverSynced")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("LastSuccess() error = %v, want ErrNotFound", err)
	}
}

func TestRedisTrackerValidation(t *testing.T) {
	t.Parallel()

	tr, err := NewRedisTracker(newTestRedisClient(t))
	if err != nil {
		t.Fatalf("NewRedisTracker() error = %v", err)
	}

	if err := tr.UpdateLastSuccess(context.Background(), "20260831093015", " "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("UpdateLastSuccess() error = %v, want ErrValidation for empty route", err)
	}
	if err := tr.UpdateLastSuccess(context.Background(), "", "/saveItem"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("UpdateLastSuccess() error = %v, want ErrValidation for empty timestamp", err)
	}
}

func TestParseResultDt(t *testing.T) {
	t.Parallel()

	got, err := ParseResultDt("20260831093015")
	if err != nil {
		t.Fatalf("ParseResultDt() error = %v", err)
	}

	want := time.Date(2026, 8, 31, 9, 30, 15, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("ParseResultDt() = %v, want %v", got, want)
	}

	if _, err := ParseResultDt("2026-08-31"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("ParseResultDt() error = %v, want ErrValidation", err)
	}
}
