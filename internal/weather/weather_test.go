package weather

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/yegors/wxdash/pkg/logger"
)

func TestDefaultSnapshot(t *testing.T) {
	s := DefaultSnapshot()

	if s.Location != "San Francisco, CA" {
		t.Errorf("expected San Francisco, CA, got %s", s.Location)
	}
	if s.Temperature != 22 {
		t.Errorf("expected temperature 22, got %d", s.Temperature)
	}
	if s.Condition != ConditionPartlyCloudy {
		t.Errorf("expected partly-cloudy, got %s", s.Condition)
	}

	wantTimes := []string{"12 PM", "1 PM", "2 PM", "3 PM", "4 PM", "5 PM"}
	wantTemps := []int{22, 23, 24, 25, 24, 23}
	if len(s.HourlyForecast) != len(wantTimes) {
		t.Fatalf("expected %d hourly entries, got %d", len(wantTimes), len(s.HourlyForecast))
	}
	for i, h := range s.HourlyForecast {
		if h.Time != wantTimes[i] {
			t.Errorf("hour %d: expected time %s, got %s", i, wantTimes[i], h.Time)
		}
		if h.Temp != wantTemps[i] {
			t.Errorf("hour %d: expected temp %d, got %d", i, wantTemps[i], h.Temp)
		}
		if !h.Condition.Valid() {
			t.Errorf("hour %d: invalid condition %s", i, h.Condition)
		}
	}
}

func TestDefaultSnapshotIsFreshCopy(t *testing.T) {
	a := DefaultSnapshot()
	a.HourlyForecast[0].Temp = 99
	a.Location = "Nowhere"

	b := DefaultSnapshot()
	if b.HourlyForecast[0].Temp != 22 || b.Location != DefaultLocation {
		t.Fatal("mutating one snapshot leaked into the fixture")
	}
}

func TestWithLocation(t *testing.T) {
	base := DefaultSnapshot()
	relabelled := base.WithLocation("Tokyo")

	if relabelled.Location != "Tokyo" {
		t.Errorf("expected Tokyo, got %s", relabelled.Location)
	}
	if base.Location != DefaultLocation {
		t.Errorf("base snapshot was modified: %s", base.Location)
	}

	relabelled.Location = base.Location
	if !reflect.DeepEqual(base, relabelled) {
		t.Error("relabelled snapshot differs in more than the location")
	}
}

func TestConditionValid(t *testing.T) {
	for _, c := range Conditions {
		if !c.Valid() {
			t.Errorf("expected %s to be valid", c)
		}
	}
	if Condition("hail").Valid() {
		t.Error("expected hail to be invalid")
	}
}

func TestMockProvider(t *testing.T) {
	t.Run("default location waits for the mount delay", func(t *testing.T) {
		p := NewMockProvider(40*time.Millisecond, time.Hour)
		start := time.Now()
		s, err := p.Current(context.Background(), "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
			t.Errorf("resolved after %s, before the mount delay", elapsed)
		}
		if s.Location != DefaultLocation {
			t.Errorf("expected %s, got %s", DefaultLocation, s.Location)
		}
	})

	t.Run("search relabels the snapshot", func(t *testing.T) {
		p := NewMockProvider(time.Hour, 10*time.Millisecond)
		s, err := p.Current(context.Background(), "Tokyo")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.Location != "Tokyo" {
			t.Errorf("expected Tokyo, got %s", s.Location)
		}
		if s.Temperature != 22 {
			t.Errorf("expected temperature 22, got %d", s.Temperature)
		}
	})

	t.Run("cancellation stops the wait", func(t *testing.T) {
		p := NewMockProvider(time.Hour, time.Hour)
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()
		_, err := p.Current(ctx, "")
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}

func TestRateLimitedProvider(t *testing.T) {
	p := NewRateLimitedProvider(NewMockProvider(0, 0), 1, 1)
	if !strings.Contains(p.Name(), "Rate Limited") {
		t.Errorf("unexpected name %s", p.Name())
	}

	// First call consumes the burst
	if _, err := p.Current(context.Background(), "Oslo"); err != nil {
		t.Fatalf("first lookup failed: %v", err)
	}

	// Second call must wait ~1s for a token, which exceeds the deadline
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := p.Current(ctx, "Oslo"); err == nil {
		t.Fatal("expected rate limit error, got nil")
	}
}

func TestTracedProvider(t *testing.T) {
	p := NewTracedProvider(NewMockProvider(0, 0))
	if p.Name() != "mock" {
		t.Errorf("expected mock, got %s", p.Name())
	}
	s, err := p.Current(context.Background(), "Lima")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Location != "Lima" {
		t.Errorf("expected Lima, got %s", s.Location)
	}
}

func TestServiceCurrent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MountDelay = 0
	cfg.SearchDelay = 0
	cfg.MaxLocationLength = 10
	svc := NewService(cfg, logger.NewNop())

	t.Run("trims the location", func(t *testing.T) {
		s, err := svc.Current(context.Background(), "  Paris  ")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.Location != "Paris" {
			t.Errorf("expected Paris, got %q", s.Location)
		}
	})

	t.Run("rejects over-long locations", func(t *testing.T) {
		_, err := svc.Current(context.Background(), "Llanfairpwllgwyngyll")
		if !errors.Is(err, ErrLocationTooLong) {
			t.Fatalf("expected ErrLocationTooLong, got %v", err)
		}
	})

	t.Run("counts lookups", func(t *testing.T) {
		stats := svc.GetStats()
		if stats["lookups"].(int) < 1 {
			t.Errorf("expected at least one lookup, got %v", stats["lookups"])
		}
	})
}

type failingProvider struct{}

func (failingProvider) Name() string { return "failing" }
func (failingProvider) Current(context.Context, string) (*Snapshot, error) {
	return nil, errors.New("upstream unavailable")
}

func TestServiceWrapsFailures(t *testing.T) {
	svc := NewServiceWithProvider(DefaultConfig(), failingProvider{}, logger.NewNop())
	_, err := svc.Current(context.Background(), "Rome")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "Rome") {
		t.Errorf("expected location in error, got %q", err.Error())
	}
	if svc.GetStats()["failures"].(int) != 1 {
		t.Errorf("expected one failure, got %v", svc.GetStats()["failures"])
	}
}

func TestValidateConfig(t *testing.T) {
	if err := ValidateConfig(DefaultConfig()); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	cfg := DefaultConfig()
	cfg.SearchDelay = -time.Second
	if err := ValidateConfig(cfg); err == nil {
		t.Error("expected error for negative search delay")
	}
}
