package budget

import (
	"errors"
	"testing"
	"time"
)

func TestConfigCache(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	loads := 0
	loader := func(path string) (*Config, error) {
		loads++
		return &Config{DayToDayBudget: float64(loads)}, nil
	}

	c := NewConfigCacheWithLoader(loader, 5*time.Minute, clock)

	cfg, err := c.Get("budget.yaml")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cfg.DayToDayBudget != 1 {
		t.Fatalf("first load = %f, want 1", cfg.DayToDayBudget)
	}

	// Within the TTL the same instance is served.
	now = now.Add(4 * time.Minute)
	cfg, _ = c.Get("budget.yaml")
	if loads != 1 || cfg.DayToDayBudget != 1 {
		t.Errorf("loads = %d, budget = %f, want cached value", loads, cfg.DayToDayBudget)
	}

	// Past the TTL the file is read again.
	now = now.Add(2 * time.Minute)
	cfg, _ = c.Get("budget.yaml")
	if loads != 2 || cfg.DayToDayBudget != 2 {
		t.Errorf("loads = %d, budget = %f, want reload after expiry", loads, cfg.DayToDayBudget)
	}
}

func TestConfigCacheInvalidate(t *testing.T) {
	clock := func() time.Time { return time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC) }

	loads := 0
	loader := func(path string) (*Config, error) {
		loads++
		return &Config{}, nil
	}

	c := NewConfigCacheWithLoader(loader, time.Hour, clock)

	if _, err := c.Get("budget.yaml"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	c.Invalidate("budget.yaml")
	if _, err := c.Get("budget.yaml"); err != nil {
		t.Fatalf("Get after invalidate: %v", err)
	}
	if loads != 2 {
		t.Errorf("loads = %d, want reload after invalidation", loads)
	}
}

func TestConfigCacheDoesNotCacheFailures(t *testing.T) {
	clock := func() time.Time { return time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC) }
	wantErr := errors.New("disk gone")

	calls := 0
	loader := func(path string) (*Config, error) {
		calls++
		if calls == 1 {
			return nil, wantErr
		}
		return &Config{}, nil
	}

	c := NewConfigCacheWithLoader(loader, time.Hour, clock)

	if _, err := c.Get("budget.yaml"); !errors.Is(err, wantErr) {
		t.Fatalf("Get = %v, want load error surfaced", err)
	}
	if _, err := c.Get("budget.yaml"); err != nil {
		t.Fatalf("Get after failed load: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, failures must not be cached", calls)
	}
}
