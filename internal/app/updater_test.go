package app

import (
	"context"
	"errors"
	"testing"

	"github.com/Steap/liquipedia-scripts/internal/config"
	"github.com/Steap/liquipedia-scripts/internal/esl"
	"github.com/Steap/liquipedia-scripts/internal/observability"
)

func testUpdater(cfg *config.Config) *Updater {
	return NewUpdater(cfg, observability.NewTestLogger(), nil, nil, false, nil)
}

func TestPageName(t *testing.T) {
	cfg := &config.Config{}
	cfg.Liquipedia.PageTemplate = "ESL_Open_Cup_${region}/${edition}"

	got := testUpdater(cfg).pageName(esl.RegionEU, 125)
	if got != "ESL_Open_Cup_EU/125" {
		t.Errorf("pageName = %q, want ESL_Open_Cup_EU/125", got)
	}
}

func TestRunOneshot(t *testing.T) {
	cfg := &config.Config{}
	cfg.Scheduler.Mode = "oneshot"

	runs := 0
	err := testUpdater(cfg).Run(context.Background(), false, func(context.Context) error {
		runs++
		return nil
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if runs != 1 {
		t.Errorf("task ran %d times, want 1", runs)
	}
}

func TestRunOneshotError(t *testing.T) {
	cfg := &config.Config{}
	cfg.Scheduler.Mode = "oneshot"

	wantErr := errors.New("boom")
	err := testUpdater(cfg).Run(context.Background(), false, func(context.Context) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("Run error = %v, want %v", err, wantErr)
	}
}

func TestRunWatchStopsOnCancel(t *testing.T) {
	cfg := &config.Config{}
	cfg.Scheduler.Mode = "oneshot"
	cfg.Scheduler.IntervalS = 1

	ctx, cancel := context.WithCancel(context.Background())
	runs := 0
	err := testUpdater(cfg).Run(ctx, true, func(context.Context) error {
		runs++
		cancel()
		return nil
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if runs != 1 {
		t.Errorf("task ran %d times, want 1", runs)
	}
}
