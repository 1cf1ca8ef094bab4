package config_test

import (
	"testing"

	"github.com/padwatch/padwatch/internal/pkg/config"
)

func TestLoad_MapDefaults(t *testing.T) {
	cfg, err := config.Load("padwatch-test")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	m := cfg.Map
	if m.LongPressMS != 500 {
		t.Errorf("long_press_ms = %d, want 500", m.LongPressMS)
	}
	if m.SuppressWindowMS != 500 {
		t.Errorf("suppress_window_ms = %d, want 500", m.SuppressWindowMS)
	}
	var slack int = m.OriginSlackPx
	if slack != 10 {
		t.Errorf("origin_slack_px = %d, want 10", slack)
	}
	if m.MoveFallbackMS != 1000 {
		t.Errorf("move_fallback_ms = %d, want 1000", m.MoveFallbackMS)
	}
	if m.CoordTolerance != 0.0005 {
		t.Errorf("coord_tolerance = %v, want 0.0005", m.CoordTolerance)
	}
	if m.PopupMaxRetries != 5 {
		t.Errorf("popup_max_retries = %d, want 5", m.PopupMaxRetries)
	}
	if m.DefaultZoom != 10 {
		t.Errorf("default_zoom = %d, want 10", m.DefaultZoom)
	}
}

func TestLoad_MapEnvOverrides(t *testing.T) {
	t.Setenv("PADWATCH_MAP_ORIGIN_SLACK_PX", "14")
	t.Setenv("PADWATCH_MAP_MOVE_FALLBACK_MS", "750")

	cfg, err := config.Load("padwatch-test")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Map.OriginSlackPx != 14 {
		t.Errorf("origin_slack_px = %d, want 14", cfg.Map.OriginSlackPx)
	}
	if cfg.Map.MoveFallbackMS != 750 {
		t.Errorf("move_fallback_ms = %d, want 750", cfg.Map.MoveFallbackMS)
	}
}
