package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := NewConfig()

	if cfg.FollowerSpeed != 20.0 {
		t.Errorf("FollowerSpeed = %v, want 20.0", cfg.FollowerSpeed)
	}
	if cfg.SpeedProfile != "custom" {
		t.Errorf("SpeedProfile = %q, want custom", cfg.SpeedProfile)
	}
	if cfg.MaxLookahead != 25.0 {
		t.Errorf("MaxLookahead = %v, want 25.0", cfg.MaxLookahead)
	}
	if cfg.MinClosing != 1.0 {
		t.Errorf("MinClosing = %v, want 1.0", cfg.MinClosing)
	}
	if cfg.UpdatePeriod != 500*time.Millisecond {
		t.Errorf("UpdatePeriod = %v, want 500ms", cfg.UpdatePeriod)
	}
	if cfg.MinDistance != 5.0 {
		t.Errorf("MinDistance = %v, want 5.0", cfg.MinDistance)
	}
	if cfg.PositionTimeout != 3*time.Second {
		t.Errorf("PositionTimeout = %v, want 3s", cfg.PositionTimeout)
	}
	if cfg.HeartbeatTimeout != 4500*time.Millisecond {
		t.Errorf("HeartbeatTimeout = %v, want 4.5s", cfg.HeartbeatTimeout)
	}
	if cfg.TargetFilterAlpha != 0.5 {
		t.Errorf("TargetFilterAlpha = %v, want 0.5", cfg.TargetFilterAlpha)
	}
	if cfg.UseRelativeAlt {
		t.Error("UseRelativeAlt should default to false")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FOLLOWER_SPEED", "12.5")
	t.Setenv("UPDATE_PERIOD", "250ms")
	t.Setenv("USE_RELATIVE_ALT", "true")
	t.Setenv("LEADER_SYSID", "7")

	cfg := NewConfig()
	if cfg.FollowerSpeed != 12.5 {
		t.Errorf("FollowerSpeed = %v, want 12.5", cfg.FollowerSpeed)
	}
	if cfg.UpdatePeriod != 250*time.Millisecond {
		t.Errorf("UpdatePeriod = %v, want 250ms", cfg.UpdatePeriod)
	}
	if !cfg.UseRelativeAlt {
		t.Error("UseRelativeAlt override not applied")
	}
	if cfg.LeaderSysID != 7 {
		t.Errorf("LeaderSysID = %v, want 7", cfg.LeaderSysID)
	}
}

func TestMalformedEnvFallsBack(t *testing.T) {
	t.Setenv("FOLLOWER_SPEED", "fast")
	t.Setenv("UPDATE_PERIOD", "soon")

	cfg := NewConfig()
	if cfg.FollowerSpeed != 20.0 {
		t.Errorf("FollowerSpeed = %v, want default 20.0", cfg.FollowerSpeed)
	}
	if cfg.UpdatePeriod != 500*time.Millisecond {
		t.Errorf("UpdatePeriod = %v, want default 500ms", cfg.UpdatePeriod)
	}
}
