package guidance

import (
	"fmt"
	"strconv"
	"time"
)

// Settings are the runtime-mutable guidance parameters. The engine owns the
// authoritative copy; operator `set` commands mutate it between ticks.
type Settings struct {
	LeaderSysID    int
	LeaderCompID   int
	FollowerSysID  int
	FollowerCompID int

	FollowerSpeed     float64
	SpeedProfile      Profile
	MaxLookahead      float64
	MinClosing        float64
	UpdatePeriod      time.Duration
	TargetAltOffset   float64
	MinDistance       float64
	PositionTimeout   time.Duration
	HeartbeatTimeout  time.Duration
	UseRelativeAlt    bool
	TargetFilterAlpha float64
}

func (s Settings) solveConfig() SolveConfig {
	return SolveConfig{
		PositionTimeout:  s.PositionTimeout,
		HeartbeatTimeout: s.HeartbeatTimeout,
		MinDistance:      s.MinDistance,
		MinClosing:       s.MinClosing,
		MaxLookahead:     s.MaxLookahead,
		TargetAltOffset:  s.TargetAltOffset,
		UseRelativeAlt:   s.UseRelativeAlt,
	}
}

// Set mutates one named setting from operator-supplied text. Unknown names
// and unparsable values are rejected without touching the settings.
func (s *Settings) Set(name, value string) error {
	switch name {
	case "leader_sysid", "leader_compid", "follower_sysid", "follower_compid":
		v, err := strconv.Atoi(value)
		if err != nil || v < 0 {
			return fmt.Errorf("invalid %s %q", name, value)
		}
		switch name {
		case "leader_sysid":
			s.LeaderSysID = v
		case "leader_compid":
			s.LeaderCompID = v
		case "follower_sysid":
			s.FollowerSysID = v
		case "follower_compid":
			s.FollowerCompID = v
		}
		return nil
	case "follower_speed", "max_lookahead", "min_closing", "target_alt_offset",
		"min_distance", "target_filter_alpha":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q", name, value)
		}
		switch name {
		case "follower_speed":
			s.FollowerSpeed = v
		case "max_lookahead":
			s.MaxLookahead = v
		case "min_closing":
			s.MinClosing = v
		case "target_alt_offset":
			s.TargetAltOffset = v
		case "min_distance":
			s.MinDistance = v
		case "target_filter_alpha":
			s.TargetFilterAlpha = clampAlpha(v)
		}
		return nil
	case "speed_profile":
		s.SpeedProfile = ParseProfile(value)
		return nil
	case "update_period", "position_timeout", "heartbeat_timeout":
		d, err := parseSecondsOrDuration(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q", name, value)
		}
		switch name {
		case "update_period":
			s.UpdatePeriod = d
		case "position_timeout":
			s.PositionTimeout = d
		case "heartbeat_timeout":
			s.HeartbeatTimeout = d
		}
		return nil
	case "use_relative_alt":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q", name, value)
		}
		s.UseRelativeAlt = v
		return nil
	}
	return fmt.Errorf("unknown setting %q", name)
}

// parseSecondsOrDuration accepts either a plain number of seconds ("0.5") or
// a Go duration string ("500ms").
func parseSecondsOrDuration(value string) (time.Duration, error) {
	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		if seconds < 0 {
			return 0, fmt.Errorf("negative duration")
		}
		return time.Duration(seconds * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("bad duration %q", value)
	}
	return d, nil
}

func clampAlpha(alpha float64) float64 {
	if alpha < 0 {
		return 0
	}
	if alpha > 1 {
		return 1
	}
	return alpha
}
