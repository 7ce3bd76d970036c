package guidance

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/openuas/catchleader/internal/geo"
	"github.com/openuas/catchleader/internal/vehicle"
)

// BlockReason says why a solve declined to produce a target. These are normal
// gating states, not errors; the engine retries on the next tick.
type BlockReason int

const (
	BlockLeaderHeartbeat BlockReason = iota + 1
	BlockFollowerHeartbeat
	BlockLeaderPosition
	BlockFollowerPosition
	BlockIncompleteTelemetry
	BlockDisarmed
	BlockWrongMode
	BlockTooClose
)

func (r BlockReason) String() string {
	switch r {
	case BlockLeaderHeartbeat:
		return "leader_heartbeat_stale"
	case BlockFollowerHeartbeat:
		return "follower_heartbeat_stale"
	case BlockLeaderPosition:
		return "leader_position_stale"
	case BlockFollowerPosition:
		return "follower_position_stale"
	case BlockIncompleteTelemetry:
		return "incomplete_telemetry"
	case BlockDisarmed:
		return "disarmed"
	case BlockWrongMode:
		return "wrong_mode"
	case BlockTooClose:
		return "too_close"
	default:
		return fmt.Sprintf("BlockReason(%d)", int(r))
	}
}

// Blocked carries the gating reason and the operator-facing status line.
type Blocked struct {
	Reason BlockReason
	Status string
}

// Solution is one intercept solve result, recomputed every guidance tick.
type Solution struct {
	Target        Target
	TimeToGo      float64 // seconds, capped at max lookahead
	ClosingRate   float64 // m/s actually used
	Clamped       bool    // closing rate was raised to the configured minimum
	FollowerSpeed float64 // m/s used for the solve
	SpeedSource   string  // "telemetry" or "fallback"
	Status        string  // one-line human-readable summary
}

// SolveConfig is the slice of guidance settings the solver consumes.
type SolveConfig struct {
	PositionTimeout  time.Duration
	HeartbeatTimeout time.Duration
	MinDistance      float64
	MinClosing       float64
	MaxLookahead     float64
	TargetAltOffset  float64
	UseRelativeAlt   bool
}

// Follower flight modes in which guidance commands are accepted.
var allowedFollowerModes = map[string]bool{
	"GUIDED":       true,
	"GUIDED_NOGPS": true,
	"POSHOLD":      true,
	"LOITER":       true,
}

const (
	speedFloor    = 0.1  // m/s, applied to every speed the solver divides by
	speedEMAAlpha = 0.35 // smoothing for measured follower groundspeed
)

// Solver computes predictive intercept points. It keeps an exponential moving
// average of the follower's measured groundspeed across solves, preferring
// that over the resolved speed selection, and edge-triggers a notification
// when it has to fall back (and again when telemetry recovers).
type Solver struct {
	speedEMA          float64
	speedEMASeeded    bool
	telemetryFallback bool
	notify            func(string)
}

// NewSolver constructs a solver. notify receives edge-triggered operator log
// lines and may be nil.
func NewSolver(notify func(string)) *Solver {
	if notify == nil {
		notify = func(string) {}
	}
	return &Solver{notify: notify}
}

// ResetSpeedEMA drops the measured-groundspeed history, e.g. when the
// follower selection changes to a different vehicle.
func (s *Solver) ResetSpeedEMA() {
	s.speedEMASeeded = false
	s.speedEMA = 0
}

// Solve runs the precondition chain and, if the geometry is viable, returns
// the predicted intercept point. Preconditions are checked in a fixed order
// and the first failure wins.
func (s *Solver) Solve(leader, follower *vehicle.State, sel Selection, cfg SolveConfig, now time.Time) (Solution, *Blocked) {
	if !leader.IsHeartbeatFresh(now, cfg.HeartbeatTimeout) {
		return Solution{}, &Blocked{BlockLeaderHeartbeat, "Waiting for leader heartbeat"}
	}
	if !follower.IsHeartbeatFresh(now, cfg.HeartbeatTimeout) {
		return Solution{}, &Blocked{BlockFollowerHeartbeat, "Waiting for follower heartbeat"}
	}
	if !leader.IsPositionFresh(now, cfg.PositionTimeout) {
		return Solution{}, &Blocked{BlockLeaderPosition, "Waiting for leader position updates"}
	}
	if !follower.IsPositionFresh(now, cfg.PositionTimeout) {
		return Solution{}, &Blocked{BlockFollowerPosition, "Waiting for follower position updates"}
	}
	if !leader.HasPosition || !follower.HasPosition {
		return Solution{}, &Blocked{BlockIncompleteTelemetry, "Incomplete telemetry for intercept"}
	}
	if !follower.Armed {
		return Solution{}, &Blocked{BlockDisarmed, "Follower disarmed — waiting for ARM"}
	}
	if !allowedFollowerModes[strings.ToUpper(follower.Mode)] {
		return Solution{}, &Blocked{
			BlockWrongMode,
			fmt.Sprintf("Follower mode %s — waiting for GUIDED/LOITER", follower.Mode),
		}
	}

	followerSpeed, speedSource := s.resolveFollowerSpeed(follower, sel)

	rng := geo.Distance(follower.Lat, follower.Lon, leader.Lat, leader.Lon)
	if rng < cfg.MinDistance {
		return Solution{}, &Blocked{BlockTooClose, "Follower within minimum distance — holding position"}
	}

	bearingToLeader := geo.Bearing(follower.Lat, follower.Lon, leader.Lat, leader.Lon)
	leaderSpeed, _ := leader.Speed()

	// Unknown or negligible leader motion: assume it moves along the line of
	// sight, which degenerates the prediction to the leader's current point.
	leaderCourse := bearingToLeader
	if leaderSpeed > 0.01 {
		leaderCourse = geo.NormalizeHeading(math.Atan2(leader.VY, leader.VX) * 180.0 / math.Pi)
	}

	closingProjection := leaderSpeed * math.Cos((bearingToLeader-leaderCourse)*math.Pi/180.0)
	closingRateRaw := followerSpeed - closingProjection
	minClosing := math.Max(cfg.MinClosing, speedFloor)
	closingRate := closingRateRaw
	clamped := false
	if closingRateRaw < minClosing {
		closingRate = minClosing
		clamped = true
	}

	timeToGo := math.Min(rng/closingRate, cfg.MaxLookahead)
	offsetDistance := leaderSpeed * timeToGo
	predictedLat, predictedLon := geo.Offset(leader.Lat, leader.Lon, leaderCourse, offsetDistance)

	leaderAlt := leader.AMSLAlt
	if cfg.UseRelativeAlt {
		leaderAlt = leader.RelAlt
	}
	targetAlt := leaderAlt + cfg.TargetAltOffset

	speedNote := "measured"
	if speedSource == "fallback" {
		speedNote = "fallback"
	}
	closingText := fmt.Sprintf("%.1f m/s", closingRate)
	if clamped {
		closingText += fmt.Sprintf(" (min_closing %.1f m/s)", minClosing)
	}
	status := fmt.Sprintf("Intercepting leader — ETA %4.1fs (spd %.1f m/s %s, closing %s)",
		timeToGo, followerSpeed, speedNote, closingText)

	return Solution{
		Target:        Target{Lat: predictedLat, Lon: predictedLon, Alt: targetAlt},
		TimeToGo:      timeToGo,
		ClosingRate:   closingRate,
		Clamped:       clamped,
		FollowerSpeed: followerSpeed,
		SpeedSource:   speedSource,
		Status:        status,
	}, nil
}

// resolveFollowerSpeed prefers smoothed measured groundspeed over the speed
// selection, falling back only when telemetry is unavailable. Both the
// fallback transition and its reversal are reported exactly once.
func (s *Solver) resolveFollowerSpeed(follower *vehicle.State, sel Selection) (float64, string) {
	measured, ok := follower.Speed()
	if ok && !math.IsNaN(measured) && !math.IsInf(measured, 0) {
		if !s.speedEMASeeded {
			s.speedEMA = measured
			s.speedEMASeeded = true
		} else {
			s.speedEMA = speedEMAAlpha*measured + (1.0-speedEMAAlpha)*s.speedEMA
		}
		if s.telemetryFallback {
			s.notify("Follower speed telemetry restored; using measured groundspeed for intercept calculations.")
			s.telemetryFallback = false
		}
		return math.Max(s.speedEMA, speedFloor), "telemetry"
	}

	speed := math.Max(sel.Value, speedFloor)
	if !s.telemetryFallback {
		s.notify(fmt.Sprintf(
			"Follower speed telemetry unavailable — using configured follower_speed (%.1f m/s) as fallback.",
			speed))
		s.telemetryFallback = true
	}
	return speed, "fallback"
}
