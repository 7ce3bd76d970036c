// Package guidance implements the predictive intercept engine: vehicle-state
// bookkeeping, speed-profile resolution, the intercept solver, target
// smoothing, and the HOLD/AUTO state machine that decides when commands are
// emitted.
package guidance

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/openuas/catchleader/internal/command"
	"github.com/openuas/catchleader/internal/geo"
	"github.com/openuas/catchleader/internal/metrics"
	"github.com/openuas/catchleader/internal/vehicle"
)

// Mode is the guidance state.
type Mode int

const (
	ModeHold Mode = iota
	ModeAuto
)

func (m Mode) String() string {
	if m == ModeAuto {
		return "AUTO"
	}
	return "HOLD"
}

// PositionUpdate is one raw position telemetry message, still in wire units.
type PositionUpdate struct {
	SysID    int
	CompID   int
	LatE7    int64
	LonE7    int64
	RelAltMM int64
	AltMM    int64
	VxCMS    int64
	VyCMS    int64
	VzCMS    int64
	HdgCdeg  uint32
}

// HeartbeatUpdate is one heartbeat telemetry message.
type HeartbeatUpdate struct {
	SysID  int
	CompID int
	Mode   string
	Armed  bool
}

// ParamUpdate is one autopilot parameter broadcast.
type ParamUpdate struct {
	SysID  int
	CompID int
	Name   string
	Value  float64
}

type telemetryMsg struct {
	pos   *PositionUpdate
	hb    *HeartbeatUpdate
	param *ParamUpdate
}

type statusReq struct {
	reply chan StatusSnapshot
}

// vehicle label refresh cadence and the base tick driving pacing checks
const (
	labelRefreshPeriod = 750 * time.Millisecond
	baseTickPeriod     = 100 * time.Millisecond
)

// Engine owns all guidance state. Telemetry and operator commands arrive over
// channels; a single goroutine in Run mutates state and emits commands, so no
// locking is needed anywhere in the core.
type Engine struct {
	sink     CommandSink
	console  Console
	recorder Recorder
	logger   *zap.Logger
	now      func() time.Time

	telemetryCh chan telemetryMsg
	commandCh   chan command.Command
	statusReqCh chan statusReq

	// Actor-owned state below. Touched only by Run and the handle*/tick
	// methods it dispatches to (tests call those directly).
	settings Settings
	registry *vehicle.Registry
	params   *vehicle.ParamTable
	leader   *vehicle.State
	follower *vehicle.State

	mode         Mode
	manualTarget *Target
	solver       *Solver
	filter       TargetFilter
	lastSent     time.Time

	lastSelection *Selection
	lastSpeedCmd  *Selection

	lastWarning       string
	currentStatus     string
	lastLeaderLabel   string
	lastFollowerLabel string
	lastLabelRefresh  time.Time
	targetDisplayed   bool

	velocityOverrideWarned bool
}

// New constructs an engine bound to the given sinks. Nil sink, console, or
// recorder degrade to no-ops.
func New(settings Settings, sink CommandSink, console Console, recorder Recorder, logger *zap.Logger) *Engine {
	if sink == nil {
		sink = NopSink{}
	}
	if console == nil {
		console = NullConsole{}
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		sink:        sink,
		console:     console,
		recorder:    recorder,
		logger:      logger,
		now:         time.Now,
		telemetryCh: make(chan telemetryMsg, 256),
		commandCh:   make(chan command.Command, 32),
		statusReqCh: make(chan statusReq, 8),
		settings:    settings,
		registry:    vehicle.NewRegistry(),
		params:      vehicle.NewParamTable(),
		mode:        ModeHold,
	}
	e.solver = NewSolver(func(msg string) {
		e.console.PostUpdate("log", msg)
		e.logger.Info(msg)
	})
	e.leader, _ = e.registry.Ensure(settings.LeaderSysID, settings.LeaderCompID)
	e.follower, _ = e.registry.Ensure(settings.FollowerSysID, settings.FollowerCompID)
	return e
}

// SubmitPosition queues one position update. Drops if the engine is saturated.
func (e *Engine) SubmitPosition(p PositionUpdate) {
	select {
	case e.telemetryCh <- telemetryMsg{pos: &p}:
	default:
	}
}

// SubmitHeartbeat queues one heartbeat update.
func (e *Engine) SubmitHeartbeat(h HeartbeatUpdate) {
	select {
	case e.telemetryCh <- telemetryMsg{hb: &h}:
	default:
	}
}

// SubmitParam queues one parameter broadcast.
func (e *Engine) SubmitParam(p ParamUpdate) {
	select {
	case e.telemetryCh <- telemetryMsg{param: &p}:
	default:
	}
}

// SubmitCommand queues one decoded operator command.
func (e *Engine) SubmitCommand(cmd command.Command) {
	select {
	case e.commandCh <- cmd:
	default:
		e.logger.Warn("command queue full, dropping operator command")
	}
}

// Status returns a snapshot of the engine state, synchronized with the actor
// loop. Only valid while Run is active.
func (e *Engine) Status(ctx context.Context) (StatusSnapshot, error) {
	req := statusReq{reply: make(chan StatusSnapshot, 1)}
	select {
	case e.statusReqCh <- req:
	case <-ctx.Done():
		return StatusSnapshot{}, ctx.Err()
	}
	select {
	case snap := <-req.reply:
		return snap, nil
	case <-ctx.Done():
		return StatusSnapshot{}, ctx.Err()
	}
}

// Run drives the engine until the context is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	e.emitInitialState()

	ticker := time.NewTicker(baseTickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.console.Close()
			return nil
		case msg := <-e.telemetryCh:
			e.handleTelemetry(msg)
		case cmd := <-e.commandCh:
			e.handleCommand(cmd)
		case req := <-e.statusReqCh:
			req.reply <- e.statusSnapshot()
		case <-ticker.C:
			e.tick(e.now())
		}
	}
}

func (e *Engine) emitInitialState() {
	e.emitVehicleOptions()
	e.console.PostUpdate("status", "Guidance: HOLD")
	e.console.PostUpdate("warning", "Warnings: none")
	e.setSystemStatus("Awaiting intercept solution")
	e.emitAltitudeMode()
	e.updateSpeedSelection(true)
	e.console.PostUpdate("log",
		"Target smoothing active - set target_filter_alpha (0.0-1.0) to adjust EMA strength")
	e.console.PostUpdate("target_filter_alpha", fmt.Sprintf("%.4f", clampAlpha(e.settings.TargetFilterAlpha)))
}

func (e *Engine) handleTelemetry(msg telemetryMsg) {
	now := e.now()
	switch {
	case msg.pos != nil:
		state, existed := e.registry.Ensure(msg.pos.SysID, msg.pos.CompID)
		if !existed {
			e.emitVehicleOptions()
		}
		state.UpdatePosition(msg.pos.LatE7, msg.pos.LonE7, msg.pos.RelAltMM, msg.pos.AltMM,
			msg.pos.VxCMS, msg.pos.VyCMS, msg.pos.VzCMS, msg.pos.HdgCdeg, now)
		e.recorder.RecordVehicle(*state, now)
		e.refreshVehicleLabels(now)
	case msg.hb != nil:
		state, existed := e.registry.Ensure(msg.hb.SysID, msg.hb.CompID)
		if !existed {
			e.emitVehicleOptions()
		}
		state.UpdateHeartbeat(msg.hb.Mode, msg.hb.Armed, now)
		e.refreshVehicleLabels(now)
	case msg.param != nil:
		e.params.Set(msg.param.SysID, msg.param.CompID, msg.param.Name, msg.param.Value)
	}
}

// tick evaluates guidance once. Pacing against update_period happens here, so
// the base ticker can run faster than the configured emission cadence.
func (e *Engine) tick(now time.Time) {
	e.updateWarnings(now)
	if now.Sub(e.lastLabelRefresh) >= labelRefreshPeriod {
		e.refreshVehicleLabels(now)
	}

	if e.mode != ModeAuto {
		if e.manualTarget == nil {
			e.setSystemStatus("Guidance paused by operator")
		}
		return
	}
	if now.Sub(e.lastSent) < e.settings.UpdatePeriod {
		return
	}

	started := time.Now()
	defer func() {
		metrics.SolveDuration.Observe(time.Since(started).Seconds())
	}()

	selection := e.updateSpeedSelection(false)

	if e.manualTarget != nil {
		// Manual targets express explicit operator intent: no solver, no
		// smoothing, no speed command.
		target := *e.manualTarget
		e.setSystemStatus("Guiding to manual target")
		e.sendTarget(target, selection)
		e.lastSent = now
		e.console.PostUpdate("status", e.formatAutoStatus(target))
		e.console.PostUpdate("target", e.formatTargetLabel(target, true))
		if e.follower.HasPosition {
			rng := geo.Distance(e.follower.Lat, e.follower.Lon, target.Lat, target.Lon)
			e.console.PostUpdate("range", fmt.Sprintf("Range to manual: %6.1f m", rng))
		}
		e.targetDisplayed = true
		e.recorder.RecordTarget(target, true, 0, now)
		return
	}

	solution, blocked := e.solver.Solve(e.leader, e.follower, selection, e.settings.solveConfig(), now)
	if blocked != nil {
		metrics.SolverBlockedTotal.WithLabelValues(blocked.Reason.String()).Inc()
		e.setSystemStatus(blocked.Status)
		e.clearTargetDisplay()
		e.filter.Reset()
		return
	}
	e.setSystemStatus(solution.Status)

	target := e.filter.Apply(solution.Target, clampAlpha(e.settings.TargetFilterAlpha))
	e.maybeSendSpeedCommand(selection)
	e.sendTarget(target, selection)
	e.lastSent = now

	e.console.PostUpdate("status", e.formatAutoStatus(target))
	rng := geo.Distance(e.follower.Lat, e.follower.Lon, e.leader.Lat, e.leader.Lon)
	e.console.PostUpdate("range", fmt.Sprintf("Range: %6.1f m  Δt: %5.1f s", rng, solution.TimeToGo))
	e.console.PostUpdate("target", e.formatTargetLabel(target, false))
	e.targetDisplayed = true
	e.recorder.RecordTarget(target, false, solution.TimeToGo, now)
}

func (e *Engine) handleCommand(cmd command.Command) {
	switch c := cmd.(type) {
	case command.Catch, command.Resume:
		e.manualTarget = nil
		e.clearTargetDisplay()
		e.filter.Reset()
		e.setGuidanceMode(ModeAuto)
	case command.Hold:
		e.setGuidanceMode(ModeHold)
	case command.StatusRequest:
		e.console.PostUpdate("log", e.report(e.now()))
	case command.Clear:
		e.manualTarget = nil
		e.console.PostUpdate("target", "Target: ---")
		e.console.PostUpdate("log", "Manual target cleared")
		e.setSystemStatus("Awaiting intercept solution")
		e.clearTargetDisplay()
		e.filter.Reset()
	case command.ModeFBWA:
		e.sink.SendModeChange(e.settings.FollowerSysID, e.settings.FollowerCompID, fbwaCustomMode)
		e.console.PostUpdate("log", "Requested follower mode change to FBWA")
		e.setSystemStatus("FBWA mode requested for follower")
	case command.Goto:
		e.handleManualTarget(c)
	case command.SetAltitudeMode:
		e.handleAltitudeMode(c.Relative, "command")
	case command.SetSpeedProfile:
		e.settings.SpeedProfile = ParseProfile(c.Profile)
		e.updateSpeedSelection(true)
	case command.SetCustomSpeed:
		e.settings.FollowerSpeed = c.Value
		e.console.PostUpdate("log", fmt.Sprintf("Custom follower speed set to %.1f m/s", c.Value))
		e.updateSpeedSelection(true)
	case command.SetFilterAlpha:
		e.handleFilterAlpha(c.Value)
	case command.SelectVehicle:
		e.handleVehicleSelection(c)
	case command.SetSetting:
		e.handleSetSetting(c)
	}
}

const fbwaCustomMode = 5

func (e *Engine) handleManualTarget(c command.Goto) {
	alt := 0.0
	if c.Alt != nil {
		alt = *c.Alt
	} else if e.leader.HasPosition {
		if e.settings.UseRelativeAlt {
			alt = e.leader.RelAlt
		} else {
			alt = e.leader.AMSLAlt
		}
	}
	target := Target{Lat: c.Lat, Lon: c.Lon, Alt: alt}
	e.manualTarget = &target
	e.setGuidanceMode(ModeAuto)
	e.filter.Reset()
	e.console.PostUpdate("target", e.formatTargetLabel(target, true))
	e.console.PostUpdate("log", "Manual intercept target set")
	e.setSystemStatus("Guiding to manual target")
	e.targetDisplayed = true
}

func (e *Engine) setGuidanceMode(mode Mode) {
	previous := e.mode
	e.mode = mode
	if mode != previous {
		e.filter.Reset()
	}
	e.console.PostUpdate("status", "Guidance: "+mode.String())
	e.console.PostUpdate("log", "Guidance state changed to "+mode.String())
	if mode == ModeHold {
		e.setSystemStatus("Guidance paused by operator")
		e.clearTargetDisplay()
		e.lastSpeedCmd = nil
	} else {
		e.setSystemStatus("Awaiting intercept solution")
		e.updateSpeedSelection(true)
	}
}

func (e *Engine) handleAltitudeMode(relative bool, source string) {
	if relative == e.settings.UseRelativeAlt {
		e.emitAltitudeMode()
		return
	}
	e.settings.UseRelativeAlt = relative
	if e.manualTarget != nil {
		// The stored altitude was expressed in the old frame.
		e.manualTarget = nil
		e.console.PostUpdate("target", "Target: ---")
		e.console.PostUpdate("log", "Manual target cleared due to altitude mode change")
		e.setSystemStatus("Awaiting intercept solution")
		e.clearTargetDisplay()
	}
	e.filter.Reset()
	mode := "ABSOLUTE"
	if relative {
		mode = "RELATIVE"
	}
	e.console.PostUpdate("log", fmt.Sprintf("Altitude mode set to %s (%s)", mode, source))
	e.emitAltitudeMode()
	e.lastLeaderLabel = ""
	e.lastFollowerLabel = ""
	e.refreshVehicleLabels(e.now())
}

func (e *Engine) handleFilterAlpha(alpha float64) {
	clamped := clampAlpha(alpha)
	if math.Abs(e.settings.TargetFilterAlpha-clamped) < 5.0e-4 {
		e.console.PostUpdate("target_filter_alpha", fmt.Sprintf("%.4f", clamped))
		return
	}
	e.settings.TargetFilterAlpha = clamped
	e.filter.Reset()
	e.console.PostUpdate("log", fmt.Sprintf(
		"Target filter alpha set to %.2f - higher values follow the leader more aggressively", clamped))
	e.console.PostUpdate("target_filter_alpha", fmt.Sprintf("%.4f", clamped))
}

func (e *Engine) handleVehicleSelection(c command.SelectVehicle) {
	if c.Leader {
		e.settings.LeaderSysID = c.SysID
		e.settings.LeaderCompID = c.CompID
	} else {
		e.settings.FollowerSysID = c.SysID
		e.settings.FollowerCompID = c.CompID
	}
	e.rebindVehicles()
	who := "Follower"
	if c.Leader {
		who = "Leader"
	}
	e.console.PostUpdate("log", fmt.Sprintf("%s set to %d:%d", who, c.SysID, c.CompID))
}

func (e *Engine) handleSetSetting(c command.SetSetting) {
	previousRelative := e.settings.UseRelativeAlt
	previousAlpha := e.settings.TargetFilterAlpha
	previousFollower := vehicle.Key{SysID: e.settings.FollowerSysID, CompID: e.settings.FollowerCompID}
	previousLeader := vehicle.Key{SysID: e.settings.LeaderSysID, CompID: e.settings.LeaderCompID}

	if err := e.settings.Set(c.Name, c.Value); err != nil {
		e.console.PostUpdate("log", fmt.Sprintf("Rejected setting: %v", err))
		return
	}
	e.console.PostUpdate("log", fmt.Sprintf("Setting %s = %s", c.Name, c.Value))
	e.updateSpeedSelection(true)

	newFollower := vehicle.Key{SysID: e.settings.FollowerSysID, CompID: e.settings.FollowerCompID}
	newLeader := vehicle.Key{SysID: e.settings.LeaderSysID, CompID: e.settings.LeaderCompID}
	if newFollower != previousFollower || newLeader != previousLeader {
		e.rebindVehicles()
	}
	if previousRelative != e.settings.UseRelativeAlt {
		// Set restores the old value first so the shared transition path
		// observes the change itself.
		changed := e.settings.UseRelativeAlt
		e.settings.UseRelativeAlt = previousRelative
		e.handleAltitudeMode(changed, "set")
	}
	if previousAlpha != e.settings.TargetFilterAlpha {
		e.filter.Reset()
		e.console.PostUpdate("log", fmt.Sprintf(
			"Target filter alpha set to %.2f - higher values follow the leader more aggressively",
			e.settings.TargetFilterAlpha))
		e.console.PostUpdate("target_filter_alpha", fmt.Sprintf("%.4f", e.settings.TargetFilterAlpha))
	}
}

func (e *Engine) rebindVehicles() {
	previousFollower := e.follower
	e.leader, _ = e.registry.Ensure(e.settings.LeaderSysID, e.settings.LeaderCompID)
	e.follower, _ = e.registry.Ensure(e.settings.FollowerSysID, e.settings.FollowerCompID)
	if e.follower != previousFollower {
		e.solver.ResetSpeedEMA()
	}
	e.emitVehicleOptions()
	e.console.PostUpdate("leader_selection", e.leader.Identifier())
	e.console.PostUpdate("follower_selection", e.follower.Identifier())
	e.lastLeaderLabel = ""
	e.lastFollowerLabel = ""
	e.refreshVehicleLabels(e.now())
}

// updateSpeedSelection re-resolves the operating point, edge-triggers warning
// and change logs, and invalidates the speed-command cache when the selection
// moved.
func (e *Engine) updateSpeedSelection(logChange bool) Selection {
	selection := ResolveSpeed(e.settings.SpeedProfile, e.settings.FollowerSpeed,
		e.settings.FollowerSysID, e.settings.FollowerCompID, e.params)
	previous := e.lastSelection
	changed := SelectionChanged(previous, selection)
	e.lastSelection = &selection

	if logChange && changed {
		message := "Speed profile set to " + selection.Describe()
		if selection.Warning != "" {
			message += ". " + selection.Warning
		}
		e.console.PostUpdate("log", message)
	}
	if selection.Warning != "" {
		if previous == nil || previous.Warning != selection.Warning {
			e.console.PostUpdate("log", "Speed profile warning: "+selection.Warning)
		}
	} else if previous != nil && previous.Warning != "" {
		e.console.PostUpdate("log", "Speed profile warning cleared")
	}
	if changed {
		e.lastSpeedCmd = nil
	}

	status := "Speed profile: " + selection.Describe()
	if selection.Warning != "" {
		status += " — " + selection.Warning
	}
	e.console.PostUpdate("speed_status", status)
	e.console.PostUpdate("speed_profile", string(selection.Profile))
	e.console.PostUpdate("custom_speed", fmt.Sprintf("%.1f", math.Max(e.settings.FollowerSpeed, 0)))
	return selection
}

// maybeSendSpeedCommand emits a speed-change command once per distinct
// selection. Repeats within 0.25 m/s of the last commanded value are
// suppressed so the link is not saturated every tick.
func (e *Engine) maybeSendSpeedCommand(selection Selection) {
	if e.mode != ModeAuto || selection.Value <= 0 {
		return
	}
	if e.lastSpeedCmd != nil &&
		math.Abs(e.lastSpeedCmd.Value-selection.Value) < 0.25 &&
		e.lastSpeedCmd.Profile == selection.Profile &&
		e.lastSpeedCmd.Source == selection.Source {
		return
	}
	e.sink.SendSpeedChange(e.settings.FollowerSysID, e.settings.FollowerCompID, selection.Value)
	metrics.SpeedCommandsTotal.Inc()
	message := "Requested " + selection.Describe()
	if selection.Warning != "" {
		message += " — " + selection.Warning
	}
	e.console.PostUpdate("log", message)
	e.lastSpeedCmd = &selection
}

// sendTarget emits the position target, deriving the velocity override vector
// toward the (already filtered) target when the max profile is active.
func (e *Engine) sendTarget(target Target, selection Selection) {
	cmd := PositionTarget{
		SysID:       e.settings.FollowerSysID,
		CompID:      e.settings.FollowerCompID,
		RelativeAlt: e.settings.UseRelativeAlt,
		Lat:         target.Lat,
		Lon:         target.Lon,
		Alt:         target.Alt,
	}

	if selection.ForcedVelocity && selection.Value > 0 && e.follower.HasPosition {
		followerAlt := e.follower.AMSLAlt
		if e.settings.UseRelativeAlt {
			followerAlt = e.follower.RelAlt
		}
		bearing := geo.Bearing(e.follower.Lat, e.follower.Lon, target.Lat, target.Lon)
		horizontal := geo.Distance(e.follower.Lat, e.follower.Lon, target.Lat, target.Lon)
		altError := target.Alt - followerAlt
		distance3D := math.Hypot(horizontal, altError)
		if distance3D > 1e-3 {
			horizontalRatio := horizontal / distance3D
			cmd.VX = selection.Value * horizontalRatio * math.Cos(bearing*math.Pi/180.0)
			cmd.VY = selection.Value * horizontalRatio * math.Sin(bearing*math.Pi/180.0)
			cmd.VZ = selection.Value * (-altError / distance3D)
			cmd.HasVelocity = true
		}
	}

	if selection.ForcedVelocity && !cmd.HasVelocity {
		if !e.velocityOverrideWarned {
			e.console.PostUpdate("log", "Velocity override skipped — follower telemetry incomplete")
			e.velocityOverrideWarned = true
		}
	} else {
		if e.velocityOverrideWarned && cmd.HasVelocity {
			e.console.PostUpdate("log", "Velocity override restored")
		}
		e.velocityOverrideWarned = false
	}

	e.sink.SendPositionTarget(cmd)
	metrics.TargetsEmittedTotal.Inc()

	logLine := fmt.Sprintf("Sent intercept target %.6f %.6f %s | speed %s",
		target.Lat, target.Lon, e.formatAltitudeText(target.Alt), selection.Describe())
	if cmd.HasVelocity {
		logLine += " (velocity override active)"
	}
	e.console.PostUpdate("log", logLine)
}

func (e *Engine) updateWarnings(now time.Time) {
	var warnings []string
	if !e.leader.IsHeartbeatFresh(now, e.settings.HeartbeatTimeout) {
		warnings = append(warnings, "Leader heartbeat lost")
	}
	if !e.leader.IsPositionFresh(now, e.settings.PositionTimeout) {
		warnings = append(warnings, "Leader position stale")
	}
	if !e.follower.IsPositionFresh(now, e.settings.PositionTimeout) {
		warnings = append(warnings, "Follower position stale")
	}
	if !e.follower.IsHeartbeatFresh(now, e.settings.HeartbeatTimeout) {
		warnings = append(warnings, "Follower heartbeat lost")
	}
	if !e.follower.Armed {
		warnings = append(warnings, "Follower disarmed")
	}
	if !allowedFollowerModes[strings.ToUpper(e.follower.Mode)] {
		mode := e.follower.Mode
		if mode == "" {
			mode = "UNKNOWN"
		}
		warnings = append(warnings, "Follower mode "+mode)
	}

	text := "Warnings: none"
	if len(warnings) > 0 {
		text = strings.Join(warnings, "; ")
	}
	if text == e.lastWarning {
		return
	}
	e.console.PostUpdate("warning", text)
	if len(warnings) > 0 {
		e.console.PostUpdate("log", "Warnings updated: "+text)
	} else {
		e.console.PostUpdate("log", "Warnings cleared")
	}
	e.lastWarning = text
}

func (e *Engine) refreshVehicleLabels(now time.Time) {
	leaderLabel := e.formatVehicle(e.leader, now)
	if leaderLabel != e.lastLeaderLabel {
		e.console.PostUpdate("leader", leaderLabel)
		e.lastLeaderLabel = leaderLabel
	}
	followerLabel := e.formatVehicle(e.follower, now)
	if followerLabel != e.lastFollowerLabel {
		e.console.PostUpdate("follower", followerLabel)
		e.lastFollowerLabel = followerLabel
	}
	e.lastLabelRefresh = now
}

func (e *Engine) emitVehicleOptions() {
	states := e.registry.All()
	if len(states) == 0 {
		return
	}
	ids := make([]string, len(states))
	for i, s := range states {
		ids[i] = s.Identifier()
	}
	e.console.PostUpdate("vehicles", strings.Join(ids, ","))
}

func (e *Engine) emitAltitudeMode() {
	mode := "absolute"
	if e.settings.UseRelativeAlt {
		mode = "relative"
	}
	e.console.PostUpdate("alt_mode", mode)
}

func (e *Engine) clearTargetDisplay() {
	if !e.targetDisplayed {
		return
	}
	e.console.PostUpdate("target", "Target: ---")
	e.targetDisplayed = false
}

func (e *Engine) setSystemStatus(text string) {
	if text == e.currentStatus {
		return
	}
	e.currentStatus = text
	e.console.PostUpdate("system", "System status: "+text)
}

func (e *Engine) altitudeFrameSuffix() string {
	if e.settings.UseRelativeAlt {
		return "AGL"
	}
	return "AMSL"
}

func (e *Engine) formatAltitudeText(alt float64) string {
	return fmt.Sprintf("alt %.1fm %s", alt, e.altitudeFrameSuffix())
}

func (e *Engine) formatTargetLabel(target Target, manual bool) string {
	kind := "predicted"
	if manual {
		kind = "manual"
	}
	return fmt.Sprintf("Target: %s %.6f %.6f %s", kind, target.Lat, target.Lon, e.formatAltitudeText(target.Alt))
}

func (e *Engine) formatAutoStatus(target Target) string {
	return fmt.Sprintf("Guidance: AUTO → %.6f %.6f %s", target.Lat, target.Lon, e.formatAltitudeText(target.Alt))
}

func (e *Engine) formatVehicle(s *vehicle.State, now time.Time) string {
	latlon := "---"
	if s.HasPosition {
		latlon = fmt.Sprintf("%.6f %.6f", s.Lat, s.Lon)
	}
	suffix := e.altitudeFrameSuffix()
	alt := "--- " + suffix
	if s.HasPosition {
		value := s.AMSLAlt
		if e.settings.UseRelativeAlt {
			value = s.RelAlt
		}
		alt = fmt.Sprintf("%.1fm %s", value, suffix)
	}
	speedStr := "---"
	if speed, ok := s.Speed(); ok {
		speedStr = fmt.Sprintf("%.1fm/s", speed)
	}
	mode := s.Mode
	if mode == "" {
		mode = "UNKNOWN"
	}
	armed := "DISARMED"
	if s.Armed {
		armed = "ARMED"
	}
	posAge := "---"
	if !s.LastUpdate.IsZero() {
		posAge = fmt.Sprintf("%.1fs", math.Max(0, now.Sub(s.LastUpdate).Seconds()))
	}
	hbAge := "---"
	if !s.LastHeartbeat.IsZero() {
		hbAge = fmt.Sprintf("%.1fs", math.Max(0, now.Sub(s.LastHeartbeat).Seconds()))
	}
	return fmt.Sprintf("Sys %s | %s | alt %s | spd %s | %s | %s | pos %s / hb %s",
		s.Identifier(), latlon, alt, speedStr, mode, armed, posAge, hbAge)
}
