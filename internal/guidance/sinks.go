package guidance

import (
	"time"

	"github.com/openuas/catchleader/internal/vehicle"
)

// PositionTarget is one outbound guidance command: where the follower should
// fly, and optionally a velocity vector when the max-profile override is
// active.
type PositionTarget struct {
	SysID       int
	CompID      int
	RelativeAlt bool
	Lat         float64
	Lon         float64
	Alt         float64
	HasVelocity bool
	VX          float64 // m/s north
	VY          float64 // m/s east
	VZ          float64 // m/s down
}

// CommandSink delivers commands to the follower. Implementations are
// fire-and-forget and must never block the guidance tick.
type CommandSink interface {
	SendPositionTarget(t PositionTarget)
	SendSpeedChange(sysID, compID int, speed float64)
	SendModeChange(sysID, compID int, customMode uint32)
}

// NopSink discards every command.
type NopSink struct{}

func (NopSink) SendPositionTarget(PositionTarget) {}
func (NopSink) SendSpeedChange(int, int, float64) {}
func (NopSink) SendModeChange(int, int, uint32)   {}

// Console is the operator display channel. PostUpdate is best-effort; a dead
// console degrades to a no-op without affecting guidance.
type Console interface {
	PostUpdate(name, payload string)
	Close()
}

// NullConsole is the fallback when no operator console is attached.
type NullConsole struct{}

func (NullConsole) PostUpdate(string, string) {}
func (NullConsole) Close()                    {}

// Recorder persists track and target history. Implementations must not block.
type Recorder interface {
	RecordVehicle(s vehicle.State, now time.Time)
	RecordTarget(t Target, manual bool, eta float64, now time.Time)
}

// NopRecorder discards history.
type NopRecorder struct{}

func (NopRecorder) RecordVehicle(vehicle.State, time.Time)        {}
func (NopRecorder) RecordTarget(Target, bool, float64, time.Time) {}
