// Package transport carries telemetry in and guidance commands out over
// AMQP. Telemetry arrives as JSON envelopes on a topic exchange; commands are
// published fire-and-forget with a per-vehicle routing key.
package transport

import (
	"encoding/json"
	"fmt"
	"math"
)

// Telemetry envelope types.
const (
	TypePosition  = "position"
	TypeHeartbeat = "heartbeat"
	TypeParam     = "param"
)

// Envelope is one inbound telemetry message. Type selects which of the
// remaining fields are meaningful; raw units match the autopilot wire format
// (lat/lon 1e-7 deg, altitudes mm, velocities cm/s, heading centideg).
type Envelope struct {
	Type   string `json:"type"`
	SysID  int    `json:"sysid"`
	CompID int    `json:"compid"`

	Lat    int64  `json:"lat,omitempty"`
	Lon    int64  `json:"lon,omitempty"`
	RelAlt int64  `json:"rel_alt,omitempty"`
	Alt    int64  `json:"alt,omitempty"`
	Vx     int64  `json:"vx,omitempty"`
	Vy     int64  `json:"vy,omitempty"`
	Vz     int64  `json:"vz,omitempty"`
	Hdg    uint32 `json:"hdg,omitempty"`

	Mode  string `json:"mode,omitempty"`
	Armed bool   `json:"armed,omitempty"`

	Name  string  `json:"name,omitempty"`
	Value float64 `json:"value,omitempty"`
}

// DecodeEnvelope parses and validates one telemetry payload.
func DecodeEnvelope(body []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode telemetry: %w", err)
	}
	switch env.Type {
	case TypePosition, TypeHeartbeat:
	case TypeParam:
		if env.Name == "" {
			return Envelope{}, fmt.Errorf("param message without a name")
		}
	default:
		return Envelope{}, fmt.Errorf("unknown telemetry type %q", env.Type)
	}
	if env.SysID <= 0 {
		return Envelope{}, fmt.Errorf("telemetry without a system id")
	}
	return env, nil
}

// Coordinate frames for outbound position targets.
const (
	FrameGlobalInt            = 5
	FrameGlobalRelativeAltInt = 6
)

// Type-mask bits: a set bit tells the autopilot to ignore that field.
const (
	IgnoreVX      = 8
	IgnoreVY      = 16
	IgnoreVZ      = 32
	IgnoreAX      = 64
	IgnoreAY      = 128
	IgnoreAZ      = 256
	IgnoreYaw     = 1024
	IgnoreYawRate = 2048
)

// Masks for the two shapes this service emits.
const (
	MaskPositionOnly     = IgnoreVX | IgnoreVY | IgnoreVZ | IgnoreAX | IgnoreAY | IgnoreAZ | IgnoreYaw | IgnoreYawRate
	MaskPositionVelocity = IgnoreAX | IgnoreAY | IgnoreAZ | IgnoreYaw | IgnoreYawRate
)

// PositionTargetMessage is the outbound global-position setpoint.
type PositionTargetMessage struct {
	Command    string  `json:"command"`
	SysID      int     `json:"sysid"`
	CompID     int     `json:"compid"`
	TimeBootMS uint32  `json:"time_boot_ms"`
	Frame      int     `json:"frame"`
	TypeMask   int     `json:"type_mask"`
	LatE7      int32   `json:"lat"`
	LonE7      int32   `json:"lon"`
	Alt        float64 `json:"alt"`
	Vx         float64 `json:"vx"`
	Vy         float64 `json:"vy"`
	Vz         float64 `json:"vz"`
}

// SpeedChangeMessage requests a new groundspeed from the follower.
type SpeedChangeMessage struct {
	Command string  `json:"command"`
	SysID   int     `json:"sysid"`
	CompID  int     `json:"compid"`
	Speed   float64 `json:"speed"`
}

// SetModeMessage requests an autopilot custom flight mode.
type SetModeMessage struct {
	Command    string `json:"command"`
	SysID      int    `json:"sysid"`
	CompID     int    `json:"compid"`
	CustomMode uint32 `json:"custom_mode"`
}

// DegreesE7 converts decimal degrees to the fixed-point 1e-7 wire form.
func DegreesE7(deg float64) int32 {
	return int32(math.Round(deg * 1.0e7))
}
