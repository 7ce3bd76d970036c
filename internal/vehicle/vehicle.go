// Package vehicle tracks per-vehicle kinematic state built from raw
// fixed-point telemetry, plus the per-vehicle parameter table used for
// speed-profile lookups.
package vehicle

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// HeadingInvalid is the wire sentinel for "heading unknown" (centidegrees).
const HeadingInvalid = 65535

// Key identifies a vehicle by its system and component ids.
type Key struct {
	SysID  int
	CompID int
}

func (k Key) String() string {
	return fmt.Sprintf("%d:%d", k.SysID, k.CompID)
}

// State holds the latest kinematic and status telemetry for one vehicle.
// Position, altitude, and velocity fields are set atomically from a single
// position update; HasPosition gates all of them.
type State struct {
	SysID  int
	CompID int

	HasPosition bool
	Lat         float64 // degrees
	Lon         float64 // degrees
	RelAlt      float64 // metres above home
	AMSLAlt     float64 // metres AMSL
	VX          float64 // m/s north
	VY          float64 // m/s east
	VZ          float64 // m/s down

	HasHeading bool
	Heading    float64 // degrees [0, 360)

	Mode  string
	Armed bool

	LastUpdate    time.Time
	LastHeartbeat time.Time
}

// Identifier returns the "sysid:compid" form used for display and selection.
func (s *State) Identifier() string {
	return Key{SysID: s.SysID, CompID: s.CompID}.String()
}

// UpdatePosition converts one fixed-point position message into SI units:
// lat/lon 1e-7 degrees, altitudes in millimetres, velocities in cm/s, heading
// in centidegrees with 65535 meaning unknown.
func (s *State) UpdatePosition(latE7, lonE7, relAltMM, amslAltMM, vxCMS, vyCMS, vzCMS int64, hdgCdeg uint32, now time.Time) {
	s.Lat = float64(latE7) * 1.0e-7
	s.Lon = float64(lonE7) * 1.0e-7
	s.RelAlt = float64(relAltMM) * 0.001
	s.AMSLAlt = float64(amslAltMM) * 0.001
	s.VX = float64(vxCMS) * 0.01
	s.VY = float64(vyCMS) * 0.01
	s.VZ = float64(vzCMS) * 0.01
	s.HasPosition = true
	if hdgCdeg != HeadingInvalid {
		s.Heading = math.Mod(float64(hdgCdeg)*0.01, 360.0)
		s.HasHeading = true
	}
	s.LastUpdate = now
}

// UpdateHeartbeat stores the flight-mode label and armed flag.
func (s *State) UpdateHeartbeat(mode string, armed bool, now time.Time) {
	s.Mode = mode
	s.Armed = armed
	s.LastHeartbeat = now
}

// IsPositionFresh reports whether a position has been received within timeout.
// The boundary is inclusive: data exactly timeout old is still fresh.
func (s *State) IsPositionFresh(now time.Time, timeout time.Duration) bool {
	return s.HasPosition && now.Sub(s.LastUpdate) <= timeout
}

// IsHeartbeatFresh reports whether a heartbeat has been received within timeout.
func (s *State) IsHeartbeatFresh(now time.Time, timeout time.Duration) bool {
	return !s.LastHeartbeat.IsZero() && now.Sub(s.LastHeartbeat) <= timeout
}

// Speed returns the horizontal groundspeed in m/s. Vertical velocity is
// deliberately excluded.
func (s *State) Speed() (float64, bool) {
	if !s.HasPosition {
		return 0, false
	}
	return math.Hypot(s.VX, s.VY), true
}

// Registry owns every vehicle observed during the session, keyed by identity.
// States are created on first observation and never removed.
type Registry struct {
	states map[Key]*State
}

func NewRegistry() *Registry {
	return &Registry{states: make(map[Key]*State)}
}

// Ensure returns the state for the given identity, creating it if needed.
// The second result reports whether the state already existed.
func (r *Registry) Ensure(sysID, compID int) (*State, bool) {
	key := Key{SysID: sysID, CompID: compID}
	state, ok := r.states[key]
	if !ok {
		state = &State{SysID: sysID, CompID: compID}
		r.states[key] = state
	}
	return state, ok
}

// Get returns the state for the given identity, or nil.
func (r *Registry) Get(sysID, compID int) *State {
	return r.states[Key{SysID: sysID, CompID: compID}]
}

// All returns every known state ordered by (sysid, compid).
func (r *Registry) All() []*State {
	out := make([]*State, 0, len(r.states))
	for _, s := range r.states {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SysID != out[j].SysID {
			return out[i].SysID < out[j].SysID
		}
		return out[i].CompID < out[j].CompID
	})
	return out
}
