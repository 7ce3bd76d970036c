package guidance

import (
	"fmt"
	"strings"
	"time"

	"github.com/openuas/catchleader/internal/vehicle"
)

// VehicleStatus is the externally visible view of one tracked vehicle.
type VehicleStatus struct {
	SysID        int       `json:"sysid"`
	CompID       int       `json:"compid"`
	HasPosition  bool      `json:"has_position"`
	Lat          float64   `json:"lat"`
	Lon          float64   `json:"lon"`
	RelAlt       float64   `json:"rel_alt"`
	AMSLAlt      float64   `json:"amsl_alt"`
	Speed        float64   `json:"speed"`
	Heading      float64   `json:"heading"`
	HasHeading   bool      `json:"has_heading"`
	Mode         string    `json:"mode"`
	Armed        bool      `json:"armed"`
	LastPosition time.Time `json:"last_position"`
	LastHeart    time.Time `json:"last_heartbeat"`
}

// StatusSnapshot is a point-in-time copy of the engine state, safe to read
// outside the actor loop.
type StatusSnapshot struct {
	Mode              string          `json:"mode"`
	Status            string          `json:"status"`
	ManualTarget      *Target         `json:"manual_target,omitempty"`
	Leader            VehicleStatus   `json:"leader"`
	Follower          VehicleStatus   `json:"follower"`
	Vehicles          []VehicleStatus `json:"vehicles"`
	SpeedProfile      string          `json:"speed_profile"`
	SpeedValue        float64         `json:"speed_value"`
	SpeedSource       string          `json:"speed_source"`
	SpeedWarning      string          `json:"speed_warning,omitempty"`
	UseRelativeAlt    bool            `json:"use_relative_alt"`
	TargetFilterAlpha float64         `json:"target_filter_alpha"`
	UpdatePeriod      string          `json:"update_period"`
	Warnings          string          `json:"warnings"`
}

func vehicleStatus(s *vehicle.State) VehicleStatus {
	speed, _ := s.Speed()
	return VehicleStatus{
		SysID:        s.SysID,
		CompID:       s.CompID,
		HasPosition:  s.HasPosition,
		Lat:          s.Lat,
		Lon:          s.Lon,
		RelAlt:       s.RelAlt,
		AMSLAlt:      s.AMSLAlt,
		Speed:        speed,
		Heading:      s.Heading,
		HasHeading:   s.HasHeading,
		Mode:         s.Mode,
		Armed:        s.Armed,
		LastPosition: s.LastUpdate,
		LastHeart:    s.LastHeartbeat,
	}
}

func (e *Engine) statusSnapshot() StatusSnapshot {
	snap := StatusSnapshot{
		Mode:              e.mode.String(),
		Status:            e.currentStatus,
		Leader:            vehicleStatus(e.leader),
		Follower:          vehicleStatus(e.follower),
		UseRelativeAlt:    e.settings.UseRelativeAlt,
		TargetFilterAlpha: clampAlpha(e.settings.TargetFilterAlpha),
		UpdatePeriod:      e.settings.UpdatePeriod.String(),
		Warnings:          e.lastWarning,
	}
	if e.manualTarget != nil {
		t := *e.manualTarget
		snap.ManualTarget = &t
	}
	if e.lastSelection != nil {
		snap.SpeedProfile = string(e.lastSelection.Profile)
		snap.SpeedValue = e.lastSelection.Value
		snap.SpeedSource = e.lastSelection.Source
		snap.SpeedWarning = e.lastSelection.Warning
	} else {
		snap.SpeedProfile = string(e.settings.SpeedProfile)
		snap.SpeedValue = e.settings.FollowerSpeed
		snap.SpeedSource = SourceConfigured
	}
	for _, s := range e.registry.All() {
		snap.Vehicles = append(snap.Vehicles, vehicleStatus(s))
	}
	return snap
}

// report renders the multi-line operator status text.
func (e *Engine) report(now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Guidance: %s\n", e.mode)
	fmt.Fprintf(&b, "System status: %s\n", e.currentStatus)
	fmt.Fprintf(&b, "Leader:   %s\n", e.formatVehicle(e.leader, now))
	fmt.Fprintf(&b, "Follower: %s\n", e.formatVehicle(e.follower, now))
	if e.lastSelection != nil {
		fmt.Fprintf(&b, "Speed: %s\n", e.lastSelection.Describe())
		if e.lastSelection.Warning != "" {
			fmt.Fprintf(&b, "Speed warning: %s\n", e.lastSelection.Warning)
		}
	}
	if e.manualTarget != nil {
		fmt.Fprintf(&b, "%s\n", e.formatTargetLabel(*e.manualTarget, true))
	}
	fmt.Fprintf(&b, "Altitude frame: %s | filter alpha %.2f | update period %s\n",
		e.altitudeFrameSuffix(), clampAlpha(e.settings.TargetFilterAlpha), e.settings.UpdatePeriod)
	if e.lastWarning != "" {
		fmt.Fprintf(&b, "%s", e.lastWarning)
	} else {
		fmt.Fprintf(&b, "Warnings: none")
	}
	return b.String()
}
