package guidance

import (
	"fmt"
	"math"
	"strings"
)

// Profile names the policy used to choose the follower's commanded speed.
type Profile string

const (
	ProfileCruise Profile = "cruise"
	ProfileMax    Profile = "max"
	ProfileCustom Profile = "custom"
)

// ParseProfile normalizes a profile label; anything unrecognized is custom.
func ParseProfile(s string) Profile {
	switch Profile(strings.ToLower(strings.TrimSpace(s))) {
	case ProfileCruise:
		return ProfileCruise
	case ProfileMax:
		return ProfileMax
	default:
		return ProfileCustom
	}
}

// SourceConfigured marks a selection resolved from the configured
// follower_speed setting rather than an autopilot parameter.
const SourceConfigured = "follower_speed"

// Selection is one resolved speed operating point.
type Selection struct {
	Profile        Profile
	Value          float64
	Source         string
	ForcedVelocity bool
	Fallback       bool
	Warning        string
}

// ParamStore is the external per-vehicle parameter lookup used to resolve
// cruise/max profiles.
type ParamStore interface {
	Lookup(sysID, compID int, name string) (float64, bool)
}

type paramCandidate struct {
	name  string
	scale float64
}

// Candidate parameters per profile, tried in order. Centi-unit parameters
// carry the 0.01 scale.
var profileCandidates = map[Profile][]paramCandidate{
	ProfileCruise: {
		{"AIRSPEED_CRUISE", 1.0},
		{"AIRSPEED_TRIM", 1.0},
		{"TRIM_ARSPD_CM", 0.01},
	},
	ProfileMax: {
		{"AIRSPEED_MAX", 1.0},
		{"ARSPD_FBW_MAX", 0.01},
	},
}

// ResolveSpeed resolves the operative follower speed for a profile. The first
// candidate parameter that is finite and strictly positive after scaling wins;
// otherwise the configured speed is used with fallback set and a warning
// naming every candidate checked. The returned value is never floored here —
// consumers apply their own 0.1 m/s floor.
func ResolveSpeed(profile Profile, configuredSpeed float64, sysID, compID int, params ParamStore) Selection {
	sel := Selection{
		Profile:        profile,
		Value:          math.Max(configuredSpeed, 0.0),
		Source:         SourceConfigured,
		ForcedVelocity: profile == ProfileMax,
	}

	candidates := profileCandidates[profile]
	if len(candidates) > 0 {
		found := false
		for _, c := range candidates {
			raw, ok := params.Lookup(sysID, compID, c.name)
			if !ok {
				continue
			}
			scaled := raw * c.scale
			if !isUsableSpeed(scaled) {
				continue
			}
			sel.Value = scaled
			sel.Source = c.name
			found = true
			break
		}
		if !found {
			sel.Fallback = true
			names := make([]string, len(candidates))
			for i, c := range candidates {
				names[i] = c.name
			}
			sel.Warning = fmt.Sprintf(
				"%s profile parameters unavailable; using follower_speed (%.1f m/s) instead. Checked %s.",
				profile, sel.Value, strings.Join(names, ", "))
		}
	}

	if sel.Value <= 0.0 {
		zeroWarning := "Follower speed is non-positive; intercept guidance will use a minimum of 0.1 m/s until updated."
		if sel.Warning != "" {
			sel.Warning = sel.Warning + " " + zeroWarning
		} else {
			sel.Warning = zeroWarning
		}
	}
	return sel
}

func isUsableSpeed(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0.0
}

// SelectionChanged reports whether the resolved operating point moved enough
// to warrant logging and a fresh speed command. Value changes within 0.1 m/s
// are treated as noise.
func SelectionChanged(prev *Selection, cur Selection) bool {
	if prev == nil {
		return true
	}
	if prev.Profile != cur.Profile {
		return true
	}
	if prev.Source != cur.Source {
		return true
	}
	if prev.ForcedVelocity != cur.ForcedVelocity {
		return true
	}
	if prev.Fallback != cur.Fallback {
		return true
	}
	return math.Abs(prev.Value-cur.Value) > 0.1
}

// Describe renders the selection for status lines and logs.
func (s Selection) Describe() string {
	desc := fmt.Sprintf("%s %.1f m/s", s.Profile, s.Value)
	if s.Source == SourceConfigured {
		desc += " (follower_speed)"
	} else {
		desc += fmt.Sprintf(" via %s", s.Source)
	}
	if s.Fallback {
		desc += " [fallback]"
	}
	if s.ForcedVelocity {
		desc += " [velocity override]"
	}
	return desc
}
