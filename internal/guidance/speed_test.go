package guidance

import (
	"math"
	"strings"
	"testing"
)

type fakeParams map[string]float64

func (f fakeParams) Lookup(sysID, compID int, name string) (float64, bool) {
	v, ok := f[name]
	return v, ok
}

func TestParseProfile(t *testing.T) {
	testCases := []struct {
		in   string
		want Profile
	}{
		{"cruise", ProfileCruise},
		{"MAX", ProfileMax},
		{" Custom ", ProfileCustom},
		{"turbo", ProfileCustom},
		{"", ProfileCustom},
	}
	for _, tc := range testCases {
		if got := ParseProfile(tc.in); got != tc.want {
			t.Errorf("ParseProfile(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestResolveSpeedCustomVerbatim(t *testing.T) {
	sel := ResolveSpeed(ProfileCustom, 17.5, 2, 1, fakeParams{"AIRSPEED_CRUISE": 99})
	if sel.Value != 17.5 {
		t.Errorf("Value = %v, want 17.5", sel.Value)
	}
	if sel.Source != SourceConfigured {
		t.Errorf("Source = %q, want %q", sel.Source, SourceConfigured)
	}
	if sel.Fallback || sel.ForcedVelocity || sel.Warning != "" {
		t.Errorf("custom profile produced fallback/forced/warning: %+v", sel)
	}
}

func TestResolveSpeedFirstPositiveCandidateWins(t *testing.T) {
	params := fakeParams{
		"AIRSPEED_CRUISE": 0.0,  // unusable, skip
		"AIRSPEED_TRIM":   14.0, // first usable
		"TRIM_ARSPD_CM":   1800, // also usable, must not win
	}
	sel := ResolveSpeed(ProfileCruise, 20.0, 2, 1, params)
	if sel.Value != 14.0 || sel.Source != "AIRSPEED_TRIM" {
		t.Errorf("got %.1f via %s, want 14.0 via AIRSPEED_TRIM", sel.Value, sel.Source)
	}
	if sel.Fallback {
		t.Error("fallback set despite usable candidate")
	}
}

func TestResolveSpeedCentiUnitScaling(t *testing.T) {
	sel := ResolveSpeed(ProfileCruise, 20.0, 2, 1, fakeParams{"TRIM_ARSPD_CM": 1850})
	if math.Abs(sel.Value-18.5) > 1e-9 {
		t.Errorf("Value = %v, want 18.5 (centi-units scaled)", sel.Value)
	}
	if sel.Source != "TRIM_ARSPD_CM" {
		t.Errorf("Source = %q", sel.Source)
	}
}

func TestResolveSpeedFallbackNamesAllCandidates(t *testing.T) {
	sel := ResolveSpeed(ProfileCruise, 20.0, 2, 1, fakeParams{})
	if !sel.Fallback {
		t.Fatal("fallback not set with all candidates absent")
	}
	if sel.Value != 20.0 || sel.Source != SourceConfigured {
		t.Errorf("fallback did not use configured speed: %+v", sel)
	}
	for _, name := range []string{"AIRSPEED_CRUISE", "AIRSPEED_TRIM", "TRIM_ARSPD_CM"} {
		if !strings.Contains(sel.Warning, name) {
			t.Errorf("warning missing candidate %s: %q", name, sel.Warning)
		}
	}
}

func TestResolveSpeedRejectsNonFinite(t *testing.T) {
	params := fakeParams{
		"AIRSPEED_MAX":  math.Inf(1),
		"ARSPD_FBW_MAX": 2200,
	}
	sel := ResolveSpeed(ProfileMax, 20.0, 2, 1, params)
	if sel.Source != "ARSPD_FBW_MAX" || math.Abs(sel.Value-22.0) > 1e-9 {
		t.Errorf("non-finite candidate not skipped: %+v", sel)
	}
	if !sel.ForcedVelocity {
		t.Error("max profile must set ForcedVelocity")
	}
}

func TestResolveSpeedNonPositiveAppendsFloorWarning(t *testing.T) {
	sel := ResolveSpeed(ProfileCruise, 0.0, 2, 1, fakeParams{})
	if !sel.Fallback {
		t.Fatal("expected fallback")
	}
	if sel.Value != 0.0 {
		t.Errorf("Value = %v; flooring is the consumer's job", sel.Value)
	}
	if !strings.Contains(sel.Warning, "Checked") || !strings.Contains(sel.Warning, "0.1 m/s") {
		t.Errorf("floor warning must be appended, not replace: %q", sel.Warning)
	}
}

func TestSelectionChanged(t *testing.T) {
	base := Selection{Profile: ProfileCruise, Value: 15.0, Source: "AIRSPEED_CRUISE"}
	testCases := []struct {
		name string
		prev *Selection
		cur  Selection
		want bool
	}{
		{"NilPrevious", nil, base, true},
		{"Identical", &base, base, false},
		{"ValueWithinNoise", &base, Selection{Profile: ProfileCruise, Value: 15.05, Source: "AIRSPEED_CRUISE"}, false},
		{"ValueBeyondNoise", &base, Selection{Profile: ProfileCruise, Value: 15.2, Source: "AIRSPEED_CRUISE"}, true},
		{"ProfileChange", &base, Selection{Profile: ProfileMax, Value: 15.0, Source: "AIRSPEED_CRUISE"}, true},
		{"SourceChange", &base, Selection{Profile: ProfileCruise, Value: 15.0, Source: "AIRSPEED_TRIM"}, true},
		{"FallbackChange", &base, Selection{Profile: ProfileCruise, Value: 15.0, Source: "AIRSPEED_CRUISE", Fallback: true}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SelectionChanged(tc.prev, tc.cur); got != tc.want {
				t.Errorf("SelectionChanged = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	sel := Selection{Profile: ProfileMax, Value: 22.0, Source: "AIRSPEED_MAX", ForcedVelocity: true}
	desc := sel.Describe()
	for _, token := range []string{"max", "22.0", "AIRSPEED_MAX", "velocity override"} {
		if !strings.Contains(desc, token) {
			t.Errorf("Describe() missing %q: %q", token, desc)
		}
	}
}
