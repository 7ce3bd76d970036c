package vehicle

import (
	"math"
	"testing"
	"time"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestUpdatePositionUnitConversion(t *testing.T) {
	s := &State{SysID: 1, CompID: 1}
	s.UpdatePosition(123456789, -456789012, 50000, 120500, 1234, -567, 89, 9000, t0)

	testCases := []struct {
		name string
		got  float64
		want float64
	}{
		{"Lat", s.Lat, 12.3456789},
		{"Lon", s.Lon, -45.6789012},
		{"RelAlt", s.RelAlt, 50.0},
		{"AMSLAlt", s.AMSLAlt, 120.5},
		{"VX", s.VX, 12.34},
		{"VY", s.VY, -5.67},
		{"VZ", s.VZ, 0.89},
		{"Heading", s.Heading, 90.0},
	}
	for _, tc := range testCases {
		if math.Abs(tc.got-tc.want) > 1e-9 {
			t.Errorf("%s = %v, want %v", tc.name, tc.got, tc.want)
		}
	}
	if !s.HasPosition {
		t.Error("HasPosition not set")
	}
	if !s.LastUpdate.Equal(t0) {
		t.Errorf("LastUpdate = %v, want %v", s.LastUpdate, t0)
	}
}

func TestUpdatePositionInvalidHeading(t *testing.T) {
	s := &State{}
	s.UpdatePosition(0, 0, 0, 0, 0, 0, 0, 18000, t0)
	if !s.HasHeading || s.Heading != 180.0 {
		t.Fatalf("expected heading 180, got %v (has=%v)", s.Heading, s.HasHeading)
	}
	// Sentinel must leave the previous heading untouched.
	s.UpdatePosition(0, 0, 0, 0, 0, 0, 0, HeadingInvalid, t0.Add(time.Second))
	if !s.HasHeading || s.Heading != 180.0 {
		t.Errorf("invalid heading overwrote previous value: %v", s.Heading)
	}
}

func TestUpdatePositionHeadingWraps(t *testing.T) {
	s := &State{}
	s.UpdatePosition(0, 0, 0, 0, 0, 0, 0, 36050, t0)
	if math.Abs(s.Heading-0.5) > 1e-9 {
		t.Errorf("heading = %v, want 0.5", s.Heading)
	}
}

func TestFreshnessBoundaries(t *testing.T) {
	s := &State{}
	timeout := 3 * time.Second

	if s.IsPositionFresh(t0, timeout) {
		t.Error("position fresh before any update")
	}
	if s.IsHeartbeatFresh(t0, timeout) {
		t.Error("heartbeat fresh before any update")
	}

	s.UpdatePosition(100000000, 200000000, 0, 0, 0, 0, 0, HeadingInvalid, t0)
	s.UpdateHeartbeat("GUIDED", true, t0)

	if !s.IsPositionFresh(t0, timeout) {
		t.Error("position not fresh immediately after update")
	}
	if !s.IsPositionFresh(t0.Add(timeout), timeout) {
		t.Error("position not fresh at exactly the timeout boundary")
	}
	if s.IsPositionFresh(t0.Add(timeout+time.Millisecond), timeout) {
		t.Error("position still fresh past the timeout")
	}
	if !s.IsHeartbeatFresh(t0.Add(timeout), timeout) {
		t.Error("heartbeat not fresh at exactly the timeout boundary")
	}
	if s.IsHeartbeatFresh(t0.Add(timeout+time.Millisecond), timeout) {
		t.Error("heartbeat still fresh past the timeout")
	}
}

func TestSpeedHorizontalOnly(t *testing.T) {
	s := &State{}
	if _, ok := s.Speed(); ok {
		t.Error("speed available without position")
	}
	s.UpdatePosition(0, 0, 0, 0, 300, 400, 9900, HeadingInvalid, t0)
	speed, ok := s.Speed()
	if !ok {
		t.Fatal("speed unavailable after position update")
	}
	if math.Abs(speed-5.0) > 1e-9 {
		t.Errorf("speed = %v, want 5.0 (vz must be excluded)", speed)
	}
}

func TestRegistryEnsureAndOrder(t *testing.T) {
	r := NewRegistry()
	if _, existed := r.Ensure(2, 1); existed {
		t.Error("fresh key reported as existing")
	}
	if _, existed := r.Ensure(2, 1); !existed {
		t.Error("known key reported as new")
	}
	r.Ensure(1, 1)
	r.Ensure(2, 0)

	all := r.All()
	wantOrder := []Key{{1, 1}, {2, 0}, {2, 1}}
	if len(all) != len(wantOrder) {
		t.Fatalf("got %d states, want %d", len(all), len(wantOrder))
	}
	for i, s := range all {
		if (Key{s.SysID, s.CompID}) != wantOrder[i] {
			t.Errorf("position %d: got %d:%d, want %v", i, s.SysID, s.CompID, wantOrder[i])
		}
	}
}

func TestParamTableFallbackOrder(t *testing.T) {
	pt := NewParamTable()
	pt.Set(2, 0, "AIRSPEED_CRUISE", 14.0)
	pt.Set(2, 1, "AIRSPEED_CRUISE", 16.0)

	// Exact component missing: compid 1 wins over compid 0.
	if v, ok := pt.Lookup(2, 190, "AIRSPEED_CRUISE"); !ok || v != 16.0 {
		t.Errorf("lookup via compid 1 fallback = %v, %v", v, ok)
	}

	pt.Set(2, 190, "airspeed_cruise", 18.0)
	if v, ok := pt.Lookup(2, 190, "AIRSPEED_CRUISE"); !ok || v != 18.0 {
		t.Errorf("exact component lookup = %v, %v", v, ok)
	}

	if _, ok := pt.Lookup(3, 1, "AIRSPEED_CRUISE"); ok {
		t.Error("lookup for unknown vehicle succeeded")
	}
}
