// Package command decodes operator command text into a closed set of typed
// variants at the boundary. Invalid input is rejected here with a
// user-facing error; nothing malformed ever reaches the guidance engine.
package command

import (
	"fmt"
	"strconv"
	"strings"
)

// Command is one decoded operator action.
type Command interface {
	isCommand()
}

// Catch engages automatic intercept guidance.
type Catch struct{}

// Hold pauses guidance.
type Hold struct{}

// Resume re-engages automatic guidance after a hold.
type Resume struct{}

// Clear drops any manual target.
type Clear struct{}

// StatusRequest asks for the textual status report.
type StatusRequest struct{}

// ModeFBWA requests the follower switch to its manual-assist flight mode.
type ModeFBWA struct{}

// Goto sets a manual target. Alt is nil when the operator omitted it.
type Goto struct {
	Lat float64
	Lon float64
	Alt *float64
}

// SetAltitudeMode switches between relative and absolute target altitude.
type SetAltitudeMode struct {
	Relative bool
}

// SetSpeedProfile selects the speed policy.
type SetSpeedProfile struct {
	Profile string
}

// SetCustomSpeed sets the configured follower speed (custom profile).
type SetCustomSpeed struct {
	Value float64
}

// SetFilterAlpha adjusts the target smoothing coefficient.
type SetFilterAlpha struct {
	Value float64
}

// SelectVehicle rebinds the leader or follower identity.
type SelectVehicle struct {
	Leader bool
	SysID  int
	CompID int
}

// SetSetting mutates one named guidance setting.
type SetSetting struct {
	Name  string
	Value string
}

func (Catch) isCommand()           {}
func (Hold) isCommand()            {}
func (Resume) isCommand()          {}
func (Clear) isCommand()           {}
func (StatusRequest) isCommand()   {}
func (ModeFBWA) isCommand()        {}
func (Goto) isCommand()            {}
func (SetAltitudeMode) isCommand() {}
func (SetSpeedProfile) isCommand() {}
func (SetCustomSpeed) isCommand()  {}
func (SetFilterAlpha) isCommand()  {}
func (SelectVehicle) isCommand()   {}
func (SetSetting) isCommand()      {}

// Parse decodes one operator command line.
func Parse(text string) (Command, error) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	head := strings.ToLower(fields[0])

	switch head {
	case "catch":
		return Catch{}, nil
	case "hold":
		return Hold{}, nil
	case "resume":
		return Resume{}, nil
	case "clear":
		return Clear{}, nil
	case "status":
		return StatusRequest{}, nil
	case "fbwa":
		return ModeFBWA{}, nil
	case "goto":
		return parseGoto(fields[1:])
	case "speed":
		return parseSpeed(fields[1:])
	case "set":
		if len(fields) < 3 {
			return nil, fmt.Errorf("usage: set <name> <value>")
		}
		return SetSetting{Name: strings.ToLower(fields[1]), Value: fields[2]}, nil
	}

	// Prefixed forms carried over the console channel, e.g. "alt_mode:relative".
	if value, ok := strings.CutPrefix(head, "alt_mode:"); ok {
		switch value {
		case "relative":
			return SetAltitudeMode{Relative: true}, nil
		case "absolute":
			return SetAltitudeMode{Relative: false}, nil
		}
		return nil, fmt.Errorf("unknown altitude mode %q", value)
	}
	if value, ok := strings.CutPrefix(head, "speed_profile:"); ok {
		return parseProfileName(value)
	}
	if value, ok := strings.CutPrefix(head, "custom_speed:"); ok {
		return parseCustomSpeed(value)
	}
	if value, ok := strings.CutPrefix(head, "target_filter_alpha:"); ok {
		alpha, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid target filter alpha %q", value)
		}
		return SetFilterAlpha{Value: alpha}, nil
	}
	if value, ok := strings.CutPrefix(head, "select_leader:"); ok {
		return parseSelection(value, true)
	}
	if value, ok := strings.CutPrefix(head, "select_follower:"); ok {
		return parseSelection(value, false)
	}

	return nil, fmt.Errorf("unknown command %q", fields[0])
}

func parseGoto(args []string) (Command, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("usage: goto <lat> <lon> [alt]")
	}
	lat, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid coordinates")
	}
	lon, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid coordinates")
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("coordinates out of range")
	}
	cmd := Goto{Lat: lat, Lon: lon}
	if len(args) >= 3 {
		alt, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid altitude")
		}
		cmd.Alt = &alt
	}
	return cmd, nil
}

func parseSpeed(args []string) (Command, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("usage: speed <cruise|max|custom> [value]")
	}
	profile := strings.ToLower(args[0])
	switch profile {
	case "cruise", "max":
		return SetSpeedProfile{Profile: profile}, nil
	case "custom":
		if len(args) >= 2 {
			return parseCustomSpeed(args[1])
		}
		return SetSpeedProfile{Profile: profile}, nil
	}
	return nil, fmt.Errorf("unknown speed profile %q; expected cruise, max, or custom", args[0])
}

func parseProfileName(value string) (Command, error) {
	profile := strings.ToLower(strings.TrimSpace(value))
	switch profile {
	case "cruise", "max", "custom":
		return SetSpeedProfile{Profile: profile}, nil
	}
	return nil, fmt.Errorf("unknown speed profile %q", value)
}

func parseCustomSpeed(value string) (Command, error) {
	speed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid custom speed %q", value)
	}
	if speed <= 0 {
		return nil, fmt.Errorf("custom speed must be positive")
	}
	return SetCustomSpeed{Value: speed}, nil
}

func parseSelection(value string, leader bool) (Command, error) {
	sysStr, compStr, ok := strings.Cut(value, ":")
	if !ok {
		return nil, fmt.Errorf("invalid vehicle selection %q", value)
	}
	sysID, err := strconv.Atoi(sysStr)
	if err != nil {
		return nil, fmt.Errorf("invalid vehicle selection %q", value)
	}
	compID, err := strconv.Atoi(compStr)
	if err != nil {
		return nil, fmt.Errorf("invalid vehicle selection %q", value)
	}
	return SelectVehicle{Leader: leader, SysID: sysID, CompID: compID}, nil
}
