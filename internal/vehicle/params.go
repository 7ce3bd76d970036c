package vehicle

import "strings"

// ParamTable is the per-vehicle key-value store of autopilot parameters seen
// on the link. Names are case-insensitive (stored upper-case).
type ParamTable struct {
	params map[Key]map[string]float64
}

func NewParamTable() *ParamTable {
	return &ParamTable{params: make(map[Key]map[string]float64)}
}

// Set records one parameter value for the given vehicle.
func (t *ParamTable) Set(sysID, compID int, name string, value float64) {
	key := Key{SysID: sysID, CompID: compID}
	table, ok := t.params[key]
	if !ok {
		table = make(map[string]float64)
		t.params[key] = table
	}
	table[strings.ToUpper(name)] = value
}

// Lookup searches for a parameter, trying the exact component first and then
// the common autopilot components (compid 1, then 0) as fallbacks.
func (t *ParamTable) Lookup(sysID, compID int, name string) (float64, bool) {
	name = strings.ToUpper(name)
	candidates := []Key{
		{SysID: sysID, CompID: compID},
		{SysID: sysID, CompID: 1},
		{SysID: sysID, CompID: 0},
	}
	seen := make(map[Key]bool, len(candidates))
	for _, key := range candidates {
		if seen[key] {
			continue
		}
		seen[key] = true
		table, ok := t.params[key]
		if !ok {
			continue
		}
		if value, ok := table[name]; ok {
			return value, true
		}
	}
	return 0, false
}
