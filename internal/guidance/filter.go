package guidance

// Target is a commanded point: latitude/longitude in degrees, altitude in
// metres in the currently configured frame.
type Target struct {
	Lat float64
	Lon float64
	Alt float64
}

// TargetFilter smooths successive solver outputs with a per-axis exponential
// moving average so the commanded point never jumps discontinuously. Axes are
// interpolated independently; at intercept ranges the error against proper
// great-circle interpolation is negligible.
type TargetFilter struct {
	prev  Target
	valid bool
}

// Apply folds one raw target into the filter and returns the smoothed point.
// With no history, or alpha >= 1, the input passes through and becomes the
// new state.
func (f *TargetFilter) Apply(raw Target, alpha float64) Target {
	if alpha < 0 {
		alpha = 0
	}
	if !f.valid || alpha >= 1.0 {
		f.prev = raw
		f.valid = true
		return raw
	}
	f.prev = Target{
		Lat: f.prev.Lat + alpha*(raw.Lat-f.prev.Lat),
		Lon: f.prev.Lon + alpha*(raw.Lon-f.prev.Lon),
		Alt: f.prev.Alt + alpha*(raw.Alt-f.prev.Alt),
	}
	return f.prev
}

// Reset drops the smoothing history. Must be called whenever the meaning of
// "target" changes: guidance-mode transitions, manual target set/clear,
// altitude-mode changes, and alpha changes.
func (f *TargetFilter) Reset() {
	f.valid = false
}
