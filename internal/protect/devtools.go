// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package protect

// DevToolsDetector reports whether developer tools appear to be open. ok is
// false when the detector cannot tell, in which case the last known level is
// kept. The answer is a heuristic: docked side panels and narrow windows also
// produce positives, and a negative is not proof that devtools are closed.
type DevToolsDetector interface {
	Detect() (open, ok bool)
}

// Geometry is the window size pair read by GeometryDetector.
type Geometry struct {
	OuterWidth  float64
	OuterHeight float64
	InnerWidth  float64
	InnerHeight float64
}

// WindowProbe reads window geometry. ok is false when the API is unavailable.
type WindowProbe interface {
	Geometry() (Geometry, bool)
}

// GeometryDetector flags devtools when the outer window exceeds the inner
// viewport by more than Threshold pixels on either axis.
type GeometryDetector struct {
	Probe     WindowProbe
	Threshold float64
}

// Detect implements DevToolsDetector.
func (g GeometryDetector) Detect() (bool, bool) {
	if g.Probe == nil {
		return false, false
	}
	geo, ok := g.Probe.Geometry()
	if !ok {
		return false, false
	}
	return geo.OuterWidth-geo.InnerWidth > g.Threshold ||
		geo.OuterHeight-geo.InnerHeight > g.Threshold, true
}
