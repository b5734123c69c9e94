package config

// Tier is the resolved device capability tier. It only selects defaults
// (batch size, detector accuracy); explicit configuration always wins.
type Tier string

const (
	TierLegacy      Tier = "legacy"
	TierSmallScreen Tier = "smallScreen"
	TierStandard    Tier = "standard"
)

// smallScreenMaxDim is the display-size heuristic boundary: displays whose
// longer dimension is at or below this are treated as small screens.
const smallScreenMaxDim = 1136

// ResolveTier derives the capability tier from display metrics. A zero or
// unknown display resolves to the standard tier; forceLegacy pins the tier
// regardless of metrics.
func ResolveTier(width, height int, forceLegacy bool) Tier {
	if forceLegacy {
		return TierLegacy
	}
	if width <= 0 || height <= 0 {
		return TierStandard
	}
	longer := width
	if height > longer {
		longer = height
	}
	if longer <= smallScreenMaxDim {
		return TierSmallScreen
	}
	return TierStandard
}

// BatchSize returns the default detection batch size for the tier:
// 15 for small screens, 30 otherwise.
func (t Tier) BatchSize() int {
	if t == TierSmallScreen {
		return 15
	}
	return 30
}
