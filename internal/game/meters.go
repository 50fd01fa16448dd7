package game

import "github.com/tatianab/kitchen-wars/internal/models"

// Clamp saturates v into [0,100].
func Clamp(v int) int {
	if v < models.MeterMin {
		return models.MeterMin
	}
	if v > models.MeterMax {
		return models.MeterMax
	}
	return v
}

// ApplyDelta returns a new snapshot with d added to m and every meter clamped.
func ApplyDelta(m models.MeterSet, d models.EffectDelta) models.MeterSet {
	return models.MeterSet{
		Reputation:   Clamp(m.Reputation + d.Get(models.Reputation)),
		Profit:       Clamp(m.Profit + d.Get(models.Profit)),
		CustomerFlow: Clamp(m.CustomerFlow + d.Get(models.CustomerFlow)),
		StaffMorale:  Clamp(m.StaffMorale + d.Get(models.StaffMorale)),
	}
}
