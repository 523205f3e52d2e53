package restfuel

import (
	"fmt"

	"hos-route-coordinator/internal/apperr"
	"hos-route-coordinator/internal/domain"
)

// FuelConfig tunes fuel-stop insertion.
type FuelConfig struct {
	// SafetyBufferGallons is the reserve the tank must never plan below.
	SafetyBufferGallons float64
}

// DefaultFuelConfig returns the default 25 gallon reserve.
func DefaultFuelConfig() FuelConfig {
	return FuelConfig{SafetyBufferGallons: 25}
}

// FuelInsertion says a fuel segment is mandatory before the drive leg at
// LegIndex (an index into the ordered drive legs), targeting GallonsToFill.
// Station choice and price come from the Fuel collaborator, not from here.
type FuelInsertion struct {
	LegIndex      int
	GallonsToFill float64
	Reasoning     string
}

// PlanFuel walks the ordered drive legs and decides where a fuel stop is
// mandatory: wherever burning the next leg would take the tank below the
// safety buffer. Target is fill-to-capacity.
func PlanFuel(legs []domain.Leg, vehicle domain.VehicleState, cfg FuelConfig) ([]FuelInsertion, error) {
	if vehicle.FuelCapacityGallons <= 0 {
		return nil, apperr.Fieldf("fuel_capacity", "must be positive")
	}
	if vehicle.CurrentFuelGallons < 0 || vehicle.CurrentFuelGallons > vehicle.FuelCapacityGallons {
		return nil, apperr.Fieldf("current_fuel", "must be within [0, capacity]")
	}
	if vehicle.MilesPerGallon <= 0 {
		return nil, apperr.Fieldf("fuel_economy", "must be positive")
	}
	if cfg.SafetyBufferGallons < 0 || cfg.SafetyBufferGallons >= vehicle.FuelCapacityGallons {
		return nil, apperr.Fieldf("safety_buffer", "must be within [0, capacity)")
	}

	var out []FuelInsertion
	fuel := vehicle.CurrentFuelGallons
	for i, leg := range legs {
		need := leg.DistanceMiles / vehicle.MilesPerGallon
		if need > vehicle.FuelCapacityGallons-cfg.SafetyBufferGallons {
			return nil, apperr.Fieldf("legs",
				"leg %s->%s needs %.1f gal, beyond a full tank minus the %.1f gal reserve",
				leg.FromStopID, leg.ToStopID, need, cfg.SafetyBufferGallons)
		}
		if fuel-need < cfg.SafetyBufferGallons {
			fill := vehicle.FuelCapacityGallons - fuel
			out = append(out, FuelInsertion{
				LegIndex:      i,
				GallonsToFill: round2(fill),
				Reasoning: fmt.Sprintf(
					"leg %s->%s burns %.1f gal but only %.1f gal sit above the %.1f gal reserve",
					leg.FromStopID, leg.ToStopID, need, fuel-cfg.SafetyBufferGallons, cfg.SafetyBufferGallons),
			})
			fuel = vehicle.FuelCapacityGallons
		}
		fuel -= need
	}
	return out, nil
}
