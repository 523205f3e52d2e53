package domain

// VehicleState is a snapshot of a vehicle's fuel situation, supplied by the
// Fleet collaborator.
type VehicleState struct {
	VehicleID           string
	FuelCapacityGallons float64
	CurrentFuelGallons  float64
	MilesPerGallon      float64
}
