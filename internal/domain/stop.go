package domain

import "time"

type (
	// LocationKind classifies the physical site of a stop.
	LocationKind string
	// StopAction is what the driver does at a stop.
	StopAction string
)

// List of possible location kinds
const (
	LocationWarehouse          LocationKind = "warehouse"
	LocationCustomer           LocationKind = "customer"
	LocationDistributionCenter LocationKind = "distribution_center"
	LocationTruckStop          LocationKind = "truck_stop"
	LocationServiceArea        LocationKind = "service_area"
	LocationFuelStation        LocationKind = "fuel_station"
)

// List of possible stop actions
const (
	ActionPickup   StopAction = "pickup"
	ActionDelivery StopAction = "delivery"
)

var allowedLocationKinds = [...]LocationKind{
	LocationWarehouse, LocationCustomer, LocationDistributionCenter,
	LocationTruckStop, LocationServiceArea, LocationFuelStation,
}

var allowedStopActions = [...]StopAction{ActionPickup, ActionDelivery}

// Valid checks if the LocationKind is valid
func (k LocationKind) Valid() bool {
	for _, v := range allowedLocationKinds {
		if k == v {
			return true
		}
	}
	return false
}

// Valid checks if the StopAction is valid
func (a StopAction) Valid() bool {
	for _, v := range allowedStopActions {
		if a == v {
			return true
		}
	}
	return false
}

// TimeWindow bounds the arrival at a stop. Either side may be open.
type TimeWindow struct {
	EarliestArrival *time.Time
	LatestArrival   *time.Time
}

// Stop is one load stop. Immutable once a plan references it; supplied by the
// Loads collaborator.
type Stop struct {
	ID        string
	Name      string
	Lat       float64
	Lon       float64
	Kind      LocationKind
	Action    StopAction
	Window    TimeWindow
	DockHours float64
	// SequenceHint is the source load's explicit ordering, nil when the load
	// arrived unsequenced.
	SequenceHint  *int
	IsOrigin      bool
	IsDestination bool
}

// Leg carries the caller-supplied drive estimate between two stops. The core
// never computes distances from map data.
type Leg struct {
	FromStopID    string
	ToStopID      string
	DistanceMiles float64
	DriveHours    float64
	Cost          float64
}
