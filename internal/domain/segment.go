package domain

type (
	// SegmentKind is the kind of a plan segment.
	SegmentKind string
	// RestType distinguishes a full qualifying rest from a sleeper-berth split.
	RestType string
)

// List of possible segment kinds
const (
	SegmentDrive SegmentKind = "drive"
	SegmentDock  SegmentKind = "dock"
	SegmentRest  SegmentKind = "rest"
	SegmentFuel  SegmentKind = "fuel"
)

// List of possible rest types
const (
	RestFull    RestType = "full"
	RestPartial RestType = "partial"
)

// Segment is one ordered unit of a plan. Segments are produced, never
// mutated: any change yields a new segment list under a new plan version.
// Only the fields for the given Kind are set.
type Segment struct {
	Kind SegmentKind

	// drive
	FromStopID    string
	ToStopID      string
	DistanceMiles float64
	DriveHours    float64
	DriveCost     float64

	// dock
	StopID    string
	Customer  string
	DockHours float64

	// rest
	RestType   RestType
	RestHours  float64
	RestReason string

	// fuel
	StationID string
	Gallons   float64
	FuelCost  float64
}

// Totals aggregates a segment list.
type Totals struct {
	DistanceMiles float64
	Hours         float64
	Cost          float64
}

// SumTotals computes aggregate distance, time and cost over segments.
func SumTotals(segments []Segment) Totals {
	var t Totals
	for _, s := range segments {
		switch s.Kind {
		case SegmentDrive:
			t.DistanceMiles += s.DistanceMiles
			t.Hours += s.DriveHours
			t.Cost += s.DriveCost
		case SegmentDock:
			t.Hours += s.DockHours
		case SegmentRest:
			t.Hours += s.RestHours
		case SegmentFuel:
			t.Cost += s.FuelCost
		}
	}
	return t
}
