package restfuel

// Recommendation is the rest outcome for one decision point.
type Recommendation string

// List of possible recommendations
const (
	NoRest      Recommendation = "no_rest"
	PartialRest Recommendation = "partial_rest"
	FullRest    Recommendation = "full_rest"
)

// FeasibilityAnalysis compares the hours a route still needs against the
// driver's remaining HOS margins.
type FeasibilityAnalysis struct {
	DriveNeededHours float64
	DutyNeededHours  float64
	DriveMarginHours float64
	DutyMarginHours  float64
	ShortfallHours   float64
	// LimitingFactor names the tighter rule, empty when both are satisfied.
	LimitingFactor string
}

// OpportunityAnalysis scores how well a dock window doubles as rest.
type OpportunityAnalysis struct {
	DockTimeAvailableHours float64
	HoursGainable          float64
	CriticalityScore       float64
	OpportunityScore       float64
}

// CostAnalysis is the plan-duration price of each rest option relative to the
// dock window that would absorb part of it.
type CostAnalysis struct {
	FullRestExtensionHours    float64
	PartialRestExtensionHours float64
	ChosenExtensionHours      float64
}

// Decision is the full output of one rest decision. Reproducible: identical
// inputs always produce an identical Decision.
type Decision struct {
	Recommendation           Recommendation
	RecommendedDurationHours *float64
	// DeferredRestHours is the remainder a later rest must cover when a dock
	// window only fits a partial split of a mandatory rest.
	DeferredRestHours   float64
	Reasoning           string
	Confidence          float64
	IsCompliant         bool
	Feasibility         FeasibilityAnalysis
	Opportunity         OpportunityAnalysis
	Cost                CostAnalysis
	HoursAfterRestDrive float64
	HoursAfterRestDuty  float64
	DriverCanDecline    bool
}
