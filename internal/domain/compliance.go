package domain

// ComplianceReport is derived from a plan's segments and input HOS state.
// Recomputed on every plan version.
type ComplianceReport struct {
	MaxDriveHoursUsed float64
	MaxDutyHoursUsed  float64
	BreaksRequired    int
	BreaksPlanned     int
	Violations        []string
}

// IsCompliant reports whether the plan carries no HOS violations.
func (r ComplianceReport) IsCompliant() bool {
	return len(r.Violations) == 0
}
