package domain

// AlertRule is the per-type tuning knob exposed to tenants.
type AlertRule struct {
	Enabled   bool
	Mandatory bool
	Threshold float64
	Priority  AlertPriority
}

// EscalationPolicy governs SLA-based promotion of unacknowledged alerts.
type EscalationPolicy struct {
	AcknowledgeSLAMinutes int
	EscalateTo            []string
	Channels              []string
}

// GroupingConfig tunes alert dedup and parent/child linking.
type GroupingConfig struct {
	DedupWindowMinutes     int
	GroupSameTypePerDriver bool
	CrossDriverGrouping    bool
	CascadeLinking         bool
}

// AlertConfiguration is the per-tenant alerting tunable, owned by the Settings
// collaborator and consumed read-only by the monitoring engine.
type AlertConfiguration struct {
	TenantID        string
	Rules           map[AlertType]AlertRule
	Escalation      map[AlertPriority]EscalationPolicy
	Grouping        GroupingConfig
	DefaultChannels map[AlertPriority][]string
}

// Rule returns the tuning for an alert type, falling back to the built-in
// default when the tenant has no entry.
func (c AlertConfiguration) Rule(t AlertType) AlertRule {
	if r, ok := c.Rules[t]; ok {
		return r
	}
	return DefaultAlertConfiguration(c.TenantID).Rules[t]
}

// Policy returns the escalation policy for a priority, falling back to the
// built-in default.
func (c AlertConfiguration) Policy(p AlertPriority) EscalationPolicy {
	if pol, ok := c.Escalation[p]; ok {
		return pol
	}
	return DefaultAlertConfiguration(c.TenantID).Escalation[p]
}

// DefaultAlertConfiguration returns the documented built-in defaults used when
// a tenant has no stored configuration. Every cataloged alert type is enabled;
// the HOS critical conditions are mandatory and cannot be disabled by tenants.
func DefaultAlertConfiguration(tenantID string) AlertConfiguration {
	rules := map[AlertType]AlertRule{
		AlertHOSDriveWarning:   {Enabled: true, Threshold: 0.8, Priority: PriorityMedium},
		AlertHOSDriveCritical:  {Enabled: true, Mandatory: true, Threshold: 0.95, Priority: PriorityCritical},
		AlertHOSDutyWarning:    {Enabled: true, Threshold: 0.8, Priority: PriorityMedium},
		AlertHOSDutyCritical:   {Enabled: true, Mandatory: true, Threshold: 0.95, Priority: PriorityCritical},
		AlertHOSBreakWarning:   {Enabled: true, Threshold: 0.8, Priority: PriorityMedium},
		AlertHOSBreakCritical:  {Enabled: true, Mandatory: true, Threshold: 0.95, Priority: PriorityHigh},
		AlertCycleApproaching:  {Enabled: true, Threshold: 0.85, Priority: PriorityMedium},
		AlertRouteDelay:        {Enabled: true, Threshold: 30, Priority: PriorityHigh},
		AlertDriverNotMoving:   {Enabled: true, Threshold: 45, Priority: PriorityMedium},
		AlertMissedAppointment: {Enabled: true, Priority: PriorityCritical},
		AlertAppointmentAtRisk: {Enabled: true, Threshold: 15, Priority: PriorityHigh},
		AlertDockTimeExceeded:  {Enabled: true, Threshold: 1.5, Priority: PriorityMedium},
		AlertCostOverrun:       {Enabled: true, Threshold: 0.1, Priority: PriorityLow},
		AlertFuelLow:           {Enabled: true, Threshold: 0.15, Priority: PriorityHigh},
	}
	escalation := map[AlertPriority]EscalationPolicy{
		PriorityCritical: {AcknowledgeSLAMinutes: 5, EscalateTo: []string{"fleet_manager"}, Channels: []string{"push", "sms"}},
		PriorityHigh:     {AcknowledgeSLAMinutes: 15, EscalateTo: []string{"dispatcher"}, Channels: []string{"push"}},
		PriorityMedium:   {AcknowledgeSLAMinutes: 60, EscalateTo: []string{"dispatcher"}, Channels: []string{"push"}},
		PriorityLow:      {AcknowledgeSLAMinutes: 240, Channels: []string{"email"}},
	}
	return AlertConfiguration{
		TenantID:   tenantID,
		Rules:      rules,
		Escalation: escalation,
		Grouping: GroupingConfig{
			DedupWindowMinutes:     60,
			GroupSameTypePerDriver: true,
			CascadeLinking:         true,
		},
		DefaultChannels: map[AlertPriority][]string{
			PriorityCritical: {"push", "sms", "email"},
			PriorityHigh:     {"push", "email"},
			PriorityMedium:   {"push"},
			PriorityLow:      {"email"},
		},
	}
}
