package domain

// Severity represents the clinical severity of a finding or alert.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// IsValid returns true if the severity is a known valid value.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

// CriticalFinding is the derived judgment that one metric sample crossed a
// clinically significant threshold. Findings are not persisted directly;
// each one is consumed immediately to request an alert.
type CriticalFinding struct {
	// MetricType is the metric that triggered the finding.
	MetricType MetricType `json:"metric_type"`

	// Value is the offending measurement.
	Value float64 `json:"value"`

	// Severity is the severity of the crossed band.
	Severity Severity `json:"severity"`

	// AlertType is the alert classification for this finding,
	// e.g. "low_oxygen_critical" or "fall_detected".
	AlertType string `json:"alert_type"`

	// Title is a short human-readable summary.
	Title string `json:"title"`

	// Description explains the threshold that was crossed.
	Description string `json:"description"`
}
