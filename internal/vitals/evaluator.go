// Package vitals implements threshold evaluation of vital-sign samples.
// Evaluation is pure and reentrant: no I/O, no shared mutable state, safe
// to call from any number of concurrent workers.
package vitals

import (
	"fmt"

	"caremon-go/internal/domain"
)

// band is one severity band of a threshold rule. Bands are checked from
// most to least severe; the first match wins, so a value on a shared
// boundary lands in the stricter band.
type band struct {
	match     func(v float64) bool
	severity  domain.Severity
	alertType string
	title     string
	describe  func(v float64) string
}

// rules maps each evaluated metric type to its ordered severity bands.
// Metric types absent from this table never produce findings.
var rules = map[domain.MetricType][]band{
	domain.MetricFallDetected: {
		{
			match:     func(v float64) bool { return v == 1 },
			severity:  domain.SeverityCritical,
			alertType: "fall_detected",
			title:     "Fall detected",
			describe:  func(v float64) string { return "wearable reported a fall, immediate check required" },
		},
	},
	domain.MetricSpO2: {
		{
			match:     func(v float64) bool { return v < 85 },
			severity:  domain.SeverityCritical,
			alertType: "low_oxygen_critical",
			title:     "Critically low blood oxygen",
			describe:  func(v float64) string { return fmt.Sprintf("SpO2 %.1f%% is below 85%%", v) },
		},
		{
			match:     func(v float64) bool { return v < 90 },
			severity:  domain.SeverityHigh,
			alertType: "low_spo2",
			title:     "Low blood oxygen",
			describe:  func(v float64) string { return fmt.Sprintf("SpO2 %.1f%% is below 90%%", v) },
		},
	},
	domain.MetricHeartRate: {
		{
			match:     func(v float64) bool { return v < 40 },
			severity:  domain.SeverityCritical,
			alertType: "low_heart_rate_critical",
			title:     "Critically low heart rate",
			describe:  func(v float64) string { return fmt.Sprintf("heart rate %.0f bpm is below 40 bpm", v) },
		},
		{
			match:     func(v float64) bool { return v < 50 },
			severity:  domain.SeverityHigh,
			alertType: "low_heart_rate",
			title:     "Low heart rate",
			describe:  func(v float64) string { return fmt.Sprintf("heart rate %.0f bpm is below 50 bpm", v) },
		},
		{
			match:     func(v float64) bool { return v > 120 },
			severity:  domain.SeverityHigh,
			alertType: "high_heart_rate",
			title:     "High heart rate",
			describe:  func(v float64) string { return fmt.Sprintf("heart rate %.0f bpm is above 120 bpm", v) },
		},
	},
	domain.MetricTemperature: {
		{
			match:     func(v float64) bool { return v < 35 || v > 39 },
			severity:  domain.SeverityCritical,
			alertType: "abnormal_temperature_critical",
			title:     "Critically abnormal body temperature",
			describe:  func(v float64) string { return fmt.Sprintf("temperature %.1f°C is outside 35-39°C", v) },
		},
		{
			match:     func(v float64) bool { return v > 38.5 },
			severity:  domain.SeverityHigh,
			alertType: "high_temperature",
			title:     "High body temperature",
			describe:  func(v float64) string { return fmt.Sprintf("temperature %.1f°C is above 38.5°C", v) },
		},
	},
}

// Evaluate maps a batch of samples to zero or more critical findings.
// Each sample yields at most one finding (the most severe applicable
// band). Output preserves input order. Unknown metric types are skipped,
// not errors.
func Evaluate(samples []domain.MetricSample) []domain.CriticalFinding {
	var findings []domain.CriticalFinding
	for _, s := range samples {
		if f, ok := evaluateOne(s); ok {
			findings = append(findings, f)
		}
	}
	return findings
}

func evaluateOne(s domain.MetricSample) (domain.CriticalFinding, bool) {
	for _, b := range rules[s.Type] {
		if b.match(s.Value) {
			return domain.CriticalFinding{
				MetricType:  s.Type,
				Value:       s.Value,
				Severity:    b.severity,
				AlertType:   b.alertType,
				Title:       b.title,
				Description: b.describe(s.Value),
			}, true
		}
	}
	return domain.CriticalFinding{}, false
}
