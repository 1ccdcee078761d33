// Package expiry classifies products by how close they are to expiring.
package expiry

import (
	"fmt"
	"math"
	"time"
)

const (
	// SoonDays is the last day count still reported as expiring soon.
	SoonDays = 7
	// InfoDays is the last day count reported with info severity.
	InfoDays = 30
)

// Severity is a display bucket, ordered from most to least urgent.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
)

// Severities lists every bucket from most to least urgent.
var Severities = []Severity{SeverityError, SeverityWarning, SeverityInfo, SeveritySuccess}

// Status is the classification of one expiration date.
type Status struct {
	Label    string   `json:"label"`
	Severity Severity `json:"severity"`
	DaysLeft int      `json:"days_left"`
}

// DaysUntil returns the whole days from now until exp, rounded up, so any
// remaining fraction of a day counts as a day. Negative means expired.
func DaysUntil(exp, now time.Time) int {
	d := exp.Sub(now)
	days := math.Ceil(d.Hours() / 24)
	return int(days)
}

// Classify buckets exp relative to now.
func Classify(exp, now time.Time) Status {
	days := DaysUntil(exp, now)
	switch {
	case days < 0:
		return Status{Label: "Expired", Severity: SeverityError, DaysLeft: days}
	case days <= SoonDays:
		return Status{Label: "Expiring Soon", Severity: SeverityWarning, DaysLeft: days}
	case days <= InfoDays:
		return Status{Label: fmt.Sprintf("%d days left", days), Severity: SeverityInfo, DaysLeft: days}
	default:
		return Status{Label: fmt.Sprintf("%d days left", days), Severity: SeveritySuccess, DaysLeft: days}
	}
}
