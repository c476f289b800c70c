package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ScanResult is the stored analysis document for one scan. One section
// per flow's schema; the result filter decides which sections a caller
// sees. Stored as JSONB.
type ScanResult struct {
	Whitening *WhiteningResult `json:"whitening,omitempty"`
	School    *SchoolResult    `json:"school,omitempty"`
	Charity   *CharityResult   `json:"charity,omitempty"`
	Pathology *PathologyResult `json:"pathology,omitempty"`
	Summary   string           `json:"summary,omitempty"`
}

// WhiteningResult is the gym-flow section.
type WhiteningResult struct {
	ShadeScore     int    `json:"shade_score"`
	ShadeBefore    string `json:"shade_before,omitempty"`
	ShadeAfter     string `json:"shade_after,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
}

// SchoolResult is the school-flow section: a simplified category only.
type SchoolResult struct {
	Category string `json:"category"` // healthy | checkup_recommended | urgent
}

// CharityResult is the charity-flow section.
type CharityResult struct {
	PriorityScore int  `json:"priority_score"`
	Eligible      bool `json:"eligible"`
}

// PathologyResult is the full clinical section.
type PathologyResult struct {
	RiskLevel string    `json:"risk_level,omitempty"`
	Findings  []Finding `json:"findings,omitempty"`
}

// Finding is one detected condition on one tooth.
type Finding struct {
	Tooth      string  `json:"tooth"`
	Condition  string  `json:"condition"`
	Confidence float64 `json:"confidence"`
}

// Scan implements the GORM Scanner/Valuer pair so ScanResult maps to a
// JSONB column.
func (r *ScanResult) Scan(src interface{}) error {
	if src == nil {
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("ScanResult.Scan: unsupported type %T", src)
	}
	return json.Unmarshal(data, r)
}

// Value serializes the result document to JSONB.
func (r ScanResult) Value() (driver.Value, error) {
	return json.Marshal(r)
}
