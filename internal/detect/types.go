package detect

import (
	"github.com/claritycheck/claritycheck/internal/snapshot"
)

// IssueType is the closed set of defects the engine reports.
type IssueType string

const (
	TypeContrast   IssueType = "contrast"
	TypeTypography IssueType = "typography"
	TypeTapTarget  IssueType = "tap_target"
	TypeOverlap    IssueType = "overlap"
	TypeDensity    IssueType = "density"
	TypeAlignment  IssueType = "alignment"
)

// Severity orders issues for penalty weighting and group rollups.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Weight returns the rank used for max-severity and sort comparisons.
func (s Severity) Weight() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// Source tags where an issue came from so the UI can filter group
// members. The six detectors emit "visual"; accessibility, cta and text
// issues are supplied by external collaborators in the same shape.
type Source string

const (
	SourceVisual        Source = "visual"
	SourceAccessibility Source = "accessibility"
	SourceCTA           Source = "cta"
	SourceText          Source = "text"
)

// Issue is a single concrete finding tied to a page element.
type Issue struct {
	Type       IssueType     `json:"type"`
	Selector   string        `json:"selector"`
	BBox       snapshot.BBox `json:"bbox"`
	Severity   Severity      `json:"severity"`
	Message    string        `json:"message"`
	Suggestion string        `json:"suggestion"`
	Source     Source        `json:"source"`
}

// Result is one detector's contribution: a 0-100 sub-score and its
// findings. Notes carry informational counters that are not issues.
type Result struct {
	Score  float64
	Issues []Issue
	Notes  map[string]float64
}

// Detector is a pure function of an immutable snapshot. Implementations
// hold configuration only and are safe for concurrent use.
type Detector interface {
	Name() string
	Detect(snap *snapshot.Snapshot) Result
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
