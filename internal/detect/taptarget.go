package detect

import (
	"fmt"

	"github.com/claritycheck/claritycheck/internal/config"
	"github.com/claritycheck/claritycheck/internal/snapshot"
)

// TapTargetDetector checks interactive element sizes against the 44x44px
// touch guideline. It only runs on mobile viewports; desktop snapshots
// get the default sub-score and no issues.
type TapTargetDetector struct {
	cfg config.TapTargetConfig
}

func NewTapTargetDetector(cfg config.TapTargetConfig) *TapTargetDetector {
	return &TapTargetDetector{cfg: cfg}
}

func (d *TapTargetDetector) Name() string { return "tap_target" }

func (d *TapTargetDetector) Detect(snap *snapshot.Snapshot) Result {
	if !snap.IsMobile {
		return Result{Score: 100}
	}

	score := 100.0
	var issues []Issue

	for i := range snap.Elements {
		el := &snap.Elements[i]
		if !el.BBoxValid || !el.Interactive() {
			continue
		}

		smaller := min(el.BBox.Width, el.BBox.Height)
		if smaller >= d.cfg.MinSizePx {
			continue
		}

		severity := SeverityMedium
		penalty := 10.0
		if smaller < d.cfg.CriticalSize {
			severity = SeverityHigh
			penalty = 15.0
		}
		score -= penalty
		issues = append(issues, Issue{
			Type:     TypeTapTarget,
			Selector: el.Selector,
			BBox:     el.BBox,
			Severity: severity,
			Message: fmt.Sprintf("Touch target %.0fx%.0fpx below %.0fx%.0fpx minimum",
				el.BBox.Width, el.BBox.Height, d.cfg.MinSizePx, d.cfg.MinSizePx),
			Suggestion: fmt.Sprintf("Increase the target to at least %.0fx%.0fpx for mobile accessibility",
				d.cfg.MinSizePx, d.cfg.MinSizePx),
			Source: SourceVisual,
		})
	}

	return Result{Score: clampScore(score), Issues: issues}
}
