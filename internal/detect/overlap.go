package detect

import (
	"fmt"

	"github.com/claritycheck/claritycheck/internal/config"
	"github.com/claritycheck/claritycheck/internal/snapshot"
)

// OverlapDetector runs a pairwise bounding-box intersection scan.
// O(n^2) over page elements, which is fine at typical element counts;
// a grid or sweep-line index is the upgrade path if pages get large.
// Each significant pair yields exactly one issue.
type OverlapDetector struct {
	cfg config.OverlapConfig
}

func NewOverlapDetector(cfg config.OverlapConfig) *OverlapDetector {
	return &OverlapDetector{cfg: cfg}
}

func (d *OverlapDetector) Name() string { return "overlap" }

func (d *OverlapDetector) Detect(snap *snapshot.Snapshot) Result {
	score := 100.0
	var issues []Issue

	els := snap.Elements
	for i := 0; i < len(els); i++ {
		a := &els[i]
		if !a.BBoxValid {
			continue
		}
		for j := i + 1; j < len(els); j++ {
			b := &els[j]
			if !b.BBoxValid {
				continue
			}

			inter := a.BBox.Intersect(b.BBox)
			area := inter.Area()
			if area <= 0 {
				continue
			}
			smaller := min(a.BBox.Area(), b.BBox.Area())
			if smaller <= 0 || area/smaller <= d.cfg.MinRatio {
				continue
			}

			score -= 8
			issues = append(issues, Issue{
				Type:     TypeOverlap,
				Selector: a.Selector + " ∩ " + b.Selector,
				BBox:     inter,
				Severity: SeverityMedium,
				Message: fmt.Sprintf("Elements overlap by %.0fpx² (%.0f%% of the smaller element)",
					area, area/smaller*100),
				Suggestion: "Adjust positioning, margins, or z-index to prevent element overlap",
				Source:     SourceVisual,
			})
		}
	}

	return Result{Score: clampScore(score), Issues: issues}
}
