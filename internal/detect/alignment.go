package detect

import (
	"fmt"
	"math"
	"sort"

	"github.com/claritycheck/claritycheck/internal/config"
	"github.com/claritycheck/claritycheck/internal/snapshot"
)

// AlignmentDetector groups elements into rows by vertical proximity and
// checks that each multi-element row shares a common left edge. One
// issue is emitted per misaligned row.
type AlignmentDetector struct {
	cfg config.AlignmentConfig
}

func NewAlignmentDetector(cfg config.AlignmentConfig) *AlignmentDetector {
	return &AlignmentDetector{cfg: cfg}
}

func (d *AlignmentDetector) Name() string { return "alignment" }

func (d *AlignmentDetector) Detect(snap *snapshot.Snapshot) Result {
	score := 100.0
	var issues []Issue

	idx := make([]int, 0, len(snap.Elements))
	for i := range snap.Elements {
		if snap.Elements[i].BBoxValid {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return snap.Elements[idx[a]].BBox.CenterY() < snap.Elements[idx[b]].BBox.CenterY()
	})

	// Greedy row clustering: an element joins the current row while its
	// center stays within the tolerance of the row's anchor center.
	var rows [][]int
	for _, i := range idx {
		cy := snap.Elements[i].BBox.CenterY()
		if len(rows) > 0 {
			anchor := snap.Elements[rows[len(rows)-1][0]].BBox.CenterY()
			if math.Abs(cy-anchor) <= d.cfg.RowTolerance {
				rows[len(rows)-1] = append(rows[len(rows)-1], i)
				continue
			}
		}
		rows = append(rows, []int{i})
	}

	for _, row := range rows {
		if len(row) < 2 {
			continue
		}

		modal := modalLeftEdge(snap, row)

		var worst *snapshot.Element
		worstDev := 0.0
		misaligned := 0
		for _, i := range row {
			el := &snap.Elements[i]
			dev := math.Abs(el.BBox.X - modal)
			if dev > d.cfg.MaxDeviation {
				misaligned++
				if dev > worstDev {
					worstDev = dev
					worst = el
				}
			}
		}
		if worst == nil {
			continue
		}

		score -= 5
		issues = append(issues, Issue{
			Type:     TypeAlignment,
			Selector: worst.Selector,
			BBox:     worst.BBox,
			Severity: SeverityLow,
			Message: fmt.Sprintf("Row at y≈%.0f has %d element(s) deviating more than %.0fpx from the %.0fpx left edge",
				snap.Elements[row[0]].BBox.CenterY(), misaligned, d.cfg.MaxDeviation, modal),
			Suggestion: "Align elements in this row to a shared left edge or grid column",
			Source:     SourceVisual,
		})
	}

	return Result{Score: clampScore(score), Issues: issues}
}

// modalLeftEdge returns the most common left edge in a row, rounded to
// whole pixels. Ties go to the smaller edge.
func modalLeftEdge(snap *snapshot.Snapshot, row []int) float64 {
	counts := make(map[int]int)
	for _, i := range row {
		counts[int(math.Round(snap.Elements[i].BBox.X))]++
	}
	best, bestCount := 0, -1
	for edge, n := range counts {
		if n > bestCount || (n == bestCount && edge < best) {
			best, bestCount = edge, n
		}
	}
	return float64(best)
}
