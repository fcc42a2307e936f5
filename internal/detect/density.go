package detect

import (
	"fmt"
	"sort"

	"github.com/claritycheck/claritycheck/internal/config"
	"github.com/claritycheck/claritycheck/internal/snapshot"
)

// DensityDetector partitions the page into fixed-size regions and flags
// any region crowded with interactive elements. Elements are assigned
// to the region containing their bbox center.
type DensityDetector struct {
	cfg config.DensityConfig
}

func NewDensityDetector(cfg config.DensityConfig) *DensityDetector {
	return &DensityDetector{cfg: cfg}
}

func (d *DensityDetector) Name() string { return "density" }

type regionKey struct {
	col, row int
}

func (d *DensityDetector) Detect(snap *snapshot.Snapshot) Result {
	score := 100.0
	var issues []Issue

	counts := make(map[regionKey]int)
	for i := range snap.Elements {
		el := &snap.Elements[i]
		if !el.BBoxValid || !el.Interactive() {
			continue
		}
		key := regionKey{
			col: int(el.BBox.CenterX()) / d.cfg.RegionWidth,
			row: int(el.BBox.CenterY()) / d.cfg.RegionHeight,
		}
		counts[key]++
	}

	// Stable region ordering for deterministic output.
	keys := make([]regionKey, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].row != keys[j].row {
			return keys[i].row < keys[j].row
		}
		return keys[i].col < keys[j].col
	})

	for _, k := range keys {
		n := counts[k]
		if n <= d.cfg.MaxInteractive {
			continue
		}
		score -= 15
		issues = append(issues, Issue{
			Type:     TypeDensity,
			Selector: fmt.Sprintf("region(%d,%d)", k.col, k.row),
			BBox: snapshot.BBox{
				X:      float64(k.col * d.cfg.RegionWidth),
				Y:      float64(k.row * d.cfg.RegionHeight),
				Width:  float64(d.cfg.RegionWidth),
				Height: float64(d.cfg.RegionHeight),
			},
			Severity: SeverityMedium,
			Message: fmt.Sprintf("Region (%d,%d) contains %d interactive elements (max %d)",
				k.col, k.row, n, d.cfg.MaxInteractive),
			Suggestion: "Spread interactive elements out or split this area into sections",
			Source:     SourceVisual,
		})
	}

	return Result{Score: clampScore(score), Issues: issues}
}
