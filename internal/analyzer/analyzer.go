package analyzer

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/claritycheck/claritycheck/internal/config"
	"github.com/claritycheck/claritycheck/internal/detect"
	"github.com/claritycheck/claritycheck/internal/report"
	"github.com/claritycheck/claritycheck/internal/snapshot"
)

// Analyzer runs the heuristic detectors over a snapshot and fuses their
// sub-scores into a VisualReport. Detectors are pure and run in
// parallel; the analyzer is the join point.
type Analyzer struct {
	contrast   *detect.ContrastDetector
	typography *detect.TypographyDetector
	tapTarget  *detect.TapTargetDetector
	overlap    *detect.OverlapDetector
	density    *detect.DensityDetector
	alignment  *detect.AlignmentDetector

	weights config.ScoringConfig
	budget  time.Duration
}

// New builds an analyzer from configuration. Disabled detectors stay
// nil and contribute neither score weight nor issues.
func New(det config.DetectorsConfig, scoring config.ScoringConfig, budget time.Duration) *Analyzer {
	a := &Analyzer{
		weights: scoring,
		budget:  budget,
	}
	if budget <= 0 {
		a.budget = 30 * time.Second
	}
	if det.Contrast.Enabled {
		a.contrast = detect.NewContrastDetector(det.Contrast)
	}
	if det.Typography.Enabled {
		a.typography = detect.NewTypographyDetector(det.Typography)
	}
	if det.TapTarget.Enabled {
		a.tapTarget = detect.NewTapTargetDetector(det.TapTarget)
	}
	if det.Overlap.Enabled {
		a.overlap = detect.NewOverlapDetector(det.Overlap)
	}
	if det.Density.Enabled {
		a.density = detect.NewDensityDetector(det.Density)
	}
	if det.Alignment.Enabled {
		a.alignment = detect.NewAlignmentDetector(det.Alignment)
	}
	return a
}

type slot struct {
	detector detect.Detector
	weight   float64
	// counted is false when the detector did not examine this snapshot
	// (tap target on desktop); its weight is then renormalized away so
	// a skipped check cannot dilute the score.
	counted func(*snapshot.Snapshot) bool
}

func always(*snapshot.Snapshot) bool { return true }

func (a *Analyzer) slots() []slot {
	var slots []slot
	if a.contrast != nil {
		slots = append(slots, slot{a.contrast, a.weights.Contrast, always})
	}
	if a.typography != nil {
		slots = append(slots, slot{a.typography, a.weights.Typography, always})
	}
	if a.tapTarget != nil {
		slots = append(slots, slot{a.tapTarget, a.weights.TapTarget, func(s *snapshot.Snapshot) bool {
			return s.IsMobile
		}})
	}
	if a.overlap != nil {
		slots = append(slots, slot{a.overlap, a.weights.Overlap, always})
	}
	if a.density != nil {
		slots = append(slots, slot{a.density, a.weights.Density, always})
	}
	if a.alignment != nil {
		slots = append(slots, slot{a.alignment, a.weights.Alignment, always})
	}
	return slots
}

// Analyze runs all enabled detectors on the snapshot and fuses the
// results. It is deterministic and side-effect free. Detectors that
// have not finished when the context or the unit budget expires are
// abandoned and the report is marked degraded.
func (a *Analyzer) Analyze(ctx context.Context, snap *snapshot.Snapshot) (*report.VisualReport, error) {
	if snap.Viewport.Width <= 0 || snap.Viewport.Height <= 0 {
		return nil, snapshot.ErrInvalidViewport
	}

	ctx, cancel := context.WithTimeout(ctx, a.budget)
	defer cancel()

	slots := a.slots()
	results := make([]*detect.Result, len(slots))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i, s := range slots {
		wg.Add(1)
		go func(i int, d detect.Detector) {
			defer wg.Done()
			r := d.Detect(snap)
			mu.Lock()
			results[i] = &r
			mu.Unlock()
		}(i, s.detector)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	degraded := false
	select {
	case <-done:
	case <-ctx.Done():
		degraded = true
		log.Warn().Dur("budget", a.budget).Msg("Analysis unit exceeded its time budget, report degraded")
	}

	// Late detector goroutines may still write; take a consistent copy.
	mu.Lock()
	finished := make([]*detect.Result, len(results))
	copy(finished, results)
	mu.Unlock()

	features := map[string]float64{
		"viewport_width":   float64(snap.Viewport.Width),
		"viewport_height":  float64(snap.Viewport.Height),
		"is_mobile":        bool01(snap.IsMobile),
		"element_count":    float64(len(snap.Elements)),
		"malformed_bboxes": float64(snap.MalformedBBoxes),
		"degraded":         bool01(degraded),
	}

	var issues []detect.Issue
	weighted := 0.0
	totalWeight := 0.0

	for i, s := range slots {
		r := finished[i]
		if r == nil {
			// abandoned detector: neutral sub-score, no weight
			features[s.detector.Name()+"_score"] = 100
			continue
		}
		features[s.detector.Name()+"_score"] = r.Score
		for k, v := range r.Notes {
			features[k] = v
		}
		issues = append(issues, r.Issues...)

		if s.counted(snap) {
			weighted += r.Score * s.weight
			totalWeight += s.weight
		}
	}

	score := 100.0
	if totalWeight > 0 {
		score = weighted / totalWeight
	}
	features["issue_count"] = float64(len(issues))

	return &report.VisualReport{
		Score:    clampInt(int(math.Round(score))),
		Issues:   issues,
		Features: features,
	}, nil
}

// AnalyzeRaw normalizes renderer output and analyzes it, the
// convenience path the HTTP surface uses.
func (a *Analyzer) AnalyzeRaw(ctx context.Context, raw *snapshot.RawSnapshot) (*report.VisualReport, error) {
	snap, err := snapshot.Normalize(raw)
	if err != nil {
		return nil, err
	}
	return a.Analyze(ctx, snap)
}

func clampInt(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

func bool01(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
