package detect

import (
	"fmt"
	"math"

	"github.com/claritycheck/claritycheck/internal/config"
	"github.com/claritycheck/claritycheck/internal/snapshot"
)

// ContrastDetector checks every text-bearing element against the WCAG
// relative-luminance contrast thresholds. Elements without resolvable
// foreground and background colors are skipped, not penalized.
type ContrastDetector struct {
	cfg config.ContrastConfig
}

func NewContrastDetector(cfg config.ContrastConfig) *ContrastDetector {
	return &ContrastDetector{cfg: cfg}
}

func (d *ContrastDetector) Name() string { return "contrast" }

func (d *ContrastDetector) Detect(snap *snapshot.Snapshot) Result {
	score := 100.0
	var issues []Issue
	aaaFailures := 0.0

	for i := range snap.Elements {
		el := &snap.Elements[i]
		if el.Text == "" {
			continue
		}

		fg, ok := snapshot.ParseColor(el.Style.Color)
		if !ok {
			continue
		}
		bg, ok := snapshot.ParseColor(el.Style.BackgroundColor)
		if !ok {
			continue
		}

		ratio := ContrastRatio(fg, bg)

		fontPx, _ := snapshot.ParseFontSize(el.Style.FontSize)
		large := fontPx >= 18 || (fontPx >= 14 && snapshot.Bold(el.Style.FontWeight))

		aa := d.cfg.AANormal
		aaa := d.cfg.AAANormal
		if large {
			aa = d.cfg.AALarge
			aaa = d.cfg.AAALarge
		}

		switch {
		case ratio < aa:
			severity := SeverityMedium
			penalty := 10.0
			if aa-ratio > d.cfg.HighMargin {
				severity = SeverityHigh
				penalty = 15.0
			}
			score -= penalty
			issues = append(issues, Issue{
				Type:       TypeContrast,
				Selector:   el.Selector,
				BBox:       el.BBox,
				Severity:   severity,
				Message:    fmt.Sprintf("Contrast ratio %.2f:1 fails WCAG AA (%.1f:1 required)", ratio, aa),
				Suggestion: fmt.Sprintf("Increase contrast to at least %.1f:1 for WCAG AA compliance", aa),
				Source:     SourceVisual,
			})
		case ratio < aaa:
			score -= 3
			aaaFailures++
			issues = append(issues, Issue{
				Type:       TypeContrast,
				Selector:   el.Selector,
				BBox:       el.BBox,
				Severity:   SeverityLow,
				Message:    fmt.Sprintf("Contrast ratio %.2f:1 meets AA but not AAA (%.1f:1)", ratio, aaa),
				Suggestion: fmt.Sprintf("Consider increasing contrast to %.1f:1 for WCAG AAA", aaa),
				Source:     SourceVisual,
			})
		}
	}

	return Result{
		Score:  clampScore(score),
		Issues: issues,
		Notes:  map[string]float64{"aaa_failures": aaaFailures},
	}
}

// ContrastRatio computes the WCAG 2.x contrast ratio between two colors.
func ContrastRatio(a, b snapshot.RGB) float64 {
	la := relativeLuminance(a)
	lb := relativeLuminance(b)
	lighter, darker := la, lb
	if lb > la {
		lighter, darker = lb, la
	}
	return (lighter + 0.05) / (darker + 0.05)
}

func relativeLuminance(c snapshot.RGB) float64 {
	return 0.2126*linearize(c.R) + 0.7152*linearize(c.G) + 0.0722*linearize(c.B)
}

func linearize(channel uint8) float64 {
	v := float64(channel) / 255
	if v <= 0.03928 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}
