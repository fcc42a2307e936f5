package detect

import (
	"fmt"

	"github.com/claritycheck/claritycheck/internal/config"
	"github.com/claritycheck/claritycheck/internal/snapshot"
)

// TypographyDetector flags undersized fonts, tight line height and
// overly long text lines. Independent findings on the same element each
// produce their own Issue.
type TypographyDetector struct {
	cfg config.TypographyConfig
}

func NewTypographyDetector(cfg config.TypographyConfig) *TypographyDetector {
	return &TypographyDetector{cfg: cfg}
}

func (d *TypographyDetector) Name() string { return "typography" }

// avgGlyphFactor estimates average glyph width as a fraction of the
// font size, good enough for a characters-per-line heuristic.
const avgGlyphFactor = 0.5

func (d *TypographyDetector) Detect(snap *snapshot.Snapshot) Result {
	score := 100.0
	var issues []Issue

	minSize := d.cfg.MinSizeDesktop
	if snap.IsMobile {
		minSize = d.cfg.MinSizeMobile
	}

	for i := range snap.Elements {
		el := &snap.Elements[i]
		if el.Text == "" {
			continue
		}

		fontPx, ok := snapshot.ParseFontSize(el.Style.FontSize)
		if !ok {
			continue
		}

		if fontPx < minSize {
			severity := SeverityMedium
			penalty := 8.0
			if fontPx < d.cfg.FarBelowSize {
				severity = SeverityHigh
				penalty = 12.0
			}
			score -= penalty
			issues = append(issues, Issue{
				Type:       TypeTypography,
				Selector:   el.Selector,
				BBox:       el.BBox,
				Severity:   severity,
				Message:    fmt.Sprintf("Font size %.0fpx below %.0fpx minimum", fontPx, minSize),
				Suggestion: fmt.Sprintf("Increase font size to at least %.0fpx for readability", minSize),
				Source:     SourceVisual,
			})
		}

		if ratio, ok := snapshot.ParseLineHeight(el.Style.LineHeight, fontPx); ok && ratio < d.cfg.MinLineHeight {
			score -= 5
			issues = append(issues, Issue{
				Type:       TypeTypography,
				Selector:   el.Selector,
				BBox:       el.BBox,
				Severity:   SeverityLow,
				Message:    fmt.Sprintf("Line height %.2f below %.1fx font size", ratio, d.cfg.MinLineHeight),
				Suggestion: "Use line height of at least 1.4x font size for comfortable reading",
				Source:     SourceVisual,
			})
		}

		if el.BBoxValid && fontPx > 0 {
			charsPerLine := el.BBox.Width / (fontPx * avgGlyphFactor)
			if charsPerLine > float64(d.cfg.MaxLineChars) {
				score -= 5
				issues = append(issues, Issue{
					Type:       TypeTypography,
					Selector:   el.Selector,
					BBox:       el.BBox,
					Severity:   SeverityLow,
					Message:    fmt.Sprintf("Estimated %.0f characters per line exceeds %d maximum", charsPerLine, d.cfg.MaxLineChars),
					Suggestion: "Narrow the text column or increase font size to shorten lines",
					Source:     SourceVisual,
				})
			}
		}
	}

	return Result{Score: clampScore(score), Issues: issues}
}
