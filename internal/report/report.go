package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/claritycheck/claritycheck/internal/detect"
	"github.com/claritycheck/claritycheck/internal/grouping"
)

// VisualReport is the output of one analysis unit: the fused 0-100
// score, every detector finding, and named metrics for the caller.
type VisualReport struct {
	Score    int                `json:"score"`
	Issues   []detect.Issue     `json:"issues"`
	Features map[string]float64 `json:"features"`
}

// Degraded reports whether the unit exceeded its time budget and was
// fused from partial detector results.
func (r *VisualReport) Degraded() bool {
	return r.Features["degraded"] == 1
}

// Grade maps a 0-100 score to the letter grade shown upstream.
func Grade(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

// CombinedWeights fuses the visual score with the externally supplied
// text score. Visual clarity is weighted higher for UX.
type CombinedWeights struct {
	Visual float64
	Text   float64
}

func DefaultCombinedWeights() CombinedWeights {
	return CombinedWeights{Visual: 0.6, Text: 0.4}
}

// Combined is the payload shape the upstream API layer returns: both
// scores, the fused grade, flat issue lists and the grouped view.
type Combined struct {
	ReportID      string           `json:"report_id"`
	URL           string           `json:"url"`
	VisualScore   float64          `json:"visual_score"`
	TextScore     float64          `json:"text_score"`
	OverallScore  float64          `json:"overall_score"`
	Grade         string           `json:"grade"`
	Summary       string           `json:"summary"`
	VisualIssues  []detect.Issue   `json:"visual_issues"`
	TextSEOIssues []detect.Issue   `json:"text_seo_issues"`
	GroupedIssues []grouping.Group `json:"grouped_issues"`
	ScreenshotURL string           `json:"screenshot_url"`
}

// maxCombinedIssues caps the flat visual issue list in the combined
// payload; the grouped view still carries everything.
const maxCombinedIssues = 20

// Combine fuses a visual report with external text findings into the
// upstream response shape.
func Combine(
	url string,
	visual *VisualReport,
	textScore float64,
	textIssues []detect.Issue,
	groups []grouping.Group,
	screenshotURL string,
	w CombinedWeights,
) *Combined {
	total := w.Visual + w.Text
	if total <= 0 {
		w = DefaultCombinedWeights()
		total = 1
	}

	visualScore := float64(visual.Score)
	overall := (visualScore*w.Visual + textScore*w.Text) / total

	issues := make([]detect.Issue, len(visual.Issues))
	copy(issues, visual.Issues)
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Severity.Weight() > issues[j].Severity.Weight()
	})
	if len(issues) > maxCombinedIssues {
		issues = issues[:maxCombinedIssues]
	}

	return &Combined{
		ReportID:      uuid.New().String(),
		URL:           url,
		VisualScore:   visualScore,
		TextScore:     textScore,
		OverallScore:  round1(overall),
		Grade:         Grade(overall),
		Summary:       summarize(overall, visualScore, textScore, visual.Issues),
		VisualIssues:  issues,
		TextSEOIssues: textIssues,
		GroupedIssues: groups,
		ScreenshotURL: screenshotURL,
	}
}

func summarize(overall, visual, text float64, issues []detect.Issue) string {
	var b strings.Builder

	switch {
	case overall >= 90:
		b.WriteString("Excellent clarity! The page has outstanding visual design and readability.")
	case overall >= 80:
		b.WriteString("Good clarity with room for improvement. Most users will have a positive experience.")
	case overall >= 70:
		b.WriteString("Moderate clarity. Some users may struggle with readability or visual elements.")
	case overall >= 60:
		b.WriteString("Below average clarity. Significant improvements needed for a better user experience.")
	default:
		b.WriteString("Poor clarity. Major issues detected that likely impact engagement and conversions.")
	}

	if visual < text-10 {
		b.WriteString(" Visual design needs more attention than content.")
	} else if text < visual-10 {
		b.WriteString(" Content readability could be improved.")
	}

	critical := 0
	for _, is := range issues {
		if is.Severity == detect.SeverityHigh {
			critical++
		}
	}
	if critical > 0 {
		fmt.Fprintf(&b, " %d high-priority issue(s) detected.", critical)
	}

	return b.String()
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
