package report

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claritycheck/claritycheck/internal/detect"
)

func TestGradeBands(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{100, "A"}, {90, "A"},
		{89.9, "B"}, {80, "B"},
		{79, "C"}, {70, "C"},
		{69, "D"}, {60, "D"},
		{59.9, "F"}, {0, "F"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Grade(tc.score), "score %.1f", tc.score)
	}
}

func TestCombineWeighting(t *testing.T) {
	visual := &VisualReport{Score: 80}

	c := Combine("https://example.com", visual, 60, nil, nil, "", DefaultCombinedWeights())

	// 80*0.6 + 60*0.4 = 72
	assert.Equal(t, 72.0, c.OverallScore)
	assert.Equal(t, "C", c.Grade)
	assert.Equal(t, 80.0, c.VisualScore)
	assert.Equal(t, 60.0, c.TextScore)
	assert.NotEmpty(t, c.ReportID)
	assert.NotEmpty(t, c.Summary)
}

func TestCombineInvalidWeightsFallBack(t *testing.T) {
	visual := &VisualReport{Score: 100}

	c := Combine("https://example.com", visual, 50, nil, nil, "", CombinedWeights{})

	assert.Equal(t, 80.0, c.OverallScore)
}

func TestCombineSortsIssuesBySeverity(t *testing.T) {
	visual := &VisualReport{
		Score: 70,
		Issues: []detect.Issue{
			{Selector: "a", Severity: detect.SeverityLow},
			{Selector: "b", Severity: detect.SeverityHigh},
			{Selector: "c", Severity: detect.SeverityMedium},
		},
	}

	c := Combine("https://example.com", visual, 70, nil, nil, "", DefaultCombinedWeights())

	require.Len(t, c.VisualIssues, 3)
	assert.Equal(t, detect.SeverityHigh, c.VisualIssues[0].Severity)
	assert.Equal(t, detect.SeverityMedium, c.VisualIssues[1].Severity)
	assert.Equal(t, detect.SeverityLow, c.VisualIssues[2].Severity)
}

func TestCombineCapsFlatIssueList(t *testing.T) {
	visual := &VisualReport{Score: 10}
	for i := 0; i < 30; i++ {
		visual.Issues = append(visual.Issues, detect.Issue{
			Selector: fmt.Sprintf("p.bad-%d", i),
			Severity: detect.SeverityMedium,
		})
	}

	c := Combine("https://example.com", visual, 50, nil, nil, "", DefaultCombinedWeights())

	assert.Len(t, c.VisualIssues, maxCombinedIssues)
	// the source report is untouched
	assert.Len(t, visual.Issues, 30)
}

func TestCombineSummaryMentionsHighPriorityIssues(t *testing.T) {
	visual := &VisualReport{
		Score: 40,
		Issues: []detect.Issue{
			{Severity: detect.SeverityHigh},
			{Severity: detect.SeverityHigh},
		},
	}

	c := Combine("https://example.com", visual, 40, nil, nil, "", DefaultCombinedWeights())

	assert.Contains(t, c.Summary, "2 high-priority issue(s)")
	assert.Equal(t, "F", c.Grade)
}

func TestDegradedFlag(t *testing.T) {
	fresh := &VisualReport{Features: map[string]float64{"degraded": 0}}
	assert.False(t, fresh.Degraded())

	partial := &VisualReport{Features: map[string]float64{"degraded": 1}}
	assert.True(t, partial.Degraded())
}
