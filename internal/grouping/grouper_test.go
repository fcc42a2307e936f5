package grouping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claritycheck/claritycheck/internal/detect"
	"github.com/claritycheck/claritycheck/internal/snapshot"
)

const heroDOM = `<html><body>
<section id="hero">
  <h1 class="title">Welcome to the product that does things</h1>
  <button class="cta">Get started</button>
</section>
<footer class="site-footer">
  <p class="legal">All rights reserved, every last one of them</p>
</footer>
</body></html>`

func heroIssues() []detect.Issue {
	return []detect.Issue{
		{
			Type:       detect.TypeContrast,
			Selector:   "h1.title",
			Severity:   detect.SeverityHigh,
			Message:    "Contrast ratio 2.32:1 fails WCAG AA (4.5:1 required)",
			Suggestion: "Increase contrast to at least 4.5:1 for WCAG AA compliance",
		},
		{
			Type:       detect.TypeTapTarget,
			Selector:   "button.cta",
			Severity:   detect.SeverityMedium,
			Message:    "Touch target 40x38px below 44x44px minimum",
			Suggestion: "Increase the target to at least 44x44px for mobile accessibility",
		},
	}
}

func TestGroupMergesIssuesUnderSharedAncestor(t *testing.T) {
	g := New(heroDOM, nil)

	groups := g.Group(heroIssues())

	require.Len(t, groups, 1)
	grp := groups[0]
	assert.Equal(t, "section#hero", grp.ParentSelector)
	assert.Equal(t, "hero_section", grp.ParentType)
	assert.Equal(t, 2, grp.IssueCount)
	assert.Equal(t, detect.SeverityHigh, grp.Severity)
	assert.Len(t, grp.Details, 2)
	assert.Contains(t, grp.ParentDescription, "Hero/Banner Section")
	assert.Contains(t, grp.SummaryMessage, "2 contrast and touch target issues")
	assert.Positive(t, grp.ImpactScore)
}

func TestGroupSeverityIsMaxOfMembers(t *testing.T) {
	issues := heroIssues()
	issues[0].Severity = detect.SeverityLow
	issues[1].Severity = detect.SeverityMedium

	groups := New(heroDOM, nil).Group(issues)

	require.Len(t, groups, 1)
	assert.Equal(t, detect.SeverityMedium, groups[0].Severity)
}

func TestGroupDedupesIdenticalSuggestions(t *testing.T) {
	issues := heroIssues()
	issues[1].Suggestion = issues[0].Suggestion

	groups := New(heroDOM, nil).Group(issues)

	require.Len(t, groups, 1)
	assert.Len(t, groups[0].GroupedSuggestions, 1)
}

func TestGroupUnresolvableSelectorBecomesSingleton(t *testing.T) {
	issues := []detect.Issue{{
		Type:     detect.TypeDensity,
		Selector: "region(0,0)",
		Severity: detect.SeverityMedium,
		Message:  "Region (0,0) contains 23 interactive elements (max 20)",
	}}

	groups := New(heroDOM, nil).Group(issues)

	require.Len(t, groups, 1)
	assert.Equal(t, "region(0,0)", groups[0].ParentSelector)
	assert.Equal(t, "generic_content", groups[0].ParentType)
	assert.Equal(t, 1, groups[0].IssueCount)
	assert.Contains(t, groups[0].ParentDescription, "Page Region")
}

func TestGroupWithoutDOMFallsBackToSingletons(t *testing.T) {
	groups := New("", nil).Group(heroIssues())

	assert.Len(t, groups, 2)
	for _, grp := range groups {
		assert.Equal(t, 1, grp.IssueCount)
	}
}

func TestGroupOrdersByImpact(t *testing.T) {
	issues := append(heroIssues(), detect.Issue{
		Type:     detect.TypeTypography,
		Selector: "p.legal",
		Severity: detect.SeverityLow,
		Message:  "Font size 10px below 16px minimum",
	})

	groups := New(heroDOM, nil).Group(issues)

	require.Len(t, groups, 2)
	// two issues under the hero outrank the lone footer finding
	assert.Equal(t, "section#hero", groups[0].ParentSelector)
	assert.Equal(t, "footer.site-footer", groups[1].ParentSelector)
	assert.GreaterOrEqual(t, groups[0].ImpactScore, groups[1].ImpactScore)
}

func TestGroupEmptyInput(t *testing.T) {
	assert.Nil(t, New(heroDOM, nil).Group(nil))
}

func TestGroupAttachesKnownBBox(t *testing.T) {
	bboxes := map[string]snapshot.BBox{
		"section#hero": {X: 0, Y: 0, Width: 1440, Height: 600},
	}

	groups := New(heroDOM, bboxes).Group(heroIssues())

	require.Len(t, groups, 1)
	require.NotNil(t, groups[0].BBox)
	assert.Equal(t, 1440.0, groups[0].BBox.Width)
}

func TestGroupDefaultsSourceToVisual(t *testing.T) {
	issues := heroIssues()
	issues[0].Source = ""
	issues[1].Source = detect.SourceAccessibility

	groups := New(heroDOM, nil).Group(issues)

	require.Len(t, groups, 1)
	assert.Equal(t, detect.SourceVisual, groups[0].Details[0].Source)
	assert.Equal(t, detect.SourceAccessibility, groups[0].Details[1].Source)
}
