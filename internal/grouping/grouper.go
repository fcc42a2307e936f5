package grouping

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/claritycheck/claritycheck/internal/detect"
	"github.com/claritycheck/claritycheck/internal/snapshot"
)

// Detail is one group member in the serialized grouped_issues shape.
// Source lets the UI split visual/accessibility/cta members from text.
type Detail struct {
	Message    string          `json:"message"`
	Selector   string          `json:"element"`
	Severity   detect.Severity `json:"severity"`
	Source     detect.Source   `json:"source"`
	Suggestion string          `json:"suggestion"`
}

// Group is a cluster of issues under their nearest meaningful container.
type Group struct {
	ParentSelector     string          `json:"parent_selector"`
	ParentDescription  string          `json:"parent_description"`
	ParentType         string          `json:"parent_type"`
	Severity           detect.Severity `json:"severity"`
	IssueCount         int             `json:"issue_count"`
	SummaryMessage     string          `json:"summary_message"`
	ContentSummary     string          `json:"content_summary"`
	ImpactScore        float64         `json:"impact_score"`
	GroupedSuggestions []string        `json:"grouped_suggestions"`
	Details            []Detail        `json:"details"`
	BBox               *snapshot.BBox  `json:"bbox,omitempty"`
}

// containerTags are the only tags considered as grouping ancestors.
var containerTags = map[string]bool{
	"div": true, "section": true, "article": true, "header": true,
	"footer": true, "aside": true, "nav": true, "main": true, "form": true,
}

var semanticTags = map[string]bool{
	"section": true, "article": true, "header": true, "footer": true,
	"aside": true, "nav": true, "main": true,
}

// sectionKeywords earn a class/id a semantic bonus when scoring
// candidate containers.
var sectionKeywords = []string{
	"hero", "banner", "jumbotron", "nav", "menu", "header", "navbar",
	"footer", "content", "main", "cta", "action", "sidebar", "widget",
	"form", "section", "gallery", "media",
}

// parentTypeWeights rank how important a container kind is when
// ordering groups by impact.
var parentTypeWeights = map[string]float64{
	"header_section":  10,
	"navigation":      9,
	"hero_section":    9,
	"cta_section":     9,
	"content_section": 8,
	"form_section":    8,
	"footer_section":  7,
	"sidebar":         6,
	"media_section":   6,
	"generic_content": 4,
}

var parentTypeDescriptions = map[string]string{
	"header_section":  "Header Section",
	"navigation":      "Navigation Menu",
	"hero_section":    "Hero/Banner Section",
	"cta_section":     "Call-to-Action Section",
	"content_section": "Main Content Section",
	"form_section":    "Form Section",
	"footer_section":  "Footer Section",
	"sidebar":         "Sidebar Section",
	"media_section":   "Media Gallery",
	"generic_content": "Content Container",
}

// maxAncestorLevels bounds the upward walk when searching for a
// meaningful container.
const maxAncestorLevels = 10

// Grouper clusters heterogeneous issues by shared DOM ancestry. It is a
// pure single-pass transform: the document is parsed once, ancestor
// lookups are O(1) per issue afterwards.
type Grouper struct {
	doc    *goquery.Document
	bboxes map[string]snapshot.BBox
}

// New parses the DOM markup for ancestry lookups. A nil document (parse
// failure or empty markup) degrades every issue to a singleton group.
func New(dom string, bboxes map[string]snapshot.BBox) *Grouper {
	g := &Grouper{bboxes: bboxes}
	if dom == "" {
		return g
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(dom))
	if err != nil {
		log.Warn().Err(err).Msg("DOM parse failed, grouping falls back to singletons")
		return g
	}
	g.doc = doc
	return g
}

// Group clusters the flat issue list. Issues whose selector cannot be
// resolved to a node with a meaningful ancestor become singleton groups
// keyed by their own selector.
func (g *Grouper) Group(issues []detect.Issue) []Group {
	if len(issues) == 0 {
		return nil
	}

	type bucket struct {
		parent *parentContext
		issues []detect.Issue
	}
	buckets := make(map[string]*bucket)
	var order []string

	for _, issue := range issues {
		key := issue.Selector
		var parent *parentContext
		if pc := g.findMeaningfulParent(issue.Selector); pc != nil {
			key = pc.selector
			parent = pc
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{parent: parent}
			buckets[key] = b
			order = append(order, key)
		}
		b.issues = append(b.issues, issue)
	}

	groups := make([]Group, 0, len(buckets))
	for _, key := range order {
		groups = append(groups, g.build(key, buckets[key].parent, buckets[key].issues))
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].ImpactScore != groups[j].ImpactScore {
			return groups[i].ImpactScore > groups[j].ImpactScore
		}
		if groups[i].IssueCount != groups[j].IssueCount {
			return groups[i].IssueCount > groups[j].IssueCount
		}
		return groups[i].ParentSelector < groups[j].ParentSelector
	})

	return groups
}

type parentContext struct {
	sel           *goquery.Selection
	selector      string
	parentType    string
	semanticScore float64
}

// findMeaningfulParent resolves the selector and walks up at most ten
// ancestor levels scoring candidate containers. The walk is
// nearest-first and a candidate must score strictly higher to replace
// the incumbent, so ties go to the shallower ancestor.
func (g *Grouper) findMeaningfulParent(selector string) *parentContext {
	if g.doc == nil {
		return nil
	}

	node := g.resolve(selector)
	if node == nil {
		return nil
	}

	var best *goquery.Selection
	bestScore := 0.0

	current := node.Parent()
	for level := 0; level < maxAncestorLevels && current.Length() > 0; level++ {
		if tag := goquery.NodeName(current); containerTags[tag] {
			if score := scoreParent(current); score > bestScore {
				bestScore = score
				best = current
			}
		}
		current = current.Parent()
	}

	if best == nil {
		return nil
	}

	return &parentContext{
		sel:           best,
		selector:      selectorFor(best),
		parentType:    classifyParent(best),
		semanticScore: bestScore,
	}
}

// resolve finds the issue's DOM node, trying the full selector first and
// then progressively simpler fallbacks (id, first class, leading tag).
func (g *Grouper) resolve(selector string) *goquery.Selection {
	if selector == "" {
		return nil
	}

	if s := trySelect(g.doc, selector); s != nil {
		return s
	}

	if i := strings.Index(selector, "#"); i >= 0 {
		id := trimToken(selector[i+1:])
		if id != "" {
			if s := trySelect(g.doc, "#"+id); s != nil {
				return s
			}
		}
	}
	if i := strings.Index(selector, "."); i >= 0 {
		class := trimToken(selector[i+1:])
		if class != "" {
			if s := trySelect(g.doc, "."+class); s != nil {
				return s
			}
		}
	}
	if tag := trimToken(selector); tag != "" {
		if s := trySelect(g.doc, tag); s != nil {
			return s
		}
	}

	return nil
}

func trySelect(doc *goquery.Document, selector string) *goquery.Selection {
	defer func() {
		// cascadia panics on some malformed selectors
		_ = recover()
	}()
	s := doc.Find(selector)
	if s.Length() > 0 {
		return s.First()
	}
	return nil
}

func trimToken(s string) string {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_' {
			continue
		}
		return s[:i]
	}
	return s
}

// scoreParent rates how good a container the element makes: semantic
// tags beat divs, ids and section-ish class names add context, and
// diverse meaningful children indicate a real layout section.
func scoreParent(sel *goquery.Selection) float64 {
	score := 0.0

	tag := goquery.NodeName(sel)
	if semanticTags[tag] {
		score += 3
	} else if tag == "div" || tag == "form" {
		score += 1
	}

	if id, ok := sel.Attr("id"); ok && id != "" {
		score += 2
	}
	if class, ok := sel.Attr("class"); ok && class != "" {
		score += 1
		lower := strings.ToLower(class)
		for _, kw := range sectionKeywords {
			if strings.Contains(lower, kw) {
				score += 0.5
				break
			}
		}
	}
	if isFlexOrGrid(sel) {
		score += 1
	}

	seen := make(map[string]bool)
	sel.Find("*").Each(func(_ int, child *goquery.Selection) {
		seen[goquery.NodeName(child)] = true
	})
	diversity := 0
	for tag := range seen {
		if meaningfulChildTags[tag] {
			diversity++
		}
	}
	score += float64(diversity) * 0.5

	depth := sel.Parents().Length()
	if depth < 2 {
		score *= 0.8
	} else if depth > 8 {
		score *= 0.9
	}

	text := strings.TrimSpace(sel.Text())
	if len(text) >= 20 && len(text) <= 1000 {
		score += 1
	}

	return score
}

var meaningfulChildTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"p": true, "span": true, "img": true, "video": true, "figure": true,
	"ul": true, "ol": true, "li": true, "button": true, "a": true,
	"form": true, "input": true, "textarea": true, "nav": true,
	"header": true, "footer": true, "aside": true, "article": true, "section": true,
}

func isFlexOrGrid(sel *goquery.Selection) bool {
	style, ok := sel.Attr("style")
	if ok {
		lower := strings.ToLower(style)
		if strings.Contains(lower, "display:flex") || strings.Contains(lower, "display: flex") ||
			strings.Contains(lower, "display:grid") || strings.Contains(lower, "display: grid") {
			return true
		}
	}
	class, ok := sel.Attr("class")
	if !ok {
		return false
	}
	lower := strings.ToLower(class)
	return strings.Contains(lower, "flex") || strings.Contains(lower, "grid")
}

func classifyParent(sel *goquery.Selection) string {
	switch goquery.NodeName(sel) {
	case "header":
		return "header_section"
	case "nav":
		return "navigation"
	case "footer":
		return "footer_section"
	case "form":
		return "form_section"
	case "aside":
		return "sidebar"
	case "main", "article":
		return "content_section"
	}

	id, _ := sel.Attr("id")
	class, _ := sel.Attr("class")
	attrs := strings.ToLower(id + " " + class)

	switch {
	case containsAny(attrs, "hero", "banner", "jumbotron"):
		return "hero_section"
	case containsAny(attrs, "cta", "call-to-action", "action"):
		return "cta_section"
	case containsAny(attrs, "navbar", "nav-bar", "navigation", "menu"):
		return "navigation"
	case containsAny(attrs, "header"):
		return "header_section"
	case containsAny(attrs, "footer"):
		return "footer_section"
	case containsAny(attrs, "sidebar", "side-bar", "widget"):
		return "sidebar"
	case containsAny(attrs, "gallery", "media", "image-grid"):
		return "media_section"
	case containsAny(attrs, "form", "contact"):
		return "form_section"
	case containsAny(attrs, "content", "main", "article"):
		return "content_section"
	}

	if goquery.NodeName(sel) == "section" {
		return "content_section"
	}
	return "generic_content"
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func selectorFor(sel *goquery.Selection) string {
	tag := goquery.NodeName(sel)
	if id, ok := sel.Attr("id"); ok && id != "" {
		return tag + "#" + id
	}
	if class, ok := sel.Attr("class"); ok && class != "" {
		first := strings.Fields(class)[0]
		return tag + "." + first
	}
	n := sel.PrevAll().Filter(tag).Length() + 1
	return fmt.Sprintf("%s:nth-of-type(%d)", tag, n)
}

func (g *Grouper) build(key string, parent *parentContext, issues []detect.Issue) Group {
	details := make([]Detail, 0, len(issues))
	maxSeverity := detect.SeverityLow
	typeSet := make(map[detect.IssueType]bool)
	var typeOrder []detect.IssueType

	var suggestions []string
	seenSuggestions := make(map[string]bool)

	for _, is := range issues {
		src := is.Source
		if src == "" {
			src = detect.SourceVisual
		}
		details = append(details, Detail{
			Message:    is.Message,
			Selector:   is.Selector,
			Severity:   is.Severity,
			Source:     src,
			Suggestion: is.Suggestion,
		})
		if is.Severity.Weight() > maxSeverity.Weight() {
			maxSeverity = is.Severity
		}
		if !typeSet[is.Type] {
			typeSet[is.Type] = true
			typeOrder = append(typeOrder, is.Type)
		}
		// Container-level suggestion dedupe: identical fix text once.
		if is.Suggestion != "" && !seenSuggestions[is.Suggestion] {
			seenSuggestions[is.Suggestion] = true
			suggestions = append(suggestions, is.Suggestion)
		}
	}

	parentType := "generic_content"
	description := describeSelector(key)
	semanticScore := 0.0
	var bbox *snapshot.BBox
	contentSummary := ""

	if parent != nil {
		parentType = parent.parentType
		description = parentTypeDescriptions[parentType]
		if id, ok := parent.sel.Attr("id"); ok && id != "" {
			description = fmt.Sprintf("%s (%s)", description, id)
		} else if class, ok := parent.sel.Attr("class"); ok && class != "" {
			description = fmt.Sprintf("%s (%s)", description, strings.Fields(class)[0])
		}
		semanticScore = parent.semanticScore
		contentSummary = summarizeContent(parent.sel)
	}

	if b, ok := g.bboxes[key]; ok {
		bbox = &b
	}

	severityScore := 0.0
	for _, d := range details {
		severityScore += float64(d.Severity.Weight())
	}
	impact := parentTypeWeights[parentType]*2 + severityScore*1.5 + semanticScore

	return Group{
		ParentSelector:     key,
		ParentDescription:  description,
		ParentType:         parentType,
		Severity:           maxSeverity,
		IssueCount:         len(issues),
		SummaryMessage:     summaryMessage(description, typeOrder, len(issues)),
		ContentSummary:     contentSummary,
		ImpactScore:        impact,
		GroupedSuggestions: suggestions,
		Details:            details,
		BBox:               bbox,
	}
}

var typeLabels = map[detect.IssueType]string{
	detect.TypeContrast:   "contrast",
	detect.TypeTypography: "typography",
	detect.TypeTapTarget:  "touch target",
	detect.TypeOverlap:    "overlap",
	detect.TypeDensity:    "density",
	detect.TypeAlignment:  "alignment",
}

func summaryMessage(description string, types []detect.IssueType, count int) string {
	labels := make([]string, 0, len(types))
	for _, t := range types {
		label, ok := typeLabels[t]
		if !ok {
			label = string(t)
		}
		labels = append(labels, label)
	}

	var joined string
	switch len(labels) {
	case 0:
		joined = "usability"
	case 1:
		joined = labels[0]
	case 2:
		joined = labels[0] + " and " + labels[1]
	default:
		joined = strings.Join(labels[:len(labels)-1], ", ") + " and " + labels[len(labels)-1]
	}

	noun := "issues"
	if count == 1 {
		noun = "issue"
	}
	return fmt.Sprintf("%d %s %s in %s", count, joined, noun, description)
}

// summarizeContent returns a short excerpt of the container's visible
// text for UI context, falling back to a child-tag inventory.
func summarizeContent(sel *goquery.Selection) string {
	text := strings.Join(strings.Fields(sel.Text()), " ")
	if text != "" {
		if len(text) > 80 {
			text = text[:77] + "..."
		}
		return text
	}

	counts := make(map[string]int)
	sel.Find("*").Each(func(_ int, child *goquery.Selection) {
		tag := goquery.NodeName(child)
		if meaningfulChildTags[tag] {
			counts[tag]++
		}
	})
	if len(counts) == 0 {
		return "No visible content"
	}
	tags := make([]string, 0, len(counts))
	for tag := range counts {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		if counts[tags[i]] != counts[tags[j]] {
			return counts[tags[i]] > counts[tags[j]]
		}
		return tags[i] < tags[j]
	})
	if len(tags) > 4 {
		tags = tags[:4]
	}
	parts := make([]string, 0, len(tags))
	for _, tag := range tags {
		parts = append(parts, fmt.Sprintf("%d %s", counts[tag], tag))
	}
	return "Contains " + strings.Join(parts, ", ")
}

// describeSelector produces a human description for singleton groups
// keyed by the issue's own selector.
func describeSelector(selector string) string {
	switch {
	case selector == "body":
		return "Page Body"
	case strings.HasPrefix(selector, "."):
		return titleize(selector[1:]) + " Section"
	case strings.HasPrefix(selector, "#"):
		return titleize(selector[1:]) + " Area"
	case strings.HasPrefix(selector, "region("):
		return "Page Region " + strings.TrimPrefix(selector, "region")
	default:
		return "Element " + selector
	}
}

func titleize(s string) string {
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
