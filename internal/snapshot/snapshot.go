package snapshot

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// ErrInvalidViewport is returned when a snapshot arrives with
// non-positive viewport dimensions.
var ErrInvalidViewport = errors.New("snapshot: invalid viewport dimensions")

// MobileBreakpoint is the viewport width below which a snapshot is
// treated as mobile.
const MobileBreakpoint = 768

// BBox is an axis-aligned bounding box in viewport pixels.
type BBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (b BBox) Area() float64 {
	return b.Width * b.Height
}

func (b BBox) CenterX() float64 {
	return b.X + b.Width/2
}

func (b BBox) CenterY() float64 {
	return b.Y + b.Height/2
}

// Intersect returns the overlapping region of two boxes. A box with
// zero or negative area means no overlap.
func (b BBox) Intersect(o BBox) BBox {
	x1 := max(b.X, o.X)
	y1 := max(b.Y, o.Y)
	x2 := min(b.X+b.Width, o.X+o.Width)
	y2 := min(b.Y+b.Height, o.Y+o.Height)
	if x2 <= x1 || y2 <= y1 {
		return BBox{}
	}
	return BBox{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

func (b BBox) valid() bool {
	return b.X >= 0 && b.Y >= 0 && b.Width > 0 && b.Height > 0
}

// Style holds the computed style properties the detectors consume.
// Empty string means the property could not be resolved.
type Style struct {
	Color           string `json:"color"`
	BackgroundColor string `json:"backgroundColor"`
	FontSize        string `json:"fontSize"`
	FontWeight      string `json:"fontWeight"`
	LineHeight      string `json:"lineHeight"`
}

// Element is a rendered page element with resolved styles and geometry.
type Element struct {
	Selector string `json:"selector"`
	Tag      string `json:"tag"`
	Role     string `json:"role"`
	Text     string `json:"text"`
	Style    Style  `json:"styles"`
	BBox     BBox   `json:"bbox"`

	// BBoxValid is false when the renderer reported negative or missing
	// dimensions. Such elements are excluded from geometry checks but
	// still participate in style checks.
	BBoxValid bool `json:"-"`
}

var interactiveTags = map[string]bool{
	"a": true, "button": true, "input": true, "select": true, "textarea": true,
}

// Interactive reports whether the element looks clickable or focusable,
// judged by tag, ARIA role, or selector prefix.
func (e *Element) Interactive() bool {
	if interactiveTags[e.Tag] {
		return true
	}
	if e.Role == "button" || e.Role == "link" {
		return true
	}
	if e.Tag == "" {
		tag := leadingTag(e.Selector)
		if interactiveTags[tag] {
			return true
		}
	}
	return false
}

type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Snapshot is the normalized page capture every detector operates on.
// It is immutable after Normalize returns.
type Snapshot struct {
	DOM            string
	ComputedStyles map[string]Style
	Elements       []Element
	Viewport       Viewport
	IsMobile       bool

	// MalformedBBoxes counts elements whose geometry was rejected at the
	// boundary, surfaced as a data-quality note in report features.
	MalformedBBoxes int
}

// RawSnapshot is the wire shape produced by the external renderer.
type RawSnapshot struct {
	DOM            string                       `json:"dom"`
	ComputedStyles map[string]map[string]string `json:"computed_styles"`
	Elements       []RawElement                 `json:"elements"`
	Viewport       Viewport                     `json:"viewport"`
}

type RawElement struct {
	Selector string            `json:"selector"`
	Tag      string            `json:"tag"`
	Role     string            `json:"role"`
	Text     string            `json:"text"`
	Styles   map[string]string `json:"styles"`
	BBox     BBox              `json:"bbox"`
}

// Normalize validates and shapes raw renderer output into a Snapshot.
// Element-local styles win over the selector-keyed computed style map.
// Elements with malformed geometry are kept but flagged, per-element
// style gaps are tolerated (detectors skip what they cannot resolve).
func Normalize(raw *RawSnapshot) (*Snapshot, error) {
	if raw.Viewport.Width <= 0 || raw.Viewport.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidViewport, raw.Viewport.Width, raw.Viewport.Height)
	}

	snap := &Snapshot{
		DOM:            raw.DOM,
		ComputedStyles: make(map[string]Style, len(raw.ComputedStyles)),
		Elements:       make([]Element, 0, len(raw.Elements)),
		Viewport:       raw.Viewport,
		IsMobile:       raw.Viewport.Width < MobileBreakpoint,
	}

	for selector, props := range raw.ComputedStyles {
		snap.ComputedStyles[selector] = styleFromMap(props)
	}

	for _, re := range raw.Elements {
		el := Element{
			Selector: re.Selector,
			Tag:      re.Tag,
			Role:     re.Role,
			Text:     re.Text,
			BBox:     re.BBox,
		}

		el.Style = styleFromMap(re.Styles)
		if base, ok := snap.ComputedStyles[re.Selector]; ok {
			el.Style = mergeStyles(base, el.Style)
		}

		el.BBoxValid = re.BBox.valid()
		if !el.BBoxValid {
			snap.MalformedBBoxes++
			log.Debug().
				Str("selector", re.Selector).
				Float64("width", re.BBox.Width).
				Float64("height", re.BBox.Height).
				Msg("Malformed bounding box, element excluded from geometry checks")
		}

		snap.Elements = append(snap.Elements, el)
	}

	return snap, nil
}

func styleFromMap(props map[string]string) Style {
	return Style{
		Color:           props["color"],
		BackgroundColor: props["backgroundColor"],
		FontSize:        props["fontSize"],
		FontWeight:      props["fontWeight"],
		LineHeight:      props["lineHeight"],
	}
}

// mergeStyles overlays non-empty fields of top onto base.
func mergeStyles(base, top Style) Style {
	if top.Color != "" {
		base.Color = top.Color
	}
	if top.BackgroundColor != "" {
		base.BackgroundColor = top.BackgroundColor
	}
	if top.FontSize != "" {
		base.FontSize = top.FontSize
	}
	if top.FontWeight != "" {
		base.FontWeight = top.FontWeight
	}
	if top.LineHeight != "" {
		base.LineHeight = top.LineHeight
	}
	return base
}

func leadingTag(selector string) string {
	end := 0
	for end < len(selector) {
		c := selector[end]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			end++
			continue
		}
		break
	}
	return selector[:end]
}
