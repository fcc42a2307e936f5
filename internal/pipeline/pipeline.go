package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/claritycheck/claritycheck/internal/analyzer"
	"github.com/claritycheck/claritycheck/internal/cache"
	"github.com/claritycheck/claritycheck/internal/config"
	"github.com/claritycheck/claritycheck/internal/detect"
	"github.com/claritycheck/claritycheck/internal/grouping"
	"github.com/claritycheck/claritycheck/internal/report"
	"github.com/claritycheck/claritycheck/internal/snapshot"
)

// Renderer is the external collaborator that loads a page and captures
// a snapshot plus screenshot for one viewport/timing combination.
type Renderer interface {
	Render(ctx context.Context, url string, vp snapshot.Viewport, timing string) (*RenderResult, error)
}

type RenderResult struct {
	Snapshot      *snapshot.RawSnapshot `json:"snapshot"`
	ScreenshotURL string                `json:"screenshot_url"`
}

// Unit is one viewport/timing analysis combination.
type Unit struct {
	Name     string
	Viewport snapshot.Viewport
	Timing   string
}

// UnitsFrom expands the configured viewports and timing profiles into
// the cross product of analysis units.
func UnitsFrom(cfg config.AnalysisConfig) []Unit {
	units := make([]Unit, 0, len(cfg.Viewports)*len(cfg.Timings))
	for _, vp := range cfg.Viewports {
		for _, timing := range cfg.Timings {
			units = append(units, Unit{
				Name:     vp.Name + "/" + timing,
				Viewport: snapshot.Viewport{Width: vp.Width, Height: vp.Height},
				Timing:   timing,
			})
		}
	}
	return units
}

// External carries findings from collaborators outside this engine
// (accessibility scanner, CTA analyzer, text/SEO scorer) that share the
// Issue shape and join the grouping stage.
type External struct {
	TextScore     float64
	Accessibility []detect.Issue
	CTA           []detect.Issue
	Text          []detect.Issue
}

func (e *External) tagged() []detect.Issue {
	var out []detect.Issue
	for _, is := range e.Accessibility {
		is.Source = detect.SourceAccessibility
		out = append(out, is)
	}
	for _, is := range e.CTA {
		is.Source = detect.SourceCTA
		out = append(out, is)
	}
	for _, is := range e.Text {
		is.Source = detect.SourceText
		out = append(out, is)
	}
	return out
}

// UnitResult is the serialized, cacheable outcome of one unit.
type UnitResult struct {
	Unit          string               `json:"unit"`
	Viewport      snapshot.Viewport    `json:"viewport"`
	Timing        string               `json:"timing"`
	Report        *report.VisualReport `json:"report,omitempty"`
	Groups        []grouping.Group     `json:"groups,omitempty"`
	ScreenshotURL string               `json:"screenshot_url,omitempty"`
	CacheHit      bool                 `json:"cache_hit"`
	Error         string               `json:"error,omitempty"`
}

// RunReport is the full multi-viewport outcome plus the combined
// upstream payload built from the primary unit.
type RunReport struct {
	URL      string           `json:"url"`
	Units    []UnitResult     `json:"units"`
	Combined *report.Combined `json:"combined"`
}

// Pipeline drives render -> analyze -> group per unit, with
// write-through caching and single-flight de-duplication per unit key.
type Pipeline struct {
	renderer Renderer
	analyzer *analyzer.Analyzer
	cached   *cache.Keyed
	units    []Unit
	combined report.CombinedWeights
}

func New(renderer Renderer, a *analyzer.Analyzer, cached *cache.Keyed, units []Unit) *Pipeline {
	return &Pipeline{
		renderer: renderer,
		analyzer: a,
		cached:   cached,
		units:    units,
		combined: report.DefaultCombinedWeights(),
	}
}

// Run analyzes url across every configured unit. Units run
// concurrently and fail independently: a failed unit is reported in
// its slot while siblings complete, and Run only errors when no unit
// produced a report.
func (p *Pipeline) Run(ctx context.Context, url string, ext External) (*RunReport, error) {
	results := make([]UnitResult, len(p.units))

	var g errgroup.Group
	for i, unit := range p.units {
		i, unit := i, unit
		g.Go(func() error {
			results[i] = p.runUnit(ctx, url, unit, ext)
			return nil
		})
	}
	_ = g.Wait()

	run := &RunReport{URL: url, Units: results}

	primary := p.primaryUnit(results)
	if primary == nil {
		return run, fmt.Errorf("analysis failed for every unit of %s", url)
	}

	run.Combined = report.Combine(
		url,
		primary.Report,
		ext.TextScore,
		tagText(ext.Text),
		primary.Groups,
		primary.ScreenshotURL,
		p.combined,
	)
	return run, nil
}

func (p *Pipeline) runUnit(ctx context.Context, url string, unit Unit, ext External) UnitResult {
	key := cache.Key(url, unit.Viewport.Width, unit.Viewport.Height, unit.Timing)

	var computed *UnitResult
	var mu sync.Mutex

	payload, hit, err := p.cached.Do(ctx, key, func(ctx context.Context) ([]byte, error) {
		res, err := p.computeUnit(ctx, url, unit, ext)
		if err != nil {
			return nil, err
		}
		data, merr := json.Marshal(res)
		if merr != nil {
			// serialization failure never fails the response; the write
			// is skipped and the result served directly
			log.Warn().Err(merr).Str("unit", unit.Name).Msg("Cache serialization failed, skipping cache write")
			mu.Lock()
			computed = res
			mu.Unlock()
			return nil, nil
		}
		return data, nil
	})

	if err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			log.Error().Err(err).Str("url", url).Str("unit", unit.Name).Msg("Unit analysis failed")
		}
		return UnitResult{Unit: unit.Name, Viewport: unit.Viewport, Timing: unit.Timing, Error: err.Error()}
	}

	if payload == nil {
		mu.Lock()
		res := computed
		mu.Unlock()
		if res != nil {
			return *res
		}
		return UnitResult{Unit: unit.Name, Viewport: unit.Viewport, Timing: unit.Timing, Error: "analysis result unavailable"}
	}

	var res UnitResult
	if uerr := json.Unmarshal(payload, &res); uerr != nil {
		return UnitResult{Unit: unit.Name, Viewport: unit.Viewport, Timing: unit.Timing, Error: uerr.Error()}
	}
	res.CacheHit = hit
	return res
}

func (p *Pipeline) computeUnit(ctx context.Context, url string, unit Unit, ext External) (*UnitResult, error) {
	rendered, err := p.renderer.Render(ctx, url, unit.Viewport, unit.Timing)
	if err != nil {
		return nil, fmt.Errorf("render %s %s: %w", url, unit.Name, err)
	}

	snap, err := snapshot.Normalize(rendered.Snapshot)
	if err != nil {
		return nil, err
	}

	rep, err := p.analyzer.Analyze(ctx, snap)
	if err != nil {
		return nil, err
	}

	bboxes := make(map[string]snapshot.BBox, len(snap.Elements))
	for _, el := range snap.Elements {
		if el.BBoxValid {
			bboxes[el.Selector] = el.BBox
		}
	}

	all := make([]detect.Issue, 0, len(rep.Issues))
	all = append(all, rep.Issues...)
	all = append(all, ext.tagged()...)
	groups := grouping.New(snap.DOM, bboxes).Group(all)

	log.Info().
		Str("url", url).
		Str("unit", unit.Name).
		Int("score", rep.Score).
		Int("issues", len(rep.Issues)).
		Int("groups", len(groups)).
		Msg("Unit analyzed")

	return &UnitResult{
		Unit:          unit.Name,
		Viewport:      unit.Viewport,
		Timing:        unit.Timing,
		Report:        rep,
		Groups:        groups,
		ScreenshotURL: rendered.ScreenshotURL,
	}, nil
}

// primaryUnit picks the unit backing the combined payload: the widest
// successful viewport, latest timing winning within a viewport.
func (p *Pipeline) primaryUnit(results []UnitResult) *UnitResult {
	var best *UnitResult
	for i := range results {
		r := &results[i]
		if r.Report == nil {
			continue
		}
		if best == nil ||
			r.Viewport.Width > best.Viewport.Width ||
			(r.Viewport.Width == best.Viewport.Width && r.Timing >= best.Timing) {
			best = r
		}
	}
	return best
}

func tagText(issues []detect.Issue) []detect.Issue {
	out := make([]detect.Issue, len(issues))
	for i, is := range issues {
		is.Source = detect.SourceText
		out[i] = is
	}
	return out
}
