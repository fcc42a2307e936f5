package render

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/claritycheck/claritycheck/internal/config"
	"github.com/claritycheck/claritycheck/internal/pipeline"
	"github.com/claritycheck/claritycheck/internal/snapshot"
)

// Client talks to the headless renderer service, which loads a page at
// a given viewport and timing profile and returns the captured snapshot
// plus a screenshot URL.
type Client struct {
	http *resty.Client
}

type renderRequest struct {
	URL      string `json:"url"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Timing   string `json:"timing"`
	FullPage bool   `json:"full_page"`
}

type renderResponse struct {
	Snapshot      *snapshot.RawSnapshot `json:"snapshot"`
	ScreenshotURL string                `json:"screenshot_url"`
	Error         string                `json:"error,omitempty"`
}

func NewClient(cfg config.RendererConfig) *Client {
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	return &Client{http: c}
}

// Render captures one page at one viewport/timing combination.
func (c *Client) Render(ctx context.Context, url string, vp snapshot.Viewport, timing string) (*pipeline.RenderResult, error) {
	var out renderResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(renderRequest{
			URL:      url,
			Width:    vp.Width,
			Height:   vp.Height,
			Timing:   timing,
			FullPage: true,
		}).
		SetResult(&out).
		Post("/render")
	if err != nil {
		return nil, fmt.Errorf("renderer request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("renderer returned %d: %s", resp.StatusCode(), resp.String())
	}
	if out.Error != "" {
		return nil, fmt.Errorf("renderer: %s", out.Error)
	}
	if out.Snapshot == nil {
		return nil, fmt.Errorf("renderer returned no snapshot for %s", url)
	}

	log.Debug().
		Str("url", url).
		Int("width", vp.Width).
		Int("height", vp.Height).
		Str("timing", timing).
		Msg("Page rendered")

	return &pipeline.RenderResult{
		Snapshot:      out.Snapshot,
		ScreenshotURL: out.ScreenshotURL,
	}, nil
}
