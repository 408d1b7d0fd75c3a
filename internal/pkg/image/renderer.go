// Package image converts a rendered chart or scene into a PNG screenshot.
package image

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/device"
)

// Renderer knows how to take a screenshot from a HTML or SVG input and writes it as PNG.
type Renderer struct {
	options
}

// New builds an image [Renderer].
func New(opts ...Option) *Renderer {
	o := optionsWithDefaults(opts)
	o.l = o.l.With(slog.String("module", "image"))

	return &Renderer{
		options: o,
	}
}

// Render a PNG image as a screenshot from a source document.
//
// The headless browser is shut down when Render returns or ctx is cancelled.
func (r *Renderer) Render(ctx context.Context, dest io.Writer, source io.Reader) error {
	screenshot, err := r.screenshot(ctx, source)
	if err != nil {
		return fmt.Errorf("taking screenshot: %w", err)
	}

	_, err = dest.Write(screenshot)
	if err != nil {
		return fmt.Errorf("writing screenshot: %w", err)
	}

	r.l.Info("screenshot written", slog.Int("bytes", len(screenshot)))

	return nil
}

func (r *Renderer) screenshot(parent context.Context, reader io.Reader) ([]byte, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}

	ctx, cancel := chromedp.NewContext(parent)
	defer cancel()

	var screenshot []byte
	const qualityPNG = 100 // 100 to force PNG

	err = chromedp.Run(ctx,
		chromedp.Emulate(device.Info{
			Height:    r.Height,
			Width:     r.Width,
			Landscape: r.Width > r.Height,
		}),
		chromedp.Navigate(dataURL(r.MediaType, content)),
		chromedp.Sleep(r.SleepDuration), // animations and scripts need some time to settle
		chromedp.FullScreenshot(&screenshot, qualityPNG),
	)
	if err != nil {
		return nil, err
	}

	return screenshot, nil
}

// dataURL embeds a document into a URL. Content is base64-encoded, since SVG colors like "#fff"
// would otherwise be read as a URL fragment.
func dataURL(mediaType string, content []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(content)
}
