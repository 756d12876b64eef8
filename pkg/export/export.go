// Package export writes snapshots of a scene under a viewport transform.
//
// Every exporter draws the same picture the user sees: the scene in diagram
// coordinates wrapped in the current [viewport.Transform], on a canvas of
// the configured size. SVG is written with svgo and PNG is rasterised with
// gg. PDF, and PNG at arbitrary resolution, are converted from the SVG with
// rsvg-convert.
package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"regexp"
	"strings"
	"time"

	kerrors "github.com/matzehuels/kabelplan/pkg/errors"
	"github.com/matzehuels/kabelplan/pkg/observability"
	"github.com/matzehuels/kabelplan/pkg/scene"
	"github.com/matzehuels/kabelplan/pkg/viewport"
)

// Supported formats.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatPDF = "pdf"
)

// DefaultPadding is the margin added around the content when the canvas is
// sized to fit it.
const DefaultPadding = 50.0

// Options controls the canvas of an export.
type Options struct {
	// Width and Height are the canvas size in pixels. When either is zero
	// the canvas is sized to the transformed scene bounds plus Padding.
	Width, Height int
	Padding       float64
	// Title is written as the SVG <title> when set.
	Title string
}

// Canvas returns the canvas size used for s under t.
func Canvas(s *scene.Scene, t viewport.Transform, opts Options) (int, int) {
	if opts.Width > 0 && opts.Height > 0 {
		return opts.Width, opts.Height
	}
	t = normalize(t)
	pad := opts.Padding
	if pad <= 0 {
		pad = DefaultPadding
	}
	if s.Empty() {
		return int(2 * pad), int(2 * pad)
	}
	r := t.ApplyRect(s.Bounds)
	w := int(math.Ceil(math.Max(r.Right(), 0) + pad))
	h := int(math.Ceil(math.Max(r.Bottom(), 0) + pad))
	return max(w, 1), max(h, 1)
}

// Write exports s in format to w.
func Write(ctx context.Context, w io.Writer, format string, s *scene.Scene, t viewport.Transform, opts Options) (err error) {
	format = strings.ToLower(format)
	if err := kerrors.ValidateFormat(format); err != nil {
		return err
	}

	hooks := observability.Pipeline()
	hooks.OnExportStart(ctx, []string{format})
	start := time.Now()
	defer func() { hooks.OnExportComplete(ctx, []string{format}, time.Since(start), err) }()

	switch format {
	case FormatSVG:
		return SVG(w, s, t, opts)
	case FormatPNG:
		return PNG(w, s, t, opts)
	default:
		var buf bytes.Buffer
		if err := SVG(&buf, s, t, opts); err != nil {
			return err
		}
		pdf, err := PDF(ctx, buf.Bytes())
		if err != nil {
			return err
		}
		_, err = w.Write(pdf)
		return err
	}
}

// ContentType returns the MIME type of format.
func ContentType(format string) string {
	switch strings.ToLower(format) {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Filename returns the download name for a diagram of site:
// "kabelplan-<site>.<ext>", or "kabelplan.<ext>" without a site.
func Filename(site, format string) string {
	ext := strings.ToLower(format)
	site = strings.Trim(unsafeFilename.ReplaceAllString(site, "-"), "-")
	if site == "" {
		return fmt.Sprintf("kabelplan.%s", ext)
	}
	return fmt.Sprintf("kabelplan-%s.%s", site, ext)
}

// normalize replaces a zero or negative scale with the identity transform.
func normalize(t viewport.Transform) viewport.Transform {
	if t.Scale <= 0 {
		return viewport.Identity
	}
	return t
}

// errWriter remembers the first write error so that callers of writers
// without error returns can report it.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}
