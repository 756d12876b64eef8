package export

import (
	"fmt"
	"html"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"

	"github.com/matzehuels/kabelplan/pkg/fonts"
	"github.com/matzehuels/kabelplan/pkg/geom"
	"github.com/matzehuels/kabelplan/pkg/route"
	"github.com/matzehuels/kabelplan/pkg/scene"
	"github.com/matzehuels/kabelplan/pkg/viewport"
)

// SVG writes s as an SVG document. All content sits in one group carrying
// t, so the document shows exactly the transformed view.
func SVG(w io.Writer, s *scene.Scene, t viewport.Transform, opts Options) error {
	ew := &errWriter{w: w}
	t = normalize(t)
	width, height := Canvas(s, t, opts)
	style := scene.DefaultStyle()
	if s != nil {
		style = s.Style
	}

	canvas := svg.New(ew)
	canvas.Start(width, height,
		fmt.Sprintf(`viewBox="0 0 %d %d"`, width, height),
		fmt.Sprintf(`font-family="%s"`, fonts.FontFamily))
	if opts.Title != "" {
		canvas.Title(opts.Title)
	}
	canvas.Rect(0, 0, width, height, "fill:"+cssColor(style.Background, "white"))

	canvas.Group(`id="viewport"`, fmt.Sprintf(`transform="%s"`, t.SVG()))
	if !s.Empty() {
		canvas.Group(`id="cables"`)
		for _, c := range s.Cables {
			drawCableSVG(canvas, c, style)
		}
		canvas.Gend()

		canvas.Group(`id="devices"`)
		for _, d := range s.Devices {
			drawDeviceSVG(canvas, d, style)
		}
		canvas.Gend()
	}
	canvas.Gend()
	canvas.End()
	return ew.err
}

func drawCableSVG(canvas *svg.SVG, c scene.Cable, style scene.Style) {
	stroke := cssColor(c.Color, style.CableColor)
	attrs := []string{attr("data-cable", c.ID)}
	if c.Fallback {
		attrs = append(attrs, `data-fallback="true"`)
	}
	canvas.Group(attrs...)
	canvas.Path(c.PathData, fmt.Sprintf("fill:none;stroke:%s;stroke-width:%s", stroke, route.Num(style.CableWidth)))

	if tip, angle, ok := arrowTip(c.Points); ok {
		canvas.Group(fmt.Sprintf(`transform="translate(%s,%s) rotate(%s)"`,
			route.Num(tip.X), route.Num(tip.Y), route.Num(angle*180/math.Pi)))
		canvas.Path(style.Marker, fmt.Sprintf("fill:%s;stroke:%s", stroke, stroke))
		canvas.Gend()
	}

	if c.Label != "" {
		w, h := labelBox(c.Label, style)
		canvas.Group(translate(c.LabelPos))
		canvas.Rect(-w/2, -h/2, w, h, "fill:"+cssColor(style.CableLabelFill, "white"))
		canvas.Text(0, 0, c.Label, fmt.Sprintf("fill:#000000;font-size:%spx;text-anchor:middle;dominant-baseline:central",
			route.Num(style.CableLabelSize)))
		canvas.Gend()
	}
	canvas.Gend()
}

func drawDeviceSVG(canvas *svg.SVG, d scene.Device, style scene.Style) {
	w, h := round(d.Box.W), round(d.Box.H)
	r := round(style.CornerRadius)

	canvas.Group(attr("data-device", d.ID), translate(geom.Pt(d.Box.X, d.Box.Y)))
	canvas.Roundrect(0, 0, w, h, r, r, fmt.Sprintf("fill:%s;stroke:%s;stroke-width:%s",
		cssColor(style.DeviceFill, "white"), cssColor(style.DeviceStroke, "black"), route.Num(style.DeviceStrokeWidth)))

	lines := d.Label()
	textStyle := fmt.Sprintf("fill:%s;font-size:%spx;font-weight:bold;text-anchor:middle;dominant-baseline:central",
		cssColor(style.LabelColor, "black"), route.Num(style.LabelSize))
	lineHeight := round(style.LabelSize * 1.2)
	top := h/2 - lineHeight*(len(lines)-1)/2
	for i, line := range lines {
		canvas.Text(w/2, top+i*lineHeight, line, textStyle)
	}
	canvas.Gend()

	for _, p := range d.Ports {
		canvas.Group(attr("data-port", p.ID), translate(p.Anchor))
		canvas.Circle(0, 0, round(style.PortRadius), fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1",
			cssColor(style.PortFill, "white"), cssColor(style.PortStroke, "black")))
		off := p.LabelPos.Sub(p.Anchor)
		canvas.Text(round(off.X), round(off.Y), p.Name, fmt.Sprintf("fill:#000000;font-size:%spx;text-anchor:%s;dominant-baseline:central",
			route.Num(style.PortLabelSize), textAnchor(p.TextAnchor)))
		canvas.Gend()
	}
}

// arrowTip returns the end point of points and the direction, in radians,
// pointing from the tip back along the last non-degenerate segment. Marker
// paths are drawn with their tip at the origin and their base along +x.
func arrowTip(points []geom.Point) (geom.Point, float64, bool) {
	if len(points) < 2 {
		return geom.Point{}, 0, false
	}
	tip := points[len(points)-1]
	for i := len(points) - 2; i >= 0; i-- {
		if !points[i].Eq(tip) {
			back := points[i].Sub(tip)
			return tip, math.Atan2(back.Y, back.X), true
		}
	}
	return geom.Point{}, 0, false
}

func labelBox(label string, style scene.Style) (int, int) {
	m := 2 * style.CableLabelMargin
	return round(scene.TextWidth(label, style.CableLabelSize) + m), round(style.CableLabelSize + m)
}

func textAnchor(a string) string {
	switch a {
	case "start", "middle", "end":
		return a
	}
	return "start"
}

func translate(p geom.Point) string {
	return fmt.Sprintf(`transform="translate(%s,%s)"`, route.Num(p.X), route.Num(p.Y))
}

func attr(name, value string) string {
	return fmt.Sprintf(`%s="%s"`, name, html.EscapeString(value))
}

func round(v float64) int { return int(math.Round(v)) }
