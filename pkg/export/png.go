package export

import (
	"fmt"
	"image/color"
	"io"
	"strconv"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"github.com/matzehuels/kabelplan/pkg/fonts"
	"github.com/matzehuels/kabelplan/pkg/geom"
	"github.com/matzehuels/kabelplan/pkg/route"
	"github.com/matzehuels/kabelplan/pkg/scene"
	"github.com/matzehuels/kabelplan/pkg/viewport"
)

// PNG rasterises s under t. Text is drawn with the embedded Go fonts.
func PNG(w io.Writer, s *scene.Scene, t viewport.Transform, opts Options) error {
	t = normalize(t)
	width, height := Canvas(s, t, opts)
	style := scene.DefaultStyle()
	if s != nil {
		style = s.Style
	}

	dc := gg.NewContext(width, height)
	dc.SetColor(mustColor(style.Background, color.White))
	dc.Clear()

	if !s.Empty() {
		// gg never scales glyphs through the matrix, so faces are created at
		// the on-screen size and text is placed in screen space.
		faces, err := newFaceSet(style, t.Scale)
		if err != nil {
			return err
		}
		defer faces.Close()

		dc.Push()
		dc.Translate(t.TX, t.TY)
		dc.Scale(t.Scale, t.Scale)
		for _, c := range s.Cables {
			drawCablePNG(dc, c, style, t, faces.cable)
		}
		for _, d := range s.Devices {
			drawDevicePNG(dc, d, style, t, faces)
		}
		dc.Pop()
	}

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

type faceSet struct {
	label, port, cable font.Face
}

func newFaceSet(style scene.Style, scale float64) (*faceSet, error) {
	label, err := fonts.Face(style.LabelSize*scale, fonts.Bold)
	if err != nil {
		return nil, err
	}
	port, err := fonts.Face(style.PortLabelSize*scale, fonts.Regular)
	if err != nil {
		return nil, err
	}
	cable, err := fonts.Face(style.CableLabelSize*scale, fonts.Regular)
	if err != nil {
		return nil, err
	}
	return &faceSet{label: label, port: port, cable: cable}, nil
}

func (f *faceSet) Close() {
	f.label.Close()
	f.port.Close()
	f.cable.Close()
}

func drawCablePNG(dc *gg.Context, c scene.Cable, style scene.Style, t viewport.Transform, face font.Face) {
	stroke := mustColor(cssColor(c.Color, style.CableColor), color.Black)

	dc.NewSubPath()
	for _, seg := range route.Rounded(c.Points, style.CableRadius) {
		switch seg.Op {
		case 'M':
			dc.MoveTo(seg.To.X, seg.To.Y)
		case 'L':
			dc.LineTo(seg.To.X, seg.To.Y)
		case 'Q':
			dc.QuadraticTo(seg.Ctrl.X, seg.Ctrl.Y, seg.To.X, seg.To.Y)
		}
	}
	dc.SetColor(stroke)
	dc.SetLineWidth(style.CableWidth * t.Scale)
	dc.Stroke()

	if tip, angle, ok := arrowTip(c.Points); ok {
		if poly := markerPolygon(style.Marker); len(poly) >= 3 {
			dc.Push()
			dc.Translate(tip.X, tip.Y)
			dc.Rotate(angle)
			dc.MoveTo(poly[0].X, poly[0].Y)
			for _, p := range poly[1:] {
				dc.LineTo(p.X, p.Y)
			}
			dc.ClosePath()
			dc.Fill()
			dc.Pop()
		}
	}

	if c.Label != "" {
		w, h := labelBox(c.Label, style)
		dc.DrawRectangle(c.LabelPos.X-float64(w)/2, c.LabelPos.Y-float64(h)/2, float64(w), float64(h))
		dc.SetColor(mustColor(style.CableLabelFill, color.White))
		dc.Fill()
		dc.SetFontFace(face)
		dc.SetColor(color.Black)
		drawText(dc, t, c.Label, c.LabelPos, 0.5)
	}
}

func drawDevicePNG(dc *gg.Context, d scene.Device, style scene.Style, t viewport.Transform, faces *faceSet) {
	b := d.Box
	dc.DrawRoundedRectangle(b.X, b.Y, b.W, b.H, style.CornerRadius)
	dc.SetColor(mustColor(style.DeviceFill, color.White))
	dc.FillPreserve()
	dc.SetColor(mustColor(style.DeviceStroke, color.Black))
	dc.SetLineWidth(style.DeviceStrokeWidth * t.Scale)
	dc.Stroke()

	lines := d.Label()
	lineHeight := style.LabelSize * 1.2
	top := b.CenterY() - lineHeight*float64(len(lines)-1)/2
	dc.SetFontFace(faces.label)
	dc.SetColor(mustColor(style.LabelColor, color.Black))
	for i, line := range lines {
		drawText(dc, t, line, geom.Pt(b.CenterX(), top+float64(i)*lineHeight), 0.5)
	}

	dc.SetFontFace(faces.port)
	for _, p := range d.Ports {
		dc.DrawCircle(p.Anchor.X, p.Anchor.Y, style.PortRadius)
		dc.SetColor(mustColor(style.PortFill, color.White))
		dc.FillPreserve()
		dc.SetColor(mustColor(style.PortStroke, color.Black))
		dc.SetLineWidth(t.Scale)
		dc.Stroke()

		ax := 0.0
		switch p.TextAnchor {
		case "end":
			ax = 1
		case "middle":
			ax = 0.5
		}
		dc.SetColor(color.Black)
		drawText(dc, t, p.Name, p.LabelPos, ax)
	}
}

// drawText draws s vertically centred on p, which is in diagram
// coordinates. ax is the horizontal anchor: 0 start, 0.5 middle, 1 end.
func drawText(dc *gg.Context, t viewport.Transform, s string, p geom.Point, ax float64) {
	q := t.Apply(p)
	dc.Push()
	dc.Identity()
	dc.DrawStringAnchored(s, q.X, q.Y, ax, 0.35)
	dc.Pop()
}

// markerPolygon reads the vertices of a marker path made of absolute
// move/line commands, such as "M 10 -5 0 0 10 5 z".
func markerPolygon(d string) []geom.Point {
	fields := strings.FieldsFunc(d, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n'
	})
	var nums []float64
	for _, f := range fields {
		f = strings.TrimLeft(f, "MLml")
		f = strings.TrimRight(f, "Zz")
		if f == "" {
			continue
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil
		}
		nums = append(nums, v)
	}
	if len(nums)%2 != 0 {
		return nil
	}
	pts := make([]geom.Point, 0, len(nums)/2)
	for i := 0; i < len(nums); i += 2 {
		pts = append(pts, geom.Pt(nums[i], nums[i+1]))
	}
	return pts
}
