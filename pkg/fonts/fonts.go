// Package fonts provides the embedded Go fonts used for raster export and
// text measurement.
//
// The TrueType data ships with golang.org/x/image, so rendering needs no
// system fonts. Parsed fonts are cached; faces are not, because a
// font.Face is not safe for concurrent use.
package fonts

import (
	"fmt"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// FontFamily is the CSS font-family written into SVG output.
const FontFamily = "Go, 'Helvetica Neue', Arial, sans-serif"

// Weight selects the regular or bold cut.
type Weight int

const (
	Regular Weight = iota
	Bold
)

var (
	parseOnce sync.Once
	parsed    [2]*truetype.Font
	parseErr  error
)

func load() ([2]*truetype.Font, error) {
	parseOnce.Do(func() {
		for i, data := range [][]byte{goregular.TTF, gobold.TTF} {
			f, err := truetype.Parse(data)
			if err != nil {
				parseErr = fmt.Errorf("parse font: %w", err)
				return
			}
			parsed[i] = f
		}
	})
	return parsed, parseErr
}

// Face returns a new face of the given weight at size points (72 DPI, so
// one point is one pixel).
func Face(size float64, w Weight) (font.Face, error) {
	fs, err := load()
	if err != nil {
		return nil, err
	}
	if w != Bold {
		w = Regular
	}
	return truetype.NewFace(fs[w], &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}

// Measure returns the advance width of s in pixels.
func Measure(s string, size float64, w Weight) (float64, error) {
	face, err := Face(size, w)
	if err != nil {
		return 0, err
	}
	defer face.Close()
	return float64(font.MeasureString(face, s)) / 64, nil
}
