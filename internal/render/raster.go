package render

import (
	"fmt"
	"image"
	"io"
	"log/slog"
	"sync"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	fontOnce   sync.Once
	fontSource *text.FontSource
	fontErr    error
)

// defaultFont parses the bundled Go Regular face once per process.
func defaultFont() (*text.FontSource, error) {
	fontOnce.Do(func() {
		fontSource, fontErr = text.NewFontSource(goregular.TTF)
	})
	return fontSource, fontErr
}

// SetLogger routes the rasterizer's diagnostics to logger.
func SetLogger(logger *slog.Logger) {
	gg.SetLogger(logger)
}

// Raster is a Surface backed by the gg software rasterizer.
type Raster struct {
	dc    *gg.Context
	faces map[float64]text.Face
	err   error
}

// NewRaster creates a width x height pixel surface.
func NewRaster(width, height int) (*Raster, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid raster size %dx%d", width, height)
	}
	if _, err := defaultFont(); err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}
	return &Raster{
		dc:    gg.NewContext(width, height),
		faces: make(map[float64]text.Face),
	}, nil
}

func (r *Raster) Clear(background string) {
	r.dc.ClearPath()
	r.dc.ClearWithColor(gg.Hex(background))
}

func (r *Raster) StrokePath(path []PathCommand, style Style) {
	if !r.tracePath(path) {
		return
	}
	r.dc.SetHexColor(style.Color)
	r.dc.SetLineWidth(style.LineWidth)
	if err := r.dc.Stroke(); err != nil && r.err == nil {
		r.err = fmt.Errorf("stroke: %w", err)
	}
}

func (r *Raster) FillPath(path []PathCommand, style Style) {
	if !r.tracePath(path) {
		return
	}
	r.dc.SetHexColor(style.Color)
	if err := r.dc.Fill(); err != nil && r.err == nil {
		r.err = fmt.Errorf("fill: %w", err)
	}
}

func (r *Raster) FillText(s string, x, y float64, style Style) {
	r.dc.SetFont(r.face(style.FontSize))
	r.dc.SetHexColor(style.Color)
	r.dc.DrawString(s, x, y)
}

// Err returns the first rasterization error since the surface was created.
func (r *Raster) Err() error {
	return r.err
}

// Image returns a copy of the current pixels.
func (r *Raster) Image() image.Image {
	return r.dc.Image()
}

// EncodePNG writes the current pixels as PNG.
func (r *Raster) EncodePNG(w io.Writer) error {
	if r.err != nil {
		return r.err
	}
	return r.dc.EncodePNG(w)
}

func (r *Raster) Close() error {
	return r.dc.Close()
}

func (r *Raster) face(size float64) text.Face {
	if size <= 0 {
		size = FontSize
	}
	f, ok := r.faces[size]
	if !ok {
		src, _ := defaultFont()
		f = src.Face(size)
		r.faces[size] = f
	}
	return f
}

func (r *Raster) tracePath(path []PathCommand) bool {
	if len(path) == 0 {
		return false
	}
	r.dc.ClearPath()
	for _, cmd := range path {
		a := cmd.Args
		switch cmd.Op {
		case "M":
			r.dc.MoveTo(a[0], a[1])
		case "L":
			r.dc.LineTo(a[0], a[1])
		case "C":
			r.dc.CubicTo(a[0], a[1], a[2], a[3], a[4], a[5])
		case "Z":
			r.dc.ClosePath()
		}
	}
	return true
}
