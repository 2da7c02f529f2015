package room

import (
	"fmt"
	"io"

	"github.com/drawroom/drawroom/internal/geometry"
	"github.com/drawroom/drawroom/internal/render"
	"github.com/drawroom/drawroom/internal/shape"
)

// exportPadding keeps strokes at the scene edge off the page border.
const exportPadding = 24

type Format string

const (
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
)

func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "image/png"
}

// Exporter renders whole scenes to files of a fixed canvas size.
type Exporter struct {
	Width  int
	Height int
}

// fit scales the scene down to the canvas when it does not fit as drawn.
func (e Exporter) fit(shapes []shape.Shape) geometry.Matrix {
	bounds := shape.BoundsAll(shapes)
	w, h := float64(e.Width), float64(e.Height)
	if bounds.X >= 0 && bounds.Y >= 0 && bounds.X+bounds.Width <= w && bounds.Y+bounds.Height <= h {
		return geometry.Identity()
	}
	return geometry.Fit(bounds, w, h, exportPadding)
}

func (e Exporter) Export(w io.Writer, format Format, shapes []shape.Shape) error {
	switch format {
	case FormatPNG:
		return e.PNG(w, shapes)
	case FormatPDF:
		return e.PDF(w, shapes)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// PNG rasterizes the scene at Width x Height, scaled down to fit when it
// is larger than the canvas.
func (e Exporter) PNG(w io.Writer, shapes []shape.Shape) error {
	raster, err := render.NewRaster(e.Width, e.Height)
	if err != nil {
		return fmt.Errorf("create raster: %w", err)
	}
	defer raster.Close()

	render.Redraw(render.Transformed(raster, e.fit(shapes)), shapes)
	if err := raster.Err(); err != nil {
		return fmt.Errorf("render scene: %w", err)
	}
	return raster.EncodePNG(w)
}

// PDF writes a single vector page of Width x Height points.
func (e Exporter) PDF(w io.Writer, shapes []shape.Shape) error {
	pdf := render.NewPDF(float64(e.Width), float64(e.Height))
	render.Redraw(render.Transformed(pdf, e.fit(shapes)), shapes)
	return pdf.Output(w)
}
