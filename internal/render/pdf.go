package render

import (
	"image/color"
	"io"

	"github.com/gogpu/gg"
	"github.com/jung-kurt/gofpdf"
)

// PDF is a vector Surface producing a single-page document. One canvas
// pixel maps to one point.
type PDF struct {
	doc           *gofpdf.Fpdf
	width, height float64
}

func NewPDF(width, height float64) *PDF {
	doc := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: width, Ht: height},
	})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.AddPage()
	return &PDF{doc: doc, width: width, height: height}
}

// Clear paints the background over the whole page. PDF content cannot be
// erased, so a repaint stacks on top of the previous one.
func (p *PDF) Clear(background string) {
	r, g, b := rgb(background)
	p.doc.SetFillColor(r, g, b)
	p.doc.Rect(0, 0, p.width, p.height, "F")
}

func (p *PDF) StrokePath(path []PathCommand, style Style) {
	if len(path) == 0 {
		return
	}
	r, g, b := rgb(style.Color)
	p.doc.SetDrawColor(r, g, b)
	p.doc.SetLineWidth(style.LineWidth)
	p.tracePath(path)
	p.doc.DrawPath("D")
}

func (p *PDF) FillPath(path []PathCommand, style Style) {
	if len(path) == 0 {
		return
	}
	r, g, b := rgb(style.Color)
	p.doc.SetFillColor(r, g, b)
	p.tracePath(path)
	p.doc.DrawPath("F")
}

func (p *PDF) FillText(text string, x, y float64, style Style) {
	r, g, b := rgb(style.Color)
	p.doc.SetTextColor(r, g, b)
	p.doc.SetFont("Helvetica", "", style.FontSize)
	p.doc.Text(x, y, text)
}

// Output writes the document and reports any error gofpdf accumulated.
func (p *PDF) Output(w io.Writer) error {
	return p.doc.Output(w)
}

func (p *PDF) tracePath(path []PathCommand) {
	for _, cmd := range path {
		a := cmd.Args
		switch cmd.Op {
		case "M":
			p.doc.MoveTo(a[0], a[1])
		case "L":
			p.doc.LineTo(a[0], a[1])
		case "C":
			p.doc.CurveBezierCubicTo(a[0], a[1], a[2], a[3], a[4], a[5])
		case "Z":
			p.doc.ClosePath()
		}
	}
}

func rgb(hex string) (int, int, int) {
	c := color.NRGBAModel.Convert(gg.Hex(hex).Color()).(color.NRGBA)
	return int(c.R), int(c.G), int(c.B)
}
