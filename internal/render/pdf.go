package render

import (
	"fmt"
	"image/color"
	"io"

	"collabcanvas/internal/geometry"

	"github.com/jung-kurt/gofpdf"
)

// PDFSurface renders frames as pages of a PDF document, one point per
// screen unit. Each Reset after the first frame starts a new page.
type PDFSurface struct {
	pdf           *gofpdf.Fpdf
	width, height float64
	pages         int
	transformed   bool
}

func NewPDFSurface(width, height float64) *PDFSurface {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: width, Ht: height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetLineCapStyle("round")
	pdf.SetLineJoinStyle("round")
	return &PDFSurface{pdf: pdf, width: width, height: height}
}

func (p *PDFSurface) Size() (float64, float64) { return p.width, p.height }

func (p *PDFSurface) Reset() {
	if p.transformed {
		p.pdf.TransformEnd()
		p.transformed = false
	}
	p.pdf.AddPage()
	p.pages++
}

func (p *PDFSurface) FillBackground() {
	p.pdf.SetAlpha(1, "Normal")
	top, bottom := BackgroundTop, BackgroundBottom
	p.pdf.LinearGradient(0, 0, p.width, p.height,
		int(top.R), int(top.G), int(top.B),
		int(bottom.R), int(bottom.G), int(bottom.B),
		0, 0, 1, 1)
}

func (p *PDFSurface) Transform(offset geometry.Point, zoom float64) {
	p.pdf.TransformBegin()
	p.pdf.TransformTranslate(offset.X, offset.Y)
	p.pdf.TransformScale(zoom*100, zoom*100, 0, 0)
	p.transformed = true
}

func (p *PDFSurface) FillCircle(center geometry.Point, radius float64, c color.Color) {
	p.fill(c)
	p.pdf.Circle(center.X, center.Y, radius, "F")
}

func (p *PDFSurface) StrokeCircle(center geometry.Point, radius float64, c color.Color, width float64) {
	p.stroke(c, width)
	p.pdf.Circle(center.X, center.Y, radius, "D")
}

func (p *PDFSurface) StrokeRect(x, y, w, h float64, c color.Color, width float64) {
	p.stroke(c, width)
	p.pdf.Rect(x, y, w, h, "D")
}

func (p *PDFSurface) Polyline(points []geometry.Point, c color.Color, width float64) {
	if len(points) < 2 {
		return
	}
	p.stroke(c, width)
	p.pdf.MoveTo(points[0].X, points[0].Y)
	for _, pt := range points[1:] {
		p.pdf.LineTo(pt.X, pt.Y)
	}
	p.pdf.DrawPath("D")
}

func (p *PDFSurface) FillPolygon(points []geometry.Point, c color.Color) {
	p.fill(c)
	pts := make([]gofpdf.PointType, len(points))
	for i, pt := range points {
		pts[i] = gofpdf.PointType{X: pt.X, Y: pt.Y}
	}
	p.pdf.Polygon(pts, "F")
}

func (p *PDFSurface) Text(at geometry.Point, text string, size float64, c color.Color) {
	r, g, b, a := rgba(c)
	p.pdf.SetAlpha(a, "Normal")
	p.pdf.SetTextColor(r, g, b)
	p.pdf.SetFont("Helvetica", "", size)
	p.pdf.Text(at.X, at.Y, text)
}

// Pages reports how many frames were drawn.
func (p *PDFSurface) Pages() int { return p.pages }

// WriteTo closes the document and writes it to w.
func (p *PDFSurface) WriteTo(w io.Writer) error {
	if p.transformed {
		p.pdf.TransformEnd()
		p.transformed = false
	}
	if err := p.pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func (p *PDFSurface) fill(c color.Color) {
	r, g, b, a := rgba(c)
	p.pdf.SetAlpha(a, "Normal")
	p.pdf.SetFillColor(r, g, b)
}

func (p *PDFSurface) stroke(c color.Color, width float64) {
	r, g, b, a := rgba(c)
	p.pdf.SetAlpha(a, "Normal")
	p.pdf.SetDrawColor(r, g, b)
	p.pdf.SetLineWidth(width)
}

func rgba(c color.Color) (r, g, b int, alpha float64) {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return int(n.R), int(n.G), int(n.B), float64(n.A) / 255
}
