package curriculum

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
)

// Canvas is the drawing surface the layout engine renders onto. It exposes
// only the primitives the document grammar needs, so tests can substitute a
// recording implementation.
type Canvas interface {
	AddPage()
	SetFont(style string, size float64)
	SetTextColor(r, g, b int)
	SetFillColor(r, g, b int)
	SetDrawColor(r, g, b int)
	SetLineWidth(width float64)
	Text(x, y float64, txt string)
	FillRect(x, y, w, h float64)
	Line(x1, y1, x2, y2 float64)
	SplitText(txt string, width float64) []string
	Output() ([]byte, error)
}

// PDFCanvas backs Canvas with an A4 portrait fpdf document in millimetres,
// Helvetica throughout.
type PDFCanvas struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

// NewPDFCanvas creates the document with its first page already open.
func NewPDFCanvas() *PDFCanvas {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	return &PDFCanvas{
		pdf: pdf,
		// Core fonts are cp1252; translate so Portuguese accents survive.
		tr: pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

func (c *PDFCanvas) AddPage() { c.pdf.AddPage() }

func (c *PDFCanvas) SetFont(style string, size float64) {
	c.pdf.SetFont("Helvetica", style, size)
}

func (c *PDFCanvas) SetTextColor(r, g, b int) { c.pdf.SetTextColor(r, g, b) }
func (c *PDFCanvas) SetFillColor(r, g, b int) { c.pdf.SetFillColor(r, g, b) }
func (c *PDFCanvas) SetDrawColor(r, g, b int) { c.pdf.SetDrawColor(r, g, b) }
func (c *PDFCanvas) SetLineWidth(w float64)   { c.pdf.SetLineWidth(w) }

func (c *PDFCanvas) Text(x, y float64, txt string) {
	c.pdf.Text(x, y, c.tr(txt))
}

func (c *PDFCanvas) FillRect(x, y, w, h float64) {
	c.pdf.Rect(x, y, w, h, "F")
}

func (c *PDFCanvas) Line(x1, y1, x2, y2 float64) {
	c.pdf.Line(x1, y1, x2, y2)
}

// SplitText wraps txt greedily to the given width using the current font.
// The returned lines stay UTF-8; translation happens at draw time.
func (c *PDFCanvas) SplitText(txt string, width float64) []string {
	var lines []string
	for _, paragraph := range strings.Split(txt, "\n") {
		lines = append(lines, c.wrapParagraph(paragraph, width)...)
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	return lines
}

func (c *PDFCanvas) wrapParagraph(paragraph string, width float64) []string {
	words := strings.Fields(paragraph)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if c.pdf.GetStringWidth(c.tr(candidate)) <= width {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
	}
	return append(lines, current)
}

// Output serializes the document to PDF bytes.
func (c *PDFCanvas) Output() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("serialize pdf: %w", err)
	}
	return buf.Bytes(), nil
}
