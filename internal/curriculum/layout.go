package curriculum

import (
	"strings"
	"time"
)

// Layout constants, A4 portrait in millimetres. These are fixed so identical
// input always yields an identical document.
const (
	leftMargin   = 20.0
	itemIndent   = 25.0
	contentWidth = 170.0
	descWidth    = 165.0
	periodX      = 140.0

	leftColumnX  = 20.0
	rightColumnX = 110.0
	columnWidth  = 80.0

	topMargin  = 20.0
	breakLimit = 250.0
	footerY    = 285.0
)

type rgb struct{ r, g, b int }

var (
	colorHeading = rgb{33, 37, 41}
	colorDark    = rgb{52, 58, 64}
	colorPrimary = rgb{108, 117, 125}
	colorLight   = rgb{108, 117, 125}
	colorNoData  = rgb{220, 53, 69}
	colorBand    = rgb{248, 249, 250}
)

const (
	placeholderText = "Não há informações cadastradas"
	attributionText = "Currículo gerado pelo Atlas Acadêmico"
)

// Generate renders data into a finished PDF. The generation date is injected
// so the caller (and tests) control the only non-deterministic input.
func Generate(data *Data, generatedAt time.Time) ([]byte, error) {
	canvas := NewPDFCanvas()
	RenderDocument(canvas, data, generatedAt)
	return canvas.Output()
}

// RenderDocument draws the whole curriculum onto the canvas: header band,
// the four full-width sections, the Idiomas/Certificados two-column region,
// Publicações and the footer. Empty collections render the placeholder line
// instead of being omitted.
func RenderDocument(c Canvas, data *Data, generatedAt time.Time) {
	y := renderHeader(c, data.Profile)

	y = renderBadges(c, data.Profile.Badges, y)
	y = renderExperience(c, data.Experience, y)
	y = renderEducation(c, data.Education, y)
	y = renderProjects(c, data.Projects, y)

	// The break check happens only here, at a fixed threshold; the full-width
	// loops above never paginate on their own.
	if y > breakLimit {
		c.AddPage()
		y = topMargin
	}

	leftY := renderLanguages(c, data.Languages, y)
	rightY := renderCertificates(c, data.Certificates, y)

	y = max(leftY, rightY) + 15
	renderPublications(c, data.Publications, y)

	renderFooter(c, generatedAt)
}

func renderHeader(c Canvas, profile Profile) float64 {
	setFill(c, colorBand)
	c.FillRect(0, 0, 210, 35)

	setText(c, colorHeading)
	c.SetFont("B", 22)
	c.Text(leftMargin, 25, strings.ToUpper(profile.Nome))

	y := 45.0

	if profile.Bio != "" {
		setText(c, colorDark)
		c.SetFont("", 11)
		lines := c.SplitText(profile.Bio, contentWidth)
		drawLines(c, leftMargin, y, lines, 5)
		y += float64(len(lines))*5 + 15
	}
	return y
}

func renderBadges(c Canvas, badges []string, y float64) float64 {
	y = sectionHeader(c, "COMPETÊNCIAS", y)
	if len(badges) == 0 {
		return noData(c, y)
	}

	parts := make([]string, 0, len(badges))
	for _, badge := range badges {
		parts = append(parts, "• "+badge)
	}

	c.SetFont("", 10)
	setText(c, colorDark)
	lines := c.SplitText(strings.Join(parts, "   "), contentWidth)
	drawLines(c, itemIndent, y, lines, 5)
	return y + float64(len(lines))*5 + 15
}

func renderExperience(c Canvas, items []Experience, y float64) float64 {
	y = sectionHeader(c, "EXPERIÊNCIA PROFISSIONAL", y)
	if len(items) == 0 {
		return noData(c, y)
	}

	for _, exp := range items {
		c.SetFont("B", 12)
		setText(c, colorDark)
		c.Text(itemIndent, y, exp.Cargo)

		c.SetFont("B", 10)
		setText(c, colorPrimary)
		c.Text(itemIndent, y+6, exp.Empresa)

		if exp.Periodo != "" {
			c.SetFont("I", 10)
			setText(c, colorLight)
			c.Text(periodX, y+6, exp.Periodo)
		}

		y += 12

		if exp.Descricao != "" {
			c.SetFont("", 9)
			setText(c, colorDark)
			lines := c.SplitText(exp.Descricao, descWidth)
			drawLines(c, itemIndent, y, lines, 4)
			y += float64(len(lines))*4 + 8
		}

		y += 5
	}
	return y
}

func renderEducation(c Canvas, items []Education, y float64) float64 {
	y = sectionHeader(c, "FORMAÇÃO ACADÊMICA", y)
	if len(items) == 0 {
		return noData(c, y)
	}

	for _, edu := range items {
		c.SetFont("B", 12)
		setText(c, colorDark)
		c.Text(itemIndent, y, edu.Curso)

		c.SetFont("B", 10)
		setText(c, colorPrimary)
		c.Text(itemIndent, y+6, edu.Instituicao)

		if edu.Periodo != "" {
			c.SetFont("I", 10)
			setText(c, colorLight)
			c.Text(periodX, y+6, edu.Periodo)
		}

		if edu.Grau != "" {
			c.SetFont("", 9)
			setText(c, colorDark)
			c.Text(itemIndent, y+12, "Grau: "+edu.Grau)
			y += 6
		}

		y += 20
	}
	return y
}

func renderProjects(c Canvas, items []Project, y float64) float64 {
	y = sectionHeader(c, "PROJETOS", y)
	if len(items) == 0 {
		return noData(c, y)
	}

	for _, proj := range items {
		c.SetFont("B", 11)
		setText(c, colorDark)
		c.Text(itemIndent, y, proj.Titulo)

		if proj.Status != "" {
			c.SetFont("I", 9)
			setText(c, colorPrimary)
			c.Text(periodX, y, "["+proj.Status+"]")
		}

		y += 8

		if proj.Descricao != "" {
			c.SetFont("", 9)
			setText(c, colorDark)
			lines := c.SplitText(proj.Descricao, descWidth)
			drawLines(c, itemIndent, y, lines, 4)
			y += float64(len(lines))*4 + 3
		}

		if len(proj.Tecnologias) > 0 {
			c.SetFont("I", 8)
			setText(c, colorLight)
			c.Text(itemIndent, y, "Tecnologias: "+proj.Tecnologias.Join())
			y += 5
		}

		y += 8
	}
	return y
}

func renderLanguages(c Canvas, items []Language, y float64) float64 {
	y = columnHeader(c, "IDIOMAS", y, leftColumnX)
	if len(items) == 0 {
		return columnNoData(c, y, leftColumnX)
	}

	for _, lang := range items {
		c.SetFont("", 10)
		setText(c, colorDark)
		c.Text(leftColumnX+5, y, "• "+lang.Idioma)

		c.SetFont("B", 10)
		setText(c, colorPrimary)
		c.Text(leftColumnX+60, y, lang.Nivel)

		y += 8
	}
	return y
}

func renderCertificates(c Canvas, items []Certificate, y float64) float64 {
	y = columnHeader(c, "CERTIFICADOS", y, rightColumnX)
	if len(items) == 0 {
		return columnNoData(c, y, rightColumnX)
	}

	for _, cert := range items {
		c.SetFont("B", 9)
		setText(c, colorDark)
		lines := c.SplitText(cert.Titulo, columnWidth)
		drawLines(c, rightColumnX+5, y, lines, 4)
		y += float64(len(lines)) * 4

		c.SetFont("", 8)
		setText(c, colorLight)
		c.Text(rightColumnX+5, y, cert.Instituicao)

		y += 12
	}
	return y
}

func renderPublications(c Canvas, items []Publication, y float64) float64 {
	y = sectionHeader(c, "PUBLICAÇÕES", y)
	if len(items) == 0 {
		return noData(c, y)
	}

	for _, pub := range items {
		c.SetFont("B", 10)
		setText(c, colorDark)
		lines := c.SplitText(pub.Titulo, contentWidth)
		drawLines(c, itemIndent, y, lines, 4)
		y += float64(len(lines))*4 + 3

		c.SetFont("", 9)
		setText(c, colorPrimary)
		c.Text(itemIndent, y, pub.Autores)
		y += 5

		if pub.Revista != "" {
			c.SetFont("I", 9)
			setText(c, colorLight)
			c.Text(itemIndent, y, pub.Revista)
			y += 5
		}

		y += 8
	}
	return y
}

func renderFooter(c Canvas, generatedAt time.Time) {
	c.SetFont("I", 8)
	setText(c, colorLight)
	c.Text(leftMargin, footerY, attributionText)
	c.Text(periodX, footerY, "Gerado em: "+generatedAt.Format("02/01/2006"))
}

// sectionHeader draws the shaded full-width band with its title and rule,
// returning the cursor just below it.
func sectionHeader(c Canvas, title string, y float64) float64 {
	y += 15

	setFill(c, colorBand)
	c.FillRect(15, y-8, 180, 12)

	c.SetFont("B", 12)
	setText(c, colorPrimary)
	c.Text(leftMargin, y, title)

	setDraw(c, colorPrimary)
	c.SetLineWidth(0.5)
	c.Line(leftMargin, y+2, 190, y+2)

	return y + 12
}

// columnHeader is the narrower variant used inside the two-column region.
func columnHeader(c Canvas, title string, y, x float64) float64 {
	y += 15

	setFill(c, colorBand)
	c.FillRect(x-5, y-8, 85, 12)

	c.SetFont("B", 11)
	setText(c, colorPrimary)
	c.Text(x, y, title)

	setDraw(c, colorPrimary)
	c.SetLineWidth(0.5)
	c.Line(x, y+2, x+columnWidth, y+2)

	return y + 12
}

func noData(c Canvas, y float64) float64 {
	c.SetFont("I", 9)
	setText(c, colorNoData)
	c.Text(itemIndent, y, placeholderText)
	return y + 15
}

func columnNoData(c Canvas, y, x float64) float64 {
	c.SetFont("I", 9)
	setText(c, colorNoData)
	c.Text(x+5, y, placeholderText)
	return y + 15
}

func drawLines(c Canvas, x, y float64, lines []string, lineHeight float64) {
	for i, line := range lines {
		c.Text(x, y+float64(i)*lineHeight, line)
	}
}

func setText(c Canvas, color rgb) { c.SetTextColor(color.r, color.g, color.b) }
func setFill(c Canvas, color rgb) { c.SetFillColor(color.r, color.g, color.b) }
func setDraw(c Canvas, color rgb) { c.SetDrawColor(color.r, color.g, color.b) }
