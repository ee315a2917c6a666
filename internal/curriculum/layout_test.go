package curriculum

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

type textOp struct {
	x, y float64
	text string
}

type rectOp struct {
	x, y, w, h float64
}

// recordingCanvas captures draw calls instead of producing a PDF. SplitText
// splits on newlines only, so tests control wrapped line counts explicitly.
type recordingCanvas struct {
	pages int
	texts []textOp
	rects []rectOp
	lines int
}

func newRecordingCanvas() *recordingCanvas {
	return &recordingCanvas{pages: 1}
}

func (r *recordingCanvas) AddPage()                      { r.pages++ }
func (r *recordingCanvas) SetFont(string, float64)       {}
func (r *recordingCanvas) SetTextColor(int, int, int)    {}
func (r *recordingCanvas) SetFillColor(int, int, int)    {}
func (r *recordingCanvas) SetDrawColor(int, int, int)    {}
func (r *recordingCanvas) SetLineWidth(float64)          {}
func (r *recordingCanvas) Line(_, _, _, _ float64)       { r.lines++ }
func (r *recordingCanvas) Output() ([]byte, error)       { return nil, nil }

func (r *recordingCanvas) Text(x, y float64, txt string) {
	r.texts = append(r.texts, textOp{x: x, y: y, text: txt})
}

func (r *recordingCanvas) FillRect(x, y, w, h float64) {
	r.rects = append(r.rects, rectOp{x: x, y: y, w: w, h: h})
}

func (r *recordingCanvas) SplitText(txt string, _ float64) []string {
	return strings.Split(txt, "\n")
}

func (r *recordingCanvas) countText(s string) int {
	n := 0
	for _, op := range r.texts {
		if op.text == s {
			n++
		}
	}
	return n
}

func (r *recordingCanvas) textIndex(s string) int {
	for i, op := range r.texts {
		if op.text == s {
			return i
		}
	}
	return -1
}

var generatedAt = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func emptyData(nome string, badges []string) *Data {
	return &Data{
		Profile:      Profile{Nome: nome, Badges: badges},
		Experience:   []Experience{},
		Education:    []Education{},
		Projects:     []Project{},
		Languages:    []Language{},
		Certificates: []Certificate{},
		Publications: []Publication{},
	}
}

func TestRenderDocument_EmptyCollectionsShowPlaceholders(t *testing.T) {
	c := newRecordingCanvas()
	RenderDocument(c, emptyData("Ana Silva", []string{"Python", "SQL"}), generatedAt)

	if got := c.countText("ANA SILVA"); got != 1 {
		t.Fatalf("expected uppercase name once, got %d", got)
	}
	if got := c.countText("• Python   • SQL"); got != 1 {
		t.Fatalf("expected joined badge line once, got %d", got)
	}
	if got := c.countText(placeholderText); got != 6 {
		t.Fatalf("expected one placeholder per empty collection (6), got %d", got)
	}
	if c.pages != 1 {
		t.Fatalf("expected single page, got %d", c.pages)
	}
}

func TestRenderDocument_SectionOrderIsFixed(t *testing.T) {
	c := newRecordingCanvas()
	RenderDocument(c, emptyData("Ana Silva", nil), generatedAt)

	order := []string{
		"COMPETÊNCIAS",
		"EXPERIÊNCIA PROFISSIONAL",
		"FORMAÇÃO ACADÊMICA",
		"PROJETOS",
		"IDIOMAS",
		"CERTIFICADOS",
		"PUBLICAÇÕES",
	}
	prev := -1
	for _, title := range order {
		idx := c.textIndex(title)
		if idx < 0 {
			t.Fatalf("section title %q not rendered", title)
		}
		if idx <= prev {
			t.Fatalf("section %q rendered out of order", title)
		}
		prev = idx
	}

	last := c.texts[len(c.texts)-1]
	if last.text != "Gerado em: 01/09/2026" {
		t.Fatalf("expected generation date as final text, got %q", last.text)
	}
	if c.texts[len(c.texts)-2].text != attributionText {
		t.Fatalf("expected attribution before the date, got %q", c.texts[len(c.texts)-2].text)
	}
}

func TestRenderDocument_ItemCountsMatchCollections(t *testing.T) {
	data := emptyData("Ana Silva", nil)
	data.Experience = []Experience{
		{Cargo: "Pesquisadora", Empresa: "USP", Periodo: "2020 - 2023"},
		{Cargo: "Estagiária", Empresa: "UFRJ"},
	}
	data.Languages = []Language{
		{Idioma: "Inglês", Nivel: "Fluente"},
		{Idioma: "Espanhol", Nivel: "Básico"},
		{Idioma: "Francês", Nivel: "Intermediário"},
	}

	c := newRecordingCanvas()
	RenderDocument(c, data, generatedAt)

	if got := c.countText("Pesquisadora") + c.countText("Estagiária"); got != 2 {
		t.Fatalf("expected 2 experience titles, got %d", got)
	}
	if c.textIndex("Pesquisadora") > c.textIndex("Estagiária") {
		t.Fatal("experience items rendered out of insertion order")
	}
	if got := c.countText("• Inglês") + c.countText("• Espanhol") + c.countText("• Francês"); got != 3 {
		t.Fatalf("expected 3 language bullets, got %d", got)
	}
	// Experience and languages filled; badges, education, projects,
	// certificates and publications still empty.
	if got := c.countText(placeholderText); got != 5 {
		t.Fatalf("expected 5 placeholders, got %d", got)
	}
}

func TestRenderDocument_BioWrapPushesFirstSection(t *testing.T) {
	withoutBio := newRecordingCanvas()
	RenderDocument(withoutBio, emptyData("Ana Silva", nil), generatedAt)

	data := emptyData("Ana Silva", nil)
	data.Profile.Bio = "linha um\nlinha dois\nlinha três"
	withBio := newRecordingCanvas()
	RenderDocument(withBio, data, generatedAt)

	// Three wrapped bio lines at 5mm each plus the 15mm gap.
	baseBand := withoutBio.rects[1]
	bioBand := withBio.rects[1]
	if delta := bioBand.y - baseBand.y; delta != 3*5+15 {
		t.Fatalf("expected first section band pushed down by 30mm, got %v", delta)
	}
}

func TestRenderDocument_PageBreakBeforeTwoColumnRegion(t *testing.T) {
	data := emptyData("Ana Silva", nil)
	for i := 0; i < 12; i++ {
		data.Experience = append(data.Experience, Experience{Cargo: "Cargo", Empresa: "Empresa"})
	}

	c := newRecordingCanvas()
	RenderDocument(c, data, generatedAt)

	if c.pages != 2 {
		t.Fatalf("expected page break before two-column region, got %d pages", c.pages)
	}

	idiomas := c.texts[c.textIndex("IDIOMAS")]
	// Fresh page: the column header band starts 15mm below the top margin.
	if idiomas.y != topMargin+15 {
		t.Fatalf("expected IDIOMAS at y=%v after page break, got %v", topMargin+15, idiomas.y)
	}
}

func TestRenderDocument_TechnologiesLine(t *testing.T) {
	data := emptyData("Ana Silva", nil)
	data.Projects = []Project{{
		Titulo:      "Atlas",
		Status:      "Em andamento",
		Tecnologias: TechnologiesList{"React", "Node.js"},
	}}

	c := newRecordingCanvas()
	RenderDocument(c, data, generatedAt)

	if got := c.countText("Tecnologias: React, Node.js"); got != 1 {
		t.Fatalf("expected technologies line once, got %d", got)
	}
	if got := c.countText("[Em andamento]"); got != 1 {
		t.Fatalf("expected status tag once, got %d", got)
	}
}

func TestRenderDocument_Deterministic(t *testing.T) {
	data := emptyData("Ana Silva", []string{"Python"})
	data.Certificates = []Certificate{{Titulo: "AWS", Instituicao: "Amazon"}}

	first := newRecordingCanvas()
	RenderDocument(first, data, generatedAt)
	second := newRecordingCanvas()
	RenderDocument(second, data, generatedAt)

	if first.pages != second.pages {
		t.Fatalf("page counts differ: %d vs %d", first.pages, second.pages)
	}
	if !reflect.DeepEqual(first.texts, second.texts) {
		t.Fatal("text operations differ between identical renders")
	}
	if !reflect.DeepEqual(first.rects, second.rects) {
		t.Fatal("rect operations differ between identical renders")
	}
}

func TestGenerate_ProducesPDFBytes(t *testing.T) {
	data := emptyData("Ana Silva", []string{"Python", "SQL"})
	pdfBytes, err := Generate(data, generatedAt)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(pdfBytes) == 0 {
		t.Fatal("expected non-empty pdf output")
	}
	if !strings.HasPrefix(string(pdfBytes[:5]), "%PDF-") {
		t.Fatalf("expected pdf magic header, got %q", pdfBytes[:5])
	}
}
