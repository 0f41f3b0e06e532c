package rendering

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/jonathan/proposal-builder/internal/types"
)

const (
	fontFamily     = "NotoSerif"
	coreFontFamily = "Times"

	pageMargin    = 15.0
	bodyLineH     = 6.0
	tableRowH     = 8.0
	tocRowH       = 10.0
	logoWidth     = 120.0
	logoY         = 20.0
	chartX        = 30.0
	chartWidth    = 150.0
	titleBannerY  = 100.0
	dateFromFloor = 30.0
)

var (
	// Column widths of the pricing breakdown table: requirement, hours, cost, notes.
	pricingCols = [4]float64{40, 25, 35, 80}
	// Column widths of the table of contents; the page column takes the rest.
	tocCols = [2]float64{15, 120}
)

// Options configures a Renderer. Empty paths disable the asset, except that
// an empty FontPath selects the built-in Times font.
type Options struct {
	FontPath  string
	LogoPath  string
	ChartPath string
	// Now supplies the title page date; defaults to time.Now.
	Now func() time.Time
}

// Renderer produces PDF documents from proposals.
type Renderer struct {
	opts Options
}

// NewRenderer creates a Renderer.
func NewRenderer(opts Options) *Renderer {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Renderer{opts: opts}
}

// RowGeometry is the placement of one pricing table row.
type RowGeometry struct {
	Page   int
	Y      float64
	Height float64
}

// Layout describes where content landed in a rendered document.
type Layout struct {
	TOCPage      int
	SectionPages []int
	PricingRows  []RowGeometry
	PageCount    int
	PageHeight   float64
	BottomMargin float64
}

// Render returns the PDF bytes for p.
func (r *Renderer) Render(p *types.Proposal) ([]byte, error) {
	data, _, err := r.RenderWithLayout(p)
	return data, err
}

// RenderWithLayout renders p and also returns its layout. The document is laid
// out twice: the first pass records the first page of every section, the
// second fills the table of contents with those pages and must land every
// section on the same page, otherwise a *LayoutError is returned.
func (r *Renderer) RenderWithLayout(p *types.Proposal) ([]byte, *Layout, error) {
	if p == nil {
		return nil, nil, &RenderError{Message: "proposal is nil"}
	}
	if err := r.checkFont(); err != nil {
		return nil, nil, err
	}

	date := r.opts.Now().UTC()

	_, recorded, err := r.layout(p, date, nil)
	if err != nil {
		return nil, nil, err
	}

	doc, final, err := r.layout(p, date, recorded.SectionPages)
	if err != nil {
		return nil, nil, err
	}
	for i, page := range final.SectionPages {
		if page != recorded.SectionPages[i] {
			return nil, nil, &LayoutError{Section: p.Sections[i].Title, Recorded: recorded.SectionPages[i], Actual: page}
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, nil, &RenderError{Message: "failed to write PDF", Cause: err}
	}
	return buf.Bytes(), final, nil
}

// RenderToFile renders p and writes it to path through a temporary file in
// the same directory, so a partially written document is never visible.
func (r *Renderer) RenderToFile(p *types.Proposal, path string) error {
	data, err := r.Render(p)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &RenderError{Message: "failed to create temp file", Cause: err}
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return &RenderError{Message: "failed to write temp file", Cause: err}
	}
	if err := tmp.Close(); err != nil {
		return &RenderError{Message: "failed to close temp file", Cause: err}
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return &RenderError{Message: "failed to set file mode", Cause: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return &RenderError{Message: "failed to move document into place", Cause: err}
	}
	return nil
}

func (r *Renderer) checkFont() error {
	if r.opts.FontPath == "" {
		return nil
	}
	info, err := os.Stat(r.opts.FontPath)
	if err != nil {
		return &AssetError{Path: r.opts.FontPath, Message: "font not found", Cause: err}
	}
	if info.IsDir() {
		return &AssetError{Path: r.opts.FontPath, Message: "font path is a directory"}
	}
	return nil
}

// page wraps one document being laid out with its font and text encoding.
type page struct {
	doc    *fpdf.Fpdf
	family string
	tr     func(string) string
}

func (pg *page) font(style string, size float64) {
	pg.doc.SetFont(pg.family, style, size)
}

func (pg *page) cell(w, h float64, text, border string, ln int, align string, fill bool) {
	pg.doc.CellFormat(w, h, pg.tr(text), border, ln, align, fill, 0, "")
}

func (r *Renderer) newDocument(date time.Time) (*page, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetAutoPageBreak(true, pageMargin)
	doc.SetCreationDate(date)
	doc.SetModificationDate(date)
	doc.SetCatalogSort(true)

	pg := &page{doc: doc, family: coreFontFamily, tr: func(s string) string { return s }}
	if r.opts.FontPath != "" {
		for _, style := range []string{"", "B", "I"} {
			doc.AddUTF8Font(fontFamily, style, r.opts.FontPath)
		}
		if err := doc.Error(); err != nil {
			return nil, &AssetError{Path: r.opts.FontPath, Message: "failed to load font", Cause: err}
		}
		pg.family = fontFamily
	} else {
		pg.tr = doc.UnicodeTranslatorFromDescriptor("")
	}

	doc.SetFooterFunc(func() {
		doc.SetY(-pageMargin)
		pg.font("I", 8)
		doc.SetTextColor(100, 100, 100)
		pg.cell(0, 10, fmt.Sprintf("Page %d", doc.PageNo()), "", 0, "C", false)
		doc.SetTextColor(0, 0, 0)
	})
	return pg, nil
}

// layout renders the whole document. tocPages is nil in the first pass,
// which leaves the page column of the table of contents blank.
func (r *Renderer) layout(p *types.Proposal, date time.Time, tocPages []int) (*fpdf.Fpdf, *Layout, error) {
	pg, err := r.newDocument(date)
	if err != nil {
		return nil, nil, err
	}
	doc := pg.doc

	_, pageHeight := doc.GetPageSize()
	lay := &Layout{
		SectionPages: make([]int, 0, len(p.Sections)),
		PageHeight:   pageHeight,
		BottomMargin: pageMargin,
	}

	r.titlePage(pg, p, date)
	lay.TOCPage = r.tocPage(pg, p.Sections, tocPages)

	for _, sec := range p.Sections {
		doc.AddPage()
		lay.SectionPages = append(lay.SectionPages, doc.PageNo())

		pg.font("B", 14)
		pg.cell(0, tableRowH, sec.Title, "", 1, "", false)
		doc.Ln(2)
		pg.font("", 11)

		title := strings.ToLower(sec.Title)
		switch {
		case strings.Contains(title, "pricing"):
			lay.PricingRows = append(lay.PricingRows, r.pricingTables(pg, p.Pricing, pageHeight)...)
			writeBody(pg, sec.Content)
		default:
			writeBody(pg, sec.Content)
			if strings.Contains(title, "solution") {
				r.chart(pg)
			}
		}
		doc.Ln(2)
	}

	if err := doc.Error(); err != nil {
		return nil, nil, &RenderError{Message: "layout failed", Cause: err}
	}
	lay.PageCount = doc.PageCount()
	return doc, lay, nil
}

func (r *Renderer) titlePage(pg *page, p *types.Proposal, date time.Time) {
	doc := pg.doc
	doc.AddPage()

	if fileExists(r.opts.LogoPath) {
		pageWidth, _ := doc.GetPageSize()
		doc.ImageOptions(r.opts.LogoPath, (pageWidth-logoWidth)/2, logoY, logoWidth, 0, false,
			fpdf.ImageOptions{ReadDpi: true}, 0, "")
	}

	doc.SetY(titleBannerY)
	pg.font("B", 38)
	doc.SetTextColor(0, 51, 102)
	pg.cell(0, 30, "PROPOSAL", "", 1, "C", false)
	doc.SetTextColor(0, 0, 0)

	if p.SourceName != "" {
		doc.Ln(10)
		pg.font("", 18)
		pg.cell(0, 16, filepath.Base(p.SourceName), "", 1, "C", false)
	}

	_, pageHeight := doc.GetPageSize()
	doc.SetY(pageHeight - dateFromFloor)
	pg.font("", 16)
	doc.SetTextColor(100, 100, 100)
	pg.cell(0, 10, "Date: "+date.Format("2006-01-02"), "", 1, "C", false)
	doc.SetTextColor(0, 0, 0)
}

func (r *Renderer) tocPage(pg *page, sections []types.Section, pages []int) int {
	doc := pg.doc
	doc.AddPage()
	tocPage := doc.PageNo()

	pg.font("B", 18)
	doc.SetTextColor(0, 51, 102)
	pg.cell(0, 12, "Table of Contents", "", 1, "", false)
	doc.SetTextColor(0, 0, 0)
	doc.Ln(4)

	pg.font("B", 13)
	doc.SetFillColor(220, 220, 220)
	pg.cell(tocCols[0], tocRowH, "S.No", "1", 0, "C", true)
	pg.cell(tocCols[1], tocRowH, "Title", "1", 0, "C", true)
	pg.cell(0, tocRowH, "Pg.No", "1", 1, "C", true)

	pg.font("", 13)
	for i, sec := range sections {
		number, pageNo := "", ""
		if pages != nil {
			number = strconv.Itoa(i + 1)
			pageNo = strconv.Itoa(pages[i])
		}
		pg.cell(tocCols[0], tocRowH, number, "1", 0, "C", false)
		pg.cell(tocCols[1], tocRowH, sec.Title, "1", 0, "", false)
		pg.cell(0, tocRowH, pageNo, "1", 1, "C", false)
	}
	doc.Ln(4)
	return tocPage
}

// pricingTables draws the breakdown and scenario tables and returns the
// geometry of every breakdown row.
func (r *Renderer) pricingTables(pg *page, report *types.PricingReport, pageHeight float64) []RowGeometry {
	if report == nil || len(report.LineItems) == 0 {
		return nil
	}
	doc := pg.doc

	pg.font("B", 12)
	pg.cell(0, tableRowH, "Pricing Breakdown", "", 1, "", false)
	pg.font("", 11)

	doc.SetFillColor(220, 220, 220)
	pg.cell(pricingCols[0], tableRowH, "Requirement", "1", 0, "", true)
	pg.cell(pricingCols[1], tableRowH, "Hours", "1", 0, "", true)
	pg.cell(pricingCols[2], tableRowH, "Cost", "1", 0, "", true)
	pg.cell(pricingCols[3], tableRowH, "Notes", "1", 1, "", true)

	_, top, _, _ := doc.GetMargins()
	pageLines := max(1, int(math.Floor((pageHeight-pageMargin-top)/tableRowH)))

	rows := make([]RowGeometry, 0, len(report.LineItems))
	for _, item := range report.LineItems {
		notes := wrapText(doc, pg.tr(item.Notes), pricingCols[3])
		id, hours, cost := item.RequirementID, strconv.Itoa(item.Hours), types.FormatCurrency(item.Cost)

		// A row moves whole to the next page. Notes taller than a page
		// continue in rows that repeat the requirement id.
		for {
			lines := max(1, len(notes))
			free := int(math.Floor((pageHeight - pageMargin - doc.GetY()) / tableRowH))
			if lines > free && (lines <= pageLines || free < 1) {
				doc.AddPage()
				free = pageLines
			}
			n := min(lines, free)
			rows = append(rows, pricingRow(pg, id, hours, cost, notes[:min(n, len(notes))]))
			notes = notes[min(n, len(notes)):]
			if len(notes) == 0 {
				break
			}
			id, hours, cost = item.RequirementID+" (cont.)", "", ""
		}
	}
	doc.Ln(4)

	pg.font("B", 12)
	pg.cell(0, tableRowH, "Pricing Scenarios", "", 1, "", false)
	pg.font("", 11)
	pg.cell(50, tableRowH, "Scenario", "1", 0, "", true)
	pg.cell(0, tableRowH, "Total Cost", "1", 1, "", true)
	for _, s := range report.Scenarios.Ordered() {
		pg.cell(50, tableRowH, capitalize(s.Name), "1", 0, "", false)
		pg.cell(0, tableRowH, types.FormatCurrency(s.Total), "1", 1, "", false)
	}
	doc.Ln(4)

	return rows
}

// pricingRow draws one breakdown row with a line of notes per table row height.
func pricingRow(pg *page, id, hours, cost string, notes []string) RowGeometry {
	doc := pg.doc
	rowHeight := max(tableRowH, tableRowH*float64(len(notes)))
	x, y := doc.GetX(), doc.GetY()

	pg.cell(pricingCols[0], rowHeight, id, "1", 0, "", false)
	pg.cell(pricingCols[1], rowHeight, hours, "1", 0, "", false)
	pg.cell(pricingCols[2], rowHeight, cost, "1", 0, "", false)

	notesX := doc.GetX()
	doc.CellFormat(pricingCols[3], rowHeight, "", "1", 0, "", false, 0, "")
	for i, line := range notes {
		doc.SetXY(notesX, y+float64(i)*tableRowH)
		doc.CellFormat(pricingCols[3], tableRowH, line, "", 0, "L", false, 0, "")
	}
	doc.SetXY(x, y+rowHeight)
	return RowGeometry{Page: doc.PageNo(), Y: y, Height: rowHeight}
}

func (r *Renderer) chart(pg *page) {
	if !fileExists(r.opts.ChartPath) {
		return
	}
	pg.doc.Ln(4)
	pg.doc.ImageOptions(r.opts.ChartPath, chartX, 0, chartWidth, 0, true,
		fpdf.ImageOptions{ReadDpi: true}, 0, "")
}

// writeBody writes section content. Lines wrapped entirely in ** are set in
// bold; other ** markers are dropped.
func writeBody(pg *page, content string) {
	if content == "" {
		return
	}
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) > 4 && strings.HasPrefix(trimmed, "**") && strings.HasSuffix(trimmed, "**") &&
			!strings.Contains(trimmed[2:len(trimmed)-2], "**") {
			pg.font("B", 11)
			pg.doc.MultiCell(0, bodyLineH, pg.tr(trimmed[2:len(trimmed)-2]), "", "L", false)
			pg.font("", 11)
			continue
		}
		pg.doc.MultiCell(0, bodyLineH, pg.tr(strings.ReplaceAll(line, "**", "")), "", "L", false)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
