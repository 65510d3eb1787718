package pdf

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/playwright-community/playwright-go"

	"go-openclaw-applier/internal/models"
)

//go:embed templates/resume.html
var templates embed.FS

// PageSource hands out a blank page plus the func that releases it.
type PageSource interface {
	Page() (playwright.Page, func(), error)
}

// Generator converts Resume documents into PDF files.
type Generator struct {
	pages PageSource
	tmpl  *template.Template
}

// NewGenerator parses the HTML template at templatePath, or the built-in
// layout when templatePath is empty.
func NewGenerator(pages PageSource, templatePath string) (*Generator, error) {
	funcMap := template.FuncMap{
		"join": strings.Join,
	}

	var (
		tmpl *template.Template
		err  error
	)
	if templatePath == "" {
		tmpl, err = template.New("resume.html").Funcs(funcMap).ParseFS(templates, "templates/resume.html")
	} else {
		tmpl, err = template.New(filepath.Base(templatePath)).Funcs(funcMap).ParseFiles(templatePath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return &Generator{pages: pages, tmpl: tmpl}, nil
}

// RenderHTML executes the template without touching the browser.
func (g *Generator) RenderHTML(resume *models.Resume) (string, error) {
	var buf bytes.Buffer
	if err := g.tmpl.Execute(&buf, resume); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// Generate renders the resume through the template and prints it to an A4 PDF.
func (g *Generator) Generate(resume *models.Resume) ([]byte, error) {
	html, err := g.RenderHTML(resume)
	if err != nil {
		return nil, err
	}

	page, release, err := g.pages.Page()
	if err != nil {
		return nil, fmt.Errorf("could not create new page: %w", err)
	}
	defer release()

	if err := page.SetContent(html, playwright.PageSetContentOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	}); err != nil {
		return nil, fmt.Errorf("could not set page content: %w", err)
	}

	out, err := page.PDF(playwright.PagePdfOptions{
		Format:          playwright.String("A4"),
		PrintBackground: playwright.Bool(true),
		Margin: &playwright.Margin{
			Top:    playwright.String("0"),
			Bottom: playwright.String("0"),
			Left:   playwright.String("0"),
			Right:  playwright.String("0"),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("could not generate PDF: %w", err)
	}
	return out, nil
}

func SaveToFile(pdfBytes []byte, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("could not create directory: %w", err)
	}
	return os.WriteFile(outputPath, pdfBytes, 0o644)
}
