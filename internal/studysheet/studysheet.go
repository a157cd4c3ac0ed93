package studysheet

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/hanweng/lingtutor/internal/history"
)

// Generator turns saved lessons into a study sheet: one markdown
// document plus a rendered HTML page, newest lesson first.
type Generator struct {
	OutputDir string
	Title     string
}

// NewGenerator creates a study sheet generator writing into outputDir.
func NewGenerator(outputDir, title string) *Generator {
	if title == "" {
		title = "Mandarin Study Sheet"
	}
	return &Generator{OutputDir: outputDir, Title: title}
}

// Generate writes studysheet.md and studysheet.html from the given
// lessons. Returns the number of lessons included.
func (g *Generator) Generate(lessons []history.Lesson) (int, error) {
	if len(lessons) == 0 {
		return 0, fmt.Errorf("no saved lessons to export")
	}

	md := g.buildMarkdown(lessons)

	if err := os.MkdirAll(g.OutputDir, 0o755); err != nil {
		return 0, err
	}
	if err := os.WriteFile(filepath.Join(g.OutputDir, "studysheet.md"), []byte(md), 0o644); err != nil {
		return 0, fmt.Errorf("writing markdown: %w", err)
	}

	page, err := renderHTML(g.Title, md)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(filepath.Join(g.OutputDir, "studysheet.html"), page, 0o644); err != nil {
		return 0, fmt.Errorf("writing html: %w", err)
	}

	return len(lessons), nil
}

func (g *Generator) buildMarkdown(lessons []history.Lesson) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", g.Title)
	fmt.Fprintf(&b, "%d saved lessons.\n\n", len(lessons))

	for i, l := range lessons {
		fmt.Fprintf(&b, "## Lesson %d — %s\n\n", i+1, l.CreatedAt.Format("2006-01-02"))
		fmt.Fprintf(&b, "**Situation:** %s\n\n", firstLine(l.Context))
		fmt.Fprintf(&b, "**You wanted to say:** %s\n\n", l.StatedIntent)
		if l.UserClarification != "" {
			fmt.Fprintf(&b, "**Clarified as:** %s\n\n", l.UserClarification)
		}

		fmt.Fprintf(&b, "### Corrected\n\n> %s\n\n", l.Corrected)
		if l.CorrectedNotes != "" {
			fmt.Fprintf(&b, "%s\n\n", l.CorrectedNotes)
		}

		if l.Alternative1 != "" {
			fmt.Fprintf(&b, "### Alternatives\n\n")
			fmt.Fprintf(&b, "1. %s", l.Alternative1)
			if l.Alternative1Notes != "" {
				fmt.Fprintf(&b, " — %s", l.Alternative1Notes)
			}
			b.WriteString("\n")
			if l.Alternative2 != "" {
				fmt.Fprintf(&b, "2. %s", l.Alternative2)
				if l.Alternative2Notes != "" {
					fmt.Fprintf(&b, " — %s", l.Alternative2Notes)
				}
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}

		if l.Rating > 0 {
			fmt.Fprintf(&b, "_You rated this lesson %d/5._\n\n", l.Rating)
		}
	}

	return b.String()
}

// firstLine trims a merged context down to its original first line so
// the sheet stays scannable; the clarifications are shown separately.
func firstLine(s string) string {
	if idx := strings.Index(s, "\n"); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return s
}

func renderHTML(title, md string) ([]byte, error) {
	converter := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)

	var body bytes.Buffer
	if err := converter.Convert([]byte(md), &body); err != nil {
		return nil, fmt.Errorf("converting markdown: %w", err)
	}

	tmpl, err := template.New("studysheet").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing page template: %w", err)
	}

	var page bytes.Buffer
	err = tmpl.Execute(&page, struct {
		Title   string
		Content template.HTML
	}{Title: title, Content: template.HTML(body.String())})
	if err != nil {
		return nil, fmt.Errorf("rendering page: %w", err)
	}

	return page.Bytes(), nil
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.6; color: #222; }
h1 { border-bottom: 2px solid #c0392b; padding-bottom: .3rem; }
h2 { margin-top: 2.5rem; }
blockquote { margin: 0; padding: .5rem 1rem; background: #f6f6f6; border-left: 4px solid #c0392b; font-size: 1.15rem; }
em { color: #777; }
</style>
</head>
<body>
{{.Content}}
</body>
</html>
`
