// Package markdown renders the guide pages shipped with the frontend.
package markdown

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

var anchorID = regexp.MustCompile(`^[a-z0-9-]+$`)

type TextProcessor struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func New() *TextProcessor {
	md := goldmark.New(
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		// raw html is let through here and removed by the sanitizer
		goldmark.WithRendererOptions(html.WithUnsafe()),
		goldmark.WithExtensions(extension.Strikethrough, extension.Table, extension.Linkify),
	)

	p := bluemonday.UGCPolicy()
	p.AllowAttrs("id").Matching(anchorID).OnElements("h1", "h2", "h3", "h4")
	p.AllowRelativeURLs(true)
	p.RequireNoFollowOnLinks(false)

	return &TextProcessor{md: md, policy: p}
}

// Render converts markdown to sanitized HTML safe to embed in a template.
func (tp *TextProcessor) Render(text string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := tp.md.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	safeHTML := tp.policy.Sanitize(strings.TrimSpace(buf.String()))
	return template.HTML(safeHTML), nil
}

// RenderFile reads and renders a markdown file.
func (tp *TextProcessor) RenderFile(path string) (template.HTML, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return tp.Render(string(data))
}
