// Package render turns Markdown into HTML with highlighted code blocks.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// DefaultStyle is the chroma style used when none is configured.
const DefaultStyle = "github"

// Options configures a Markdown renderer.
type Options struct {
	// Style names a chroma style; unknown names fall back to chroma's default.
	Style string
}

// Markdown renders post bodies and chat answers.
type Markdown struct {
	md        goldmark.Markdown
	formatter *chromahtml.Formatter
	style     *chroma.Style
	policy    *bluemonday.Policy
}

// New creates a Markdown renderer.
func New(opts Options) *Markdown {
	name := opts.Style
	if name == "" {
		name = DefaultStyle
	}
	style := styles.Get(name)
	formatter := chromahtml.New(chromahtml.WithClasses(true))

	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
			renderer.WithNodeRenderers(util.Prioritized(&codeBlockRenderer{
				formatter: formatter,
				style:     style,
			}, 200)),
		),
	)

	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").OnElements("span", "code", "pre", "div")

	return &Markdown{md: md, formatter: formatter, style: style, policy: policy}
}

// Post renders trusted author Markdown. Raw HTML is passed through.
func (m *Markdown) Post(body string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("render: post: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// Answer renders Markdown received from the chat backend. The output is
// sanitized; highlight classes survive.
func (m *Markdown) Answer(markdown string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render: answer: %w", err)
	}
	return template.HTML(m.policy.SanitizeBytes(buf.Bytes())), nil
}

// WriteCSS writes the stylesheet for the highlight classes.
func (m *Markdown) WriteCSS(w io.Writer) error {
	if err := m.formatter.WriteCSS(w, m.style); err != nil {
		return fmt.Errorf("render: css: %w", err)
	}
	return nil
}

// CSS returns the stylesheet for the highlight classes.
func (m *Markdown) CSS() (string, error) {
	var buf bytes.Buffer
	if err := m.WriteCSS(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
