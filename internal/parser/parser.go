// Package parser extracts frontmatter, title, date and a plain-text excerpt
// from Markdown post sources.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ExcerptLength is the maximum excerpt length in runes.
const ExcerptLength = 140

// ErrInvalidFrontmatter is returned when the YAML block cannot be decoded.
var ErrInvalidFrontmatter = errors.New("invalid frontmatter")

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Matter holds the frontmatter fields a post may declare.
type Matter struct {
	Title           string `yaml:"title"`
	Description     string `yaml:"description"`
	Date            string `yaml:"date"`
	Slug            string `yaml:"slug"`
	FeaturedImage   string `yaml:"featuredImage"`
	AttributionName string `yaml:"attributionName"`
	AttributionLink string `yaml:"attributionLink"`
	Draft           bool   `yaml:"draft"`
}

// Result holds the output of parsing a Markdown file.
type Result struct {
	Matter  Matter
	Body    string
	Title   string
	Date    time.Time
	Excerpt string
}

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Parse extracts frontmatter, title, date and excerpt from raw Markdown bytes.
// name is the slash-separated source path, used for the title fallback.
func Parse(name string, data []byte) (*Result, error) {
	var m Matter
	body, err := frontmatter.Parse(bytes.NewReader(data), &m)
	if err != nil {
		return nil, fmt.Errorf("parser: %s: %w: %v", name, ErrInvalidFrontmatter, err)
	}

	doc := md.Parser().Parse(text.NewReader(body))

	date, _ := parseDate(m.Date)

	return &Result{
		Matter:  m,
		Body:    string(body),
		Title:   deriveTitle(m, doc, body, name),
		Date:    date,
		Excerpt: Prune(plainText(doc, body), ExcerptLength),
	}, nil
}

// parseDate tries the supported layouts in order.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parser: unrecognised date %q", s)
}

// deriveTitle returns the frontmatter title, otherwise the first H1 heading,
// otherwise the file name title-cased.
func deriveTitle(m Matter, doc ast.Node, source []byte, name string) string {
	if t := strings.TrimSpace(m.Title); t != "" {
		return t
	}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok && h.Level == 1 {
			if t := strings.TrimSpace(plainText(h, source)); t != "" {
				return t
			}
		}
	}
	return titleFromName(name)
}

func titleFromName(name string) string {
	stem := strings.TrimSuffix(path.Base(name), path.Ext(name))
	if stem == "index" {
		if dir := path.Base(path.Dir(name)); dir != "." && dir != "/" {
			stem = dir
		}
	}
	stem = strings.NewReplacer("-", " ", "_", " ").Replace(stem)
	return cases.Title(language.English).String(stem)
}

// plainText concatenates the text under n, skipping code and raw HTML blocks.
func plainText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		switch v := node.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			if entering {
				b.Write(v.Segment.Value(source))
				if v.SoftLineBreak() || v.HardLineBreak() {
					b.WriteByte(' ')
				}
			}
		case *ast.String:
			if entering {
				b.Write(v.Value)
			}
		case *ast.AutoLink:
			if entering {
				b.Write(v.Label(source))
			}
		default:
			if node.Type() == ast.TypeBlock {
				b.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.Join(strings.Fields(b.String()), " ")
}

// Prune shortens s to at most n runes, cutting on a word boundary and
// appending an ellipsis when anything was removed.
func Prune(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	cut := string(r[:n])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:-") + "…"
}
