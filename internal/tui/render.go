package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/starford/swashbuckle/internal/card"
	"github.com/starford/swashbuckle/internal/chat"
	"github.com/starford/swashbuckle/internal/widget"
)

// Asker sends one query to the answering service.
type Asker interface {
	Ask(ctx context.Context, variant, query string) (*chat.Response, error)
}

// Options configures rendering.
type Options struct {
	// Plain disables ANSI styling, for tests and non-terminal output.
	Plain bool
	Width int
}

func (o Options) width() int {
	if o.Width <= 0 {
		return 80
	}
	return o.Width
}

func newRenderer(o Options) (*glamour.TermRenderer, error) {
	style := glamour.WithAutoStyle()
	if o.Plain {
		style = glamour.WithStandardStyle("notty")
	}
	return glamour.NewTermRenderer(style, glamour.WithWordWrap(o.width()-4))
}

func stylesFor(o Options) Styles {
	if o.Plain {
		return PlainStyles()
	}
	return DefaultStyles()
}

// renderAnswer renders the answer markdown followed by the citation cards.
// The Sources heading follows whenever the backend cited anything, even if
// none of the routes resolve to a post.
func renderAnswer(r *glamour.TermRenderer, st Styles, resp *chat.Response, cards []card.Card) string {
	var b strings.Builder
	out, err := r.Render(resp.Response)
	if err != nil {
		out = resp.Response + "\n"
	}
	b.WriteString(strings.TrimRight(out, "\n"))
	b.WriteString("\n")
	if len(resp.Sources) == 0 {
		return b.String()
	}
	b.WriteString(st.Heading.Render("Sources"))
	b.WriteString("\n")
	for _, c := range cards {
		b.WriteString(renderCard(st, c))
		b.WriteString("\n")
	}
	return b.String()
}

func renderCard(st Styles, c card.Card) string {
	lines := []string{st.CardTitle.Render(c.Title)}
	meta := c.Route
	if c.Date != "" {
		meta = c.Date + "  " + meta
	}
	lines = append(lines, st.CardMeta.Render(meta))
	if c.Summary != "" {
		lines = append(lines, c.Summary)
	}
	return st.Card.Render(strings.Join(lines, "\n"))
}

func failureText(err error) string {
	return fmt.Sprintf("Arr, that didn't work: %v", err)
}

// Once asks a single question and writes the rendered answer to w.
func Once(ctx context.Context, w io.Writer, asker Asker, lookup card.Lookup, variants []chat.Variant, variant, query string, opts Options) error {
	wd := widget.New(variants)
	if variant != "" {
		if err := wd.SelectVariant(variant); err != nil {
			return err
		}
	}
	req, err := wd.Submit(query)
	if err != nil {
		return err
	}

	resp, err := asker.Ask(ctx, req.Variant, req.Query)
	if err != nil {
		wd.Fail(req.Seq, err)
	} else {
		wd.Complete(req.Seq, resp)
	}

	st := stylesFor(opts)
	if wd.State() == widget.Failed {
		fmt.Fprintln(w, st.Error.Render(failureText(wd.Err())))
		return wd.Err()
	}
	r, err := newRenderer(opts)
	if err != nil {
		return err
	}
	answer, _ := wd.Response()
	_, err = io.WriteString(w, renderAnswer(r, st, answer, wd.Citations(lookup)))
	return err
}
