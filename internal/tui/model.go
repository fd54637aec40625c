// Package tui is the terminal rendition of the ask widget.
package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/starford/swashbuckle/internal/apperr"
	"github.com/starford/swashbuckle/internal/card"
	"github.com/starford/swashbuckle/internal/chat"
	"github.com/starford/swashbuckle/internal/widget"
)

// answerMsg carries the outcome of one request back into Update.
type answerMsg struct {
	seq  uint64
	resp *chat.Response
	err  error
}

// Model is the bubbletea model for the interactive widget.
type Model struct {
	ctx      context.Context
	widget   *widget.Widget
	asker    Asker
	lookup   card.Lookup
	input    textinput.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	styles   Styles
	opts     Options

	suggestion int
	notice     string
	quitting   bool
}

// NewModel creates the interactive widget model.
func NewModel(ctx context.Context, asker Asker, lookup card.Lookup, variants []chat.Variant, opts Options) (Model, error) {
	r, err := newRenderer(opts)
	if err != nil {
		return Model{}, err
	}
	st := stylesFor(opts)

	ti := textinput.New()
	ti.Placeholder = "Ask me anything about the blog..."
	ti.Prompt = "│ "
	ti.CharLimit = 1024
	ti.Width = opts.width() - 4
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:      ctx,
		widget:   widget.New(variants),
		asker:    asker,
		lookup:   lookup,
		input:    ti,
		spinner:  sp,
		renderer: r,
		styles:   st,
		opts:     opts,
	}, nil
}

// Widget exposes the underlying state machine.
func (m Model) Widget() *widget.Widget { return m.widget }

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) ask(req widget.Request) tea.Cmd {
	return func() tea.Msg {
		resp, err := m.asker.Ask(m.ctx, req.Variant, req.Query)
		return answerMsg{seq: req.Seq, resp: resp, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit

		case tea.KeyTab:
			m.widget.CycleVariant()
			return m, nil

		case tea.KeyCtrlS:
			m.input.SetValue(widget.Suggestions[m.suggestion%len(widget.Suggestions)])
			m.input.CursorEnd()
			m.suggestion++
			return m, nil

		case tea.KeyEnter:
			return m.submit()
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case answerMsg:
		if msg.err != nil {
			m.widget.Fail(msg.seq, msg.err)
		} else {
			m.widget.Complete(msg.seq, msg.resp)
		}
		return m, nil

	case spinner.TickMsg:
		if m.widget.State() != widget.Submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.opts.Width = msg.Width
		m.input.Width = msg.Width - 4
		if r, err := newRenderer(m.opts); err == nil {
			m.renderer = r
		}
		return m, nil
	}
	return m, nil
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	req, err := m.widget.Submit(m.input.Value())
	switch {
	case errors.Is(err, widget.ErrSubmitDisabled):
		return m, nil
	case errors.Is(err, apperr.ErrEmptyQuery):
		m.notice = "Type a question first."
		return m, nil
	case err != nil:
		m.notice = err.Error()
		return m, nil
	}
	m.notice = ""
	return m, tea.Batch(m.ask(req), m.spinner.Tick)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Ask the blog"))
	b.WriteString("\n\n")

	for _, v := range m.widget.Variants() {
		if v.Name == m.widget.Variant() {
			b.WriteString(m.styles.Selected.Render("(•) " + v.Name))
		} else {
			b.WriteString(m.styles.Variant.Render("( ) " + v.Name))
		}
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.notice != "" {
		b.WriteString(m.styles.Hint.Render(m.notice))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch m.widget.State() {
	case widget.Submitting:
		b.WriteString(m.spinner.View() + " Asking the blog...\n")
	case widget.Result:
		resp, _ := m.widget.Response()
		b.WriteString(renderAnswer(m.renderer, m.styles, resp, m.widget.Citations(m.lookup)))
	case widget.Failed:
		b.WriteString(m.styles.Error.Render(failureText(m.widget.Err())))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Hint.Render("enter ask · tab variant · ctrl+s suggestion · esc quit"))
	return b.String()
}

// Run starts the interactive program and blocks until the user quits.
func Run(ctx context.Context, asker Asker, lookup card.Lookup, variants []chat.Variant, opts Options) error {
	m, err := NewModel(ctx, asker, lookup, variants, opts)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithContext(ctx)).Run()
	return err
}
