// Package widget holds the state machine behind the "ask the blog" form.
//
// A Widget moves Idle → Submitting → Result or Failed. Every submission gets
// a sequence number and only the completion for the latest one is applied,
// so overlapping requests can never show a stale answer. A Widget is owned
// by a single UI loop and is not safe for concurrent use.
package widget

import (
	"errors"
	"fmt"
	"strings"

	"github.com/starford/swashbuckle/internal/apperr"
	"github.com/starford/swashbuckle/internal/card"
	"github.com/starford/swashbuckle/internal/chat"
)

// State is the widget's current phase.
type State int

const (
	Idle State = iota
	Submitting
	Result
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Result:
		return "result"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrSubmitDisabled is returned by Submit while a request is in flight.
var ErrSubmitDisabled = errors.New("submit disabled while a request is in flight")

// Request is one query handed to the transport.
type Request struct {
	Seq     uint64
	Query   string
	Variant string
}

// Widget is the form state.
type Widget struct {
	variants chat.Variants
	variant  string
	state    State
	seq      uint64
	pending  *Request
	result   *chat.Response
	err      error
}

// New creates an idle widget. The first variant is selected.
func New(variants []chat.Variant) *Widget {
	if len(variants) == 0 {
		variants = chat.DefaultVariants()
	}
	return &Widget{
		variants: chat.Variants(variants),
		variant:  variants[0].Name,
	}
}

// State reports the current phase.
func (w *Widget) State() State { return w.state }

// CanSubmit is false exactly while a request is in flight.
func (w *Widget) CanSubmit() bool { return w.state != Submitting }

// Variant returns the name the next submission will target.
func (w *Widget) Variant() string { return w.variant }

// Variants returns the available presets.
func (w *Widget) Variants() chat.Variants { return w.variants }

// SelectVariant changes the target of the next submission. An in-flight
// request keeps the variant it was submitted with.
func (w *Widget) SelectVariant(name string) error {
	if _, err := w.variants.Lookup(name); err != nil {
		return err
	}
	w.variant = name
	return nil
}

// CycleVariant selects the next preset and returns its name.
func (w *Widget) CycleVariant() string {
	w.variant = w.variants.Next(w.variant)
	return w.variant
}

// Submit starts a request for query. The previous result or error is
// cleared and the widget is Submitting when Submit returns.
func (w *Widget) Submit(query string) (Request, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return Request{}, apperr.ErrEmptyQuery
	}
	if w.state == Submitting {
		return Request{}, ErrSubmitDisabled
	}
	w.seq++
	req := Request{Seq: w.seq, Query: q, Variant: w.variant}
	w.pending = &req
	w.result = nil
	w.err = nil
	w.state = Submitting
	return req, nil
}

// Pending returns the in-flight request, if any.
func (w *Widget) Pending() (Request, bool) {
	if w.pending == nil {
		return Request{}, false
	}
	return *w.pending, true
}

// Complete applies a response for request seq. It reports false and leaves
// the widget untouched when seq is not the latest submission.
func (w *Widget) Complete(seq uint64, resp *chat.Response) bool {
	if !w.current(seq) {
		return false
	}
	if resp == nil {
		return w.Fail(seq, apperr.ErrMalformedResponse)
	}
	w.pending = nil
	w.result = resp
	w.err = nil
	w.state = Result
	return true
}

// Fail records a failed request seq. Stale failures are ignored.
func (w *Widget) Fail(seq uint64, err error) bool {
	if !w.current(seq) {
		return false
	}
	w.pending = nil
	w.result = nil
	w.err = err
	w.state = Failed
	return true
}

func (w *Widget) current(seq uint64) bool {
	return w.pending != nil && w.pending.Seq == seq
}

// Response returns the answer shown in the Result state.
func (w *Widget) Response() (*chat.Response, bool) {
	return w.result, w.result != nil
}

// Err returns the error shown in the Failed state.
func (w *Widget) Err() error { return w.err }

// Citations resolves the current answer's sources into cards.
func (w *Widget) Citations(lookup card.Lookup) []card.Card {
	if w.result == nil {
		return nil
	}
	return card.Resolve(lookup, w.result.Sources)
}
