package widget

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/swashbuckle/internal/apperr"
	"github.com/starford/swashbuckle/internal/card"
	"github.com/starford/swashbuckle/internal/chat"
	"github.com/starford/swashbuckle/internal/content"
	"github.com/starford/swashbuckle/internal/models"
)

func TestSubmit_EntersSubmittingSynchronously(t *testing.T) {
	w := New(nil)
	if w.State() != Idle || !w.CanSubmit() {
		t.Fatalf("new widget: state = %v, canSubmit = %v", w.State(), w.CanSubmit())
	}
	req, err := w.Submit("how can I automatically mock an import in jest")
	if err != nil {
		t.Fatal(err)
	}
	if w.State() != Submitting {
		t.Errorf("state = %v, want submitting", w.State())
	}
	if w.CanSubmit() {
		t.Error("submit should be disabled while submitting")
	}
	if req.Seq != 1 || req.Variant != "default" {
		t.Errorf("request = %+v", req)
	}

	if !w.Complete(req.Seq, &chat.Response{Response: "ok", Sources: []string{}}) {
		t.Fatal("Complete rejected current request")
	}
	if w.State() != Result || !w.CanSubmit() {
		t.Errorf("after complete: state = %v, canSubmit = %v", w.State(), w.CanSubmit())
	}
}

func TestSubmit_RejectsBlank(t *testing.T) {
	w := New(nil)
	for _, q := range []string{"", "   ", "\n\t"} {
		if _, err := w.Submit(q); !errors.Is(err, apperr.ErrEmptyQuery) {
			t.Errorf("Submit(%q) err = %v, want ErrEmptyQuery", q, err)
		}
	}
	if w.State() != Idle {
		t.Errorf("state = %v, want idle", w.State())
	}
}

func TestSubmit_RapidSecondSubmissionRejected(t *testing.T) {
	w := New(nil)
	first, err := w.Submit("one")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Submit("two"); !errors.Is(err, ErrSubmitDisabled) {
		t.Fatalf("second Submit err = %v, want ErrSubmitDisabled", err)
	}
	if !w.Complete(first.Seq, &chat.Response{Response: "answer one", Sources: []string{}}) {
		t.Fatal("first completion rejected")
	}
	resp, ok := w.Response()
	if !ok || resp.Response != "answer one" {
		t.Errorf("response = %+v", resp)
	}
}

func TestComplete_StaleDiscarded(t *testing.T) {
	w := New(nil)
	first, _ := w.Submit("one")
	w.Fail(first.Seq, apperr.ErrUpstream)

	second, err := w.Submit("two")
	if err != nil {
		t.Fatal(err)
	}
	if second.Seq <= first.Seq {
		t.Fatalf("seq not increasing: %d then %d", first.Seq, second.Seq)
	}

	if w.Complete(first.Seq, &chat.Response{Response: "stale"}) {
		t.Error("stale completion applied")
	}
	if w.Fail(first.Seq, apperr.ErrUpstream) {
		t.Error("stale failure applied")
	}
	if w.State() != Submitting {
		t.Errorf("state = %v, want submitting", w.State())
	}

	w.Complete(second.Seq, &chat.Response{Response: "fresh", Sources: []string{}})
	if w.Complete(second.Seq, &chat.Response{Response: "duplicate"}) {
		t.Error("duplicate completion applied")
	}
	resp, _ := w.Response()
	if resp.Response != "fresh" {
		t.Errorf("response = %q, want fresh", resp.Response)
	}
}

func TestSubmit_ClearsPreviousOutcome(t *testing.T) {
	w := New(nil)
	req, _ := w.Submit("one")
	w.Fail(req.Seq, apperr.ErrMalformedResponse)
	if w.State() != Failed || !errors.Is(w.Err(), apperr.ErrMalformedResponse) {
		t.Fatalf("state = %v, err = %v", w.State(), w.Err())
	}

	req, _ = w.Submit("two")
	if w.Err() != nil {
		t.Errorf("error not cleared: %v", w.Err())
	}
	w.Complete(req.Seq, &chat.Response{Response: "r", Sources: []string{}})

	w.Submit("three")
	if _, ok := w.Response(); ok {
		t.Error("result not cleared on new submission")
	}
}

func TestComplete_NilResponseFails(t *testing.T) {
	w := New(nil)
	req, _ := w.Submit("q")
	w.Complete(req.Seq, nil)
	if w.State() != Failed || !errors.Is(w.Err(), apperr.ErrMalformedResponse) {
		t.Errorf("state = %v, err = %v", w.State(), w.Err())
	}
}

func TestVariant_SwitchMidFlightKeepsSubmitted(t *testing.T) {
	w := New(nil)
	if err := w.SelectVariant("stricter-prompt"); err != nil {
		t.Fatal(err)
	}
	req, _ := w.Submit("q")
	if req.Variant != "stricter-prompt" {
		t.Errorf("variant = %q", req.Variant)
	}
	if err := w.SelectVariant("more-context"); err != nil {
		t.Fatal(err)
	}
	pending, ok := w.Pending()
	if !ok || pending.Variant != "stricter-prompt" {
		t.Errorf("pending = %+v, want stricter-prompt", pending)
	}
	if w.State() != Submitting {
		t.Errorf("variant change altered state: %v", w.State())
	}
	if w.Variant() != "more-context" {
		t.Errorf("next variant = %q", w.Variant())
	}
}

func TestVariant_UnknownRejected(t *testing.T) {
	w := New(nil)
	if err := w.SelectVariant("nope"); !errors.Is(err, apperr.ErrUnknownVariant) {
		t.Errorf("err = %v, want ErrUnknownVariant", err)
	}
	if w.Variant() != "default" {
		t.Errorf("variant = %q, want default", w.Variant())
	}
}

func TestCycleVariant(t *testing.T) {
	w := New(nil)
	var got []string
	for i := 0; i < 4; i++ {
		got = append(got, w.CycleVariant())
	}
	want := []string{"stricter-prompt", "more-context", "default", "stricter-prompt"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("cycle mismatch (-want +got):\n%s", diff)
	}
}

func TestCitations(t *testing.T) {
	idx := content.New([]models.Post{
		{Route: "/a/", Title: "A"},
		{Route: "/b/", Title: "B"},
	})
	w := New(nil)
	if got := w.Citations(idx); got != nil {
		t.Errorf("citations before result = %v", got)
	}

	req, _ := w.Submit("q")
	w.Complete(req.Seq, &chat.Response{Response: "r", Sources: []string{"/a/", "/unknown/", "/b/"}})
	want := []card.Card{{Route: "/a/", Title: "A"}, {Route: "/b/", Title: "B"}}
	if diff := cmp.Diff(want, w.Citations(idx)); diff != "" {
		t.Errorf("citations mismatch (-want +got):\n%s", diff)
	}

	req, _ = w.Submit("q2")
	w.Complete(req.Seq, &chat.Response{Response: "r", Sources: []string{}})
	if got := w.Citations(idx); len(got) != 0 {
		t.Errorf("citations = %v, want none", got)
	}
}

func TestStateString(t *testing.T) {
	if Submitting.String() != "submitting" || State(42).String() != "state(42)" {
		t.Error("unexpected State.String output")
	}
}
