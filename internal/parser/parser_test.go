package parser

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Mocking imports\ndescription: Jest tricks\ndate: 2021-03-04\nslug: /jest-mocks/\nfeaturedImage: ./cover.jpg\n---\n# Heading\nBody text.\n")
	r, err := Parse("jest-mocks.md", input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Title != "Mocking imports" {
		t.Errorf("title = %q, want %q", r.Title, "Mocking imports")
	}
	if r.Matter.Description != "Jest tricks" {
		t.Errorf("description = %q", r.Matter.Description)
	}
	if r.Matter.Slug != "/jest-mocks/" {
		t.Errorf("slug = %q", r.Matter.Slug)
	}
	if r.Matter.FeaturedImage != "./cover.jpg" {
		t.Errorf("featuredImage = %q", r.Matter.FeaturedImage)
	}
	want := time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC)
	if !r.Date.Equal(want) {
		t.Errorf("date = %v, want %v", r.Date, want)
	}
	if r.Body != "# Heading\nBody text.\n" {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	r, err := Parse("notes/just-a-heading.md", []byte("# Just a heading\nSome text.\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Title != "Just a heading" {
		t.Errorf("title = %q, want %q", r.Title, "Just a heading")
	}
	if !r.Date.IsZero() {
		t.Errorf("expected zero date, got %v", r.Date)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse("broken.md", []byte("---\n: invalid: yaml: {{{\n---\nBody\n"))
	if !errors.Is(err, ErrInvalidFrontmatter) {
		t.Fatalf("err = %v, want ErrInvalidFrontmatter", err)
	}
}

func TestParse_ExcerptSkipsCode(t *testing.T) {
	input := []byte("---\ntitle: T\n---\nFirst *para*.\n\n```js\nconst secret = 1\n```\n\nSecond para.\n")
	r, err := Parse("t.md", input)
	if err != nil {
		t.Fatal(err)
	}
	if r.Excerpt != "First para. Second para." {
		t.Errorf("excerpt = %q", r.Excerpt)
	}
}

func TestParse_ExcerptPruned(t *testing.T) {
	body := strings.Repeat("word ", 60)
	r, err := Parse("long.md", []byte(body))
	if err != nil {
		t.Fatal(err)
	}
	if n := utf8.RuneCountInString(r.Excerpt); n > ExcerptLength+1 {
		t.Errorf("excerpt has %d runes, want <= %d", n, ExcerptLength+1)
	}
	if !strings.HasSuffix(r.Excerpt, "word…") {
		t.Errorf("excerpt = %q, want word-boundary cut with ellipsis", r.Excerpt)
	}
}

func TestParseDate_Layouts(t *testing.T) {
	cases := map[string]time.Time{
		"2020-01-02":           time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
		"2020-01-02 03:04:05":  time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC),
		"2020-01-02T03:04:05":  time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC),
		"2020-01-02T03:04:05Z": time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC),
		"  2020-01-02  ":       time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, err := parseDate(in)
		if err != nil {
			t.Errorf("parseDate(%q): %v", in, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("parseDate(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := parseDate("March 4th"); err == nil {
		t.Error("expected error for unrecognised date")
	}
}

func TestTitleFromName(t *testing.T) {
	cases := map[string]string{
		"reduce-bundle-size.md": "Reduce Bundle Size",
		"node_env/index.md":     "Node Env",
		"index.md":              "Index",
	}
	for in, want := range cases {
		if got := titleFromName(in); got != want {
			t.Errorf("titleFromName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPrune(t *testing.T) {
	if got := Prune("short", 10); got != "short" {
		t.Errorf("Prune short = %q", got)
	}
	if got := Prune("alpha beta gamma", 12); got != "alpha beta…" {
		t.Errorf("Prune = %q, want %q", got, "alpha beta…")
	}
}
