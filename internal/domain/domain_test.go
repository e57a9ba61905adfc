package domain

import "testing"

func TestParseCitationCount(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"12", 12, true},
		{"  7 ", 7, true},
		{"cited 42 times", 42, true},
		{"3.0", 3, true},
		{"", 0, false},
		{"n/a", 0, false},
		{"-4", 4, true},
		{"99999999999999999999999", 0, false},
	}

	for _, tc := range cases {
		got, ok := ParseCitationCount(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Fatalf("ParseCitationCount(%q) = %d,%v want %d,%v", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestArticleIdentity(t *testing.T) {
	t.Parallel()

	a := NewArticle("10.1000/ABC", "One", "x", "2020-01-01", "", 1)
	b := NewArticle("https://doi.org/10.1000/abc", "Two", "y", "2021-01-01", "", 9)
	c := NewArticle("10.1000/other", "One", "x", "2020-01-01", "", 1)

	if DOIKey(a.DOI) != DOIKey(b.DOI) {
		t.Fatalf("expected %q and %q to be the same article", a.DOI, b.DOI)
	}
	if DOIKey(a.DOI) == DOIKey(c.DOI) {
		t.Fatalf("expected different DOIs to differ")
	}
	if a.Label != LabelNone {
		t.Fatalf("new article label = %q, want %q", a.Label, LabelNone)
	}
}

func TestWithLabelCopies(t *testing.T) {
	t.Parallel()

	orig := NewArticle("10.1/x", "t", "a", "2020", "", 0)
	labeled := orig.WithLabel("Bio")

	if orig.Label != LabelNone {
		t.Fatalf("original mutated: %q", orig.Label)
	}
	if labeled.Label != "Bio" {
		t.Fatalf("unexpected label %q", labeled.Label)
	}
}

func TestOptional(t *testing.T) {
	t.Parallel()

	if v, ok := Some("x").Get(); !ok || v != "x" {
		t.Fatalf("Some lost its value")
	}
	if _, ok := None[int]().Get(); ok {
		t.Fatalf("None reported present")
	}
	if got := None[int]().OrElse(5); got != 5 {
		t.Fatalf("OrElse = %d", got)
	}
}
