package article

import "testing"

func TestNormalize_MiPrefixSpacing(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"zwnj joined", "این کار می‌شود", "این کار می شود"},
		{"negated", "این کار نمی‌شود", "این کار نمی شود"},
		{"hyphen joined", "می-تواند", "می تواند"},
		{"already spaced", "می شود", "می شود"},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("%s: Normalize(%q) = %q, want %q", tc.name, tc.in, got, tc.want)
		}
	}
}

func TestNormalize_CommaSpacing(t *testing.T) {
	got := Normalize("اول،دوم ،سوم، چهارم")
	want := "اول ، دوم ، سوم ، چهارم"
	if got != want {
		t.Errorf("Normalize comma spacing = %q, want %q", got, want)
	}
}

func TestNormalize_CharacterFolding(t *testing.T) {
	// Arabic yeh and kaf are folded to the Persian forms.
	got := Normalize("كتاب و زيبا")
	want := "کتاب و زیبا"
	if got != want {
		t.Errorf("Normalize folding = %q, want %q", got, want)
	}
}

func TestNormalize_CompoundSplits(t *testing.T) {
	got := Normalize("راهها و راهکارهای مختلف")
	want := "راه ها و راهکار های مختلف"
	if got != want {
		t.Errorf("Normalize compounds = %q, want %q", got, want)
	}
}

func TestNormalize_WhitespaceCollapse(t *testing.T) {
	got := Normalize("اول    دوم\n\n\n\nسوم")
	want := "اول دوم\n\nسوم"
	if got != want {
		t.Errorf("Normalize whitespace = %q, want %q", got, want)
	}
}

func TestFold(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"كتاب", "کتاب"},
		{"می‌شود", "میشود"},
		{"  Test  ", "test"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Fold(tc.in); got != tc.want {
			t.Errorf("Fold(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFoldTokens(t *testing.T) {
	got := FoldTokens("مزایای طراحی سایت")
	if len(got) != 3 {
		t.Fatalf("expected 3 tokens, got %v", got)
	}
	if got[1] != "طراحی" {
		t.Errorf("unexpected token: %v", got)
	}
}
