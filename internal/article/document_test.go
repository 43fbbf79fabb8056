package article

import (
	"errors"
	"strings"
	"testing"
)

func TestDocument_AppendAfterFinalize(t *testing.T) {
	doc := NewDocument("تست")
	if err := doc.AppendBlocks([]Block{{Kind: BlockParagraph, Text: "اول"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc.Finalize()
	err := doc.AppendBlocks([]Block{{Kind: BlockParagraph, Text: "دوم"}})
	if !errors.Is(err, ErrFinalized) {
		t.Errorf("expected ErrFinalized, got %v", err)
	}
	if doc.Len() != 1 {
		t.Errorf("expected document unchanged after failed append, got %d blocks", doc.Len())
	}
}

func TestDocument_BlocksReturnsCopy(t *testing.T) {
	doc := NewDocument("تست")
	if err := doc.AppendBlocks([]Block{{Kind: BlockParagraph, Text: "اول"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	blocks := doc.Blocks()
	blocks[0].Text = "تغییر"
	if doc.Blocks()[0].Text != "اول" {
		t.Error("mutating the returned slice changed the document")
	}
}

func TestDocument_HTML(t *testing.T) {
	doc := NewDocument("تست")
	if err := doc.AppendBlocks([]Block{
		{Kind: BlockHeading, Level: 1, Text: "عنوان"},
		{Kind: BlockParagraph, Text: "پاراگراف"},
		{Kind: BlockTable, HTML: "<table><tr><td>سلول</td></tr></table>"},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	html := doc.HTML()
	for _, want := range []string{"<h1>عنوان</h1>", "<p>پاراگراف</p>", "<table>"} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML missing %q:\n%s", want, html)
		}
	}
}

func TestDocument_WordCount(t *testing.T) {
	doc := NewDocument("تست")
	if err := doc.AppendBlocks([]Block{
		{Kind: BlockParagraph, Text: "یک دو سه"},
		{Kind: BlockTable, HTML: "<table><tr><td>چهار پنج</td></tr></table>"},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := doc.WordCount(); got != 5 {
		t.Errorf("expected 5 words, got %d", got)
	}
}

func TestCountWords(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"یک", 1},
		{"<p>یک دو</p>", 2},
		{"یک  دو\nسه", 3},
	}
	for _, tc := range cases {
		if got := CountWords(tc.in); got != tc.want {
			t.Errorf("CountWords(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
