package prompt

import (
	"strings"
	"testing"

	"github.com/tahrir-ai/tahrir/internal/passage"
)

func TestIntroduction_CarriesRulesAndKeyword(t *testing.T) {
	p := Introduction("طراحی سایت", "")
	if !strings.Contains(p, "طراحی سایت") {
		t.Error("prompt missing keyword")
	}
	if !strings.Contains(p, "قوانین تولید محتوا") {
		t.Error("prompt missing the content rules")
	}
	if !strings.Contains(p, nextFocusMarker) {
		t.Error("prompt missing the next-focus instruction")
	}
}

func TestContextBlock(t *testing.T) {
	passages := []passage.Passage{
		{ID: "p1", SourceID: "article-1", SectionLabel: "مزایا", Text: "متن اول"},
		{ID: "p2", SourceID: "article-2", Text: "متن دوم"},
	}

	block := ContextBlock(passages)
	if !strings.Contains(block, "[article-1]") || !strings.Contains(block, "[article-2]") {
		t.Errorf("context block missing source citations:\n%s", block)
	}
	if !strings.Contains(block, "مزایا") {
		t.Error("context block missing the section label")
	}

	if ContextBlock(nil) != "" {
		t.Error("expected empty block for no passages")
	}
}

func TestExtractNextFocus(t *testing.T) {
	text := "<p>مقدمه</p>\nNEXT_FOCUS: مبانی موضوع و مثال ها"
	if got := ExtractNextFocus(text); got != "مبانی موضوع و مثال ها" {
		t.Errorf("unexpected focus: %q", got)
	}
}

func TestExtractNextFocus_MissingMarkerFallsBack(t *testing.T) {
	got := ExtractNextFocus("<p>بدون نشانگر</p>")
	if got == "" {
		t.Error("expected a fallback guidance line")
	}
}

func TestSection_TableInstruction(t *testing.T) {
	withTable := Section("تست", "مقایسه", 2, true, 150, "", "")
	if !strings.Contains(withTable, "جدول مفید") {
		t.Error("expected the table instruction when a table is requested")
	}

	withoutTable := Section("تست", "مقایسه", 2, false, 150, "", "")
	if !strings.Contains(withoutTable, "جدول اضافه نکن") {
		t.Error("expected the no-table instruction otherwise")
	}
}

func TestSection_ClampsLevel(t *testing.T) {
	p := Section("تست", "بخش", 7, false, 150, "", "")
	if !strings.Contains(p, "<h2>") {
		t.Errorf("expected an out-of-range level clamped to h2:\n%s", p)
	}
}

func TestStructurePlan_RequestsJSON(t *testing.T) {
	p := StructurePlan("تست", 10, "ادامه", "")
	if !strings.Contains(p, `"sections"`) {
		t.Error("plan prompt missing the JSON shape")
	}
	if !strings.Contains(p, "10") {
		t.Error("plan prompt missing the section count")
	}
}

func TestRepair_NamesWeakDimensions(t *testing.T) {
	p := Repair("تست", "<p>مقاله</p>", []string{"word_count", "typography"}, 1500)

	if !strings.Contains(p, dimensionDirectives["word_count"]) {
		t.Error("repair prompt missing the word-count directive")
	}
	if !strings.Contains(p, dimensionDirectives["typography"]) {
		t.Error("repair prompt missing the typography directive")
	}
	if strings.Contains(p, dimensionDirectives["engagement"]) {
		t.Error("repair prompt carries a directive for a healthy dimension")
	}
	if !strings.Contains(p, "<p>مقاله</p>") {
		t.Error("repair prompt missing the current article")
	}
}

func TestRepair_EveryDimensionHasDirective(t *testing.T) {
	for _, dim := range []string{"word_count", "keyword_density", "typography", "structure", "engagement", "completeness"} {
		if _, ok := dimensionDirectives[dim]; !ok {
			t.Errorf("missing repair directive for %s", dim)
		}
	}
}
