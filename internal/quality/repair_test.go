package quality

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tahrir-ai/tahrir/internal/llm"
)

func mustController(t *testing.T) *Controller {
	t.Helper()
	c, err := NewController(mustScorer(t), DefaultControllerConfig())
	if err != nil {
		t.Fatalf("creating controller: %v", err)
	}
	return c
}

func TestMaybeRepair_AboveThresholdIsNoOp(t *testing.T) {
	c := mustController(t)
	mock := llm.NewMock("نباید صدا زده شود")
	doc := docWithWords(t, "تست", 100, 1)

	report := Report{Overall: 0.85}
	got, gotReport, err := c.MaybeRepair(context.Background(), doc, report, mock, "تست")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != doc {
		t.Error("expected the same document instance back")
	}
	if gotReport != report {
		t.Errorf("expected the report unchanged, got %+v", gotReport)
	}
	if mock.Calls() != 0 {
		t.Errorf("expected zero completions above threshold, got %d", mock.Calls())
	}
}

func TestMaybeRepair_SingleCompletion(t *testing.T) {
	c := mustController(t)

	var repaired strings.Builder
	repaired.WriteString("<h1>تست از صفر تا صد</h1>\n")
	for i := 0; i < 6; i++ {
		repaired.WriteString("<h2>بخش</h2>\n<p>تست " + strings.Repeat("واژه ", 60) + "</p>\n")
	}
	mock := llm.NewMock(repaired.String())

	doc := docWithWords(t, "تست", 100, 1)
	report := c.scorer.Score(doc, "تست")
	if report.Overall >= c.config.Threshold {
		t.Fatalf("fixture document unexpectedly above threshold: %.2f", report.Overall)
	}

	got, gotReport, err := c.MaybeRepair(context.Background(), doc, report, mock, "تست")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.Calls() != 1 {
		t.Errorf("expected exactly one completion, got %d", mock.Calls())
	}
	if got == doc {
		t.Error("expected a new document after repair")
	}
	if !gotReport.Repaired {
		t.Error("expected the report flagged as repaired")
	}
	if got.Len() == 0 {
		t.Error("repaired document has no blocks")
	}

	// The repair prompt must name the weak dimensions and carry the article.
	if !strings.Contains(mock.LastPrompt(), "ویرایشگر") {
		t.Error("repair prompt missing the editor instruction")
	}
}

func TestMaybeRepair_StillBelowThresholdIsFlagged(t *testing.T) {
	c := mustController(t)
	// The repair output is barely better than the original, so it stays
	// under the threshold and must be returned flagged, not discarded.
	mock := llm.NewMock("<h2>بخش</h2>\n<p>تست متن کوتاه</p>")

	doc := docWithWords(t, "تست", 50, 1)
	report := c.scorer.Score(doc, "تست")

	got, gotReport, err := c.MaybeRepair(context.Background(), doc, report, mock, "تست")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.Len() == 0 {
		t.Fatal("expected a usable document back")
	}
	if !gotReport.Repaired {
		t.Error("expected the report flagged as repaired")
	}
	if !gotReport.BelowThreshold {
		t.Error("expected the report flagged below threshold")
	}
}

func TestMaybeRepair_CompletionFailureKeepsOriginal(t *testing.T) {
	c := mustController(t)
	mock := llm.NewMockWithError(errors.New("service unavailable"))

	doc := docWithWords(t, "تست", 50, 1)
	report := c.scorer.Score(doc, "تست")

	got, gotReport, err := c.MaybeRepair(context.Background(), doc, report, mock, "تست")
	if err == nil {
		t.Fatal("expected an error when the completion fails")
	}
	if !errors.Is(err, ErrRepairFailed) {
		t.Errorf("expected ErrRepairFailed, got %v", err)
	}
	if got != doc {
		t.Error("expected the original document back on failure")
	}
	if !gotReport.BelowThreshold {
		t.Error("expected the report flagged below threshold")
	}
}

func TestMaybeRepair_UnparsableOutputKeepsOriginal(t *testing.T) {
	c := mustController(t)
	mock := llm.NewMock("   ")

	doc := docWithWords(t, "تست", 50, 1)
	report := c.scorer.Score(doc, "تست")

	got, _, err := c.MaybeRepair(context.Background(), doc, report, mock, "تست")
	if !errors.Is(err, ErrRepairFailed) {
		t.Errorf("expected ErrRepairFailed for empty output, got %v", err)
	}
	if got != doc {
		t.Error("expected the original document back on unusable output")
	}
}

func TestWeakDimensions_BelowFloor(t *testing.T) {
	c := mustController(t)

	r := Report{
		WordCount:      0.3,
		KeywordDensity: 0.9,
		Typography:     0.5,
		Structure:      0.9,
		Engagement:     0.9,
		Completeness:   0.9,
	}
	weak := c.weakDimensions(r)
	want := []string{"word_count", "typography"}
	if len(weak) != len(want) {
		t.Fatalf("expected %v, got %v", want, weak)
	}
	for i := range want {
		if weak[i] != want[i] {
			t.Errorf("expected %v, got %v", want, weak)
			break
		}
	}
}

func TestWeakDimensions_FallbackToLowest(t *testing.T) {
	c := mustController(t)

	r := Report{
		WordCount:      0.75,
		KeywordDensity: 0.9,
		Typography:     0.8,
		Structure:      0.9,
		Engagement:     0.85,
		Completeness:   0.9,
	}
	weak := c.weakDimensions(r)
	if len(weak) != 1 || weak[0] != "word_count" {
		t.Errorf("expected fallback to the lowest dimension, got %v", weak)
	}
}
