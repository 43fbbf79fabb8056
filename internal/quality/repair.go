package quality

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/tahrir-ai/tahrir/internal/article"
	"github.com/tahrir-ai/tahrir/internal/llm"
	"github.com/tahrir-ai/tahrir/internal/prompt"
)

var (
	// ErrRepairFailed signals that the improvement pass could not run;
	// the original document and report are returned alongside it.
	ErrRepairFailed = errors.New("repair failed")
)

// ControllerConfig bounds the repair policy.
type ControllerConfig struct {
	// Threshold is the overall score at or above which no repair runs
	Threshold float64

	// DimensionFloor marks sub-scores below it as repair targets
	DimensionFloor float64

	// MaxTokens for the repair completion (the full article plus headroom)
	MaxTokens int

	// Temperature for the repair completion
	Temperature float64
}

// DefaultControllerConfig returns the documented repair defaults.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		Threshold:      0.8,
		DimensionFloor: 0.7,
		MaxTokens:      3000,
		Temperature:    0.3,
	}
}

// Controller decides whether a document needs an improvement pass and
// issues at most one repair cycle per document.
type Controller struct {
	scorer *Scorer
	config ControllerConfig
}

// NewController creates a repair controller over the given scorer.
func NewController(scorer *Scorer, config ControllerConfig) (*Controller, error) {
	if scorer == nil {
		return nil, fmt.Errorf("scorer cannot be nil")
	}
	if config.Threshold <= 0 || config.Threshold > 1 {
		return nil, fmt.Errorf("threshold must be in (0,1], got %.2f", config.Threshold)
	}
	return &Controller{scorer: scorer, config: config}, nil
}

// MaybeRepair returns the document unchanged when the report meets the
// threshold. Otherwise it issues exactly one completion targeting the
// weakest dimensions and re-scores the result. A repaired document that is
// still below threshold is returned flagged, not discarded; a completion
// failure returns the original document with ErrRepairFailed.
func (c *Controller) MaybeRepair(ctx context.Context, doc *article.Document, report Report, svc llm.LLM, kw string) (*article.Document, Report, error) {
	if report.Overall >= c.config.Threshold {
		return doc, report, nil
	}

	weak := c.weakDimensions(report)
	log.Printf("[Repair] overall %.2f below threshold %.2f, targeting %v", report.Overall, c.config.Threshold, weak)

	repairPrompt := prompt.Repair(kw, doc.HTML(), weak, c.scorer.config.MinWordCount)
	opts := llm.Options{MaxTokens: c.config.MaxTokens, Temperature: c.config.Temperature}

	text, err := llm.CompleteWithRetry(ctx, svc, repairPrompt, opts)
	if err != nil {
		report.BelowThreshold = true
		return doc, report, fmt.Errorf("%w: %v", ErrRepairFailed, err)
	}

	blocks, err := article.ParseBlocks(article.Normalize(text))
	if err != nil || len(blocks) == 0 {
		report.BelowThreshold = true
		return doc, report, fmt.Errorf("%w: unusable repair output", ErrRepairFailed)
	}

	repaired := article.NewDocument(kw)
	if err := repaired.AppendBlocks(blocks); err != nil {
		report.BelowThreshold = true
		return doc, report, fmt.Errorf("%w: %v", ErrRepairFailed, err)
	}

	newReport := c.scorer.Score(repaired, kw)
	newReport.Repaired = true
	if newReport.Overall < c.config.Threshold {
		newReport.BelowThreshold = true
	}

	return repaired, newReport, nil
}

// weakDimensions names the sub-scores below the per-dimension floor, in a
// fixed order. An empty result (every dimension above floor but overall
// below threshold) falls back to the single lowest dimension.
func (c *Controller) weakDimensions(r Report) []string {
	dims := []struct {
		name  string
		score float64
	}{
		{"word_count", r.WordCount},
		{"keyword_density", r.KeywordDensity},
		{"typography", r.Typography},
		{"structure", r.Structure},
		{"engagement", r.Engagement},
		{"completeness", r.Completeness},
	}

	var weak []string
	lowest := dims[0]
	for _, d := range dims {
		if d.score < c.config.DimensionFloor {
			weak = append(weak, d.name)
		}
		if d.score < lowest.score {
			lowest = d
		}
	}
	if len(weak) == 0 {
		weak = []string{lowest.name}
	}
	return weak
}
