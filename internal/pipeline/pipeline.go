// Package pipeline orchestrates article generation: an introduction phase,
// a planned fan-out of body sections, and a validate/repair phase. Each
// phase retrieves and selects its own context passages and appends its
// output to the shared document atomically.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/tahrir-ai/tahrir/internal/article"
	"github.com/tahrir-ai/tahrir/internal/keyword"
	"github.com/tahrir-ai/tahrir/internal/llm"
	"github.com/tahrir-ai/tahrir/internal/passage"
	"github.com/tahrir-ai/tahrir/internal/prompt"
	"github.com/tahrir-ai/tahrir/internal/quality"
	"github.com/tahrir-ai/tahrir/internal/selector"
)

// Phase names the pipeline stage an error occurred in.
type Phase string

const (
	PhaseIntroduction Phase = "introduction"
	PhasePlan         Phase = "plan"
	PhaseBody         Phase = "body"
	PhaseValidate     Phase = "validate"
)

// PhaseError wraps a phase failure together with the partial document built
// so far, so callers can inspect or persist what was produced.
type PhaseError struct {
	Phase Phase
	Doc   *article.Document
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s phase: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

var (
	ErrEmptyKeyword = errors.New("keyword cannot be empty")
)

// CandidateSource narrows the passage catalog per query. Implemented by the
// retriever; tests substitute a fixture.
type CandidateSource interface {
	Candidates(ctx context.Context, q passage.Query, topN int) ([]passage.Passage, [][]float32, error)
}

// Config holds the generation run parameters.
type Config struct {
	// TopK passages are selected as context per phase
	TopK int

	// SectionCount is the number of planned body sections
	SectionCount int

	// Workers bounds concurrent body-section completions
	Workers int

	// MinSectionWords is the per-section word floor passed to prompts
	MinSectionWords int

	// MinTables is the minimum number of body sections asked to carry a table
	MinTables int

	// Selector holds the passage selection weights
	Selector selector.Config

	// LLMOptions are the sampling parameters for generation completions
	LLMOptions llm.Options
}

// DefaultConfig returns the documented generation defaults.
func DefaultConfig() Config {
	return Config{
		TopK:            12,
		SectionCount:    10,
		Workers:         3,
		MinSectionWords: 150,
		MinTables:       2,
		Selector:        selector.DefaultConfig(),
		LLMOptions:      llm.Options{MaxTokens: 1500, Temperature: 0.3},
	}
}

// Result is the outcome of a generation run. RepairErr is set when the
// improvement pass could not run; the document is still usable.
type Result struct {
	Document  *article.Document
	Report    quality.Report
	RepairErr error
}

// Pipeline runs the three generation phases over a candidate source and a
// completion service.
type Pipeline struct {
	source     CandidateSource
	svc        llm.LLM
	scorer     *quality.Scorer
	controller *quality.Controller
	config     Config
}

// New creates a pipeline. All collaborators are required.
func New(source CandidateSource, svc llm.LLM, scorer *quality.Scorer, controller *quality.Controller, config Config) (*Pipeline, error) {
	if source == nil {
		return nil, fmt.Errorf("candidate source cannot be nil")
	}
	if svc == nil {
		return nil, fmt.Errorf("llm service cannot be nil")
	}
	if scorer == nil {
		return nil, fmt.Errorf("scorer cannot be nil")
	}
	if controller == nil {
		return nil, fmt.Errorf("controller cannot be nil")
	}
	if config.TopK <= 0 || config.SectionCount <= 0 {
		return nil, fmt.Errorf("topK and sectionCount must be positive")
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	return &Pipeline{
		source:     source,
		svc:        svc,
		scorer:     scorer,
		controller: controller,
		config:     config,
	}, nil
}

// plannedSection is one entry of the body structure plan.
type plannedSection struct {
	Title      string `json:"title"`
	NeedsTable bool   `json:"needs_table"`
}

// Run generates an article for the keyword. On success the returned document
// is finalized; phase failures return a PhaseError carrying the partial
// document. A failed repair pass is reported through Result.RepairErr
// without failing the run.
func (p *Pipeline) Run(ctx context.Context, kw string) (*Result, error) {
	if kw == "" {
		return nil, ErrEmptyKeyword
	}

	doc := article.NewDocument(kw)
	variations := keyword.Variations(kw)
	log.Printf("[Pipeline] generating article for %q (%d variations)", kw, len(variations))

	// Phase 1: introduction.
	guidance, err := p.runIntroduction(ctx, doc, kw, variations)
	if err != nil {
		return nil, &PhaseError{Phase: PhaseIntroduction, Doc: doc, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return nil, &PhaseError{Phase: PhasePlan, Doc: doc, Err: err}
	}

	// Phase 2: body. Plan the sections, then fan out generation.
	plan, err := p.planSections(ctx, kw, variations, guidance)
	if err != nil {
		return nil, &PhaseError{Phase: PhasePlan, Doc: doc, Err: err}
	}

	if err := p.runBody(ctx, doc, kw, variations, guidance, plan); err != nil {
		return nil, &PhaseError{Phase: PhaseBody, Doc: doc, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return nil, &PhaseError{Phase: PhaseValidate, Doc: doc, Err: err}
	}

	// Phase 3: validate and repair.
	report := p.scorer.Score(doc, kw)
	log.Printf("[Pipeline] initial quality %.2f", report.Overall)

	repaired, finalReport, repairErr := p.controller.MaybeRepair(ctx, doc, report, p.svc, kw)
	if repairErr != nil {
		log.Printf("[Pipeline] repair pass failed, keeping original: %v", repairErr)
	}

	repaired.Finalize()
	return &Result{
		Document:  repaired,
		Report:    finalReport,
		RepairErr: repairErr,
	}, nil
}

// runIntroduction generates the H1 and opening paragraphs, appends them to
// the document and returns the guidance line for body planning.
func (p *Pipeline) runIntroduction(ctx context.Context, doc *article.Document, kw string, variations []string) (string, error) {
	q := passage.Query{Keyword: kw, Variations: variations}
	ctxBlock, err := p.selectContext(ctx, q)
	if err != nil {
		return "", err
	}

	text, err := llm.CompleteWithRetry(ctx, p.svc, prompt.Introduction(kw, ctxBlock), p.config.LLMOptions)
	if err != nil {
		return "", fmt.Errorf("introduction completion: %w", err)
	}

	guidance := prompt.ExtractNextFocus(text)
	blocks, err := article.ParseBlocks(article.Normalize(text))
	if err != nil {
		return "", fmt.Errorf("parsing introduction: %w", err)
	}
	if len(blocks) == 0 {
		return "", fmt.Errorf("introduction produced no usable blocks")
	}
	if err := doc.AppendBlocks(blocks); err != nil {
		return "", err
	}

	log.Printf("[Pipeline] introduction done: %d blocks, next focus %q", len(blocks), guidance)
	return guidance, nil
}

// planSections asks the model for the body structure, falling back to a
// fixed plan when the output is not valid JSON. The plan always carries at
// least MinTables table sections.
func (p *Pipeline) planSections(ctx context.Context, kw string, variations []string, guidance string) ([]plannedSection, error) {
	q := passage.Query{Keyword: kw, Variations: variations}
	ctxBlock, err := p.selectContext(ctx, q)
	if err != nil {
		return nil, err
	}

	text, err := llm.CompleteWithRetry(ctx, p.svc, prompt.StructurePlan(kw, p.config.SectionCount, guidance, ctxBlock), p.config.LLMOptions)
	if err != nil {
		return nil, fmt.Errorf("structure plan completion: %w", err)
	}

	var parsed struct {
		Sections []plannedSection `json:"sections"`
	}
	if err := json.Unmarshal([]byte(article.StripCodeFences(text)), &parsed); err != nil || len(parsed.Sections) == 0 {
		log.Printf("[Pipeline] structure plan unusable, using fallback plan")
		return p.fallbackPlan(kw), nil
	}

	plan := parsed.Sections
	if len(plan) > p.config.SectionCount {
		plan = plan[:p.config.SectionCount]
	}

	tables := 0
	for _, s := range plan {
		if s.NeedsTable {
			tables++
		}
	}
	for i := 0; tables < p.config.MinTables && i < len(plan); i++ {
		if !plan[i].NeedsTable {
			plan[i].NeedsTable = true
			tables++
		}
	}

	return plan, nil
}

// fallbackPlan is the static body structure used when planning fails.
func (p *Pipeline) fallbackPlan(kw string) []plannedSection {
	titles := []string{
		"%s چیست؟",
		"اهمیت %s",
		"مزایای %s",
		"انواع %s",
		"مراحل %s",
		"بهترین روش های %s",
		"اشتباهات رایج در %s",
		"ابزارها و امکانات %s",
		"نکات حرفه ای %s",
		"جمع بندی %s",
	}

	plan := make([]plannedSection, 0, p.config.SectionCount)
	for i := 0; i < p.config.SectionCount && i < len(titles); i++ {
		plan = append(plan, plannedSection{
			Title: fmt.Sprintf(titles[i], kw),
			// Comparison and steps sections carry the tables.
			NeedsTable: i == 2 || i == 4,
		})
	}
	return plan
}

// runBody generates the planned sections concurrently and appends them to
// the document in planned order.
func (p *Pipeline) runBody(ctx context.Context, doc *article.Document, kw string, variations []string, guidance string, plan []plannedSection) error {
	slots := make([][]article.Block, len(plan))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.Workers)

	for i, section := range plan {
		g.Go(func() error {
			q := passage.Query{Keyword: kw, Variations: variations, SectionTitle: section.Title}
			ctxBlock, err := p.selectContext(gctx, q)
			if err != nil {
				return fmt.Errorf("section %q context: %w", section.Title, err)
			}

			sectionPrompt := prompt.Section(kw, section.Title, 2, section.NeedsTable, p.config.MinSectionWords, guidance, ctxBlock)
			text, err := llm.CompleteWithRetry(gctx, p.svc, sectionPrompt, p.config.LLMOptions)
			if err != nil {
				return fmt.Errorf("section %q completion: %w", section.Title, err)
			}

			blocks, err := article.ParseBlocks(article.Normalize(text))
			if err != nil || len(blocks) == 0 {
				return fmt.Errorf("section %q produced no usable blocks", section.Title)
			}

			slots[i] = blocks
			return nil
		})
	}

	genErr := g.Wait()

	// Append completed sections in planned order, stopping at the first
	// gap so the document never carries out-of-order content.
	for _, blocks := range slots {
		if blocks == nil {
			break
		}
		if err := doc.AppendBlocks(blocks); err != nil {
			return err
		}
	}

	if genErr != nil {
		return genErr
	}

	log.Printf("[Pipeline] body done: %d sections, %d words", len(plan), doc.WordCount())
	return nil
}

// selectContext retrieves and selects passages for a query and renders them
// as the prompt context block. An empty catalog yields an empty block.
func (p *Pipeline) selectContext(ctx context.Context, q passage.Query) (string, error) {
	pool, queryVecs, err := p.source.Candidates(ctx, q, p.config.TopK)
	if err != nil {
		return "", fmt.Errorf("retrieving candidates: %w", err)
	}
	if len(pool) == 0 {
		return "", nil
	}

	selected, err := selector.Select(q, pool, queryVecs, p.config.TopK, p.config.Selector)
	if err != nil {
		return "", fmt.Errorf("selecting passages: %w", err)
	}

	return prompt.ContextBlock(selected), nil
}
