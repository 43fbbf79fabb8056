// Package quality scores generated articles along seven dimensions and
// drives the bounded repair cycle when a document falls below threshold.
package quality

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/tahrir-ai/tahrir/internal/article"
	"github.com/tahrir-ai/tahrir/internal/keyword"
)

var (
	ErrInvalidWeights = errors.New("dimension weights must sum to 1")
)

// Report holds the seven dimension scores for one scoring call. All scores
// are in [0,1]; Overall is the weighted combination of the other six.
type Report struct {
	WordCount      float64 `json:"word_count"`
	KeywordDensity float64 `json:"keyword_density"`
	Typography     float64 `json:"typography"`
	Structure      float64 `json:"structure"`
	Engagement     float64 `json:"engagement"`
	Completeness   float64 `json:"completeness"`
	Overall        float64 `json:"overall"`

	// Repaired is set by the repair controller after an improvement pass.
	Repaired bool `json:"repaired,omitempty"`

	// BelowThreshold flags a final report that stayed under the quality
	// threshold. This is surfaced status, not a failure.
	BelowThreshold bool `json:"below_threshold,omitempty"`
}

// Weights combines the six sub-scores into the overall score.
type Weights struct {
	WordCount      float64
	KeywordDensity float64
	Typography     float64
	Structure      float64
	Engagement     float64
	Completeness   float64
}

// DefaultWeights returns equal weighting.
func DefaultWeights() Weights {
	const w = 1.0 / 6.0
	return Weights{w, w, w, w, w, w}
}

func (w Weights) sum() float64 {
	return w.WordCount + w.KeywordDensity + w.Typography + w.Structure + w.Engagement + w.Completeness
}

// ScorerConfig holds the documented scoring thresholds.
type ScorerConfig struct {
	// MinWordCount is the length at which word-count adequacy reaches 1.0
	MinWordCount int

	// DensityLow and DensityHigh bound the optimal keyword occurrence
	// band, in percent of total words
	DensityLow  float64
	DensityHigh float64

	// Structure minimums
	MinH2         int
	MinTables     int
	MinParagraphs int

	Weights Weights
}

// DefaultScorerConfig returns the documented defaults.
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		MinWordCount:  1500,
		DensityLow:    0.5,
		DensityHigh:   3.0,
		MinH2:         6,
		MinTables:     2,
		MinParagraphs: 15,
		Weights:       DefaultWeights(),
	}
}

// Scorer computes quality reports. It is pure and stateless: identical
// input yields an identical report, with no side effects.
type Scorer struct {
	config ScorerConfig
}

// NewScorer validates the configuration and returns a scorer.
func NewScorer(config ScorerConfig) (*Scorer, error) {
	if config.MinWordCount <= 0 {
		return nil, fmt.Errorf("min word count must be positive, got %d", config.MinWordCount)
	}
	if config.DensityLow <= 0 || config.DensityHigh <= config.DensityLow {
		return nil, fmt.Errorf("invalid density band (%.2f, %.2f)", config.DensityLow, config.DensityHigh)
	}
	if math.Abs(config.Weights.sum()-1.0) > 1e-9 {
		return nil, fmt.Errorf("%w: sum is %.6f", ErrInvalidWeights, config.Weights.sum())
	}
	return &Scorer{config: config}, nil
}

// Score computes the seven dimension scores for the document.
func (s *Scorer) Score(doc *article.Document, kw string) Report {
	text := doc.Text()
	words := article.CountWords(text)

	r := Report{
		WordCount:      s.wordCountScore(words),
		KeywordDensity: s.densityScore(text, kw, words),
		Typography:     typographyScore(text),
		Structure:      s.structureScore(doc),
		Engagement:     engagementScore(text, words),
		Completeness:   completenessScore(doc, kw),
	}

	w := s.config.Weights
	r.Overall = w.WordCount*r.WordCount +
		w.KeywordDensity*r.KeywordDensity +
		w.Typography*r.Typography +
		w.Structure*r.Structure +
		w.Engagement*r.Engagement +
		w.Completeness*r.Completeness
	r.Overall = clamp01(r.Overall)

	return r
}

// wordCountScore is 1.0 at or above the minimum and scales linearly toward
// zero with the deficit.
func (s *Scorer) wordCountScore(words int) float64 {
	if words >= s.config.MinWordCount {
		return 1.0
	}
	if words <= 0 {
		return 0.0
	}
	return float64(words) / float64(s.config.MinWordCount)
}

// densityScore peaks at 1.0 inside the optimal band and falls off linearly
// on both sides: toward 0% below, and toward twice the upper edge above.
func (s *Scorer) densityScore(text, kw string, words int) float64 {
	if words == 0 || strings.TrimSpace(kw) == "" {
		return 0.0
	}

	count := strings.Count(article.Fold(text), article.Fold(kw))
	density := float64(count) / float64(words) * 100.0

	low, high := s.config.DensityLow, s.config.DensityHigh
	switch {
	case density < low:
		return clamp01(density / low)
	case density <= high:
		return 1.0
	default:
		return clamp01(1.0 - (density-high)/high)
	}
}

// Typography rules, each scored as a fraction of a per-rule violation
// allowance. The checks mirror the spacing rules the repair prompt asks
// the model to observe.
var (
	// comma directly attached to a neighboring word
	commaAttachedRe = regexp.MustCompile(`[^\s،]،|،[^\s،]`)

	// «می» verb prefix joined to the following letters
	miJoinedRe = regexp.MustCompile(`(^|[\s>])ن?می[\x{200C}][\x{0600}-\x{06FF}]|(^|[\s>])می[شخگردپب]`)
)

var joinedCompounds = []string{"راهها", "راهکارهای", "وبسایتهایی"}

const violationAllowance = 10.0

func typographyScore(text string) float64 {
	commaViolations := len(commaAttachedRe.FindAllString(text, -1))
	miViolations := len(miJoinedRe.FindAllString(text, -1))

	compoundViolations := 0
	for _, c := range joinedCompounds {
		compoundViolations += strings.Count(text, c)
	}

	rule := func(violations int) float64 {
		return clamp01(1.0 - float64(violations)/violationAllowance)
	}

	return (rule(commaViolations) + rule(miViolations) + rule(compoundViolations)) / 3.0
}

// structureScore averages fractional presence of the required elements:
// one top-level heading, second-level headings, tables and paragraphs.
func (s *Scorer) structureScore(doc *article.Document) float64 {
	var h1, h2, paragraphs, tables int
	for _, b := range doc.Blocks() {
		switch b.Kind {
		case article.BlockHeading:
			if b.Level == 1 {
				h1++
			} else if b.Level == 2 {
				h2++
			}
		case article.BlockParagraph:
			paragraphs++
		case article.BlockTable:
			tables++
		}
	}

	h1Score := 0.0
	if h1 >= 1 {
		h1Score = 1.0
	}

	frac := func(have, want int) float64 {
		if want <= 0 {
			return 1.0
		}
		return clamp01(float64(have) / float64(want))
	}

	return (h1Score +
		frac(h2, s.config.MinH2) +
		frac(tables, s.config.MinTables) +
		frac(paragraphs, s.config.MinParagraphs)) / 4.0
}

// Engagement markers: emotive phrases, example introductions, rhetorical
// questions and concrete figures.
var (
	emotiveRe  = regexp.MustCompile(`تصور کنید|بیایید|حتما|مطمئنا|قطعا|بدون شک`)
	exampleRe  = regexp.MustCompile(`برای مثال|به عنوان مثال|مثلا|مثال`)
	questionRe = regexp.MustCompile(`[?؟]|چگونه|چرا|کدام`)
	figureRe   = regexp.MustCompile(`[0-9۰-۹]+\s*(٪|%|برابر|درصد)`)
)

// engagementScore normalizes marker hits against document length, with a
// target rate of one marker per 75 words.
func engagementScore(text string, words int) float64 {
	if words == 0 {
		return 0.0
	}

	hits := len(emotiveRe.FindAllString(text, -1)) +
		len(exampleRe.FindAllString(text, -1)) +
		len(questionRe.FindAllString(text, -1)) +
		len(figureRe.FindAllString(text, -1))

	target := float64(words) / 75.0
	if target < 1 {
		target = 1
	}
	return clamp01(float64(hits) / target)
}

// completenessScore measures how many distinct sections mention the keyword
// or one of its variations, so topical coverage spread across the article
// scores higher than coverage clustered in one place.
func completenessScore(doc *article.Document, kw string) float64 {
	terms := []string{article.Fold(kw)}
	for _, v := range keyword.Variations(kw) {
		terms = append(terms, article.Fold(v))
	}

	var sections []string
	var current strings.Builder
	for _, b := range doc.Blocks() {
		if b.Kind == article.BlockHeading && b.Level <= 2 {
			if current.Len() > 0 {
				sections = append(sections, current.String())
				current.Reset()
			}
		}
		current.WriteString(article.Fold(b.Text))
		current.WriteString(" ")
	}
	if current.Len() > 0 {
		sections = append(sections, current.String())
	}

	if len(sections) == 0 {
		return 0.0
	}

	covered := 0
	for _, sec := range sections {
		for _, t := range terms {
			if t != "" && strings.Contains(sec, t) {
				covered++
				break
			}
		}
	}

	return clamp01(float64(covered) / float64(len(sections)))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
