package rag

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/tahrir-ai/tahrir/internal/article"
	"github.com/tahrir-ai/tahrir/internal/passage"
)

// ChunkOptions controls section chunking of a source article.
type ChunkOptions struct {
	// MaxWords is the upper word bound per chunk; sections over it are split
	MaxWords int

	// MinWords drops fragments too small to retrieve usefully
	MinWords int
}

// DefaultChunkOptions returns the documented chunking defaults.
func DefaultChunkOptions() ChunkOptions {
	return ChunkOptions{
		MaxWords: 220,
		MinWords: 20,
	}
}

// ChunkSections splits an HTML article into passages, one or more per
// heading-delimited section. Content before the first heading becomes an
// unlabeled leading passage. Returned passages have no embeddings yet.
func ChunkSections(html, sourceID string, opts ChunkOptions) ([]passage.Passage, error) {
	if opts.MaxWords <= 0 {
		opts = DefaultChunkOptions()
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	type section struct {
		label string
		parts []string
	}

	sections := []section{{label: ""}}
	doc.Find("h1, h2, h3, p, li, td").Each(func(_ int, s *goquery.Selection) {
		if s.ParentsFiltered("table").Length() > 0 && !s.Is("td") {
			return
		}
		text := article.Normalize(strings.TrimSpace(s.Text()))
		if text == "" {
			return
		}
		if s.Is("h1") || s.Is("h2") || s.Is("h3") {
			sections = append(sections, section{label: text})
			return
		}
		last := &sections[len(sections)-1]
		last.parts = append(last.parts, text)
	})

	var passages []passage.Passage
	for _, sec := range sections {
		body := strings.Join(sec.parts, "\n")
		if article.CountWords(body) < opts.MinWords {
			continue
		}
		for _, chunk := range splitByWords(body, opts.MaxWords) {
			passages = append(passages, passage.Passage{
				ID:           uuid.NewString(),
				SourceID:     sourceID,
				SectionLabel: sec.label,
				Text:         chunk,
			})
		}
	}

	return passages, nil
}

// splitByWords cuts text into chunks of at most maxWords words, breaking at
// line boundaries where possible.
func splitByWords(text string, maxWords int) []string {
	if article.CountWords(text) <= maxWords {
		return []string{text}
	}

	var chunks []string
	var current []string
	count := 0
	for _, line := range strings.Split(text, "\n") {
		words := article.CountWords(line)
		if count > 0 && count+words > maxWords {
			chunks = append(chunks, strings.Join(current, "\n"))
			current = current[:0]
			count = 0
		}
		current = append(current, line)
		count += words
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n"))
	}
	return chunks
}
