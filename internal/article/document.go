// Package article holds the working document model: ordered heading,
// paragraph and table blocks assembled by the generation pipeline, plus the
// HTML parsing and Persian typography normalization applied to model output.
package article

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrFinalized = errors.New("document is finalized")
)

// BlockKind identifies the structural role of a block.
type BlockKind int

const (
	BlockHeading BlockKind = iota
	BlockParagraph
	BlockTable
)

// Block is one structural element of the article. Tables keep their raw
// markup in HTML; headings and paragraphs carry plain text.
type Block struct {
	Kind  BlockKind
	Level int    // heading level, 0 for non-headings
	Text  string // plain text content
	HTML  string // raw markup, set for tables
}

// Document is the working article: an ordered sequence of blocks owned by
// the pipeline for the duration of a run. Appends are atomic per phase;
// once finalized the document is immutable.
type Document struct {
	Keyword   string
	blocks    []Block
	finalized bool
}

// NewDocument creates an empty document for the given keyword.
func NewDocument(keyword string) *Document {
	return &Document{Keyword: keyword}
}

// AppendBlocks appends a full phase output in one step. Either every block
// is appended or none; appending to a finalized document fails.
func (d *Document) AppendBlocks(blocks []Block) error {
	if d.finalized {
		return ErrFinalized
	}
	d.blocks = append(d.blocks, blocks...)
	return nil
}

// Finalize marks the document immutable.
func (d *Document) Finalize() {
	d.finalized = true
}

// Finalized reports whether the document has been finalized.
func (d *Document) Finalized() bool {
	return d.finalized
}

// Blocks returns a copy of the document's blocks in order.
func (d *Document) Blocks() []Block {
	out := make([]Block, len(d.blocks))
	copy(out, d.blocks)
	return out
}

// Len returns the number of blocks.
func (d *Document) Len() int {
	return len(d.blocks)
}

// Text returns the document's plain text, block per line.
func (d *Document) Text() string {
	var b strings.Builder
	for _, blk := range d.blocks {
		if blk.Kind == BlockTable {
			b.WriteString(StripTags(blk.HTML))
		} else {
			b.WriteString(blk.Text)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// HTML renders the document body as markup.
func (d *Document) HTML() string {
	var b strings.Builder
	for _, blk := range d.blocks {
		switch blk.Kind {
		case BlockHeading:
			level := blk.Level
			if level < 1 || level > 6 {
				level = 2
			}
			fmt.Fprintf(&b, "<h%d>%s</h%d>\n", level, blk.Text, level)
		case BlockParagraph:
			fmt.Fprintf(&b, "<p>%s</p>\n", blk.Text)
		case BlockTable:
			b.WriteString(blk.HTML)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// WordCount counts whitespace-separated words over the plain text.
func (d *Document) WordCount() int {
	return CountWords(d.Text())
}

var tagRe = regexp.MustCompile(`<[^>]+>`)

// StripTags removes markup tags, leaving text content.
func StripTags(s string) string {
	return tagRe.ReplaceAllString(s, " ")
}

// CountWords counts whitespace-separated words after stripping markup.
func CountWords(s string) int {
	return len(strings.Fields(StripTags(s)))
}
