package article

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	fenceOpenRe  = regexp.MustCompile("(?i)```html\\s*")
	fenceCloseRe = regexp.MustCompile("(?m)```\\s*$")
)

// StripCodeFences removes markdown code fences the model sometimes wraps
// its HTML output in.
func StripCodeFences(s string) string {
	s = fenceOpenRe.ReplaceAllString(s, "")
	s = fenceCloseRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// ParseBlocks parses generated HTML into ordered blocks. Headings h1-h4,
// paragraphs and tables are kept; everything else (wrapper divs, hidden
// guidance comments) is dropped. Elements nested inside tables belong to
// the table block.
func ParseBlocks(html string) ([]Block, error) {
	html = StripCodeFences(html)
	if strings.TrimSpace(html) == "" {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing generated markup: %w", err)
	}

	var blocks []Block
	doc.Find("h1, h2, h3, h4, p, table").Each(func(_ int, s *goquery.Selection) {
		// Skip cells and captions inside a table; the table itself is one block.
		if s.ParentsFiltered("table").Length() > 0 {
			return
		}

		switch goquery.NodeName(s) {
		case "h1", "h2", "h3", "h4":
			text := strings.TrimSpace(s.Text())
			if text == "" {
				return
			}
			level := int(goquery.NodeName(s)[1] - '0')
			blocks = append(blocks, Block{Kind: BlockHeading, Level: level, Text: text})
		case "p":
			text := strings.TrimSpace(s.Text())
			if text == "" {
				return
			}
			blocks = append(blocks, Block{Kind: BlockParagraph, Text: text})
		case "table":
			markup, err := goquery.OuterHtml(s)
			if err != nil {
				return
			}
			blocks = append(blocks, Block{Kind: BlockTable, Text: strings.TrimSpace(s.Text()), HTML: strings.TrimSpace(markup)})
		}
	})

	return blocks, nil
}
