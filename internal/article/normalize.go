package article

import (
	"regexp"
	"strings"
)

// Persian typography repair. The rules mirror the checks the quality scorer
// applies: the «می» verb prefix is separated with a plain space, commas get
// space on both sides, and a fixed set of compound words is split.

var (
	// arabic yeh and kaf folded to their Persian forms
	charFolder = strings.NewReplacer("ي", "ی", "ك", "ک")

	// «می» or «نمی» at a word start, optionally joined with ZWNJ or a
	// hyphen, directly followed by a Persian letter
	miPrefixRe = regexp.MustCompile(`(^|[\s>])(ن?می)[\x{200C}-]?([\x{0600}-\x{06FF}])`)

	persianCommaRe = regexp.MustCompile(`\s*،\s*`)
	latinCommaRe   = regexp.MustCompile(`\s*,\s*`)

	multiSpaceRe   = regexp.MustCompile(`[ \t]{2,}`)
	multiNewlineRe = regexp.MustCompile(`\n{3,}`)
)

// compoundSplits are joined compound words rewritten with a space.
var compoundSplits = [][2]string{
	{"راهها", "راه ها"},
	{"راهکارهای", "راهکار های"},
	{"وبسایتهایی", "وبسایت هایی"},
}

// Normalize repairs Persian spacing and character variants in generated
// text. It is applied to every completion before parsing, and again when
// rendering the final article.
func Normalize(text string) string {
	text = charFolder.Replace(text)

	text = miPrefixRe.ReplaceAllString(text, "$1$2 $3")

	text = persianCommaRe.ReplaceAllString(text, " ، ")
	text = latinCommaRe.ReplaceAllString(text, " , ")

	for _, c := range compoundSplits {
		text = strings.ReplaceAll(text, c[0], c[1])
	}

	text = multiSpaceRe.ReplaceAllString(text, " ")
	text = multiNewlineRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Fold reduces text to a comparison form: Persian character variants
// folded, ZWNJ removed, case lowered, surrounding space trimmed. Used for
// diacritic-insensitive matching of keywords and section labels.
func Fold(s string) string {
	s = charFolder.Replace(s)
	s = strings.ReplaceAll(s, "‌", "")
	return strings.ToLower(strings.TrimSpace(s))
}

// FoldTokens splits text into folded tokens for overlap matching.
func FoldTokens(s string) []string {
	return strings.Fields(Fold(s))
}
