package extract

import (
	"github.com/scholarlabs/scholar/internal/model"
)

// Quote mark pairs recognized by the scanner. Model output is uncontrolled,
// so both ASCII and typographic quotes must be handled.
const (
	asciiQuote = '"'
	curlyOpen  = '“' // “
	curlyClose = '”' // ”
)

// ExtractCitations scans generated text for quoted spans and returns them in
// left-to-right order of their opening quote. A span opened with an ASCII
// quote closes at the next ASCII quote; a span opened with a typographic
// quote closes at the next closing typographic mark. Empty spans are not
// citations and are dropped. Unbalanced quotes are handled best-effort: a
// span with no closer is discarded, a stray closer is ignored. Nested quotes
// are not supported as input; a repeated typographic opener restarts the
// current span rather than nesting.
//
// The function is pure: no I/O, no mutation, deterministic for a given input.
func ExtractCitations(text string) []model.Citation {
	var citations []model.Citation

	open := false
	var opener rune
	start := 0 // byte offset of the first inner character

	for i, r := range text {
		if !open {
			switch r {
			case asciiQuote:
				open = true
				opener = asciiQuote
				start = i + 1
			case curlyOpen:
				open = true
				opener = curlyOpen
				start = i + len(string(curlyOpen))
			}
			continue
		}

		switch {
		case opener == asciiQuote && r == asciiQuote:
			if i > start {
				citations = append(citations, model.Citation{
					Text:  text[start:i],
					Start: start,
					End:   i,
				})
			}
			open = false
		case opener == curlyOpen && r == curlyClose:
			if i > start {
				citations = append(citations, model.Citation{
					Text:  text[start:i],
					Start: start,
					End:   i,
				})
			}
			open = false
		case opener == curlyOpen && r == curlyOpen:
			// Restart on a repeated opener so the innermost span survives
			start = i + len(string(curlyOpen))
		}
	}

	return citations
}
