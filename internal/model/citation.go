package model

// NotFoundMarker replaces a citation whose text could not be located in the
// reference material. Callers auditing verified output must treat it as a
// sentinel, never as matched text.
const NotFoundMarker = "CITATION NOT FOUND"

// Citation represents a quoted span extracted from model-generated text
type Citation struct {
	Text  string `json:"text"`  // Inner text with the quote characters stripped
	Start int    `json:"start"` // Byte offset of the first inner character in the source text
	End   int    `json:"end"`   // Byte offset just past the last inner character
}

// MatchResult is the outcome of searching a reference text for a citation
type MatchResult struct {
	Found    bool   `json:"found"`
	Text     string `json:"text,omitempty"`   // Best-matching substring of the reference
	Distance int    `json:"distance"`         // Edit distance between citation and match
	Offset   int    `json:"offset,omitempty"` // Byte offset of the match in the reference
}

// NoMatch is the MatchResult for a citation with no acceptable match.
// Not an error: it surfaces in verified text as NotFoundMarker.
func NoMatch() MatchResult {
	return MatchResult{Found: false}
}

// Match builds a successful MatchResult
func Match(text string, distance, offset int) MatchResult {
	return MatchResult{Found: true, Text: text, Distance: distance, Offset: offset}
}
