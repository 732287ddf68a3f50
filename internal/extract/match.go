package extract

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ExtractedFile holds the matches produced by one extraction over one input.
type ExtractedFile struct {
	// File is the origin path, or empty for anonymous input.
	File string
	// FileType is the language tag (e.g. "rust").
	FileType string
	// Matches are in query traversal order, not sorted.
	Matches []ExtractedMatch
}

// ExtractedMatch is one surviving capture from a query match.
type ExtractedMatch struct {
	// Kind is the syntax node's grammar kind. Internal/debug only; it is
	// deliberately left out of JSON output.
	Kind string `json:"-"`
	// Name is the capture name from the query.
	Name string `json:"name"`
	// Text is the matched source span.
	Text string `json:"text"`
	// Start and End delimit the span, 0-based internally.
	Start Point `json:"start"`
	End   Point `json:"end"`
}

// Point is a (row, column) position. Rows and columns are 0-based in memory;
// every external surface (text lines, JSON, storage) adds 1 on the way out.
type Point struct {
	Row    uint
	Column uint
}

func pointFrom(p sitter.Point) Point {
	return Point{Row: p.Row, Column: p.Column}
}

// MarshalJSON renders the point 1-based, as {"row": r, "column": c}.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Row    uint `json:"row"`
		Column uint `json:"column"`
	}{p.Row + 1, p.Column + 1})
}

// UnmarshalJSON accepts the external 1-based form and converts back.
func (p *Point) UnmarshalJSON(data []byte) error {
	var external struct {
		Row    uint `json:"row"`
		Column uint `json:"column"`
	}
	if err := json.Unmarshal(data, &external); err != nil {
		return err
	}
	if external.Row == 0 || external.Column == 0 {
		return fmt.Errorf("point coordinates are 1-based, got {%d, %d}", external.Row, external.Column)
	}
	p.Row = external.Row - 1
	p.Column = external.Column - 1
	return nil
}

// Compare orders points by row, then column.
func (p Point) Compare(other Point) int {
	if c := compareUint(p.Row, other.Row); c != 0 {
		return c
	}
	return compareUint(p.Column, other.Column)
}

// MarshalJSON renders file as null when no path was recorded.
func (f *ExtractedFile) MarshalJSON() ([]byte, error) {
	var file *string
	if f.File != "" {
		file = &f.File
	}
	return json.Marshal(struct {
		File     *string          `json:"file"`
		FileType string           `json:"file_type"`
		Matches  []ExtractedMatch `json:"matches"`
	}{file, f.FileType, f.Matches})
}

// UnmarshalJSON mirrors MarshalJSON.
func (f *ExtractedFile) UnmarshalJSON(data []byte) error {
	var external struct {
		File     *string          `json:"file"`
		FileType string           `json:"file_type"`
		Matches  []ExtractedMatch `json:"matches"`
	}
	if err := json.Unmarshal(data, &external); err != nil {
		return err
	}
	f.File = ""
	if external.File != nil {
		f.File = *external.File
	}
	f.FileType = external.FileType
	f.Matches = external.Matches
	return nil
}

// String renders one line per match as origin:row:col:name:text with 1-based
// coordinates. Text is emitted verbatim; embedded newlines or colons are not
// escaped.
func (f *ExtractedFile) String() string {
	origin := f.Origin()

	var b strings.Builder
	for _, m := range f.Matches {
		fmt.Fprintf(&b, "%s:%d:%d:%s:%s\n", origin, m.Start.Row+1, m.Start.Column+1, m.Name, m.Text)
	}
	return b.String()
}

// Origin returns the path rendered for output, substituting placeholders for
// absent or non-decodable paths.
func (f *ExtractedFile) Origin() string {
	switch {
	case f.File == "":
		return "NO FILE"
	case !utf8.ValidString(f.File):
		return "NON-UTF8 FILENAME"
	default:
		return f.File
	}
}

// Compare totally orders files by path, then language tag, then matches.
// Anonymous input sorts before any path.
func (f *ExtractedFile) Compare(other *ExtractedFile) int {
	if c := strings.Compare(f.File, other.File); c != 0 {
		return c
	}
	if c := strings.Compare(f.FileType, other.FileType); c != 0 {
		return c
	}
	return compareMatches(f.Matches, other.Matches)
}

// Compare totally orders matches over all fields: kind, name, text, start,
// end. Extraction itself never reorders; this exists for downstream sorting
// and deduplication.
func (m *ExtractedMatch) Compare(other *ExtractedMatch) int {
	if c := strings.Compare(m.Kind, other.Kind); c != 0 {
		return c
	}
	if c := strings.Compare(m.Name, other.Name); c != 0 {
		return c
	}
	if c := strings.Compare(m.Text, other.Text); c != 0 {
		return c
	}
	if c := m.Start.Compare(other.Start); c != 0 {
		return c
	}
	return m.End.Compare(other.End)
}

func compareMatches(a, b []ExtractedMatch) int {
	for i := range a {
		if i >= len(b) {
			return 1
		}
		if c := a[i].Compare(&b[i]); c != 0 {
			return c
		}
	}
	if len(a) < len(b) {
		return -1
	}
	return 0
}

func compareUint(a, b uint) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
