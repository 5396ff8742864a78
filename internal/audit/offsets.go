package audit

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/model"
)

// minFuzzyRunes is the shortest normalized snippet matched fuzzily.
const minFuzzyRunes = 10

// FindCharOffsets returns the byte range of snippet in fullText, or -1, -1.
// An exact match is tried first. Otherwise both strings are compared with
// whitespace runs collapsed and case folded, and the match is mapped back to
// the original text.
func FindCharOffsets(fullText, snippet string) (start, end int) {
	if snippet == "" || fullText == "" {
		return -1, -1
	}
	if i := strings.Index(fullText, snippet); i >= 0 {
		return i, i + len(snippet)
	}

	needle, _, _ := normalize(snippet)
	needle = strings.TrimSpace(needle)
	if utf8.RuneCountInString(needle) < minFuzzyRunes {
		return -1, -1
	}
	hay, starts, ends := normalize(fullText)
	i := strings.Index(hay, needle)
	if i < 0 {
		return -1, -1
	}
	return starts[i], ends[i+len(needle)-1]
}

// normalize lowercases s and collapses whitespace runs to one space. For
// every output byte it records the byte range of the input rune it came from.
func normalize(s string) (out string, starts, ends []int) {
	var b strings.Builder
	b.Grow(len(s))
	starts = make([]int, 0, len(s))
	ends = make([]int, 0, len(s))

	inSpace := false
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		var written string
		switch {
		case unicode.IsSpace(r):
			if !inSpace {
				written = " "
			}
			inSpace = true
		default:
			inSpace = false
			if r == utf8.RuneError && size == 1 {
				written = s[i : i+1]
			} else {
				written = string(unicode.ToLower(r))
			}
		}
		b.WriteString(written)
		for range len(written) {
			starts = append(starts, i)
			ends = append(ends, i+size)
		}
		i += size
	}
	return b.String(), starts, ends
}

// AugmentWithDocumentText fills the offsets of unlocated source pointers from
// the document texts keyed by document id, and returns the number located.
// Located pointers are never changed. t is modified in place.
func AugmentWithDocumentText(t *model.ComparisonTable, texts map[string]string) int {
	located := 0
	for si := range t.Sections {
		for ri := range t.Sections[si].Rows {
			row := &t.Sections[si].Rows[ri]
			for vi := range row.Values {
				cell := &row.Values[vi]
				if cell.Audit == nil {
					continue
				}
				for pi := range cell.Audit.Sources {
					ptr := &cell.Audit.Sources[pi]
					if ptr.Located() {
						continue
					}
					text, ok := texts[ptr.DocumentID]
					if !ok {
						continue
					}
					snippet := ptr.Excerpt
					if cell.Citation != nil && cell.Citation.Excerpt != "" {
						snippet = cell.Citation.Excerpt
					}
					start, end := FindCharOffsets(text, snippet)
					if start < 0 {
						continue
					}
					ptr.StartOffset, ptr.EndOffset = start, end
					located++
				}
			}
		}
	}
	return located
}
