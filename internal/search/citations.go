package search

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// GroundingSupport ties a span of generated text to source chunks.
// EndIndex is a byte offset into the answer text.
type GroundingSupport struct {
	EndIndex     int
	ChunkIndices []int
}

// GroundingChunk is one grounded source.
type GroundingChunk struct {
	URI   string
	Title string
}

// AddCitations inserts markdown citation links at the offsets reported by
// the grounding metadata. Insertions are applied in descending end-index
// order so earlier offsets are not shifted by later insertions.
func AddCitations(text string, supports []GroundingSupport, chunks []GroundingChunk) string {
	sorted := make([]GroundingSupport, len(supports))
	copy(sorted, supports)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EndIndex > sorted[j].EndIndex
	})

	for _, support := range sorted {
		if support.EndIndex < 0 || len(support.ChunkIndices) == 0 {
			continue
		}

		var links []string
		for _, idx := range support.ChunkIndices {
			if idx < 0 || idx >= len(chunks) || chunks[idx].URI == "" {
				continue
			}
			links = append(links, fmt.Sprintf("[%d](%s)", idx+1, chunks[idx].URI))
		}
		if len(links) == 0 {
			continue
		}

		end := support.EndIndex
		if end > len(text) {
			end = len(text)
		}
		// A mid-rune offset would split the encoding; back up to the
		// nearest boundary.
		for end > 0 && end < len(text) && !utf8.RuneStart(text[end]) {
			end--
		}
		text = text[:end] + strings.Join(links, ", ") + text[end:]
	}
	return text
}
