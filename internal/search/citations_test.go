package search

import (
	"testing"
	"unicode/utf8"
)

func TestAddCitationsDescendingOffsets(t *testing.T) {
	text := "Go is fast. Go is simple."
	chunks := []GroundingChunk{
		{URI: "https://a.example"},
		{URI: "https://b.example"},
	}
	// Supports arrive in ascending order; insertion must happen in
	// descending end-index order so the first offset is not shifted.
	supports := []GroundingSupport{
		{EndIndex: 11, ChunkIndices: []int{0}},
		{EndIndex: 25, ChunkIndices: []int{1}},
	}

	got := AddCitations(text, supports, chunks)
	want := "Go is fast.[1](https://a.example) Go is simple.[2](https://b.example)"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestAddCitationsMultipleChunksPerSupport(t *testing.T) {
	text := "fact"
	chunks := []GroundingChunk{{URI: "u1"}, {URI: "u2"}}
	supports := []GroundingSupport{{EndIndex: 4, ChunkIndices: []int{0, 1}}}

	got := AddCitations(text, supports, chunks)
	want := "fact[1](u1), [2](u2)"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestAddCitationsSkipsUnusableSupports(t *testing.T) {
	text := "fact"
	chunks := []GroundingChunk{{URI: ""}}
	supports := []GroundingSupport{
		{EndIndex: -1, ChunkIndices: []int{0}},
		{EndIndex: 2, ChunkIndices: nil},
		{EndIndex: 2, ChunkIndices: []int{0}},  // empty URI
		{EndIndex: 2, ChunkIndices: []int{99}}, // out of range
	}

	if got := AddCitations(text, supports, chunks); got != text {
		t.Errorf("expected text unchanged, got %q", got)
	}
}

func TestAddCitationsClampsEndIndex(t *testing.T) {
	text := "hi"
	chunks := []GroundingChunk{{URI: "u"}}
	supports := []GroundingSupport{{EndIndex: 100, ChunkIndices: []int{0}}}

	got := AddCitations(text, supports, chunks)
	if got != "hi[1](u)" {
		t.Errorf("got %q", got)
	}
}

func TestAddCitationsMidRuneOffset(t *testing.T) {
	// "héllo": é is two bytes (0xc3 0xa9), so byte offset 2 lands inside
	// the rune. The insertion must back up to the rune boundary and keep
	// the output valid UTF-8.
	text := "héllo"
	chunks := []GroundingChunk{{URI: "u"}}
	supports := []GroundingSupport{{EndIndex: 2, ChunkIndices: []int{0}}}

	got := AddCitations(text, supports, chunks)
	want := "h[1](u)éllo"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if !utf8.ValidString(got) {
		t.Errorf("output is not valid UTF-8: %q", got)
	}
}

func TestAddCitationsNoMetadata(t *testing.T) {
	if got := AddCitations("text", nil, nil); got != "text" {
		t.Errorf("got %q", got)
	}
}
