package chunking

import "strings"

// separators, in preference order, for choosing a cut point near the
// window limit.
var separators = []string{"\n\n", "\n", ". ", " "}

type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

// Split cuts text into pieces of at most ChunkSize runes, preferring a
// paragraph, line or sentence boundary in the back half of the window
// over a hard cut. Consecutive pieces overlap by up to Overlap runes.
// Every piece is a trimmed contiguous substring of the input, which
// lets callers locate it back in the source text.
func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	out := make([]string, 0, len(runes)/s.ChunkSize+1)
	start := 0
	for start < len(runes) {
		end := start + s.ChunkSize
		if end >= len(runes) {
			if piece := strings.TrimSpace(string(runes[start:])); piece != "" {
				out = append(out, piece)
			}
			break
		}

		cut := s.cutPoint(runes, start, end)
		if piece := strings.TrimSpace(string(runes[start:cut])); piece != "" {
			out = append(out, piece)
		}

		next := cut - s.Overlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return out
}

// cutPoint returns the rune index right after the last preferred
// separator in the back half of the window, or the hard limit when no
// separator is found there.
func (s *Splitter) cutPoint(runes []rune, start, end int) int {
	window := string(runes[start:end])
	floor := len(window) / 2
	for _, sep := range separators {
		if idx := strings.LastIndex(window, sep); idx >= floor {
			return start + len([]rune(window[:idx+len(sep)]))
		}
	}
	return end
}
