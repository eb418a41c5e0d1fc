package segment

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// boundaryWindow is how far back from the end of a chunk window the
// splitter searches for a sentence terminator or line break.
const boundaryWindow = 100

// Split cuts text into overlapping chunks of at most maxLen characters.
// Chunk boundaries prefer a sentence end (". ") or a line break found
// within the last boundaryWindow characters of the window, so chunks
// avoid breaking mid-sentence. Each chunk shares its trailing overlap
// characters with the start of the next chunk.
//
// overlap must be smaller than maxLen; the call fails fast otherwise
// since a larger overlap would stall the window from advancing.
func Split(text string, maxLen, overlap int) ([]string, error) {
	if maxLen <= 0 {
		return nil, fmt.Errorf("max length must be positive, got %d", maxLen)
	}
	if overlap < 0 || overlap >= maxLen {
		return nil, fmt.Errorf("overlap %d must be in [0, %d)", overlap, maxLen)
	}

	if len(text) <= maxLen {
		return []string{text}, nil
	}

	var chunks []string
	start := 0

	for start < len(text) {
		end := start + maxLen

		if end < len(text) {
			// A byte-offset cut can land inside a multibyte rune; back it
			// off to the rune start so chunks stay valid UTF-8.
			for end > start && !utf8.RuneStart(text[end]) {
				end--
			}
			searchStart := end - boundaryWindow
			if searchStart < start {
				searchStart = start
			}
			window := text[searchStart:end]

			breakPoint := strings.LastIndex(window, ". ")
			if nl := strings.LastIndex(window, "\n"); nl > breakPoint {
				breakPoint = nl
			}
			if breakPoint >= 0 && searchStart+breakPoint > start {
				end = searchStart + breakPoint + 1
			}
		}

		sliceEnd := end
		if sliceEnd > len(text) {
			sliceEnd = len(text)
		}
		if chunk := strings.TrimSpace(text[start:sliceEnd]); chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := end - overlap
		for next > 0 && next < len(text) && !utf8.RuneStart(text[next]) {
			next--
		}
		if next <= start {
			// A boundary cut very close to the window start can otherwise
			// move the window backwards.
			next = end
		}
		start = next
	}

	return chunks, nil
}
