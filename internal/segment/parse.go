// Package segment turns raw markdown documents into overlapping
// plain-text chunks ready for embedding.
package segment

import (
	"path"
	"strings"
	"unicode/utf8"

	"github.com/physai/textbook-rag/internal/domain"
)

// ParseDocument converts a raw markdown document into chunks with
// metadata. The title resolves from the frontmatter "title" key, then
// "sidebar_label", then a title-cased transform of the source stem.
func ParseDocument(raw, sourceID string, maxLen, overlap int) (*domain.Document, error) {
	frontmatter, body := ExtractFrontmatter(raw)

	title := frontmatter["title"]
	if title == "" {
		title = frontmatter["sidebar_label"]
	}
	if title == "" {
		title = titleFromSource(sourceID)
	}

	texts, err := Split(RenderText(body), maxLen, overlap)
	if err != nil {
		return nil, err
	}

	chunks := make([]domain.Chunk, 0, len(texts))
	for position, text := range texts {
		chunks = append(chunks, domain.Chunk{
			Text:     text,
			Source:   sourceID,
			Position: position,
			Title:    title,
		})
	}

	return &domain.Document{
		Title:       title,
		Source:      sourceID,
		Frontmatter: frontmatter,
		Chunks:      chunks,
	}, nil
}

// titleFromSource derives a readable title from a source identifier:
// "ros2-basics.md" becomes "Ros2 Basics".
func titleFromSource(sourceID string) string {
	stem := strings.TrimSuffix(path.Base(sourceID), path.Ext(sourceID))
	words := strings.Fields(strings.ReplaceAll(stem, "-", " "))
	for i, w := range words {
		_, size := utf8.DecodeRuneInString(w)
		words[i] = strings.ToUpper(w[:size]) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}
