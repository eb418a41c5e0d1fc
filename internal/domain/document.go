package domain

// Document is a parsed source document: frontmatter metadata plus the
// chunked plain-text body. Immutable after parsing.
type Document struct {
	Title       string            `json:"title"`
	Source      string            `json:"source"`
	Frontmatter map[string]string `json:"frontmatter,omitempty"`
	Chunks      []Chunk           `json:"chunks"`
}

// Chunk is one retrievable slice of a document. Position is the 0-based
// order of the chunk within its source document.
type Chunk struct {
	Text     string `json:"text"`
	Source   string `json:"source"`
	Position int    `json:"position"`
	Title    string `json:"title"`
}

// RetrievedChunk is a chunk returned by similarity search, including its
// cosine similarity score.
type RetrievedChunk struct {
	Chunk
	Score float64 `json:"score"`
}

// SourceReference is a citation attached to an assistant response. Chunk
// holds a truncated excerpt of the matched text.
type SourceReference struct {
	File  string   `json:"file"`
	Chunk string   `json:"chunk"`
	Score *float64 `json:"score,omitempty"`
}

// CollectionInfo describes the state of the vector index collection.
type CollectionInfo struct {
	Name        string `json:"name"`
	VectorCount int64  `json:"vectors_count"`
	PointCount  int64  `json:"points_count"`
	Status      string `json:"status"`
}
