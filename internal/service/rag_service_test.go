package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physai/textbook-rag/internal/domain"
)

type fakeIndex struct {
	results       []domain.RetrievedChunk
	searchErr     error
	lastLimit     int
	lastThreshold float64
	lastVector    []float32

	upsertedChunks  []domain.Chunk
	upsertedVectors [][]float32
	upsertErr       error
	ensured         []int
	deletes         int
	deleteErr       error
	info            domain.CollectionInfo
	infoErr         error
}

func (f *fakeIndex) EnsureCollection(_ context.Context, dimension int) error {
	f.ensured = append(f.ensured, dimension)
	return nil
}

func (f *fakeIndex) DeleteCollection(_ context.Context) error {
	f.deletes++
	return f.deleteErr
}

func (f *fakeIndex) Upsert(_ context.Context, chunks []domain.Chunk, vectors [][]float32) (int, error) {
	if len(chunks) != len(vectors) {
		return 0, fmt.Errorf("chunk/vector count mismatch: %d != %d", len(chunks), len(vectors))
	}
	if f.upsertErr != nil {
		return 0, f.upsertErr
	}
	f.upsertedChunks = append(f.upsertedChunks, chunks...)
	f.upsertedVectors = append(f.upsertedVectors, vectors...)
	return len(chunks), nil
}

func (f *fakeIndex) Search(_ context.Context, vector []float32, limit int, threshold float64) ([]domain.RetrievedChunk, error) {
	f.lastVector = vector
	f.lastLimit = limit
	f.lastThreshold = threshold
	return f.results, f.searchErr
}

func (f *fakeIndex) Info(_ context.Context) (domain.CollectionInfo, error) {
	return f.info, f.infoErr
}

type fakeChat struct {
	answer     string
	err        error
	lastPrompt string
}

func (f *fakeChat) ModelName() string { return "fake-chat" }

func (f *fakeChat) Complete(_ context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	return f.answer, f.err
}

func newTestRAG(index *fakeIndex, chat *fakeChat) *RAGService {
	var sleeps []time.Duration
	embedder := newTestEmbedder(&fakeEmbedProvider{}, &sleeps)
	return NewRAGService(embedder, index, chat, RAGOptions{
		ScoreThreshold: 0.3,
		RetrieveLimit:  5,
		HistoryTurns:   6,
	})
}

func retrieved(text, source, title string, score float64) domain.RetrievedChunk {
	return domain.RetrievedChunk{
		Chunk: domain.Chunk{Text: text, Source: source, Title: title},
		Score: score,
	}
}

func TestBuildSearchQuery(t *testing.T) {
	assert.Equal(t, "what is a node?", buildSearchQuery("what is a node?", ""))

	combined := buildSearchQuery("what is this?", "ros2 topic pub")
	assert.Equal(t, "what is this?\n\nContext from highlighted text: ros2 topic pub", combined)
}

func TestRetrieve_PassesOptionsToIndex(t *testing.T) {
	index := &fakeIndex{results: []domain.RetrievedChunk{retrieved("text", "a.md", "A", 0.9)}}
	rag := newTestRAG(index, &fakeChat{})

	chunks, err := rag.Retrieve(context.Background(), "question", "")

	require.NoError(t, err)
	assert.Len(t, chunks, 1)
	assert.Equal(t, 5, index.lastLimit)
	assert.InDelta(t, 0.3, index.lastThreshold, 1e-9)
	assert.NotEmpty(t, index.lastVector)
}

func TestFormatContext_Empty(t *testing.T) {
	assert.Equal(t, NoContextSentinel, FormatContext(nil))
}

func TestFormatContext_NumbersAndSeparatesSources(t *testing.T) {
	got := FormatContext([]domain.RetrievedChunk{
		retrieved("First chunk text.", "intro.md", "Intro", 0.9),
		retrieved("Second chunk text.", "nodes.md", "Nodes", 0.7),
	})

	assert.Contains(t, got, "[Source 1: Intro (intro.md)]\nFirst chunk text.")
	assert.Contains(t, got, "[Source 2: Nodes (nodes.md)]\nSecond chunk text.")
	assert.Contains(t, got, "\n\n---\n\n")
}

func TestBuildPrompt_SectionOrder(t *testing.T) {
	rag := newTestRAG(&fakeIndex{}, &fakeChat{})
	history := []domain.ConversationTurn{
		{Role: domain.RoleUser, Content: "earlier question"},
		{Role: domain.RoleAssistant, Content: "earlier answer"},
	}

	prompt := rag.BuildPrompt("what is a topic?", "some context", history, "highlighted bit")

	positions := []int{
		strings.Index(prompt, "Previous conversation:"),
		strings.Index(prompt, "User: earlier question"),
		strings.Index(prompt, "Assistant: earlier answer"),
		strings.Index(prompt, "highlighted bit"),
		strings.Index(prompt, "Question: what is a topic?"),
		strings.Index(prompt, "some context"),
		strings.Index(prompt, "Please provide a helpful answer"),
	}
	for i, pos := range positions {
		require.GreaterOrEqual(t, pos, 0, "section %d missing", i)
		if i > 0 {
			assert.Greater(t, pos, positions[i-1], "section %d out of order", i)
		}
	}
}

func TestBuildPrompt_OmitsEmptySections(t *testing.T) {
	rag := newTestRAG(&fakeIndex{}, &fakeChat{})

	prompt := rag.BuildPrompt("q", "ctx", nil, "")

	assert.NotContains(t, prompt, "Previous conversation:")
	assert.NotContains(t, prompt, "highlighted")
}

func TestBuildPrompt_BoundsHistory(t *testing.T) {
	rag := newTestRAG(&fakeIndex{}, &fakeChat{})

	var history []domain.ConversationTurn
	for i := 0; i < 10; i++ {
		history = append(history, domain.ConversationTurn{
			Role:    domain.RoleUser,
			Content: fmt.Sprintf("turn-%d", i),
		})
	}

	prompt := rag.BuildPrompt("q", "ctx", history, "")

	// Only the last 6 turns survive.
	assert.NotContains(t, prompt, "turn-3")
	assert.Contains(t, prompt, "turn-4")
	assert.Contains(t, prompt, "turn-9")
}

func TestChat_EmptyIndexUsesSentinel(t *testing.T) {
	index := &fakeIndex{}
	chat := &fakeChat{answer: "I don't know."}
	rag := newTestRAG(index, chat)

	answer, sources, err := rag.Chat(context.Background(), "what is a node?", "", nil)

	require.NoError(t, err)
	assert.Equal(t, "I don't know.", answer)
	assert.Empty(t, sources)
	assert.Contains(t, chat.lastPrompt, NoContextSentinel)
	assert.Contains(t, chat.lastPrompt, "Question: what is a node?")
}

func TestChat_ReturnsSourcesWithScores(t *testing.T) {
	index := &fakeIndex{results: []domain.RetrievedChunk{
		retrieved("short text", "a.md", "A", 0.91),
	}}
	chat := &fakeChat{answer: "answer"}
	rag := newTestRAG(index, chat)

	_, sources, err := rag.Chat(context.Background(), "q", "", nil)

	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "a.md", sources[0].File)
	assert.Equal(t, "short text", sources[0].Chunk)
	require.NotNil(t, sources[0].Score)
	assert.InDelta(t, 0.91, *sources[0].Score, 1e-9)
}

func TestChat_TruncatesLongExcerpts(t *testing.T) {
	long := strings.Repeat("x", 300)
	index := &fakeIndex{results: []domain.RetrievedChunk{
		retrieved(long, "a.md", "A", 0.8),
	}}
	rag := newTestRAG(index, &fakeChat{answer: "ok"})

	_, sources, err := rag.Chat(context.Background(), "q", "", nil)

	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Len(t, sources[0].Chunk, 203)
	assert.True(t, strings.HasSuffix(sources[0].Chunk, "..."))
}

func TestChat_ExcerptTruncationKeepsRunesIntact(t *testing.T) {
	// 3-byte runes: the 200-byte excerpt budget lands mid-rune and must
	// back off instead of emitting a broken sequence.
	long := strings.Repeat("知", 100)
	index := &fakeIndex{results: []domain.RetrievedChunk{
		retrieved(long, "a.md", "A", 0.8),
	}}
	rag := newTestRAG(index, &fakeChat{answer: "ok"})

	_, sources, err := rag.Chat(context.Background(), "q", "", nil)

	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.True(t, utf8.ValidString(sources[0].Chunk))
	assert.Equal(t, 198+len("..."), len(sources[0].Chunk))
	assert.True(t, strings.HasSuffix(sources[0].Chunk, "..."))
}

func TestChat_SearchErrorPropagates(t *testing.T) {
	boom := errors.New("qdrant down")
	index := &fakeIndex{searchErr: boom}
	rag := newTestRAG(index, &fakeChat{})

	_, _, err := rag.Chat(context.Background(), "q", "", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestChat_GenerationErrorPropagates(t *testing.T) {
	boom := errors.New("model unavailable")
	rag := newTestRAG(&fakeIndex{}, &fakeChat{err: boom})

	_, _, err := rag.Chat(context.Background(), "q", "", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
