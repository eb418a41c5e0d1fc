package segment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physai/textbook-rag/internal/port"
)

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	full := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestListDocs_SortedMatches(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "b.md", "b")
	writeDoc(t, dir, "a.md", "a")
	writeDoc(t, dir, "notes.txt", "skip")

	docs, err := ListDocs(dir, "*.md")

	require.NoError(t, err)
	assert.Equal(t, []string{"a.md", "b.md"}, docs)
}

func TestListDocs_RecursivePattern(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "top.md", "t")
	writeDoc(t, dir, "guides/nested.md", "n")

	docs, err := ListDocs(dir, "**/*.md")

	require.NoError(t, err)
	assert.Contains(t, docs, "top.md")
	assert.Contains(t, docs, "guides/nested.md")
}

func TestListDocs_MissingDir(t *testing.T) {
	_, err := ListDocs(filepath.Join(t.TempDir(), "nope"), "*.md")

	require.Error(t, err)
	assert.ErrorIs(t, err, port.ErrDocumentNotFound)
}

func TestReadDoc(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "intro.md", "# Intro")

	content, err := ReadDoc(dir, "intro.md")

	require.NoError(t, err)
	assert.Equal(t, "# Intro", content)
}

func TestReadDoc_Missing(t *testing.T) {
	_, err := ReadDoc(t.TempDir(), "missing.md")

	require.Error(t, err)
	assert.ErrorIs(t, err, port.ErrDocumentNotFound)
}
