package segment

import (
	"fmt"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/physai/textbook-rag/internal/port"
)

// ListDocs enumerates documents in dir whose path (relative to dir)
// matches pattern, e.g. "*.md" or "**/*.md". Paths are returned sorted
// and relative to dir; they double as stable source identifiers.
func ListDocs(dir, pattern string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("docs directory not found: %s: %w", dir, port.ErrDocumentNotFound)
	}

	matches, err := doublestar.Glob(os.DirFS(dir), pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}

	sort.Strings(matches)
	return matches, nil
}

// ReadDoc reads a single document by its source identifier. A missing
// file is reported as a distinct not-found condition.
func ReadDoc(dir, sourceID string) (string, error) {
	data, err := os.ReadFile(dir + "/" + sourceID)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %s: %w", sourceID, port.ErrDocumentNotFound)
		}
		return "", fmt.Errorf("read document %s: %w", sourceID, err)
	}
	return string(data), nil
}
