package segment

import (
	"regexp"
	"strings"
)

// frontmatterRe matches a leading frontmatter block: a line of three
// dashes, the block body, and a closing line of three dashes.
var frontmatterRe = regexp.MustCompile(`(?s)\A---[ \t]*\n(.*?)\n---[ \t]*\n`)

// ExtractFrontmatter parses a leading delimited metadata block into a map
// of trimmed keys to trimmed, quote-stripped values and returns the
// remaining body. A missing or unterminated block fails open: the whole
// input is returned as body with an empty map. Never errors.
func ExtractFrontmatter(raw string) (map[string]string, string) {
	meta := make(map[string]string)

	m := frontmatterRe.FindStringSubmatch(raw)
	if m == nil {
		return meta, raw
	}

	for _, line := range strings.Split(m[1], "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		meta[key] = strings.Trim(strings.TrimSpace(value), `'"`)
	}

	return meta, raw[len(m[0]):]
}
