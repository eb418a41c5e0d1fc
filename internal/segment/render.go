package segment

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	fencedCodeRe = regexp.MustCompile("(?s)```[a-zA-Z0-9_+-]*\n?(.*?)```")
	inlineCodeRe = regexp.MustCompile("`([^`\n]+)`")
	imageRe      = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	linkRe       = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	headingRe    = regexp.MustCompile(`(?m)^#{1,6}[ \t]+`)
	boldRe       = regexp.MustCompile(`\*\*(.+?)\*\*|__(.+?)__`)
	italicRe     = regexp.MustCompile(`\*([^*\n]+)\*|\b_([^_\n]+)_\b`)
	quoteListRe  = regexp.MustCompile(`(?m)^[ \t]*(?:>|[-*+][ \t]|\d+\.[ \t])[ \t]*`)
	tableRuleRe  = regexp.MustCompile(`(?m)^[ \t]*\|?[ \t:|-]+\|[ \t:|-]*$`)
	htmlTagRe    = regexp.MustCompile(`<[^>]+>`)
	spaceRe      = regexp.MustCompile(`\s+`)
)

// RenderText reduces markdown to readable plain text. Code spans are kept
// but wrapped in a [CODE: ...] marker instead of being discarded, since
// code matters for a technical corpus. All whitespace runs collapse to
// single spaces and the ends are trimmed.
func RenderText(body string) string {
	// Pull code spans out first so the markdown stripping below cannot
	// mangle their contents.
	var code []string
	stash := func(content string) string {
		code = append(code, content)
		return fmt.Sprintf(" \x00%d\x00 ", len(code)-1)
	}

	text := fencedCodeRe.ReplaceAllStringFunc(body, func(s string) string {
		return stash(fencedCodeRe.FindStringSubmatch(s)[1])
	})
	text = inlineCodeRe.ReplaceAllStringFunc(text, func(s string) string {
		return stash(inlineCodeRe.FindStringSubmatch(s)[1])
	})

	text = imageRe.ReplaceAllString(text, " ")
	text = linkRe.ReplaceAllString(text, "$1")
	text = headingRe.ReplaceAllString(text, "")
	text = boldRe.ReplaceAllString(text, "$1$2")
	text = italicRe.ReplaceAllString(text, "$1$2")
	text = quoteListRe.ReplaceAllString(text, "")
	text = tableRuleRe.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, "|", " ")
	text = htmlTagRe.ReplaceAllString(text, " ")

	for i, c := range code {
		marker := fmt.Sprintf("\x00%d\x00", i)
		text = strings.Replace(text, marker, "[CODE: "+c+"]", 1)
	}

	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}
