package format

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// MarkdownV1 denotes Telegram legacy markdown.
	MarkdownV1 = 1
	// MarkdownV2 denotes Telegram markdown version 2.
	MarkdownV2 = 2
)

var (
	mdV1Re = regexp.MustCompile("([_*`\\[])")
	mdV2Re = regexp.MustCompile(`([_*\[\]()~` + "`" + `>#+\-=|{}.!\\])`)
)

// EscapeMarkdown escapes user supplied text for MarkdownV1 or V2.
func EscapeMarkdown(text string, version int) (string, error) {
	switch version {
	case MarkdownV1:
		return mdV1Re.ReplaceAllString(text, `\$1`), nil
	case MarkdownV2:
		return mdV2Re.ReplaceAllString(text, `\$1`), nil
	}
	return "", fmt.Errorf("unsupported markdown version: %d", version)
}

// Escape is EscapeMarkdown for legacy markdown, which cannot fail.
func Escape(text string) string {
	return mdV1Re.ReplaceAllString(text, `\$1`)
}

// Bold renders text as a legacy markdown bold entity. Legacy markdown has no
// escapes inside an entity, so markup characters are emitted escaped between
// separate bold runs.
func Bold(text string) string {
	var b strings.Builder
	start := 0
	flush := func(end int) {
		if end > start {
			b.WriteString("*" + text[start:end] + "*")
		}
	}
	for _, loc := range mdV1Re.FindAllStringIndex(text, -1) {
		flush(loc[0])
		b.WriteString(`\` + text[loc[0]:loc[1]])
		start = loc[1]
	}
	flush(len(text))
	return b.String()
}
