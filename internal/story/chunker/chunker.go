// Package chunker splits user text into narration-sized parts.
package chunker

import (
	"strings"
	"unicode/utf8"
)

// DefaultSize is the largest chunk the narration service accepts comfortably.
const DefaultSize = 2800

// Separator is the paragraph break used both for splitting and joining.
const Separator = "\n\n"

// Split groups the paragraphs of text into chunks of at most size runes.
// Paragraphs are never split: one longer than size becomes a chunk of its own.
// Blank paragraphs are dropped and blank input yields no chunks.
//
// Length is counted in runes, so a character outside the Basic Multilingual
// Plane (an emoji, say) counts once rather than as two UTF-16 code units.
func Split(text string, size int) []string {
	if size <= 0 {
		size = DefaultSize
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var (
		chunks []string
		buf    strings.Builder
		bufLen int
	)
	sepLen := utf8.RuneCountInString(Separator)

	for _, p := range strings.Split(text, Separator) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n := utf8.RuneCountInString(p)

		if bufLen > 0 && bufLen+sepLen+n > size {
			chunks = append(chunks, buf.String())
			buf.Reset()
			bufLen = 0
		}
		if bufLen > 0 {
			buf.WriteString(Separator)
			bufLen += sepLen
		}
		buf.WriteString(p)
		bufLen += n
	}

	if bufLen > 0 {
		chunks = append(chunks, buf.String())
	}
	return chunks
}
