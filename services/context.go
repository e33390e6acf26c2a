package services

import (
	"strings"
	"unicode/utf8"
)

const paragraphSeparator = "\n\n"

// ContextWindow selects the paragraphs around a cursor position.
type ContextWindow struct {
	// Radius is the number of paragraphs kept on each side of the target.
	Radius int
	// MinLength is the text length, in code points, below which the whole
	// text is used.
	MinLength int
}

// DefaultContextWindow keeps one paragraph on each side for texts of 500+ code points.
var DefaultContextWindow = ContextWindow{Radius: 1, MinLength: 500}

// Paragraphs returns the target paragraph containing position plus Radius
// neighbours on each side. A position of 0 means "no position".
func (w ContextWindow) Paragraphs(text string, position int) string {
	if position <= 0 || utf8.RuneCountInString(text) < w.MinLength {
		return text
	}

	paragraphs := strings.Split(text, paragraphSeparator)
	target := 0
	end := 0
	for i, p := range paragraphs {
		end += utf8.RuneCountInString(p) + len(paragraphSeparator)
		if end >= position {
			target = i
			break
		}
	}

	radius := w.Radius
	if radius < 0 {
		radius = 0
	}
	start := target - radius
	if start < 0 {
		start = 0
	}
	stop := target + radius + 1
	if stop > len(paragraphs) {
		stop = len(paragraphs)
	}
	return strings.Join(paragraphs[start:stop], paragraphSeparator)
}
