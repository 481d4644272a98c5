package dispatch

import "strings"

// Chunk splits text into pieces of at most max runes. It breaks at the last
// space that fits and cuts hard when a piece has no space.
func Chunk(text string, max int) []string {
	if max <= 0 {
		return []string{text}
	}

	var chunks []string
	rest := []rune(text)
	for len(rest) > max {
		cut, skip := max, 0
		for i := max; i > 0; i-- {
			if rest[i] == ' ' {
				cut, skip = i, 1
				break
			}
		}
		if piece := string(rest[:cut]); piece != "" {
			chunks = append(chunks, piece)
		}
		rest = rest[cut+skip:]
	}
	if len(rest) > 0 {
		chunks = append(chunks, string(rest))
	}
	return chunks
}

// Lines splits text into non-empty lines of at most max runes each, for
// transports that cannot carry newlines
func Lines(text string, max int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimRight(line, " \r\t"); line == "" {
			continue
		}
		out = append(out, Chunk(line, max)...)
	}
	return out
}
