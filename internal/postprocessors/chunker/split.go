package chunker

import (
	"strings"
	"unicode"
)

// Split breaks text into ordered chunks of at most maxChunkSize characters.
//
// Sentences are accumulated until the next one would overflow the bound.
// Each new chunk is seeded with the last overlapWords words of the previous
// one. A sentence longer than maxChunkSize is split into word windows; a
// single word longer than the bound is emitted on its own.
// Empty or whitespace-only text yields no chunks.
func Split(text string, maxChunkSize, overlapWords int) []string {
	if strings.TrimSpace(text) == "" {
		return []string{}
	}
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultChunkSize
	}
	if overlapWords < 0 {
		overlapWords = 0
	}

	s := &splitter{max: maxChunkSize, overlap: overlapWords}
	for _, sentence := range splitSentences(text) {
		s.add(sentence)
	}
	s.flush()
	return s.chunks
}

type splitter struct {
	max     int
	overlap int
	chunks  []string

	buf string
	// fresh is true once buf holds text that has not been emitted yet.
	fresh bool
}

func (s *splitter) add(sentence string) {
	if len(sentence) > s.max {
		s.flush()
		for _, window := range wordWindows(sentence, s.max) {
			s.emit(window)
		}
		return
	}

	candidate := join(s.buf, sentence)
	if len(candidate) > s.max && s.fresh {
		s.flush()
		candidate = join(s.buf, sentence)
	}
	if len(candidate) > s.max {
		// The carried words do not leave room for the sentence.
		candidate = sentence
	}
	s.buf = candidate
	s.fresh = true
}

func (s *splitter) flush() {
	if !s.fresh {
		return
	}
	s.emit(s.buf)
}

func (s *splitter) emit(chunk string) {
	s.chunks = append(s.chunks, chunk)
	s.buf = tailWords(chunk, s.overlap, s.max/2)
	s.fresh = false
}

// tailWords returns up to n trailing words of text, dropping leading words
// until the result is no longer than limit.
func tailWords(text string, n, limit int) string {
	if n == 0 {
		return ""
	}
	words := strings.Fields(text)
	if len(words) > n {
		words = words[len(words)-n:]
	}
	tail := strings.Join(words, " ")
	for len(tail) > limit && len(words) > 0 {
		words = words[1:]
		tail = strings.Join(words, " ")
	}
	return tail
}

// wordWindows packs the words of text into windows no longer than limit.
func wordWindows(text string, limit int) []string {
	var (
		windows []string
		current string
	)
	for _, word := range strings.Fields(text) {
		next := join(current, word)
		if len(next) > limit && current != "" {
			windows = append(windows, current)
			next = word
		}
		current = next
	}
	if current != "" {
		windows = append(windows, current)
	}
	return windows
}

// splitSentences splits on '.', '!' or '?' followed by whitespace, and on
// line breaks. Sentences are trimmed and empty ones dropped.
func splitSentences(text string) []string {
	var (
		sentences []string
		start     int
	)
	runes := []rune(text)
	push := func(end int) {
		if s := strings.TrimSpace(string(runes[start:end])); s != "" {
			sentences = append(sentences, strings.Join(strings.Fields(s), " "))
		}
		start = end
	}

	for i, r := range runes {
		switch {
		case r == '\n':
			push(i + 1)
		case r == '.' || r == '!' || r == '?':
			if i+1 == len(runes) || unicode.IsSpace(runes[i+1]) {
				push(i + 1)
			}
		}
	}
	push(len(runes))
	return sentences
}

func join(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}
