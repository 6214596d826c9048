package services

import "strings"

// AssembleContext joins ranked chunk texts with blank lines. A non-blank
// conversation context is placed first, separated by a blank line.
// Blank chunks are skipped; with nothing to join the result is "".
func AssembleContext(chunks []string, conversationContext string) string {
	parts := make([]string, 0, len(chunks)+1)
	if c := strings.TrimSpace(conversationContext); c != "" {
		parts = append(parts, c)
	}
	for _, chunk := range chunks {
		if c := strings.TrimSpace(chunk); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, "\n\n")
}
