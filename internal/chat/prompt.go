package chat

import "strings"

// BuildPrompt concatenates prior turns and the new input, each terminated by
// the engine's separator token, bounding the total length in runes. When the
// budget is exceeded the oldest turns are dropped first; a single oversized
// segment keeps only its trailing runes so the newest content survives.
func BuildPrompt(history []Turn, input, separator string, maxLen int) string {
	segments := make([]string, 0, len(history)+1)

	for _, turn := range history {
		if message := strings.TrimSpace(turn.Message); message != "" {
			segments = append(segments, message+separator)
		}
	}

	segments = append(segments, strings.TrimSpace(input)+separator)

	total := 0
	lengths := make([]int, len(segments))

	for i, segment := range segments {
		lengths[i] = len([]rune(segment))
		total += lengths[i]
	}

	start := 0
	for maxLen > 0 && total > maxLen && start < len(segments)-1 {
		total -= lengths[start]
		start++
	}

	prompt := strings.Join(segments[start:], "")

	if runes := []rune(prompt); maxLen > 0 && len(runes) > maxLen {
		prompt = string(runes[len(runes)-maxLen:])
	}

	return prompt
}
