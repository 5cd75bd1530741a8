package postprocess

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// genericFallbacks are the clarifying replies used when the input matches no
// topic category. Order matters: selection is by stable hash modulo length.
var genericFallbacks = []string{
	"Could you please rephrase your question? I want to make sure I understand correctly.",
	"That's an interesting topic. Could you elaborate on what specifically you'd like to know?",
	"I'm still learning about this subject. Could we discuss something related?",
	"Let me think about that. In the meantime, could you clarify your question?",
	"I want to provide you with the best answer. Could you give me more details?",
}

var weatherKeywords = []string{"weather", "forecast", "rain"}

var timeKeywords = []string{"time", "date", "hour"}

var factualPrefixes = []string{"who is", "what is", "where is", "when did"}

// Fallback selects a deterministic canned reply for an input that produced
// no acceptable generation. Topic keywords pick a specific reply; anything
// else is spread across the generic list by xxhash64 of the input text, so
// the same failing input always yields the same reply while distinct inputs
// land on different entries. The hash is stable across processes; do not
// swap it for a per-run randomized one.
func Fallback(input string) string {
	lower := strings.ToLower(input)

	if containsAny(lower, weatherKeywords) {
		return "For accurate weather information, I recommend checking a dedicated weather service."
	}

	if containsAny(lower, timeKeywords) {
		return "I don't have real-time clock access. Please check your device for the current time."
	}

	for _, prefix := range factualPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return "I don't have that information readily available. Would you like me to suggest where to find it?"
		}
	}

	idx := xxhash.Sum64String(input) % uint64(len(genericFallbacks))

	return genericFallbacks[idx]
}
