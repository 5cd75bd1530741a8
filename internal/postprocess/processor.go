// Package postprocess turns raw generated text into a safe, well-formed
// reply, or signals that no acceptable reply exists so a fallback can be
// selected instead.
package postprocess

import (
	"strings"
	"unicode"
)

// Config holds the post-processing thresholds.
type Config struct {
	// MinLength is the minimum acceptable reply length in characters.
	MinLength int
	// MaxLength is the maximum reply length; longer replies are truncated
	// at a whitespace boundary.
	MaxLength int
	// IdealWords is the word count at which the length term of the quality
	// score maxes out.
	IdealWords int
	// MinScore is the quality score below which a reply is rejected.
	MinScore float64
}

// DefaultConfig returns the default post-processing thresholds.
func DefaultConfig() Config {
	return Config{
		MinLength:  10,
		MaxLength:  150,
		IdealWords: 15,
		MinScore:   0.3,
	}
}

// Processor cleans, deduplicates, and scores raw model output.
type Processor struct {
	cfg Config
}

// New creates a processor. Zero-valued config fields fall back to defaults.
func New(cfg Config) *Processor {
	def := DefaultConfig()

	if cfg.MinLength <= 0 {
		cfg.MinLength = def.MinLength
	}

	if cfg.MaxLength <= 0 {
		cfg.MaxLength = def.MaxLength
	}

	if cfg.IdealWords <= 0 {
		cfg.IdealWords = def.IdealWords
	}

	if cfg.MinScore <= 0 {
		cfg.MinScore = def.MinScore
	}

	return &Processor{cfg: cfg}
}

// Process runs the cleaning pipeline on raw model output. stripTokens are
// model-specific control markers (end-of-sequence, padding) removed verbatim.
// ok=false means the output is unusable and a fallback must be selected.
func (p *Processor) Process(raw, input string, stripTokens []string) (string, bool) {
	text := raw

	for _, token := range stripTokens {
		if token != "" {
			text = strings.ReplaceAll(text, token, "")
		}
	}

	text = dedupeSentences(text)
	text = ensurePunctuation(text)

	if len([]rune(text)) < p.cfg.MinLength {
		return "", false
	}

	if runes := []rune(text); len(runes) > p.cfg.MaxLength {
		text = ensurePunctuation(truncateAtWhitespace(runes, p.cfg.MaxLength))
	}

	if isDegenerate(text) {
		return "", false
	}

	if p.Score(text, input) < p.cfg.MinScore {
		return "", false
	}

	return text, true
}

// Score rates a reply in [0,1]: a 0.5 baseline plus a length-proximity term,
// a question-answer coherence bonus, and a lexical-diversity term.
func (p *Processor) Score(response, input string) float64 {
	if response == "" {
		return 0
	}

	score := 0.5
	words := strings.Fields(response)

	lengthTerm := float64(len(words)) / float64(p.cfg.IdealWords)
	if lengthTerm > 1 {
		lengthTerm = 1
	}

	score += 0.2 * lengthTerm

	if containsAny(strings.ToLower(input), interrogativeWords) &&
		containsAny(strings.ToLower(response), explanatoryWords) {
		score += 0.2
	}

	if len(words) > 0 {
		score += 0.1 * uniqueWordRatio(words)
	}

	if score > 1 {
		score = 1
	}

	return score
}

var interrogativeWords = []string{"who", "what", "when", "where", "why", "how"}

var explanatoryWords = []string{"because", "reason", "answer", "explanation"}

// dedupeSentences drops sentences whose lowercase form already appeared,
// preserving first-occurrence order. Causal models frequently repeat whole
// phrases verbatim.
func dedupeSentences(text string) string {
	parts := strings.Split(text, ".")
	seen := make(map[string]struct{}, len(parts))
	unique := make([]string, 0, len(parts))

	for _, part := range parts {
		sentence := strings.TrimSpace(part)
		if sentence == "" {
			continue
		}

		lower := strings.ToLower(sentence)
		if _, ok := seen[lower]; ok {
			continue
		}

		seen[lower] = struct{}{}

		unique = append(unique, sentence)
	}

	return strings.TrimSpace(strings.Join(unique, ". "))
}

// ensurePunctuation appends a period when a non-empty reply does not already
// end in terminal punctuation.
func ensurePunctuation(text string) string {
	if text == "" {
		return text
	}

	switch text[len(text)-1] {
	case '.', '!', '?':
		return text
	}

	return text + "."
}

// truncateAtWhitespace cuts at the last whitespace boundary at or before the
// limit, falling back to a hard cut when the text has no whitespace.
func truncateAtWhitespace(runes []rune, limit int) string {
	cut := limit

	for i := limit; i > 0; i-- {
		if unicode.IsSpace(runes[i-1]) {
			cut = i - 1
			break
		}
	}

	return strings.TrimSpace(string(runes[:cut]))
}

// isDegenerate reports whether the reply is dominated by word-level
// repetition ("yes yes yes yes"). Such output passes the additive score but
// is useless as a reply.
func isDegenerate(text string) bool {
	words := strings.Fields(strings.ToLower(strings.TrimRight(text, ".!?")))
	if len(words) < 3 {
		return false
	}

	return uniqueWordRatio(words) <= 1.0/3.0
}

func uniqueWordRatio(words []string) float64 {
	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[w] = struct{}{}
	}

	return float64(len(unique)) / float64(len(words))
}

func containsAny(text string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}

	return false
}

// Finalize normalizes the reply that is actually returned to the caller:
// whitespace runs collapse to single spaces, the first letter is
// capitalized, and terminal punctuation is guaranteed. The result is never
// empty for non-empty input.
func Finalize(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return text
	}

	runes := []rune(text)
	if unicode.IsLower(runes[0]) {
		runes[0] = unicode.ToUpper(runes[0])
		text = string(runes)
	}

	return ensurePunctuation(text)
}
