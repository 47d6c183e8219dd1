// Package quiz turns LLM-generated quiz text into structured questions and
// tracks the answer/grade lifecycle of an interactive quiz run.
package quiz

import (
	"regexp"
	"strings"
)

// Option is a labeled answer choice (A-D).
type Option struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Question is one parsed multiple-choice question. Correct is the detected
// correct-answer label, or empty when no detection rule matched; such a
// question can never be scored as correct.
type Question struct {
	Text    string   `json:"question"`
	Options []Option `json:"options"`
	Correct string   `json:"correct,omitempty"`
}

// detectionRule is one named pattern for locating the correct-answer label
// inside a question block. Rules are tried in order; the first match wins.
type detectionRule struct {
	name string
	re   *regexp.Regexp
}

// Correct-answer phrasings seen in generated quizzes, French first since the
// generation prompt is French and asks for the "Réponse correcte: X" format.
var answerRules = []detectionRule{
	{"reponse-correcte", regexp.MustCompile(`(?i)Réponse\s+correcte\s*[:\-]?\s*([A-D])`)},
	{"la-bonne-reponse-est", regexp.MustCompile(`(?i)La\s+bonne\s+réponse\s+est\s*([A-D])`)},
	{"bonne-reponse", regexp.MustCompile(`(?i)Bonne\s*réponse\s*:\s*([A-D])`)},
	{"bold-reponse", regexp.MustCompile(`(?i)\*\*\s*(?:Réponse|Bonne réponse)\s*:\s*([A-D])`)},
	{"x-is-correct", regexp.MustCompile(`(?i)([A-D])\s+(?:est|is)\s+(?:correct|la bonne réponse)`)},
}

// inlineMarkerRe matches a correctness marker embedded in an option's text.
var inlineMarkerRe = regexp.MustCompile(`(?i)(✓|\bbonne réponse\b|\bcorrecte?\b)`)

// Conversational preambles the LLM sometimes emits despite instructions.
var introMarkers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)I['’]m happy to help`),
	regexp.MustCompile(`(?i)Here are`),
	regexp.MustCompile(`(?i)Voici`),
	regexp.MustCompile(`(?i)Based on the code`),
}

var (
	blockStartRe    = regexp.MustCompile(`\n\d+[.)\s]`)
	ordinalPrefixRe = regexp.MustCompile(`^\d+[.)\s]+`)
	optionLineRe    = regexp.MustCompile(`^([A-D])[.)\s-]+(.+)`)
)

const (
	introScanLimit  = 300
	minPromptLength = 5
	minOptions      = 2
)

// Parse extracts questions from loosely structured quiz text. It is total:
// input that matches nothing yields an empty slice, never an error, and
// malformed blocks are silently dropped. The caller treats an empty result
// as "unrecognized format" and falls back to showing the raw text.
func Parse(raw string) []Question {
	if raw == "" {
		return nil
	}

	text := stripIntro(raw)

	var questions []Question
	for _, block := range splitBlocks(text) {
		if q, ok := parseBlock(block); ok {
			questions = append(questions, q)
		}
	}
	return questions
}

// stripIntro discards a conversational preamble so numbered content starts
// at position 0. Only the head of the text is scanned.
func stripIntro(text string) string {
	head := text
	if len(head) > introScanLimit {
		head = head[:introScanLimit]
	}
	for _, marker := range introMarkers {
		loc := marker.FindStringIndex(head)
		if loc == nil {
			continue
		}
		nl := strings.Index(text[loc[1]:], "\n")
		if nl < 0 {
			return ""
		}
		text = strings.TrimSpace(text[loc[1]+nl+1:])
		head = text
		if len(head) > introScanLimit {
			head = head[:introScanLimit]
		}
	}
	return text
}

// splitBlocks cuts the text at each newline immediately followed by a
// numeric ordinal marker. The newline is consumed; the ordinal stays with
// its block.
func splitBlocks(text string) []string {
	locs := blockStartRe.FindAllStringIndex(text, -1)
	var blocks []string
	start := 0
	for _, loc := range locs {
		if b := strings.TrimSpace(text[start:loc[0]]); b != "" {
			blocks = append(blocks, b)
		}
		start = loc[0] + 1 // skip the newline, keep the digit
	}
	if b := strings.TrimSpace(text[start:]); b != "" {
		blocks = append(blocks, b)
	}
	return blocks
}

// parseBlock extracts one question from a block, reporting ok=false for
// blocks that do not yield a usable question.
func parseBlock(block string) (Question, bool) {
	lines := strings.Split(strings.TrimSpace(block), "\n")

	prompt := strings.TrimSpace(ordinalPrefixRe.ReplaceAllString(strings.TrimSpace(lines[0]), ""))
	if len(prompt) < minPromptLength {
		return Question{}, false
	}

	var options []Option
	seen := make(map[string]bool)
	for _, line := range lines[1:] {
		m := optionLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil || seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		options = append(options, Option{Label: m[1], Text: strings.TrimSpace(m[2])})
	}
	if len(options) < minOptions {
		return Question{}, false
	}

	return Question{
		Text:    prompt,
		Options: options,
		Correct: detectCorrect(strings.Join(lines, " "), options),
	}, true
}

// detectCorrect runs the ordered rule list over the whole block, then falls
// back to scanning each option's text for an inline marker. Returns "" when
// nothing matches.
func detectCorrect(block string, options []Option) string {
	for _, rule := range answerRules {
		if m := rule.re.FindStringSubmatch(block); m != nil {
			return strings.ToUpper(m[1])
		}
	}
	for _, opt := range options {
		if inlineMarkerRe.MatchString(opt.Text) {
			return opt.Label
		}
	}
	return ""
}
