// Package docparse extracts question/answer pairs from free text. It is a
// best-effort single-pass heuristic, not a parser: sentences ending in '?'
// or opening with an interrogative word become questions, and the sentence
// that follows is opportunistically captured as the answer.
package docparse

import "strings"

type QA struct {
	Question string
	Answer   string
}

var interrogatives = map[string]bool{
	"who":      true,
	"what":     true,
	"when":     true,
	"where":    true,
	"why":      true,
	"how":      true,
	"which":    true,
	"describe": true,
	"explain":  true,
	"list":     true,
	"provide":  true,
}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(text string) []QA {
	sentences := splitSentences(text)

	var pairs []QA
	for i := 0; i < len(sentences); i++ {
		if !isQuestion(sentences[i]) {
			continue
		}
		pair := QA{Question: sentences[i]}
		if i+1 < len(sentences) && !isQuestion(sentences[i+1]) {
			pair.Answer = sentences[i+1]
			i++
		}
		pairs = append(pairs, pair)
	}
	return pairs
}

func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func isQuestion(sentence string) bool {
	if strings.HasSuffix(sentence, "?") {
		return true
	}
	first, _, _ := strings.Cut(sentence, " ")
	first = strings.TrimRight(strings.ToLower(first), ".,:;!")
	return interrogatives[first]
}
