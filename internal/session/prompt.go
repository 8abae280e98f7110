package session

import (
	"math/rand/v2"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/abhisek/lexiz/internal/spacedrep"
	"github.com/abhisek/lexiz/internal/store"
)

// Blank replaces the term in fill-in-the-blank sentences.
const Blank = "_____"

// Question is the text shown before the answer is revealed.
func (p Prompt) Question() string {
	switch p.Selection.Method {
	case spacedrep.MethodAudioRecognition:
		return "Listen: " + p.Item.AudioURL
	case spacedrep.MethodFillBlank:
		return BlankOut(p.Item.Example, p.Item.Term)
	case spacedrep.MethodContextSelection:
		return p.Item.Example
	}
	if p.Direction == spacedrep.DirectionReverse {
		return p.Item.Translation
	}
	return p.Item.Term
}

// Instruction tells the learner what to do with the question.
func (p Prompt) Instruction() string {
	switch p.Selection.Method {
	case spacedrep.MethodMultipleChoice:
		return "Pick the matching meaning"
	case spacedrep.MethodAudioRecognition:
		return "Which word do you hear?"
	case spacedrep.MethodFillBlank:
		return "Fill in the missing word"
	case spacedrep.MethodContextSelection:
		return "What does \"" + p.Item.Term + "\" mean here?"
	}
	return "Recall the meaning"
}

// Answer is the text revealed after the learner responds.
func (p Prompt) Answer() string {
	switch p.Selection.Method {
	case spacedrep.MethodAudioRecognition, spacedrep.MethodFillBlank:
		return p.Item.Term + " = " + p.Item.Translation
	case spacedrep.MethodContextSelection:
		return p.Item.Translation
	}
	if p.Direction == spacedrep.DirectionReverse {
		return p.Item.Term
	}
	return p.Item.Translation
}

// Expected is the string a typed answer is compared against.
func (p Prompt) Expected() string {
	switch p.Selection.Method {
	case spacedrep.MethodAudioRecognition, spacedrep.MethodFillBlank:
		return p.Item.Term
	}
	return p.Answer()
}

// Typed reports whether the method asks the learner to type an answer.
func (p Prompt) Typed() bool {
	switch p.Selection.Method {
	case spacedrep.MethodTraditional, spacedrep.MethodFillBlank, spacedrep.MethodAudioRecognition:
		return true
	}
	return false
}

// BlankOut replaces each case-insensitive whole-word occurrence of term in
// sentence with Blank. Word edges are Unicode letters, digits and marks. If
// the term does not occur the sentence is returned with the blank appended.
func BlankOut(sentence, term string) string {
	term = strings.TrimSpace(term)
	if term == "" {
		return sentence
	}
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(term))

	var b strings.Builder
	last, found := 0, false
	for _, m := range re.FindAllStringIndex(sentence, -1) {
		before, _ := utf8.DecodeLastRuneInString(sentence[:m[0]])
		after, _ := utf8.DecodeRuneInString(sentence[m[1]:])
		if (m[0] > 0 && isWordRune(before)) || (m[1] < len(sentence) && isWordRune(after)) {
			continue
		}
		b.WriteString(sentence[last:m[0]])
		b.WriteString(Blank)
		last, found = m[1], true
	}
	if !found {
		return strings.TrimSpace(sentence + " " + Blank)
	}
	b.WriteString(sentence[last:])
	return b.String()
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r)
}

// MatchesAnswer compares a typed answer with the expected one, ignoring
// case and surrounding or repeated whitespace.
func MatchesAnswer(typed, expected string) bool {
	norm := func(s string) string {
		return strings.ToLower(strings.Join(strings.Fields(s), " "))
	}
	return typed != "" && norm(typed) == norm(expected)
}

// MaxChoices caps the options offered for picking methods.
const MaxChoices = 4

func (p Prompt) withItem(it store.Item) Prompt {
	p.Item = it
	return p
}

// BuildChoices returns answer mixed with up to max-1 distinct distractors
// from pool, shuffled, and the index of answer in the result.
func BuildChoices(answer string, pool []string, max int, rng *rand.Rand) ([]string, int) {
	seen := map[string]bool{strings.ToLower(answer): true}
	var distractors []string
	for _, i := range rng.Perm(len(pool)) {
		c := pool[i]
		key := strings.ToLower(c)
		if c == "" || seen[key] {
			continue
		}
		seen[key] = true
		distractors = append(distractors, c)
		if len(distractors) == max-1 {
			break
		}
	}

	choices := append([]string{answer}, distractors...)
	rng.Shuffle(len(choices), func(i, j int) { choices[i], choices[j] = choices[j], choices[i] })
	for i, c := range choices {
		if c == answer {
			return choices, i
		}
	}
	return choices, 0
}
