package illustration

import (
	"strings"
	"unicode/utf8"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
	"github.com/sirupsen/logrus"
)

const (
	promptStyle     = "Cinematic digital painting, atmospheric lighting, no text. Scene: "
	promptSentences = 2
	promptMaxRunes  = 400
)

// Prompter derives an illustration prompt from the opening of a text chunk.
type Prompter struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

// NewPrompter loads the English sentence model. Without it prompts fall back
// to a plain prefix of the chunk.
func NewPrompter() *Prompter {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		logrus.WithError(err).Warn("Unable to load sentences tokenizer data")
		return &Prompter{}
	}
	return &Prompter{tokenizer: tokenizer}
}

// Prompt builds the prompt for chunk.
func (p *Prompter) Prompt(chunk string) string {
	scene := strings.Join(strings.Fields(p.lead(chunk)), " ")
	return promptStyle + truncate(scene, promptMaxRunes)
}

func (p *Prompter) lead(chunk string) string {
	if p.tokenizer == nil {
		return chunk
	}

	var parts []string
	for _, s := range p.tokenizer.Tokenize(chunk) {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
		if len(parts) == promptSentences {
			break
		}
	}
	if len(parts) == 0 {
		return chunk
	}
	return strings.Join(parts, " ")
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	cut := string(runes[:max])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}
