// Package chunker splits lesson bodies into bounded-size passages suitable
// for embedding. Splits prefer paragraph boundaries, then sentence
// boundaries, and only hard-split as a last resort.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/brightpath-labs/mentor-cli/internal/core/domain"
	"github.com/brightpath-labs/mentor-cli/internal/logger"
)

// DefaultMaxChars is the default chunk budget in characters,
// roughly 400 tokens.
const DefaultMaxChars = 1600

// Splitter chunks lessons into passages of at most maxChars characters.
// It holds no per-lesson state: calls for different lessons are independent.
type Splitter struct {
	maxChars     int
	overlapRatio float64
}

// Option configures the splitter.
type Option func(*Splitter)

// WithMaxChars sets the chunk budget in characters.
func WithMaxChars(n int) Option {
	return func(s *Splitter) {
		if n > 0 {
			s.maxChars = n
		}
	}
}

// WithOverlapRatio sets the fraction of the chunk budget repeated at the
// start of the next chunk. Small corpora don't need overlap; larger ones use
// 0.1-0.2 to avoid losing context at boundaries.
func WithOverlapRatio(r float64) Option {
	return func(s *Splitter) {
		if r >= 0 && r <= 0.5 {
			s.overlapRatio = r
		}
	}
}

// New creates a splitter with the given options.
func New(opts ...Option) *Splitter {
	s := &Splitter{maxChars: DefaultMaxChars}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxChars returns the configured chunk budget.
func (s *Splitter) MaxChars() int {
	return s.maxChars
}

// Chunk splits a lesson body into chunks. An empty lesson yields no chunks.
func (s *Splitter) Chunk(lesson domain.Lesson) []domain.Chunk {
	body := strings.TrimSpace(lesson.Body)
	if body == "" {
		return nil
	}

	units := s.units(lesson.ID, body)

	overlapBudget := int(s.overlapRatio * float64(s.maxChars))

	var chunks []domain.Chunk
	var window []string
	windowLen := 0

	flush := func() {
		if len(window) == 0 {
			return
		}
		text := strings.Join(window, "\n")
		chunks = append(chunks, domain.NewChunk(lesson.ID, text, len(chunks)))

		// Carry trailing units into the next window for overlap.
		var carry []string
		carryLen := 0
		for i := len(window) - 1; i >= 0 && overlapBudget > 0; i-- {
			l := len(window[i])
			if carryLen+l > overlapBudget {
				break
			}
			carry = append([]string{window[i]}, carry...)
			carryLen += l + 1
		}
		window = carry
		windowLen = carryLen
	}

	for _, u := range units {
		if windowLen > 0 && windowLen+1+len(u) > s.maxChars {
			flush()
			// The carried overlap plus the next unit must still fit the
			// budget; drop carried units from the front until it does.
			for len(window) > 0 && windowLen+1+len(u) > s.maxChars {
				windowLen -= len(window[0]) + 1
				window = window[1:]
			}
		}
		window = append(window, u)
		windowLen += len(u)
		if len(window) > 1 {
			windowLen++ // join separator
		}
	}
	// Flush without carrying overlap past the end of the lesson.
	if len(window) > 0 {
		text := strings.Join(window, "\n")
		chunks = append(chunks, domain.NewChunk(lesson.ID, text, len(chunks)))
	}

	return chunks
}

// units splits the body into pieces that each fit the chunk budget:
// paragraphs where possible, sentences for oversized paragraphs, hard splits
// for oversized sentences.
func (s *Splitter) units(lessonID, body string) []string {
	var units []string
	for _, para := range splitParagraphs(body) {
		if len(para) <= s.maxChars {
			units = append(units, para)
			continue
		}
		for _, sent := range splitSentences(para) {
			if len(sent) <= s.maxChars {
				units = append(units, sent)
				continue
			}
			logger.Warn("lesson %s: passage of %d chars has no break points within the %d-char budget, hard-splitting",
				lessonID, len(sent), s.maxChars)
			units = append(units, s.hardSplit(sent)...)
		}
	}
	return units
}

// hardSplit cuts text into budget-sized pieces, preferring the last word
// boundary in the window and never cutting mid-rune.
func (s *Splitter) hardSplit(text string) []string {
	var parts []string
	for len(text) > s.maxChars {
		cut := s.maxChars
		if idx := strings.LastIndexByte(text[:cut], ' '); idx > s.maxChars/2 {
			cut = idx
		} else {
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}
		parts = append(parts, strings.TrimSpace(text[:cut]))
		text = strings.TrimSpace(text[cut:])
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}

// splitParagraphs splits on blank lines.
func splitParagraphs(body string) []string {
	var paras []string
	for _, p := range strings.Split(body, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			paras = append(paras, p)
		}
	}
	return paras
}

// splitSentences splits on common sentence terminators, keeping the
// terminator with the sentence. Nothing is dropped: text after the last
// terminator is returned as a final sentence.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
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
