// Package builder turns submitted text into a narrated, illustrated story.
package builder

import (
	"context"
	"fmt"
	"time"

	"storify/internal/domain/story"
	"storify/internal/story/chunker"
	"storify/internal/story/narration"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultTitle names stories built from submitted text.
const DefaultTitle = "Your Story"

// Illustrator generates an image for a prompt and returns its URL.
type Illustrator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Progress is called before each part is processed; part is 1-indexed.
type Progress func(part, total int)

type Option func(*Builder)

func WithChunkSize(size int) Option {
	return func(b *Builder) { b.chunkSize = size }
}

// WithPrompt sets how an illustration prompt is derived from a chunk.
func WithPrompt(prompt func(chunk string) string) Option {
	return func(b *Builder) { b.prompt = prompt }
}

func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// Builder processes chunks strictly one after another: narration and
// illustration for part i both finish before part i+1 starts.
type Builder struct {
	narrator    narration.Synthesizer
	illustrator Illustrator
	prompt      func(string) string
	chunkSize   int
	now         func() time.Time
}

func New(narrator narration.Synthesizer, illustrator Illustrator, opts ...Option) *Builder {
	b := &Builder{
		narrator:    narrator,
		illustrator: illustrator,
		prompt:      func(chunk string) string { return chunk },
		chunkSize:   chunker.DefaultSize,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build returns the complete story or an error. A failure in any part
// discards the parts already built.
func (b *Builder) Build(ctx context.Context, text string, progress Progress) (story.Story, error) {
	chunks := chunker.Split(text, b.chunkSize)
	if len(chunks) == 0 {
		return story.Story{}, &story.Error{
			Kind:    story.ErrBuildStepFailed,
			Message: "There is no text to build a story from.",
		}
	}

	stamp := b.now().UnixMilli()
	log := logrus.WithFields(logrus.Fields{
		"build": uuid.NewString(),
		"parts": len(chunks),
	})
	log.Info("Building story")

	chapters := make([]story.Chapter, 0, len(chunks))
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return story.Story{}, b.fail(log, i, "Story build was cancelled.", err)
		}
		if progress != nil {
			progress(i+1, len(chunks))
		}

		id := fmt.Sprintf("%d-%d", stamp, i)

		audioURL, err := b.narrator.Synthesize(ctx, id, chunk)
		if err != nil {
			return story.Story{}, b.fail(log, i, fmt.Sprintf("Failed to generate narration for part %d.", i+1), err)
		}

		imageURL, err := b.illustrator.Generate(ctx, b.prompt(chunk))
		if err != nil {
			return story.Story{}, b.fail(log, i, fmt.Sprintf("Failed to generate illustration for part %d.", i+1), err)
		}

		chapters = append(chapters, story.Chapter{
			ID:       id,
			Title:    fmt.Sprintf("Part %d", i+1),
			Text:     chunk,
			ImageURL: imageURL,
			AudioURL: audioURL,
		})
		log.WithField("part", i+1).Debug("Built part")
	}

	log.Info("Story built")
	return story.Story{Title: DefaultTitle, Chapters: chapters}, nil
}

func (b *Builder) fail(log *logrus.Entry, i int, msg string, err error) error {
	log.WithError(err).WithField("part", i+1).Error("Story build failed")
	return &story.Error{
		Kind:    story.ErrBuildStepFailed,
		Message: msg,
		Err:     err,
	}
}
