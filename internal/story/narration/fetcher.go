package narration

import (
	"context"
	"errors"
	"fmt"

	"storify/internal/domain/story"

	"github.com/sirupsen/logrus"
)

// Fetcher resolves the narration of a chapter into a LoadState.
// It keeps no cache: every call asks the resolver again.
type Fetcher struct {
	resolver Resolver
	synth    Synthesizer
}

type FetchOption func(*Fetcher)

// WithSynthesizer narrates a chapter from its text when the resolver has no
// narration for it.
func WithSynthesizer(s Synthesizer) FetchOption {
	return func(f *Fetcher) { f.synth = s }
}

func NewFetcher(resolver Resolver, opts ...FetchOption) *Fetcher {
	f := &Fetcher{resolver: resolver}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns Ready with the audio URL or Failed with a user-facing reason.
// Chapters that already carry an audio URL are Ready without a lookup.
func (f *Fetcher) Fetch(ctx context.Context, ch story.Chapter) LoadState {
	if ch.AudioURL != "" {
		return Ready(ch.ID, ch.AudioURL)
	}

	audioURL, err := f.resolver.Resolve(ctx, ch.ID)
	if errors.Is(err, ErrNotFound) && f.synth != nil && ch.Text != "" {
		audioURL, err = f.synthesize(ctx, ch)
	}
	if err != nil {
		msg := fmt.Sprintf("Could not load narration for chapter %s.", ch.ID)
		if errors.Is(err, ErrNotFound) {
			msg = fmt.Sprintf("Narration for chapter %s not found.", ch.ID)
		}

		logrus.WithError(err).WithField("chapter", ch.ID).Error("Error fetching audio URL")
		return Failed(ch.ID, msg, &story.Error{
			Kind:      story.ErrFetchFailed,
			ChapterID: ch.ID,
			Message:   msg,
			Err:       err,
		})
	}

	logrus.WithFields(logrus.Fields{
		"chapter": ch.ID,
		"url":     audioURL,
	}).Debug("Resolved narration")
	return Ready(ch.ID, audioURL)
}

func (f *Fetcher) synthesize(ctx context.Context, ch story.Chapter) (string, error) {
	logrus.WithField("chapter", ch.ID).Info("Narrating chapter from text")
	audioURL, err := f.synth.Synthesize(ctx, ch.ID, ch.Text)
	if err != nil {
		return "", err
	}
	if audioURL == "" {
		return "", fmt.Errorf("%w: synthesis for chapter %s returned no audio", ErrNotFound, ch.ID)
	}
	return audioURL, nil
}
