// Package audio provides the playback surface the player drives.
package audio

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoSource is returned by Load or Play before a source is available.
var ErrNoSource = errors.New("no audio source")

// ErrStale is returned by Load when the source changed while loading.
var ErrStale = errors.New("audio source changed while loading")

// Sink is a single audio playback handle.
type Sink interface {
	// SetSource selects the audio to load next. It stops current playback.
	SetSource(url string)
	// Load fetches and decodes the current source.
	Load(ctx context.Context) error
	Play() error
	Pause()
	Playing() bool
	// OnEnded registers fn to be called when the loaded audio finishes.
	OnEnded(fn func())
	Close() error
}

type Type string

const (
	TypeSpeaker Type = "speaker"
	TypeMock    Type = "mock"
)

// NewSink creates the sink named by t.
func NewSink(t string) (Sink, error) {
	switch Type(t) {
	case TypeSpeaker, "":
		return NewSpeakerSink(), nil
	case TypeMock:
		return NewMockSink(), nil
	default:
		return nil, fmt.Errorf("unsupported audio sink: %s", t)
	}
}
