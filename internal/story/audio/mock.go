package audio

import (
	"context"
	"sync"
)

// MockSink records what the player asks of it and makes no sound.
type MockSink struct {
	mu      sync.Mutex
	src     string
	loaded  string
	playing bool
	ended   func()

	Sources []string
	Loads   int
	Plays   int
	Pauses  int

	// LoadErr and PlayErr, when set, are returned by Load and Play.
	LoadErr error
	PlayErr error
}

func NewMockSink() *MockSink {
	return &MockSink{}
}

func (m *MockSink) SetSource(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.src = url
	m.loaded = ""
	m.playing = false
	m.Sources = append(m.Sources, url)
}

func (m *MockSink) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Loads++
	if m.LoadErr != nil {
		return m.LoadErr
	}
	if m.src == "" {
		return ErrNoSource
	}
	m.loaded = m.src
	return nil
}

func (m *MockSink) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Plays++
	if m.PlayErr != nil {
		return m.PlayErr
	}
	if m.loaded == "" {
		return ErrNoSource
	}
	m.playing = true
	return nil
}

func (m *MockSink) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Pauses++
	m.playing = false
}

func (m *MockSink) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

func (m *MockSink) OnEnded(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ended = fn
}

// Finish simulates the loaded audio reaching its end.
func (m *MockSink) Finish() {
	m.mu.Lock()
	m.playing = false
	ended := m.ended
	m.mu.Unlock()

	if ended != nil {
		ended()
	}
}

func (m *MockSink) Close() error {
	return nil
}
