package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewSink(t *testing.T) {
	if s, err := NewSink("mock"); err != nil {
		t.Fatalf("NewSink(mock) failed: %v", err)
	} else if _, ok := s.(*MockSink); !ok {
		t.Errorf("expected *MockSink, got %T", s)
	}

	if s, err := NewSink("speaker"); err != nil {
		t.Fatalf("NewSink(speaker) failed: %v", err)
	} else if _, ok := s.(*SpeakerSink); !ok {
		t.Errorf("expected *SpeakerSink, got %T", s)
	}

	if _, err := NewSink("tape"); err == nil {
		t.Error("expected error for unknown sink")
	}
}

func TestMockSinkLifecycle(t *testing.T) {
	m := NewMockSink()

	if err := m.Play(); !errors.Is(err, ErrNoSource) {
		t.Errorf("Play before Load = %v, want ErrNoSource", err)
	}

	m.SetSource("https://cdn.example.com/1.mp3")
	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := m.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if !m.Playing() {
		t.Error("expected playing after Play")
	}

	ended := 0
	m.OnEnded(func() { ended++ })
	m.Finish()
	if ended != 1 || m.Playing() {
		t.Errorf("expected one ended callback and stopped playback")
	}

	m.Pause()
	if m.Pauses != 1 || m.Plays != 2 || m.Loads != 1 {
		t.Errorf("unexpected counters: plays=%d pauses=%d loads=%d", m.Plays, m.Pauses, m.Loads)
	}
}

func TestSpeakerSinkLoadErrors(t *testing.T) {
	s := NewSpeakerSink()

	if err := s.Load(context.Background()); !errors.Is(err, ErrNoSource) {
		t.Errorf("Load without source = %v, want ErrNoSource", err)
	}
	if err := s.Play(); !errors.Is(err, ErrNoSource) {
		t.Errorf("Play without audio = %v, want ErrNoSource", err)
	}

	s.SetSource(filepath.Join(t.TempDir(), "missing.mp3"))
	if err := s.Load(context.Background()); err == nil {
		t.Error("expected error for a missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.mp3")
	os.WriteFile(bad, []byte("not an mp3"), 0644)
	s.SetSource("file://" + bad)
	if err := s.Load(context.Background()); err == nil {
		t.Error("expected decode error")
	}
}
