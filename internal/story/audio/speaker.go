package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/sirupsen/logrus"
)

// SpeakerSink plays MP3 narration through the system speaker.
type SpeakerSink struct {
	mu         sync.Mutex
	httpClient *http.Client
	src        string
	streamer   beep.StreamSeekCloser
	ctrl       *beep.Ctrl
	sampleRate beep.SampleRate
	queued     bool
	playing    bool
	generation int
	ended      func()
}

func NewSpeakerSink() *SpeakerSink {
	return &SpeakerSink{
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (s *SpeakerSink) SetSource(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()
	s.src = url
}

// reset drops the current stream. Caller holds s.mu.
func (s *SpeakerSink) reset() {
	s.generation++
	if s.queued {
		speaker.Clear()
	}
	if s.streamer != nil {
		s.streamer.Close()
	}
	s.streamer = nil
	s.ctrl = nil
	s.queued = false
	s.playing = false
}

func (s *SpeakerSink) Load(ctx context.Context) error {
	s.mu.Lock()
	src := s.src
	s.reset()
	gen := s.generation
	s.mu.Unlock()

	if src == "" {
		return ErrNoSource
	}

	data, err := s.read(ctx, src)
	if err != nil {
		return err
	}

	streamer, format, err := mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		return fmt.Errorf("failed to decode MP3 %s: %w", src, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || src != s.src {
		streamer.Close()
		return ErrStale
	}

	if format.SampleRate != s.sampleRate {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
			streamer.Close()
			return fmt.Errorf("failed to initialise speaker: %w", err)
		}
		s.sampleRate = format.SampleRate
	}

	s.streamer = streamer
	s.ctrl = &beep.Ctrl{Streamer: streamer, Paused: true}
	return nil
}

func (s *SpeakerSink) read(ctx context.Context, src string) ([]byte, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		data, err := os.ReadFile(strings.TrimPrefix(src, "file://"))
		if err != nil {
			return nil, fmt.Errorf("failed to open audio %s: %w", src, err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func (s *SpeakerSink) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctrl == nil {
		return ErrNoSource
	}

	if !s.queued {
		gen := s.generation
		speaker.Play(beep.Seq(s.ctrl, beep.Callback(func() {
			s.finished(gen)
		})))
		s.queued = true
	}

	speaker.Lock()
	s.ctrl.Paused = false
	speaker.Unlock()
	s.playing = true
	return nil
}

// finished runs on the speaker goroutine with the speaker lock held, so the
// ended callback is dispatched on its own goroutine.
func (s *SpeakerSink) finished(gen int) {
	go func() {
		s.mu.Lock()
		if gen != s.generation {
			s.mu.Unlock()
			return
		}
		s.playing = false
		s.queued = false
		if s.streamer != nil {
			s.streamer.Seek(0)
		}
		ended, src := s.ended, s.src
		s.mu.Unlock()

		logrus.WithField("src", src).Debug("Narration ended")
		if ended != nil {
			ended()
		}
	}()
}

func (s *SpeakerSink) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctrl == nil {
		return
	}
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
	s.playing = false
}

func (s *SpeakerSink) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

func (s *SpeakerSink) OnEnded(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ended = fn
}

func (s *SpeakerSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return nil
}
