// Package player coordinates chapters, narration and playback.
//
// All state lives in Controller and changes only inside its methods, which
// the caller invokes from a single event loop (the bubbletea program). Work
// that waits, such as HTTP calls and the fade timer, is returned as tea.Cmd
// and reports back through Update.
package player

import (
	"context"
	"errors"
	"time"

	"storify/internal/domain/story"
	"storify/internal/story/audio"
	"storify/internal/story/builder"
	"storify/internal/story/narration"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
)

// DefaultTransition is the length of the fade between chapters.
const DefaultTransition = 300 * time.Millisecond

// Fetcher resolves narration for a chapter.
type Fetcher interface {
	Fetch(ctx context.Context, ch story.Chapter) narration.LoadState
}

// Builder turns submitted text into a story.
type Builder interface {
	Build(ctx context.Context, text string, progress builder.Progress) (story.Story, error)
}

// Timer returns a command that delivers msg after d.
type Timer func(d time.Duration, msg tea.Msg) tea.Cmd

// PlaybackState is the navigation part of the controller state.
type PlaybackState struct {
	CurrentIndex  int
	Transitioning bool
	Consent       bool
}

type Option func(*Controller)

func WithTransition(d time.Duration) Option {
	return func(c *Controller) { c.transition = d }
}

func WithTimer(t Timer) Option {
	return func(c *Controller) { c.timer = t }
}

func WithBuilder(b Builder) Option {
	return func(c *Controller) { c.builder = b }
}

func WithContext(ctx context.Context) Option {
	return func(c *Controller) { c.ctx = ctx }
}

// WithProgress sets where build progress is reported. The function is called
// off the event loop and should forward a BuildProgressMsg to it.
func WithProgress(fn func(BuildProgressMsg)) Option {
	return func(c *Controller) { c.progress = fn }
}

type Controller struct {
	story   story.Story
	state   PlaybackState
	toIndex int
	seq     int
	audio   narration.LoadState

	building bool
	build    BuildProgressMsg

	fetcher    Fetcher
	builder    Builder
	sink       audio.Sink
	transition time.Duration
	timer      Timer
	progress   func(BuildProgressMsg)
	ctx        context.Context
}

func New(s story.Story, fetcher Fetcher, sink audio.Sink, opts ...Option) *Controller {
	c := &Controller{
		story:      s,
		audio:      narration.Idle(),
		fetcher:    fetcher,
		sink:       sink,
		transition: DefaultTransition,
		timer:      tick,
		ctx:        context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func tick(d time.Duration, msg tea.Msg) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return msg
	})
}

// Init starts fetching narration for the first chapter.
func (c *Controller) Init() tea.Cmd {
	return c.fetchActive()
}

func (c *Controller) Story() story.Story {
	return c.story
}

func (c *Controller) State() PlaybackState {
	return c.state
}

func (c *Controller) Audio() narration.LoadState {
	return c.audio
}

// Chapter returns the active chapter.
func (c *Controller) Chapter() (story.Chapter, bool) {
	return c.story.Chapter(c.state.CurrentIndex)
}

// Building reports whether a build is running and its latest progress.
func (c *Controller) Building() (bool, BuildProgressMsg) {
	return c.building, c.build
}

// CanNavigate reports whether a navigation control should be enabled.
func (c *Controller) CanNavigate(dir Direction) bool {
	if c.state.Transitioning || c.building || c.audio.Status == narration.StatusLoading {
		return false
	}
	if c.story.Empty() {
		return false
	}
	return c.target(dir) != c.state.CurrentIndex
}

func (c *Controller) target(dir Direction) int {
	i := c.state.CurrentIndex
	if dir == Next {
		return min(i+1, c.story.Len()-1)
	}
	return max(i-1, 0)
}

// Navigate moves one chapter in dir after the fade. It is a no-op while a
// transition runs or when dir points past either end of the story.
func (c *Controller) Navigate(dir Direction) tea.Cmd {
	if c.state.Transitioning || c.story.Empty() {
		return nil
	}

	to := c.target(dir)
	if to == c.state.CurrentIndex {
		return nil
	}

	c.sink.Pause()
	c.state.Consent = true
	c.state.Transitioning = true
	c.toIndex = to
	c.seq++

	logrus.WithFields(logrus.Fields{
		"direction": dir.String(),
		"from":      c.state.CurrentIndex,
		"to":        to,
	}).Debug("Chapter transition")

	return c.timer(c.transition, transitionDoneMsg{seq: c.seq, to: to})
}

// NarrationEnded advances to the next chapter unless the active one is last.
func (c *Controller) NarrationEnded() tea.Cmd {
	if c.state.CurrentIndex >= c.story.Len()-1 {
		return nil
	}
	return c.Navigate(Next)
}

// FirstPlay records that the user started playback by hand.
func (c *Controller) FirstPlay() {
	c.state.Consent = true
}

// TogglePlay is the manual play/pause control.
func (c *Controller) TogglePlay() {
	if c.sink.Playing() {
		c.sink.Pause()
		return
	}
	if c.audio.Status != narration.StatusReady {
		return
	}
	c.FirstPlay()
	if err := c.sink.Play(); err != nil {
		logrus.WithError(err).Warn("Playback failed")
	}
}

// Build starts building a story from text. Only one build runs at a time.
func (c *Controller) Build(text string) tea.Cmd {
	if c.builder == nil {
		logrus.Warn("No story builder configured")
		return nil
	}
	if c.building {
		return nil
	}

	c.building = true
	c.build = BuildProgressMsg{}
	c.seq++
	c.sink.Pause()

	ctx, b, progress := c.ctx, c.builder, c.progress
	return func() tea.Msg {
		s, err := b.Build(ctx, text, func(part, total int) {
			if progress != nil {
				progress(BuildProgressMsg{Part: part, Total: total})
			}
		})
		return buildDoneMsg{story: s, err: err}
	}
}

// Update applies the result of an earlier command or an external event.
func (c *Controller) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case transitionDoneMsg:
		if !c.state.Transitioning || msg.seq != c.seq {
			return nil
		}
		c.state.CurrentIndex = msg.to
		c.state.Transitioning = false
		return c.fetchActive()

	case narrationMsg:
		if !c.isActive(msg.state.ChapterID) {
			logrus.WithField("chapter", msg.state.ChapterID).Debug("Discarding stale narration")
			return nil
		}
		c.audio = msg.state
		if msg.state.Status != narration.StatusReady {
			return nil
		}
		c.sink.SetSource(msg.state.URL)
		return c.load(msg.state.ChapterID, msg.state.URL)

	case audioLoadedMsg:
		if !c.isActive(msg.chapterID) || c.audio.URL != msg.url {
			return nil
		}
		if msg.err != nil {
			if !errors.Is(msg.err, audio.ErrStale) {
				logrus.WithError(msg.err).WithField("chapter", msg.chapterID).Warn("Could not load narration audio")
			}
			return nil
		}
		c.autoplay(msg.chapterID)
		return nil

	case NarrationEndedMsg:
		return c.NarrationEnded()

	case BuildProgressMsg:
		if c.building {
			c.build = msg
		}
		return nil

	case buildDoneMsg:
		return c.finishBuild(msg)
	}
	return nil
}

// isActive reports whether results for chapterID still apply. Nothing from
// the old story applies once a build has started.
func (c *Controller) isActive(chapterID string) bool {
	if c.building {
		return false
	}
	ch, ok := c.Chapter()
	return ok && !c.state.Transitioning && ch.ID == chapterID
}

// autoplay plays freshly loaded audio, but only after the user has interacted.
func (c *Controller) autoplay(chapterID string) {
	if !c.state.Consent {
		return
	}
	if err := c.sink.Play(); err != nil {
		logrus.WithError(errors.Join(story.ErrAutoplayRejected, err)).
			WithField("chapter", chapterID).
			Warn("Autoplay was prevented")
	}
}

func (c *Controller) fetchActive() tea.Cmd {
	ch, ok := c.Chapter()
	if !ok {
		c.audio = narration.Idle()
		return nil
	}

	c.audio = narration.Loading(ch.ID)
	ctx, f := c.ctx, c.fetcher
	return func() tea.Msg {
		return narrationMsg{state: f.Fetch(ctx, ch)}
	}
}

func (c *Controller) load(chapterID, url string) tea.Cmd {
	ctx, sink := c.ctx, c.sink
	return func() tea.Msg {
		return audioLoadedMsg{chapterID: chapterID, url: url, err: sink.Load(ctx)}
	}
}

func (c *Controller) finishBuild(msg buildDoneMsg) tea.Cmd {
	c.building = false
	c.build = BuildProgressMsg{}
	c.seq++

	if msg.err != nil {
		c.story = story.Story{}
		c.state = PlaybackState{}
		c.audio = narration.Failed("", story.Reason(msg.err), msg.err)
		return nil
	}

	c.story = msg.story
	c.state = PlaybackState{CurrentIndex: 0, Consent: true}
	logrus.WithField("chapters", c.story.Len()).Info("Story ready")
	return c.fetchActive()
}
