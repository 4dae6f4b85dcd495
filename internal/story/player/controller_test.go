package player

import (
	"context"
	"errors"
	"testing"
	"time"

	"storify/internal/domain/story"
	"storify/internal/story/audio"
	"storify/internal/story/builder"
	"storify/internal/story/narration"

	tea "github.com/charmbracelet/bubbletea"
)

func instant(_ time.Duration, msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

type fakeFetcher struct {
	calls  []string
	failed map[string]string
}

func (f *fakeFetcher) Fetch(ctx context.Context, ch story.Chapter) narration.LoadState {
	f.calls = append(f.calls, ch.ID)
	if reason, ok := f.failed[ch.ID]; ok {
		return narration.Failed(ch.ID, reason, errors.New(reason))
	}
	return narration.Ready(ch.ID, "https://cdn.example.com/"+ch.ID+".mp3")
}

// run executes cmd and feeds every resulting message back into c until no
// command is left.
func run(c *Controller, cmd tea.Cmd) {
	for cmd != nil {
		cmd = c.Update(cmd())
	}
}

func threeChapters() story.Story {
	return story.Story{
		Title: "Test",
		Chapters: []story.Chapter{
			{ID: "1", Title: "One"},
			{ID: "2", Title: "Two"},
			{ID: "3", Title: "Three"},
		},
	}
}

func newTestController(opts ...Option) (*Controller, *fakeFetcher, *audio.MockSink) {
	f := &fakeFetcher{}
	sink := audio.NewMockSink()
	opts = append([]Option{WithTimer(instant)}, opts...)
	c := New(threeChapters(), f, sink, opts...)
	run(c, c.Init())
	return c, f, sink
}

func TestInitFetchesWithoutAutoplay(t *testing.T) {
	c, f, sink := newTestController()

	if len(f.calls) != 1 || f.calls[0] != "1" {
		t.Fatalf("expected one fetch for chapter 1, got %v", f.calls)
	}
	if a := c.Audio(); a.Status != narration.StatusReady || a.ChapterID != "1" {
		t.Errorf("unexpected audio state %+v", a)
	}
	if len(sink.Sources) != 1 || sink.Loads != 1 {
		t.Errorf("expected the source to be set and loaded once, got sources=%v loads=%d", sink.Sources, sink.Loads)
	}
	if sink.Plays != 0 {
		t.Errorf("autoplay must wait for consent, got %d plays", sink.Plays)
	}
}

func TestNavigatePrevAtStartIsNoop(t *testing.T) {
	c, _, sink := newTestController()

	if cmd := c.Navigate(Prev); cmd != nil {
		t.Error("expected no command at the first chapter")
	}
	s := c.State()
	if s.CurrentIndex != 0 || s.Transitioning || s.Consent {
		t.Errorf("state changed at boundary: %+v", s)
	}
	if sink.Pauses != 0 {
		t.Errorf("boundary navigation should not pause, got %d", sink.Pauses)
	}
}

func TestNavigateNext(t *testing.T) {
	var delay time.Duration
	timer := func(d time.Duration, msg tea.Msg) tea.Cmd {
		delay = d
		return instant(d, msg)
	}
	c, f, sink := newTestController(WithTimer(timer))

	cmd := c.Navigate(Next)
	if cmd == nil {
		t.Fatal("expected a transition command")
	}
	if delay != DefaultTransition {
		t.Errorf("transition delay = %v, want %v", delay, DefaultTransition)
	}

	s := c.State()
	if !s.Transitioning || s.CurrentIndex != 0 || !s.Consent {
		t.Errorf("unexpected state during transition: %+v", s)
	}
	if sink.Pauses != 1 {
		t.Errorf("expected playback to pause, got %d pauses", sink.Pauses)
	}
	if c.CanNavigate(Next) || c.CanNavigate(Prev) {
		t.Error("navigation must be disabled while transitioning")
	}
	if again := c.Navigate(Next); again != nil {
		t.Error("navigation while transitioning must be a no-op")
	}

	run(c, cmd)

	s = c.State()
	if s.Transitioning || s.CurrentIndex != 1 {
		t.Errorf("expected index 1 after the delay, got %+v", s)
	}
	if f.calls[len(f.calls)-1] != "2" {
		t.Errorf("expected a fetch for chapter 2, got %v", f.calls)
	}
	if sink.Plays != 1 {
		t.Errorf("consent was granted, expected autoplay, got %d plays", sink.Plays)
	}
}

func TestNavigateNextAtEndIsNoop(t *testing.T) {
	c, _, _ := newTestController()
	run(c, c.Navigate(Next))
	run(c, c.Navigate(Next))

	if c.State().CurrentIndex != 2 {
		t.Fatalf("expected last chapter, got %d", c.State().CurrentIndex)
	}
	if cmd := c.Navigate(Next); cmd != nil {
		t.Error("expected no command at the last chapter")
	}
	if c.State().Transitioning {
		t.Error("boundary navigation must not enter the transition")
	}
	if c.CanNavigate(Next) {
		t.Error("next must be disabled on the last chapter")
	}
	if !c.CanNavigate(Prev) {
		t.Error("prev must be enabled on the last chapter")
	}
}

func TestNarrationEnded(t *testing.T) {
	c, _, _ := newTestController()

	run(c, c.Update(NarrationEndedMsg{}))
	if c.State().CurrentIndex != 1 {
		t.Fatalf("expected auto-advance to 1, got %d", c.State().CurrentIndex)
	}

	run(c, c.NarrationEnded())
	if c.State().CurrentIndex != 2 {
		t.Fatalf("expected auto-advance to 2, got %d", c.State().CurrentIndex)
	}

	if cmd := c.NarrationEnded(); cmd != nil {
		t.Error("narration ending on the last chapter must not advance")
	}
	if s := c.State(); s.CurrentIndex != 2 || s.Transitioning {
		t.Errorf("unexpected state after the last chapter ended: %+v", s)
	}
}

func TestStaleNarrationDiscarded(t *testing.T) {
	c, _, sink := newTestController()

	transition := c.Navigate(Next)
	fetch := c.Update(transition())
	if a := c.Audio(); a.Status != narration.StatusLoading || a.ChapterID != "2" {
		t.Fatalf("expected loading for chapter 2, got %+v", a)
	}

	// A late answer for chapter 1 arrives after chapter 2 became active.
	if cmd := c.Update(narrationMsg{state: narration.Ready("1", "https://cdn.example.com/late.mp3")}); cmd != nil {
		t.Error("stale narration must not produce a command")
	}
	if a := c.Audio(); a.ChapterID != "2" || a.Status != narration.StatusLoading {
		t.Errorf("stale narration overwrote the state: %+v", a)
	}
	for _, src := range sink.Sources {
		if src == "https://cdn.example.com/late.mp3" {
			t.Error("stale narration reached the sink")
		}
	}

	run(c, fetch)
	if a := c.Audio(); a.Status != narration.StatusReady || a.ChapterID != "2" {
		t.Errorf("unexpected state %+v", a)
	}
}

func TestFetchFailureSurfaced(t *testing.T) {
	c, f, sink := newTestController()
	f.failed = map[string]string{"2": "Narration for chapter 2 not found."}
	sources := len(sink.Sources)

	run(c, c.Navigate(Next))

	a := c.Audio()
	if a.Status != narration.StatusFailed || a.Reason != "Narration for chapter 2 not found." {
		t.Errorf("unexpected audio state %+v", a)
	}
	if a.URL != "" {
		t.Errorf("failed state must not carry a URL, got %q", a.URL)
	}
	if len(sink.Sources) != sources {
		t.Error("a failed fetch must not touch the sink")
	}
	if !c.CanNavigate(Next) {
		t.Error("navigation should be possible after a failure")
	}
}

func TestAutoplayRejectedIsNotSurfaced(t *testing.T) {
	f := &fakeFetcher{}
	sink := audio.NewMockSink()
	sink.PlayErr = errors.New("NotAllowedError")
	c := New(threeChapters(), f, sink, WithTimer(instant))
	c.FirstPlay()

	run(c, c.Init())

	if sink.Plays != 1 {
		t.Fatalf("expected one autoplay attempt, got %d", sink.Plays)
	}
	if a := c.Audio(); a.Status != narration.StatusReady {
		t.Errorf("autoplay rejection must not change the audio state: %+v", a)
	}
}

func TestLoadingDisablesNavigation(t *testing.T) {
	f := &fakeFetcher{}
	c := New(threeChapters(), f, audio.NewMockSink(), WithTimer(instant))

	cmd := c.Init()
	if c.Audio().Status != narration.StatusLoading {
		t.Fatalf("expected loading, got %s", c.Audio().Status)
	}
	if c.CanNavigate(Next) {
		t.Error("next must be disabled while narration loads")
	}

	run(c, cmd)
	if !c.CanNavigate(Next) || c.CanNavigate(Prev) {
		t.Error("expected next enabled and prev disabled on the first chapter")
	}
}

func TestRevisitRefetches(t *testing.T) {
	c, f, _ := newTestController()
	run(c, c.Navigate(Next))
	run(c, c.Navigate(Prev))

	want := []string{"1", "2", "1"}
	if len(f.calls) != len(want) {
		t.Fatalf("fetch calls = %v, want %v", f.calls, want)
	}
	for i := range want {
		if f.calls[i] != want[i] {
			t.Errorf("fetch calls = %v, want %v", f.calls, want)
		}
	}
}

func TestTogglePlay(t *testing.T) {
	c, _, sink := newTestController()

	c.TogglePlay()
	if !sink.Playing() || !c.State().Consent {
		t.Fatal("manual play should start playback and grant consent")
	}
	c.TogglePlay()
	if sink.Playing() {
		t.Error("second toggle should pause")
	}
}

type fakeBuilder struct {
	story story.Story
	err   error
	parts int
}

func (b *fakeBuilder) Build(ctx context.Context, text string, progress builder.Progress) (story.Story, error) {
	for i := 1; i <= b.parts; i++ {
		if progress != nil {
			progress(i, b.parts)
		}
	}
	return b.story, b.err
}

func TestBuildReplacesStory(t *testing.T) {
	built := story.Story{Chapters: []story.Chapter{{ID: "99-0", Title: "Part 1"}, {ID: "99-1", Title: "Part 2"}}}
	b := &fakeBuilder{story: built, parts: 2}

	var progress []BuildProgressMsg
	f := &fakeFetcher{}
	sink := audio.NewMockSink()
	c := New(story.Story{}, f, sink, WithTimer(instant), WithBuilder(b),
		WithProgress(func(p BuildProgressMsg) { progress = append(progress, p) }))

	if cmd := c.Init(); cmd != nil {
		t.Error("an empty story has nothing to fetch")
	}

	cmd := c.Build("Part one.\n\nPart two.")
	if building, _ := c.Building(); !building {
		t.Fatal("expected building state")
	}
	if c.Build("again") != nil {
		t.Error("a second build must not start while one runs")
	}

	run(c, cmd)

	if building, _ := c.Building(); building {
		t.Error("build should be finished")
	}
	if c.Story().Len() != 2 {
		t.Fatalf("expected 2 chapters, got %d", c.Story().Len())
	}
	s := c.State()
	if s.CurrentIndex != 0 || !s.Consent || s.Transitioning {
		t.Errorf("unexpected state after build: %+v", s)
	}
	if len(f.calls) != 1 || f.calls[0] != "99-0" {
		t.Errorf("expected a fetch for the first part, got %v", f.calls)
	}
	if sink.Plays != 1 {
		t.Errorf("building grants consent, expected autoplay, got %d plays", sink.Plays)
	}
	if len(progress) != 2 || progress[1] != (BuildProgressMsg{Part: 2, Total: 2}) {
		t.Errorf("unexpected progress %v", progress)
	}
}

func TestBuildFailureResetsStory(t *testing.T) {
	b := &fakeBuilder{err: &story.Error{
		Kind:    story.ErrBuildStepFailed,
		Message: "Failed to generate illustration for part 2.",
	}}
	c, _, _ := newTestController(WithBuilder(b))
	run(c, c.Navigate(Next))

	run(c, c.Build("text"))

	if !c.Story().Empty() {
		t.Errorf("expected the empty story, got %d chapters", c.Story().Len())
	}
	if s := c.State(); s != (PlaybackState{}) {
		t.Errorf("expected the default playback state, got %+v", s)
	}
	a := c.Audio()
	if a.Status != narration.StatusFailed || a.Reason != "Failed to generate illustration for part 2." {
		t.Errorf("unexpected audio state %+v", a)
	}
	if !errors.Is(a.Err, story.ErrBuildStepFailed) {
		t.Errorf("expected ErrBuildStepFailed, got %v", a.Err)
	}
	if c.CanNavigate(Next) || c.CanNavigate(Prev) {
		t.Error("navigation must be disabled without a story")
	}
	if c.Navigate(Next) != nil {
		t.Error("navigate on the empty story must be a no-op")
	}
}

func TestBuildProgressIgnoredWhenIdle(t *testing.T) {
	c, _, _ := newTestController()
	c.Update(BuildProgressMsg{Part: 1, Total: 3})

	if _, p := c.Building(); p != (BuildProgressMsg{}) {
		t.Errorf("progress without a build should be ignored, got %+v", p)
	}
}

func TestBuildWithoutBuilder(t *testing.T) {
	c, _, _ := newTestController()
	if c.Build("text") != nil {
		t.Error("expected no command without a builder")
	}
}

func TestBuildDiscardsOldStoryNarration(t *testing.T) {
	b := &fakeBuilder{story: story.Story{Chapters: []story.Chapter{{ID: "99-0"}}}}
	c, f, sink := newTestController(WithBuilder(b))

	// Commit the transition but hold back the narration fetch it starts.
	msg := c.Navigate(Next)()
	fetch := c.Update(msg)
	if fetch == nil {
		t.Fatal("expected a fetch after the transition")
	}

	build := c.Build("New text.")
	run(c, fetch)

	if sink.Plays != 0 {
		t.Errorf("old story narration played during the build, plays = %d", sink.Plays)
	}
	if len(sink.Sources) != 1 {
		t.Errorf("old story narration set as source: %v", sink.Sources)
	}

	run(c, build)

	if ch, _ := c.Chapter(); ch.ID != "99-0" {
		t.Fatalf("expected the built story, active chapter %q", ch.ID)
	}
	if last := f.calls[len(f.calls)-1]; last != "99-0" {
		t.Errorf("expected a fetch for the built chapter, got %v", f.calls)
	}
	if sink.Plays != 1 {
		t.Errorf("expected the built chapter to autoplay once, plays = %d", sink.Plays)
	}
}
