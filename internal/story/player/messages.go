package player

import (
	"storify/internal/domain/story"
	"storify/internal/story/narration"
)

// Direction of a chapter navigation.
type Direction int

const (
	Prev Direction = iota
	Next
)

func (d Direction) String() string {
	if d == Prev {
		return "prev"
	}
	return "next"
}

// NarrationEndedMsg reports that the audio of the active chapter finished.
type NarrationEndedMsg struct{}

// BuildProgressMsg reports that the builder started part Part of Total.
type BuildProgressMsg struct {
	Part  int
	Total int
}

type transitionDoneMsg struct {
	seq int
	to  int
}

type narrationMsg struct {
	state narration.LoadState
}

type audioLoadedMsg struct {
	chapterID string
	url       string
	err       error
}

type buildDoneMsg struct {
	story story.Story
	err   error
}
