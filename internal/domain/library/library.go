package library

import (
	"fmt"
	"os"
	"strings"

	"storify/internal/domain/story"

	"gopkg.in/yaml.v3"
)

// Sample is the story shown when no other story is given.
func Sample() story.Story {
	return story.Story{
		Title: "The Long Night",
		Chapters: []story.Chapter{
			{
				ID:    "1",
				Title: "The Long Night",
				Text: "The sun dipped below the horizon, painting the sky in shades of bruised purple. " +
					"A lone figure stood on the hill, overlooking the sleeping town. It was the beginning " +
					"of a long journey, one that would test his courage and resolve. The air was still, holding its breath.",
				ImageURL: "https://images.unsplash.com/photo-1475778822368-407b6f6a7931?fit=max&fm=jpg&q=80&w=1080",
			},
			{
				ID:    "2",
				Title: "The Cold Wind",
				Text: "He checked his supplies: a half-empty canteen, a compass that spun wildly, and a stale loaf " +
					"of bread. This was not the start he had hoped for. The night air grew sharp, and a distant, " +
					"mournful howl echoed through the valley. He pulled his cloak tighter, his eyes scanning the darkness.",
				ImageURL: "https://images.unsplash.com/photo-1534274988757-a28bf1a57c17?fit=max&fm=jpg&q=80&w=1080",
			},
			{
				ID:    "3",
				Title: "The Fading Light",
				Text: "The path ahead was unclear, shrouded in mist. He wasn't sure he could go on, but a small " +
					"flicker of hope remained. He took one more step into the unknown.",
				ImageURL: "https://images.unsplash.com/photo-1488866022504-f2584929ca5f?fit=max&fm=jpg&q=80&w=1080",
			},
		},
	}
}

// LoadFile reads a story from a YAML file.
func LoadFile(path string) (story.Story, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return story.Story{}, fmt.Errorf("failed to read story file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML story. Chapters without an id get their
// 1-indexed position, chapters without a title get "Chapter N".
func Parse(data []byte) (story.Story, error) {
	var s story.Story
	if err := yaml.Unmarshal(data, &s); err != nil {
		return story.Story{}, fmt.Errorf("failed to parse story: %w", err)
	}
	if s.Empty() {
		return story.Story{}, fmt.Errorf("story has no chapters")
	}

	seen := make(map[string]bool)
	for i := range s.Chapters {
		ch := &s.Chapters[i]
		if ch.ID == "" {
			ch.ID = fmt.Sprintf("%d", i+1)
		}
		if ch.Title == "" {
			ch.Title = fmt.Sprintf("Chapter %d", i+1)
		}
		if strings.TrimSpace(ch.Text) == "" {
			return story.Story{}, fmt.Errorf("chapter %s has no text", ch.ID)
		}
		if seen[ch.ID] {
			return story.Story{}, fmt.Errorf("duplicate chapter id %s", ch.ID)
		}
		seen[ch.ID] = true
	}
	return s, nil
}
