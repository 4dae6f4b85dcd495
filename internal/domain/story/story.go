package story

// Chapter is one narrative unit: text, an illustration and narration audio.
type Chapter struct {
	ID       string `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Text     string `json:"text" yaml:"text"`
	ImageURL string `json:"imageUrl" yaml:"image_url"`
	// AudioURL is optional. When set it is used instead of asking the
	// narration service.
	AudioURL string `json:"audioUrl,omitempty" yaml:"audio_url,omitempty"`
}

// Story is an ordered list of chapters. Slice order is playback order.
type Story struct {
	Title    string    `json:"title" yaml:"title"`
	Chapters []Chapter `json:"chapters" yaml:"chapters"`
}

func (s Story) Len() int {
	return len(s.Chapters)
}

func (s Story) Empty() bool {
	return len(s.Chapters) == 0
}

// Chapter returns the chapter at index i.
func (s Story) Chapter(i int) (Chapter, bool) {
	if i < 0 || i >= len(s.Chapters) {
		return Chapter{}, false
	}
	return s.Chapters[i], true
}
