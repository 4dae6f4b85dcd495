package narration

// Status of the narration audio for the active chapter.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// LoadState describes the narration for one chapter. A new value replaces the
// previous one whenever the active chapter changes; fields are never merged.
type LoadState struct {
	Status    Status
	ChapterID string
	URL       string
	Reason    string
	Err       error
}

func Idle() LoadState {
	return LoadState{Status: StatusIdle}
}

func Loading(chapterID string) LoadState {
	return LoadState{Status: StatusLoading, ChapterID: chapterID}
}

func Ready(chapterID, url string) LoadState {
	return LoadState{Status: StatusReady, ChapterID: chapterID, URL: url}
}

// Failed records err; reason is what the user sees.
func Failed(chapterID, reason string, err error) LoadState {
	return LoadState{Status: StatusFailed, ChapterID: chapterID, Reason: reason, Err: err}
}
