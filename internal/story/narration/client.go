package narration

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"storify/internal/story/remote"
)

// ErrNotFound means no narration exists (yet) for the chapter.
var ErrNotFound = errors.New("narration not found")

// Resolver maps a chapter to a playable audio URL.
type Resolver interface {
	Resolve(ctx context.Context, chapterID string) (string, error)
}

// Synthesizer asks for narration audio to be generated for a chapter.
// The returned URL is empty when the audio is produced asynchronously.
type Synthesizer interface {
	Synthesize(ctx context.Context, chapterID, text string) (string, error)
}

type narrationResponse struct {
	AudioURL string `json:"audioUrl"`
}

type narrationRequest struct {
	Text    string `json:"text"`
	Chapter string `json:"chapter"`
}

// Client talks to the remote narration endpoint.
type Client struct {
	endpoint string
	remote   *remote.Client
}

func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		remote:   remote.NewClient(timeout),
	}
}

// Resolve fetches the audio URL with GET <endpoint>?chapter=<id>.
func (c *Client) Resolve(ctx context.Context, chapterID string) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid narration endpoint %q: %w", c.endpoint, err)
	}
	q := u.Query()
	q.Set("chapter", chapterID)
	u.RawQuery = q.Encode()

	var resp narrationResponse
	if err := c.remote.GetJSON(ctx, u.String(), &resp); err != nil {
		var se *remote.StatusError
		if errors.As(err, &se) {
			return "", fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return "", err
	}
	if resp.AudioURL == "" {
		return "", fmt.Errorf("response for chapter %s has no audioUrl", chapterID)
	}
	return resp.AudioURL, nil
}

// Synthesize triggers narration generation with POST {text, chapter}.
func (c *Client) Synthesize(ctx context.Context, chapterID, text string) (string, error) {
	var resp narrationResponse
	req := narrationRequest{Text: text, Chapter: chapterID}
	if err := c.remote.PostJSON(ctx, c.endpoint, req, &resp); err != nil {
		return "", err
	}
	return resp.AudioURL, nil
}
