// Package illustration requests chapter artwork from the illustration service.
package illustration

import (
	"context"
	"fmt"
	"time"

	"storify/internal/story/remote"
)

type illustrationRequest struct {
	Prompt string `json:"prompt"`
}

type illustrationResponse struct {
	ImageURL string `json:"imageUrl"`
}

// Client calls POST <endpoint> {prompt} -> {imageUrl}.
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

// Generate returns the URL of an image generated for prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var resp illustrationResponse
	if err := c.remote.PostJSON(ctx, c.endpoint, illustrationRequest{Prompt: prompt}, &resp); err != nil {
		return "", err
	}
	if resp.ImageURL == "" {
		return "", fmt.Errorf("illustration response has no imageUrl")
	}
	return resp.ImageURL, nil
}
