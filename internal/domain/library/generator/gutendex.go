package generator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storify/internal/story/remote"

	"github.com/sirupsen/logrus"
)

const DefaultGutendexURL = "https://gutendex.com"

// GutendexBook represents a book from the Gutendex API
type GutendexBook struct {
	ID        int               `json:"id"`
	Title     string            `json:"title"`
	Authors   []Author          `json:"authors"`
	Languages []string          `json:"languages"`
	Formats   map[string]string `json:"formats"`
}

// Author represents an author from the API
type Author struct {
	Name string `json:"name"`
}

// Gutendex loads the plain text of Project Gutenberg books.
type Gutendex struct {
	baseURL string
	remote  *remote.Client
}

func NewGutendex(baseURL string, timeout time.Duration) *Gutendex {
	if baseURL == "" {
		baseURL = DefaultGutendexURL
	}
	return &Gutendex{
		baseURL: strings.TrimRight(baseURL, "/"),
		remote:  remote.NewClient(timeout),
	}
}

// LoadText returns the body of book id without the Gutenberg license header
// and footer.
func (g *Gutendex) LoadText(ctx context.Context, id string) (string, error) {
	var book GutendexBook
	if err := g.remote.GetJSON(ctx, fmt.Sprintf("%s/books/%s", g.baseURL, id), &book); err != nil {
		return "", fmt.Errorf("failed to fetch book %s: %w", id, err)
	}

	textURL := getBestTextFormat(book.Formats)
	if textURL == "" {
		return "", fmt.Errorf("book %s has no plain text format", id)
	}

	body, err := g.remote.GetBytes(ctx, textURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch text of book %s: %w", id, err)
	}

	authorName := "Unknown"
	if len(book.Authors) > 0 {
		authorName = book.Authors[0].Name
	}
	logrus.WithFields(logrus.Fields{
		"book":   book.ID,
		"title":  book.Title,
		"author": authorName,
		"bytes":  len(body),
	}).Info("Loaded Gutenberg text")

	return stripBoilerplate(string(body)), nil
}

// getBestTextFormat finds the best text format URL
func getBestTextFormat(formats map[string]string) string {
	preferredFormats := []string{
		"text/plain; charset=utf-8",
		"text/plain; charset=us-ascii",
		"text/plain",
	}

	for _, format := range preferredFormats {
		if url, exists := formats[format]; exists {
			return url
		}
	}
	return ""
}

// stripBoilerplate keeps the text between the "*** START OF" and "*** END OF"
// markers when both are present.
func stripBoilerplate(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	if i := strings.Index(text, "*** START OF"); i >= 0 {
		if nl := strings.Index(text[i:], "\n"); nl >= 0 {
			text = text[i+nl+1:]
		}
	}
	if i := strings.Index(text, "*** END OF"); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}
