package generator

import "context"

// TextSource provides raw text for the story builder.
type TextSource interface {
	LoadText(ctx context.Context, id string) (string, error)
}
