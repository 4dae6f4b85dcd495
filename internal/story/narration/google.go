package narration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/sirupsen/logrus"
)

// maxRequestBytes keeps each request under the 5000 byte input limit of the
// Text-to-Speech API.
const maxRequestBytes = 4800

// speechClient is the part of the Text-to-Speech client GoogleSynth uses.
type speechClient interface {
	SynthesizeSpeech(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest, opts ...gax.CallOption) (*texttospeechpb.SynthesizeSpeechResponse, error)
	Close() error
}

// GoogleSynth narrates chapters locally with Google Cloud Text-to-Speech and
// serves the resulting MP3 files as narration URLs.
type GoogleSynth struct {
	client speechClient
	voice  string
	dir    string
}

func NewGoogleSynth(ctx context.Context, voice, dir string) (*GoogleSynth, error) {
	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create TTS client: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create narration dir: %w", err)
	}

	return &GoogleSynth{
		client: client,
		voice:  voice,
		dir:    dir,
	}, nil
}

// path returns <dir>/<chapterID>.mp3. Ids that would leave dir are rejected.
func (g *GoogleSynth) path(chapterID string) (string, error) {
	if chapterID == "" || chapterID == "." || chapterID == ".." ||
		strings.ContainsAny(chapterID, `/\`) || filepath.Base(chapterID) != chapterID {
		return "", fmt.Errorf("invalid chapter id %q", chapterID)
	}
	return filepath.Join(g.dir, chapterID+".mp3"), nil
}

// Synthesize writes <dir>/<chapterID>.mp3 and returns its path. Long text is
// sent in several requests and the MP3 payloads are written back to back.
func (g *GoogleSynth) Synthesize(ctx context.Context, chapterID, text string) (string, error) {
	path, err := g.path(chapterID)
	if err != nil {
		return "", err
	}

	pieces := splitIntoChunks(text, maxRequestBytes)
	if len(pieces) == 0 {
		return "", fmt.Errorf("no text to synthesize for chapter %s", chapterID)
	}

	var audio []byte
	for i, piece := range pieces {
		req := &texttospeechpb.SynthesizeSpeechRequest{
			Input: &texttospeechpb.SynthesisInput{
				InputSource: &texttospeechpb.SynthesisInput_Text{Text: piece},
			},
			Voice: &texttospeechpb.VoiceSelectionParams{
				LanguageCode: languageCode(g.voice),
				Name:         g.voice,
			},
			AudioConfig: &texttospeechpb.AudioConfig{
				AudioEncoding: texttospeechpb.AudioEncoding_MP3,
			},
		}

		resp, err := g.client.SynthesizeSpeech(ctx, req)
		if err != nil {
			return "", fmt.Errorf("failed to synthesize chapter %s (piece %d of %d): %w", chapterID, i+1, len(pieces), err)
		}
		audio = append(audio, resp.AudioContent...)
	}

	if err := os.WriteFile(path, audio, 0644); err != nil {
		return "", fmt.Errorf("failed to write MP3 for chapter %s to %s: %w", chapterID, path, err)
	}

	logrus.WithFields(logrus.Fields{
		"chapter":  chapterID,
		"voice":    g.voice,
		"requests": len(pieces),
		"file":     path,
	}).Info("Synthesized narration")
	return path, nil
}

// Resolve returns the MP3 written by Synthesize for the chapter.
func (g *GoogleSynth) Resolve(ctx context.Context, chapterID string) (string, error) {
	path, err := g.path(chapterID)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", err
	}
	return path, nil
}

func (g *GoogleSynth) Close() error {
	return g.client.Close()
}

// splitIntoChunks cuts text into pieces of at most limit bytes, preferring
// whitespace boundaries and never splitting a UTF-8 sequence.
func splitIntoChunks(text string, limit int) []string {
	var chunks []string
	rest := strings.TrimSpace(text)

	for len(rest) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(rest[cut]) {
			cut--
		}
		if cut == 0 {
			_, cut = utf8.DecodeRuneInString(rest)
		}
		if i := strings.LastIndexAny(rest[:cut], " \t\n"); i > 0 {
			cut = i
		}
		if piece := strings.TrimSpace(rest[:cut]); piece != "" {
			chunks = append(chunks, piece)
		}
		rest = strings.TrimSpace(rest[cut:])
	}

	if rest != "" {
		chunks = append(chunks, rest)
	}
	return chunks
}

// languageCode extracts "en-US" from voice names like "en-US-Chirp3-HD-Charon".
func languageCode(voice string) string {
	parts := strings.SplitN(voice, "-", 3)
	if len(parts) < 2 {
		return "en-US"
	}
	return parts[0] + "-" + parts[1]
}
