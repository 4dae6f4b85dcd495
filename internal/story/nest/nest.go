package nest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"storify/internal/cli/scheme/colours"
	"storify/internal/config"
	"storify/internal/domain/library"
	"storify/internal/domain/library/generator"
	"storify/internal/domain/story"
	"storify/internal/story/audio"
	"storify/internal/story/builder"
	"storify/internal/story/chunker"
	"storify/internal/story/illustration"
	"storify/internal/story/narration"
	"storify/internal/story/player"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// narrator both resolves and synthesizes chapter narration.
type narrator interface {
	narration.Resolver
	narration.Synthesizer
}

// StoryNest main application structure
type StoryNest struct {
	cfg    *config.Config
	texts  generator.TextSource
	ctx    context.Context
	Cancel context.CancelFunc
}

func NewStoryNest(cfg *config.Config) *StoryNest {
	ctx, cancel := context.WithCancel(context.Background())
	return &StoryNest{
		cfg:    cfg,
		texts:  generator.NewGutendex(generator.DefaultGutendexURL, cfg.API.Timeout),
		ctx:    ctx,
		Cancel: cancel,
	}
}

func (sn *StoryNest) ShowWelcome() {
	fmt.Println()
	colours.Title.Println("🌟 Welcome to Storify! 🌟")
	fmt.Println()
	colours.Info.Println("📚 Available commands:")
	fmt.Println("  • storify play        - Listen to a story")
	fmt.Println("  • storify build       - Turn your own text into a story")
	fmt.Println("  • storify gutenberg   - Build a story from a Project Gutenberg book")
	fmt.Println("  • storify chunk       - Show how text is split into parts")
	fmt.Println("  • storify config      - Show the current settings")
	fmt.Println()
	colours.Prompt.Println("✨ Ready for a story? ✨")
}

// Play opens the player on the sample story or a story file.
func (sn *StoryNest) Play(cmd *cobra.Command, args []string) error {
	s := library.Sample()

	if path, _ := cmd.Flags().GetString("story"); path != "" {
		loaded, err := library.LoadFile(path)
		if err != nil {
			return err
		}
		s = loaded
	}

	return sn.run(s, "")
}

// Build opens the player and builds a story from a file or stdin.
func (sn *StoryNest) Build(cmd *cobra.Command, args []string) error {
	text, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("no text to build a story from")
	}
	return sn.run(story.Story{}, text)
}

// Gutenberg builds a story from the first parts of a Project Gutenberg book.
func (sn *StoryNest) Gutenberg(cmd *cobra.Command, args []string) error {
	parts, _ := cmd.Flags().GetInt("parts")

	colours.Info.Printf("🌐 Downloading book %s from Project Gutenberg...\n", args[0])
	text, err := sn.texts.LoadText(sn.ctx, args[0])
	if err != nil {
		return err
	}

	chunks := chunker.Split(text, sn.cfg.Story.ChunkSize)
	if len(chunks) == 0 {
		return fmt.Errorf("book %s has no text", args[0])
	}
	if parts > 0 && len(chunks) > parts {
		colours.Warning.Printf("✂️ Using the first %d of %d parts\n", parts, len(chunks))
		chunks = chunks[:parts]
	}

	return sn.run(story.Story{}, strings.Join(chunks, chunker.Separator))
}

// Chunk prints the parts a text would be split into.
func (sn *StoryNest) Chunk(cmd *cobra.Command, args []string) error {
	text, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	size, _ := cmd.Flags().GetInt("size")
	if size <= 0 {
		size = sn.cfg.Story.ChunkSize
	}

	chunks := chunker.Split(text, size)
	out := cmd.OutOrStdout()
	for i, c := range chunks {
		colours.Title.Fprintf(out, "── Part %d (%d chars) ──\n", i+1, len([]rune(c)))
		fmt.Fprintln(out, c)
		fmt.Fprintln(out)
	}
	colours.Success.Fprintf(out, "✨ %d parts of at most %d chars\n", len(chunks), size)
	return nil
}

func (sn *StoryNest) ShowConfig(cmd *cobra.Command, args []string) {
	out := cmd.OutOrStdout()
	colours.Title.Fprintln(out, "⚙️ Storify Settings ⚙️")
	if f := viper.ConfigFileUsed(); f != "" {
		colours.Info.Fprintf(out, "📁 Config file: %s\n", f)
	}
	fmt.Fprintln(out)

	keys := viper.AllKeys()
	sort.Strings(keys)
	for _, key := range keys {
		colours.Prompt.Fprintf(out, "  %s", key)
		fmt.Fprintf(out, ": %v\n", viper.Get(key))
	}
}

func (sn *StoryNest) run(s story.Story, text string) error {
	n, closeNarrator, err := sn.narrator()
	if err != nil {
		return err
	}
	defer closeNarrator()

	sink, err := audio.NewSink(sn.cfg.Player.Audio)
	if err != nil {
		return err
	}
	defer sink.Close()

	b := builder.New(n,
		illustration.NewClient(sn.cfg.API.IllustrationURL, sn.cfg.API.Timeout),
		builder.WithChunkSize(sn.cfg.Story.ChunkSize),
		builder.WithPrompt(illustration.NewPrompter().Prompt),
	)

	var fetchOpts []narration.FetchOption
	if sn.cfg.Narration.Provider == "google" {
		fetchOpts = append(fetchOpts, narration.WithSynthesizer(n))
	}

	var p *tea.Program
	ctrl := player.New(s, narration.NewFetcher(n, fetchOpts...), sink,
		player.WithTransition(sn.cfg.Player.Transition),
		player.WithBuilder(b),
		player.WithContext(sn.ctx),
		player.WithProgress(func(msg player.BuildProgressMsg) { p.Send(msg) }),
	)

	p = tea.NewProgram(newModel(ctrl, text), tea.WithAltScreen(), tea.WithContext(sn.ctx))
	sink.OnEnded(func() { p.Send(player.NarrationEndedMsg{}) })

	logrus.WithFields(logrus.Fields{
		"chapters": s.Len(),
		"build":    text != "",
		"provider": sn.cfg.Narration.Provider,
		"audio":    sn.cfg.Player.Audio,
	}).Info("Starting player")

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && sn.ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("player failed: %w", err)
	}
	return nil
}

func (sn *StoryNest) narrator() (narrator, func(), error) {
	switch sn.cfg.Narration.Provider {
	case "google":
		g, err := narration.NewGoogleSynth(sn.ctx, sn.cfg.Narration.Voice, sn.cfg.Narration.OutputDir)
		if err != nil {
			return nil, nil, err
		}
		return g, func() {
			if err := g.Close(); err != nil {
				logrus.WithError(err).Warn("Failed to close TTS client")
			}
		}, nil
	default:
		return narration.NewClient(sn.cfg.API.NarrationURL, sn.cfg.API.Timeout), func() {}, nil
	}
}

// readInput reads the file named by args[0], or stdin when it is "-" or absent.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return string(data), nil
}
