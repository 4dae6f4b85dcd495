package main

import (
	"os"
	"os/signal"
	"syscall"

	"storify/internal/cli/scheme/colours"
	"storify/internal/config"
	"storify/internal/story/nest"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		colours.Error.Printf("❌ Error: %v\n", err)
		os.Exit(1)
	}

	logFile, err := config.SetupLogging(cfg.Log)
	if err != nil {
		colours.Error.Printf("❌ Error: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	app := nest.NewStoryNest(cfg)

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logrus.WithField("signal", sig.String()).Info("Shutting down")
		app.Cancel()
	}()

	rootCmd := &cobra.Command{
		Use:   "storify",
		Short: "📖 Narrated, illustrated stories in your terminal",
		Long: `
┌─────────────────────────────────────┐
│  📖 Welcome to Storify! 🎧          │
│  Stories, read aloud, part by part  │
└─────────────────────────────────────┘

Storify plays narrated stories chapter by chapter and can turn your own
text into a new story with narration and illustrations for every part.
		`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			app.ShowWelcome()
		},
	}

	// Play command
	playCmd := &cobra.Command{
		Use:   "play",
		Short: "🎧 Listen to a story",
		Long:  "Open the player on the sample story or on a story file",
		Args:  cobra.NoArgs,
		RunE:  app.Play,
	}

	// Build command
	buildCmd := &cobra.Command{
		Use:   "build [file|-]",
		Short: "🛠️ Build a story from your text",
		Long:  "Split text into parts, narrate and illustrate each part, then play the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  app.Build,
	}

	// Gutenberg command
	gutenbergCmd := &cobra.Command{
		Use:   "gutenberg [book-id]",
		Short: "📚 Build a story from a Project Gutenberg book",
		Long:  "Download a book's plain text through Gutendex and build a story from its first parts",
		Args:  cobra.ExactArgs(1),
		RunE:  app.Gutenberg,
	}

	// Chunk command
	chunkCmd := &cobra.Command{
		Use:   "chunk [file|-]",
		Short: "✂️ Show how text is split into parts",
		Args:  cobra.MaximumNArgs(1),
		RunE:  app.Chunk,
	}

	// Config command
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "⚙️ Show the current settings",
		Args:  cobra.NoArgs,
		Run:   app.ShowConfig,
	}

	// Add flags
	playCmd.Flags().StringP("story", "s", "", "Story file (YAML) to play instead of the sample story")
	gutenbergCmd.Flags().IntP("parts", "n", 3, "Number of parts to build from the start of the book (0 for all)")
	chunkCmd.Flags().Int("size", 0, "Maximum part size in characters (defaults to story.chunk_size)")

	rootCmd.AddCommand(playCmd, buildCmd, gutenbergCmd, chunkCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		colours.Error.Printf("❌ Error: %v\n", err)
		logFile.Close()
		os.Exit(1)
	}
}
