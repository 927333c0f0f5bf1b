package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/video-stream/signreel/internal/config"
	"github.com/video-stream/signreel/internal/recognize"
	"github.com/video-stream/signreel/internal/transcript"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <audio-file>",
	Short: "Print the transcript of an audio file",
	Args:  cobra.ExactArgs(1),
	RunE:  runTranscribe,
}

var (
	transcribeEngine   string
	transcribeLanguage string
	transcribeTokens   bool
)

func init() {
	transcribeCmd.Flags().StringVar(&transcribeEngine, "engine", "", "speech recognizer (default: first configured)")
	transcribeCmd.Flags().StringVarP(&transcribeLanguage, "language", "l", "", "recognition language (default: $LANGUAGE or en)")
	transcribeCmd.Flags().BoolVar(&transcribeTokens, "tokens", false, "also print the resolved lookup keys per word")
	rootCmd.AddCommand(transcribeCmd)
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	audioPath := args[0]
	if _, err := os.Stat(audioPath); err != nil {
		return fmt.Errorf("input file: %w", err)
	}

	cfg := config.Load()
	if transcribeLanguage == "" {
		transcribeLanguage = cfg.Language
	}

	rec, err := recognize.NewService(cfg.WhisperURL, cfg.OpenAIKey).Get(transcribeEngine)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	text, err := rec.Recognize(ctx, audioPath, transcribeLanguage)
	if err != nil {
		return err
	}
	fmt.Println(text)

	if transcribeTokens {
		for _, r := range transcript.ResolveText(text) {
			fmt.Printf("%s\t%v\n", r.Token.Text, r.Keys)
		}
	}
	return nil
}
