package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/video-stream/signreel/internal/compose"
	"github.com/video-stream/signreel/internal/config"
	"github.com/video-stream/signreel/internal/pipeline"
	"github.com/video-stream/signreel/internal/recognize"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a captioned sign video from audio or a transcript",
	Long: `Render recognizes speech in --audio (or uses --transcript as-is), looks up
each word in the media directory and writes the joined video to --output.
Words without a matching asset use default_video when it exists.`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

var (
	renderTranscript string
	renderAudio      string
	renderMedia      string
	renderOutput     string
	renderEngine     string
	renderLanguage   string
	renderWorkDir    string
	renderNoCache    bool
)

func init() {
	renderCmd.Flags().StringVarP(&renderTranscript, "transcript", "t", "", "text to render; skips speech recognition")
	renderCmd.Flags().StringVarP(&renderAudio, "audio", "a", "", "audio file to transcribe (.wav or .mp3)")
	renderCmd.Flags().StringVarP(&renderMedia, "media", "m", "", "sign asset directory (default: $MEDIA_PATH)")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "output_video.mp4", "output video path")
	renderCmd.Flags().StringVar(&renderEngine, "engine", "", "speech recognizer: whisper.cpp, openai (default: first configured)")
	renderCmd.Flags().StringVarP(&renderLanguage, "language", "l", "", "recognition language (default: $LANGUAGE or en)")
	renderCmd.Flags().StringVar(&renderWorkDir, "work-dir", "", "directory for intermediate files (default: system temp)")
	renderCmd.Flags().BoolVar(&renderNoCache, "no-cache", false, "do not use the probe cache")
	renderCmd.MarkFlagsMutuallyExclusive("transcript", "audio")
	renderCmd.MarkFlagsOneRequired("transcript", "audio")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if renderMedia == "" {
		renderMedia = cfg.MediaPath
	}
	if renderLanguage == "" {
		renderLanguage = cfg.Language
	}
	cachePath := cfg.ProbeCachePath
	if renderNoCache {
		cachePath = ""
	} else if err := os.MkdirAll(filepath.Dir(cachePath), 0755); err != nil {
		cachePath = ""
	}

	recognizers := recognize.NewService(cfg.WhisperURL, cfg.OpenAIKey)
	eng, err := newEngine(cfg, recognizers, cachePath, renderWorkDir)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	req := pipeline.Request{
		AudioPath:  renderAudio,
		Transcript: renderTranscript,
		Engine:     renderEngine,
		Language:   renderLanguage,
		MediaDir:   renderMedia,
		OutputPath: renderOutput,
	}
	res, err := eng.pipeline.Run(ctx, req, stderrReporter)
	if err != nil {
		return err
	}

	if !quiet {
		fmt.Fprintf(os.Stderr, "%d segments, %.1fs total\n", len(res.Timeline), totalSeconds(res.Timeline))
	}
	fmt.Println(res.OutputPath)
	return nil
}

// stderrReporter prints pipeline messages for a terminal user. Warnings and
// errors are shown even with --quiet.
func stderrReporter(level, msg string) {
	if quiet && level == compose.LevelInfo {
		return
	}
	if level == compose.LevelInfo {
		fmt.Fprintln(os.Stderr, msg)
		return
	}
	fmt.Fprintf(os.Stderr, "%s: %s\n", level, msg)
}

func totalSeconds(entries []compose.TimelineEntry) float64 {
	var total float64
	for _, e := range entries {
		total += e.Duration
	}
	return total
}
