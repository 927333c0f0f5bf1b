package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/video-stream/signreel/internal/api"
	"github.com/video-stream/signreel/internal/auth"
	"github.com/video-stream/signreel/internal/config"
	"github.com/video-stream/signreel/internal/db"
	"github.com/video-stream/signreel/internal/db/models"
	"github.com/video-stream/signreel/internal/ffmpeg"
	"github.com/video-stream/signreel/internal/job"
	"github.com/video-stream/signreel/internal/pipeline"
	"github.com/video-stream/signreel/internal/recognize"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the render worker",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (default: $PORT or 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	cfg.EnsureJWTSecret()
	if servePort > 0 {
		cfg.Port = servePort
	}

	for _, dir := range []string{cfg.DataPath, cfg.OutputPath, cfg.UploadPath} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if !ffmpeg.Available() {
		log.Println("WARNING: ffmpeg/ffprobe not found on PATH, renders will fail")
	}

	database, err := db.NewSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer database.Close()

	if err := database.EnsureAdmin(cfg.AdminUsername, cfg.AdminPassword); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	log.Printf("Admin user ensured: %s", cfg.AdminUsername)

	recognizers := recognize.NewService(cfg.WhisperURL, cfg.OpenAIKey)
	if len(recognizers.Names()) == 0 {
		log.Println("WARNING: no speech recognizer configured (set WHISPER_URL or OPENAI_API_KEY), only text renders will work")
	}

	eng, err := newEngine(cfg, recognizers, cfg.ProbeCachePath, filepath.Join(cfg.DataPath, "tmp"))
	if err != nil {
		return err
	}
	defer eng.Close()

	defaults := func() (string, string) {
		return database.GetSetting(models.SettingRecognizer, cfg.Recognizer),
			database.GetSetting(models.SettingLanguage, cfg.Language)
	}
	runner := pipeline.NewJobRunner(eng.pipeline, cfg.MediaPath, cfg.OutputPath, defaults)

	queue := job.NewJobQueue(database.DB())
	queue.RegisterHandler(job.JobRender, runner.HandleJob)
	queue.RegisterHandler(job.JobCompose, runner.HandleJob)
	queue.Start()
	defer queue.Stop()

	jwtService := auth.NewJWTService(cfg.JWTSecret)
	router := api.NewRouter(database, jwtService, cfg, queue, recognizers.Names())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Starting server on %s", srv.Addr)
		log.Printf("Media path: %s", cfg.MediaPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
