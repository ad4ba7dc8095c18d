package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/Vovarama1992/go-utils/logger"

	"github.com/Vovarama1992/voice_relay/internal/ai"
	"github.com/Vovarama1992/voice_relay/internal/audio"
	"github.com/Vovarama1992/voice_relay/internal/config"
	"github.com/Vovarama1992/voice_relay/internal/delivery"
	"github.com/Vovarama1992/voice_relay/internal/lang"
	"github.com/Vovarama1992/voice_relay/internal/speech"
	"github.com/Vovarama1992/voice_relay/internal/translator"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:           "voice_relay",
		Short:         "Voice-to-voice translation relay over HTTP and WebSocket",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd.Context(), verbose)
		},
	}
	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable development (debug) logging")

	cmd.AddCommand(&cobra.Command{
		Use:   "devices",
		Short: "List audio input/output devices",
		RunE: func(cmd *cobra.Command, _ []string) error {
			devices, err := audio.ListDevices()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tIN\tOUT\tRATE\tDEFAULT")
			for _, d := range devices {
				def := ""
				switch {
				case d.DefaultInput && d.DefaultOutput:
					def = "in/out"
				case d.DefaultInput:
					def = "in"
				case d.DefaultOutput:
					def = "out"
				}
				fmt.Fprintf(tw, "%s\t%d\t%d\t%.0f\t%s\n", d.Name, d.MaxInputChannels, d.MaxOutputChannels, d.DefaultSampleRate, def)
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "languages",
		Short: "Print supported languages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tNAME\tSTT\tVOICE")
			for _, e := range lang.All() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Code, e.DisplayName, e.STTLocale, e.TTSVoice)
			}
			return tw.Flush()
		},
	})

	return cmd
}

func runServer(ctx context.Context, verbose bool) error {

	// =========================================================================
	// ENV / LOGGER
	// =========================================================================

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	baseLogger, err := newLogger(verbose)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer baseLogger.Sync()
	zl := logger.NewZapLogger(baseLogger.Sugar())

	// =========================================================================
	// CLIENTS (AI / STT / TTS)
	// =========================================================================

	openAIClient := ai.NewOpenAIClient(cfg.OpenAIEndpoint, cfg.OpenAIKey, cfg.Deployment)
	sttClient := speech.NewAzureSTTClient(cfg.SpeechKey, cfg.SpeechRegion)
	ttsClient := speech.NewAzureTTSClient(cfg.SpeechKey, cfg.SpeechRegion)

	// =========================================================================
	// DEVICES
	// =========================================================================

	detector, err := audio.NewWebRTCDetector(audio.CaptureSampleRate, cfg.VADMode)
	if err != nil {
		return err
	}
	mic := audio.NewMicrophone(detector, cfg.InitialSilence, cfg.EndSilence, cfg.MaxUtterance)
	speaker := audio.NewSpeaker()

	// =========================================================================
	// DOMAIN SERVICES
	// =========================================================================

	speechService := speech.NewService(
		sttClient,
		ttsClient,
		mic,
		speaker,
		cfg.SpeechSettleDelay,
		baseLogger.Named("speech"),
	)

	aiService := ai.NewAiService(openAIClient, baseLogger.Named("agent"))

	pipeline := translator.NewPipeline(
		speechService,
		openAIClient,
		aiService,
		baseLogger.Named("pipeline"),
	)

	// =========================================================================
	// HTTP ROUTER
	// =========================================================================

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	delivery.RegisterRoutes(
		r,
		delivery.NewTranslateHandler(pipeline, zl),
		delivery.NewWSHandler(pipeline, zl, cfg.AllowedOrigins, cfg.PipelineTimeout, cfg.WSSettleDelay),
		cfg.RateLimitPerMinute,
	)

	// =========================================================================
	// START SERVER
	// =========================================================================

	addr := ":" + cfg.Port
	srv := &http.Server{Addr: addr, Handler: r}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[shutdown] error: %v", err)
		}
	}()

	zl.Log(logger.LogEntry{
		Level:   "info",
		Message: "listening at " + addr,
		Service: "voice_relay",
	})

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
