package main

import (
	"context"
	"embed"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"

	"github.com/sjawhar/chanti/internal/audio"
	"github.com/sjawhar/chanti/internal/command"
	"github.com/sjawhar/chanti/internal/config"
	"github.com/sjawhar/chanti/internal/executor"
	"github.com/sjawhar/chanti/internal/gdrive"
	"github.com/sjawhar/chanti/internal/logging"
	"github.com/sjawhar/chanti/internal/normalize"
	"github.com/sjawhar/chanti/internal/server"
	"github.com/sjawhar/chanti/internal/session"
	"github.com/sjawhar/chanti/internal/storage"
	"github.com/sjawhar/chanti/internal/transcribe"
)

//go:embed static/*
var staticFiles embed.FS

func main() {
	configPath := flag.String("config", envOrDefault(config.EnvPrefix+"CONFIG", "chanti.yaml"), "path to YAML config file")
	flag.Parse()

	cfg, warnings, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chanti: %v\n", err)
		os.Exit(1)
	}

	logging.Init(cfg.LogLevel)
	for _, w := range warnings {
		logging.Warnw("config warning", "warning", w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, warnings)
	stop()

	if err != nil {
		logging.Errorw("chanti failed", "error", err)
		_ = logging.Sync()
		os.Exit(1)
	}
	_ = logging.Sync()
}

func run(ctx context.Context, cfg config.Config, warnings []string) error {
	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("storage init: %w", err)
	}
	defer func() { _ = store.Close() }()

	journal := storage.NewJournal(cfg.JournalDir)
	hub := server.NewHub()

	var exec executor.Executor = executor.NewSystem(cfg.ScreenshotDir)
	if cfg.DryRun() {
		exec = executor.NewNarrator()
	}

	src, closeSource, err := openSource(ctx, &cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	engine := session.NewEngine(session.Deps{
		Source:     src,
		Normalizer: normalize.New(cfg.Normalize()),
		Dispatcher: command.NewDispatcher(cfg.Command()),
		Executor:   exec,
		Store:      store,
		Journal:    journal,
		Hub:        hub,
	}, cfg.Session())
	defer engine.Stop()

	assets, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return fmt.Errorf("static assets init: %w", err)
	}

	handler := server.Handler(assets, hub, store, server.ControlHooks{
		Start:     func() error { return engine.Start(ctx) },
		Stop:      engine.Stop,
		IsRunning: engine.Running,
		Phase:     func() string { return engine.Phase().String() },
		RunID:     engine.RunID,
		Submit:    engine.Submit,
		Warnings:  func() []string { return warnings },
	})

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(ctx, cfg.ServerAddr, handler)
	}()

	if cfg.GDriveFolderID != "" {
		syncer, syncErr := gdrive.NewSyncer(ctx, cfg.GoogleCredentialsFile, cfg.GDriveFolderID)
		if syncErr != nil {
			logging.Warnw("gdrive sync disabled", "error", syncErr)
		} else {
			go syncer.Run(ctx, cfg.ParsedGDriveSyncInterval(), journal.CurrentPath)
		}
	}

	if cfg.AutoStart {
		if err := engine.Start(ctx); err != nil {
			return fmt.Errorf("start listening: %w", err)
		}
	}
	logging.Infow("chanti ready", "source", cfg.EffectiveSource(), "executor", cfg.Executor, "wake_phrase", cfg.Session().WakePhrase)

	select {
	case <-ctx.Done():
		logging.Infow("shutting down")
		<-serveErr
		return nil
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}
}

// openSource builds the configured transcript source. The returned func
// releases the microphone and backend connection.
func openSource(ctx context.Context, cfg *config.Config) (session.Source, func(), error) {
	source := cfg.EffectiveSource()
	if source == config.SourceStdin {
		logging.Infow("reading commands from standard input")
		return transcribe.NewLineSource(os.Stdin), func() {}, nil
	}

	if err := audio.Init(); err != nil {
		return nil, nil, fmt.Errorf("audio init: %w", err)
	}

	mic, err := openMic(cfg.SampleRateCandidates())
	if err != nil {
		_ = audio.Terminate()
		return nil, nil, err
	}
	release := func() {
		_ = mic.Stop()
		_ = mic.Close()
		_ = audio.Terminate()
	}

	switch source {
	case config.SourceWhisper:
		client := transcribe.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.WhisperBaseURL)
		writer := audio.NewUtteranceWriter(afero.NewOsFs(), cfg.UtteranceDir, mic.SampleRate())
		src := transcribe.NewWhisperSource(audio.NewListener(mic, mic.SampleRate()), writer, client, transcribe.WhisperConfig{
			Model:     cfg.WhisperModel,
			Language:  cfg.WhisperLanguage,
			Prompt:    cfg.Session().WakePhrase,
			KeepAudio: cfg.KeepUtterances,
		})
		return src, release, nil
	default:
		src := transcribe.NewDeepgramSource(transcribe.DeepgramConfig{
			APIKey:     cfg.DeepgramAPIKey,
			Model:      cfg.DeepgramModel,
			Language:   cfg.DeepgramLanguage,
			SampleRate: mic.SampleRate(),
		})
		if err := src.Connect(ctx, mic); err != nil {
			release()
			return nil, nil, err
		}
		return src, func() {
			src.Stop()
			release()
		}, nil
	}
}

// openMic opens and starts the microphone at the first sample rate the
// device accepts.
func openMic(rates []int) (*audio.Mic, error) {
	for _, rate := range rates {
		mic, err := audio.NewMic(rate, rate/20)
		if err != nil {
			logging.Warnw("microphone open failed", "sample_rate", rate, "error", err)
			continue
		}
		if err := mic.Start(); err != nil {
			logging.Warnw("microphone start failed", "sample_rate", rate, "error", err)
			_ = mic.Close()
			continue
		}
		logging.Infow("microphone started", "sample_rate", rate)
		return mic, nil
	}
	return nil, errors.New("no usable microphone sample rate")
}

func envOrDefault(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
