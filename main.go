// ABOUTME: Entry point for the Gemini Live voice client
// ABOUTME: Parses CLI flags, wires session, audio output, metrics and TUI
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/PpiNeaPpLe/livevoice/internal/capture"
	"github.com/PpiNeaPpLe/livevoice/internal/config"
	"github.com/PpiNeaPpLe/livevoice/internal/media"
	"github.com/PpiNeaPpLe/livevoice/internal/observe"
	"github.com/PpiNeaPpLe/livevoice/internal/ui"
	"github.com/PpiNeaPpLe/livevoice/internal/version"
	"github.com/PpiNeaPpLe/livevoice/pkg/audio"
	"github.com/PpiNeaPpLe/livevoice/pkg/audio/output"
	"github.com/PpiNeaPpLe/livevoice/pkg/live"
	"github.com/PpiNeaPpLe/livevoice/pkg/player"
)

var (
	configPath  = flag.String("config", "", "YAML config file")
	apiKey      = flag.String("api-key", "", "API key (default: $GEMINI_API_KEY)")
	endpoint    = flag.String("endpoint", "", "Service WebSocket endpoint")
	model       = flag.String("model", "", "Model name")
	voice       = flag.String("voice", "", "Prebuilt voice name")
	instruction = flag.String("instruction", "", "System instruction")
	input       = flag.String("input", "", "Audio to stream: raw PCM16 file, .mp3 file or URL, or - for stdin")
	inputRate   = flag.Int("input-rate", 0, "Sample rate of raw PCM input")
	image       = flag.String("image", "", "JPEG or PNG file or URL sent once after connecting")
	outputName  = flag.String("output", "", "Audio output: oto or discard")
	volume      = flag.Int("volume", -1, "Initial volume (0-100)")
	metricsAddr = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	logFile     = flag.String("log-file", "livevoice.log", "Log file path")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
)

func main() {
	flag.Parse()

	useTUI := !*noTUI

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration:\n%v\n", err)
		os.Exit(2)
	}

	log.Printf("Starting %s", version.UserAgent())

	if err := run(cfg, useTUI); err != nil {
		log.Printf("Session ended with error: %v", err)
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	log.Printf("Client stopped")
}

// loadConfig layers defaults, the config file, the environment and
// explicitly set flags, in that order.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv(os.LookupEnv)

	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "api-key":
			cfg.APIKey = *apiKey
		case "endpoint":
			cfg.Endpoint = *endpoint
		case "model":
			cfg.Model = *model
		case "voice":
			cfg.Voice = *voice
		case "instruction":
			cfg.SystemInstruction = *instruction
		case "input-rate":
			cfg.InputSampleRate = *inputRate
		case "output":
			cfg.Output = *outputName
		case "volume":
			cfg.Volume = *volume
		case "metrics-addr":
			cfg.MetricsAddr = *metricsAddr
		}
	})

	return cfg, config.Validate(cfg)
}

func newOutput(cfg *config.Config) (output.Output, error) {
	switch cfg.Output {
	case config.OutputDiscard:
		log.Printf("Audio output: discard")
		return output.NewDiscard(audio.OutputSampleRate), nil
	default:
		log.Printf("Audio output: oto")
		out, err := output.NewOto(audio.OutputSampleRate, cfg.OutputBuffer)
		if err != nil {
			return nil, err
		}
		return out, nil
	}
}

func run(cfg *config.Config, useTUI bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out, err := newOutput(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()
	out.SetVolume(cfg.Volume)

	provider, err := observe.InitProvider(ctx, observe.ProviderConfig{})
	if err != nil {
		return fmt.Errorf("failed to init metrics: %w", err)
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			log.Printf("Metrics shutdown error: %v", err)
		}
	}()
	metrics, err := observe.NewMetrics(provider.MeterProvider)
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	// TUI setup
	var tuiProg *tea.Program
	var control *ui.Control
	var quit chan struct{}
	if useTUI {
		control = ui.NewControl()
		quit = control.Quit
		tuiProg = ui.Run(control, cfg.Volume)
	}
	send := func(msg tea.Msg) {
		if tuiProg != nil {
			tuiProg.Send(msg)
		}
	}

	var still *media.Image
	if *image != "" {
		if still, err = media.NewLoader().Load(*image); err != nil {
			return err
		}
	}

	var sess *live.Session
	sentImage := false
	sess, err = live.NewSession(live.Config{
		Endpoint:          cfg.Endpoint,
		APIKey:            cfg.APIKey,
		Model:             cfg.Model,
		Voice:             cfg.Voice,
		SystemInstruction: cfg.SystemInstruction,
		MaxAttempts:       cfg.MaxReconnectAttempts,
		ReconnectDelay:    cfg.ReconnectDelay,
		LivenessInterval:  cfg.LivenessInterval,
		StaleAfter:        cfg.StaleAfter,
		SendSampleRate:    cfg.SendSampleRate,
		Output:            out,
		Observer:          metrics,
		OnStateChange: func(state live.State) {
			log.Printf("Session state: %s", state)
			if state == live.StateOpen && still != nil && !sentImage {
				sentImage = true
				go func() {
					if err := sess.SendMedia(still.MimeType, still.Data); err != nil {
						log.Printf("Failed to send image: %v", err)
					}
				}()
			}
		},
		OnTranscript: func(text string) {
			log.Printf("Model: %s", text)
			send(ui.TranscriptMsg{Text: text})
		},
		OnError: func(err error) {
			send(ui.ErrorMsg{Err: err})
		},
	})
	if err != nil {
		return err
	}
	defer sess.Stop()

	unwatch, err := metrics.WatchPlayback(func() player.StreamStats {
		return sess.Status().Playback
	})
	if err != nil {
		return fmt.Errorf("failed to watch playback: %w", err)
	}
	defer func() { _ = unwatch() }()

	if err := sess.Open(ctx); err != nil {
		return err
	}

	if *input != "" {
		src, err := capture.Open(*input, capture.Config{SampleRate: cfg.InputSampleRate})
		if err != nil {
			return err
		}
		defer func() { _ = src.Close() }()
		if err := sess.StartCapture(src); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	// Lifecycle: whichever ends first takes everything down
	g.Go(func() error {
		select {
		case <-gctx.Done():
			log.Printf("Shutdown signal received")
		case <-sess.Done():
			log.Printf("Session ended")
		case <-quit:
			log.Printf("Received quit signal from TUI")
		}
		sess.Stop()
		cancel()
		if tuiProg != nil {
			tuiProg.Quit()
		}
		return nil
	})

	if tuiProg != nil {
		g.Go(func() error {
			if _, err := tuiProg.Run(); err != nil {
				return fmt.Errorf("TUI failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			handleVolumeControl(gctx, out, control)
			return nil
		})
		g.Go(func() error {
			statusLoop(gctx, sess, cfg.StaleAfter, send)
			return nil
		})
	}

	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(gctx, cfg.MetricsAddr, provider.Handler())
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return sess.Err()
}

// handleVolumeControl processes volume changes from TUI
func handleVolumeControl(ctx context.Context, out output.Output, control *ui.Control) {
	for {
		select {
		case vol := <-control.Changes:
			log.Printf("Volume change: %d%%, muted=%v", vol.Volume, vol.Muted)
			out.SetVolume(vol.Volume)
			out.SetMuted(vol.Muted)
		case <-ctx.Done():
			return
		}
	}
}

// statusLoop periodically updates TUI with session status
func statusLoop(ctx context.Context, sess *live.Session, staleAfter time.Duration, send func(tea.Msg)) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			send(ui.StatusMsg{Session: sess.Status(), StaleAfter: staleAfter})
		}
	}
}

func serveMetrics(ctx context.Context, addr string, handler http.Handler) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{Addr: addr, Handler: mux}

	errChan := make(chan error, 1)
	go func() {
		log.Printf("Metrics listening on http://%s/metrics", addr)
		errChan <- srv.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
