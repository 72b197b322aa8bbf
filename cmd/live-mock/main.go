// ABOUTME: Entry point for the local mock Gemini Live service
// ABOUTME: Parses CLI flags and serves tone replies until interrupted
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/PpiNeaPpLe/livevoice/internal/mockserver"
)

var (
	port       = flag.Int("port", 8930, "WebSocket server port")
	logFile    = flag.String("log-file", "live-mock.log", "Log file path")
	frequency  = flag.Float64("tone", mockserver.DefaultToneFrequency, "Reply tone frequency in Hz")
	chunks     = flag.Int("chunks", mockserver.DefaultChunksPerTurn, "Audio messages per reply")
	turnEvery  = flag.Int("turn-every", mockserver.DefaultTurnEvery, "Reply after this many inbound audio chunks (0 = never)")
	greeting   = flag.Bool("greeting", true, "Send a reply right after setup")
	pace       = flag.Duration("pace", 100*time.Millisecond, "Delay between reply audio messages")
	transcript = flag.String("transcript", mockserver.DefaultTranscript, "Transcript sent with each reply")
	silent     = flag.Bool("silent", false, "Never reply, to exercise client liveness checks")
	dropEvery  = flag.Duration("drop-every", 0, "Drop all connections on this interval (0 = never)")
)

func main() {
	flag.Parse()

	// Set up logging (both file and console)
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()

	multiWriter := io.MultiWriter(os.Stdout, f)
	log.SetOutput(multiWriter)

	srv := mockserver.New(mockserver.Config{
		Addr:          fmt.Sprintf(":%d", *port),
		ToneFrequency: *frequency,
		ChunksPerTurn: *chunks,
		TurnEvery:     *turnEvery,
		Greeting:      *greeting,
		Pace:          *pace,
		Transcript:    *transcript,
		Silent:        *silent,
	})

	log.Printf("Logging to: %s", *logFile)
	log.Printf("Press Ctrl-C to stop")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx)
	})
	if *dropEvery > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(*dropEvery)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					log.Printf("Dropping %d connections", srv.Open())
					srv.DropAll()
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	stats := srv.Stats()
	log.Printf("Server stopped: %d connections, %d setups, %d audio chunks in, %d turns out",
		stats.Connections, stats.Setups, stats.AudioChunks, stats.Turns)
}
