// Package app wires together one arena match's collaborators into a running
// process: logging router, simulation loop, websocket hub, HTTP mux, and the
// Prometheus exporter (logging router -> hub -> HTTP handler -> http.Server).
package app

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"arenacore/server/internal/ai"
	"arenacore/server/internal/config"
	"arenacore/server/internal/entities"
	"arenacore/server/internal/matchid"
	arenahttp "arenacore/server/internal/net/http"
	"arenacore/server/internal/net/ws"
	"arenacore/server/internal/sim"
	"arenacore/server/internal/telemetry"
	"arenacore/server/internal/telemetry/promexport"
	"arenacore/server/logging"
	loggingSinks "arenacore/server/logging/sinks"
)

// DefaultTickRate is the fixed 60Hz tick rate the simulation loop runs at.
const DefaultTickRate = time.Second / 60

// Config configures one process's match.
type Config struct {
	ListenAddr string
	MatchConfig config.MatchConfig
	BotCount    int
	Logger      *log.Logger

	// JSONLogPath, if set, enables the JSONL file sink alongside the
	// console sink and writes events there.
	JSONLogPath string
}

// Run boots the logging router, simulation match, websocket hub, and HTTP
// server, then blocks serving HTTP until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	logConfig := logging.DefaultConfig()
	sinks := map[string]logging.Sink{
		"console": loggingSinks.NewConsole(os.Stdout),
	}
	if cfg.JSONLogPath != "" {
		logConfig.JSON.FilePath = cfg.JSONLogPath
		jsonSink, jerr := loggingSinks.NewJSONSink(logConfig.JSON)
		if jerr != nil {
			return fmt.Errorf("failed to construct json sink: %w", jerr)
		}
		sinks["json"] = jsonSink
		logConfig.EnabledSinks = append(logConfig.EnabledSinks, "json")
	}
	router, err := logging.NewRouter(logConfig, logging.SystemClock{}, logger, sinks)
	if err != nil {
		return fmt.Errorf("failed to construct logging router: %w", err)
	}
	defer func() {
		if cerr := router.Close(ctx); cerr != nil {
			logger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	id := matchid.New()
	logger.Printf("starting match %s", id)

	matchCfg := cfg.MatchConfig.Normalize()
	match := sim.New(matchCfg, router, logging.SystemClock{}, telemetry.WrapLogger(logger))

	registry := prometheus.NewRegistry()
	exporter := promexport.New(registry, router.Metrics())

	hub := ws.NewHub(match, ws.HubConfig{Logger: logger, Publisher: router})

	mux := arenahttp.NewRouter(arenahttp.RouterConfig{
		WebSocketHandler: hub,
		Registerer:       registry,
	})

	runBots(ctx, match, cfg.BotCount, matchCfg)

	go hub.Run(ctx, DefaultTickRate)
	go syncExporter(ctx, exporter, DefaultTickRate)

	addr := cfg.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{Addr: addr, Handler: mux}
	logger.Printf("arena server listening on %s", srv.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	}
}

// runBots joins count synthetic players and drives their input once per
// decision tick alongside the match's own tick loop.
func runBots(ctx context.Context, match *sim.Match, count int, cfg config.MatchConfig) {
	if count <= 0 {
		return
	}
	for i := 0; i < count; i++ {
		playerID := entities.PlayerID(fmt.Sprintf("bot:%d", i))
		match.Join(ctx, playerID, fmt.Sprintf("Bot %d", i), 0, "", "")
		driver := ai.New(playerID, rand.New(rand.NewSource(int64(i)+1)))
		go func(d *ai.Driver) {
			ticker := time.NewTicker(100 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case now := <-ticker.C:
					input := d.Decide(now, match.Registry(), cfg)
					match.SetInput(d.PlayerID, input)
				}
			}
		}(driver)
	}
}

func syncExporter(ctx context.Context, exporter *promexport.Exporter, tickRate time.Duration) {
	ticker := time.NewTicker(tickRate * 10)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			exporter.Sync()
		}
	}
}
