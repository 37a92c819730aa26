// Command server runs one arena match as a standalone process.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"arenacore/server/internal/app"
	"arenacore/server/internal/config"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	bots := flag.Int("bots", 0, "number of synthetic bot players to join at startup")
	teamCount := flag.Int("teams", 0, "team count (0 = free-for-all)")
	jsonLog := flag.String("json-log", "", "optional path of a JSONL event log file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	matchCfg := config.Default()
	matchCfg.TeamCount = *teamCount

	if err := app.Run(ctx, app.Config{
		ListenAddr:  *addr,
		MatchConfig: matchCfg,
		BotCount:    *bots,
		Logger:      log.Default(),
		JSONLogPath: *jsonLog,
	}); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
