//go:build !js && !wasm

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/himanishpuri/PulseDNA/internal/config"
	"github.com/himanishpuri/PulseDNA/pkg/logger"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/sink"
)

var (
	configPath     string
	addr           string
	allowedOrigins string
	natsURL        string
)

func init() {
	flag.StringVar(&configPath, "config", os.Getenv("PULSE_CONFIG"), "Configuration file path")
	flag.StringVar(&addr, "addr", "", "HTTP listen address (overrides server.addr)")
	flag.StringVar(&allowedOrigins, "origins", "", "Comma-separated list of allowed CORS origins (use * for all)")
	flag.StringVar(&natsURL, "nats", "", "NATS URL for publishing readings (overrides server.nats_url)")
}

func main() {
	flag.Parse()
	log := logger.GetLogger()

	cfg, path, exists, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.SetLevel(cfg.LogLevel())
	if exists {
		log.Infof("Loaded config from %s", path)
	}

	if addr != "" {
		cfg.Server.Addr = addr
	}
	if allowedOrigins != "" {
		cfg.Server.AllowedOrigins = splitOrigins(allowedOrigins)
	}
	if natsURL != "" {
		cfg.Server.NATSURL = natsURL
	}

	var publish pulsedna.ReadingSink
	if cfg.Server.NATSURL != "" {
		ns, err := sink.NewNATS(cfg.Server.NATSURL, cfg.Server.NATSSubjectPrefix)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer ns.Close()
		publish = ns
		log.Infof("Publishing readings to %s on %s.<session>", cfg.Server.NATSURL, cfg.Server.NATSSubjectPrefix)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := NewServer(cfg, log, publish)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func splitOrigins(s string) []string {
	if strings.TrimSpace(s) == "*" {
		return []string{"*"}
	}
	origins := strings.Split(s, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return origins
}
