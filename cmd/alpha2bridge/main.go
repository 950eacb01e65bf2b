// Alpha 2 Home Assistant bridge.
//
// Creates virtual room sensors on an Alpha 2 controller and keeps their
// temperatures in step with Home Assistant entities. Runs as a Home
// Assistant add-on (options in /data/options.json, Supervisor token in
// the environment) or standalone with a .env file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/nerrad567/alpha2-bridge/internal/client"
	"github.com/nerrad567/alpha2-bridge/internal/homeassistant"
	"github.com/nerrad567/alpha2-bridge/internal/infrastructure/config"
	"github.com/nerrad567/alpha2-bridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/alpha2-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/alpha2-bridge/internal/integration"
)

// Version information - set at build time via ldflags
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run starts the bridge and blocks until ctx is cancelled.
func run(ctx context.Context) error {
	cfg, err := config.Load(os.Getenv("ALPHA2_CONFIG"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logging.New(cfg.Logging, "alpha2bridge", version)
	log.Info("starting Alpha 2 bridge",
		"version", version,
		"commit", commit,
		"options", cfg.Bridge.OptionsFile,
		"home_assistant", cfg.Bridge.HomeAssistant.URL,
	)
	if cfg.Bridge.HomeAssistant.Token == "" {
		log.Warn("SUPERVISOR_TOKEN is not set, Home Assistant requests will be unauthenticated")
	}

	timeout := time.Duration(cfg.Bridge.RequestTimeout) * time.Second
	clientLog := log.Component("client")
	dial := func(host string) integration.Controller {
		log.Info("using controller", "url", client.NormalizeBaseURL(host))
		return client.New(host, client.WithTimeout(timeout), client.WithLogger(clientLog))
	}
	ha := homeassistant.New(cfg.Bridge.HomeAssistant.URL, cfg.Bridge.HomeAssistant.Token, timeout)

	bridge := integration.New(cfg.Bridge.OptionsFile, integration.Options{
		Alpha2Host:     cfg.Bridge.ControllerURL,
		UpdateInterval: cfg.Bridge.UpdateInterval,
	}, dial, ha)
	bridge.SetLogger(log.Component("bridge"))
	bridge.SetRetryDelay(time.Duration(cfg.Bridge.RetryDelay) * time.Second)

	if cfg.InfluxDB.Enabled {
		influxClient, err := influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		bridge.SetRecorder(influxClient)
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	return bridge.Run(ctx)
}
