// Alpha 2 mock controller.
//
// Serves the Alpha 2 XML protocol (static, dynamic and cyclic views plus
// changes.xml) over a persisted device document, so clients and the Home
// Assistant bridge can be exercised without real hardware.
//
// Optional surfaces, all off unless configured:
//   - SQLite command journal and /api/v1/audit
//   - MQTT state publication and command subscription
//   - InfluxDB heat-area telemetry
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/alpha2-bridge/migrations"

	"github.com/nerrad567/alpha2-bridge/internal/api"
	"github.com/nerrad567/alpha2-bridge/internal/audit"
	"github.com/nerrad567/alpha2-bridge/internal/command"
	"github.com/nerrad567/alpha2-bridge/internal/infrastructure/config"
	"github.com/nerrad567/alpha2-bridge/internal/infrastructure/database"
	"github.com/nerrad567/alpha2-bridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/alpha2-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/alpha2-bridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/alpha2-bridge/internal/infrastructure/redis"
	"github.com/nerrad567/alpha2-bridge/internal/state"
	"github.com/nerrad567/alpha2-bridge/internal/telemetry"
)

// Version information - set at build time via ldflags
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// flags holds command-line overrides. Zero values leave the configuration
// untouched.
type flags struct {
	configPath string
	host       string
	port       int
	dataFile   string
	debug      bool
}

func parseFlags(args []string) (flags, error) {
	var f flags
	fs := flag.NewFlagSet("alpha2mock", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&f.configPath, "config", os.Getenv("ALPHA2_CONFIG"), "path to the YAML configuration file")
	fs.StringVar(&f.host, "host", "", "listen address (default 0.0.0.0)")
	fs.IntVar(&f.port, "port", 0, "listen port (default 5000)")
	fs.StringVar(&f.dataFile, "data-file", "", "device document for the file backend")
	fs.BoolVar(&f.debug, "debug", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return flags{}, err
	}
	return f, nil
}

// apply layers the flags over the loaded configuration.
func (f flags) apply(cfg *config.Config) error {
	if f.host != "" {
		cfg.Server.Host = f.host
	}
	if f.port != 0 {
		cfg.Server.Port = f.port
	}
	if f.dataFile != "" {
		cfg.Store.DataFile = f.dataFile
	}
	if f.debug {
		cfg.Logging.Level = "debug"
	}
	return cfg.Validate()
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run starts the mock and blocks until ctx is cancelled.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - args: Command-line arguments without the program name
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := f.apply(cfg); err != nil {
		return fmt.Errorf("validating flags: %w", err)
	}

	log := logging.New(cfg.Logging, "alpha2mock", version)
	log.Info("starting Alpha 2 mock controller",
		"version", version,
		"commit", commit,
		"build_date", date,
	)
	printConfig(log, cfg)

	// The journal database is shared with the sqlite store backend.
	var db *database.DB
	if cfg.Database.Path != "" {
		db, err = database.Open(cfg.Database)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		if migrateErr := db.Migrate(ctx); migrateErr != nil {
			return fmt.Errorf("running migrations: %w", migrateErr)
		}
		log.Info("database ready", "path", cfg.Database.Path)
	}

	backend, closeBackend, err := openBackend(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer closeBackend()

	store := state.NewStore(backend)
	store.SetLogger(log.Component("state"))
	if err := store.Load(ctx); err != nil {
		return fmt.Errorf("loading device state: %w", err)
	}

	processor := command.NewProcessor(store)
	processor.SetLogger(log.Component("command"))

	var repo audit.Repository
	if db != nil {
		sqliteRepo := audit.NewSQLiteRepository(db.DB)
		processor.SetJournal(audit.NewJournal(sqliteRepo))
		repo = sqliteRepo
	}

	hub := api.NewHub(cfg.WebSocket, log.Component("websocket"))
	store.OnCommit(telemetry.BroadcastState(hub, log.Component("websocket")))
	sinks := []command.Diagnostics{
		command.LogDiagnostics(log.Component("diagnostics")),
		telemetry.BroadcastDiagnostics(hub),
	}

	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = startMQTT(cfg, log, store, processor)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		diag := telemetry.NewDiagnosticsPublisher(mqttClient, mqttClient.Topics(), mqttClient.QoS())
		diag.SetLogger(log.Component("mqtt"))
		sinks = append(sinks, diag)
	} else {
		log.Info("MQTT disabled")
	}
	processor.SetDiagnostics(command.Fanout(sinks...))

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
		store.OnCommit(telemetry.NewRecorder(influxClient).Commit)
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	server, err := api.New(api.Deps{
		Server:    cfg.Server,
		WS:        cfg.WebSocket,
		Logger:    log.Component("api"),
		Store:     store,
		Processor: processor,
		Audit:     repo,
		DB:        db,
		MQTT:      mqttClient,
		Hub:       hub,
		Version:   version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error stopping API server", "error", closeErr)
		}
	}()
	log.Info("mock controller listening", "addr", cfg.Addr())

	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")
	return nil
}

// openBackend builds the configured store backend.
//
// Returns:
//   - state.Backend: The backend
//   - func(): Releases what the backend holds; always non-nil
//   - error: If the backend cannot be reached
func openBackend(ctx context.Context, cfg *config.Config, db *database.DB) (state.Backend, func(), error) {
	nop := func() {}
	switch cfg.Store.Backend {
	case config.BackendFile:
		return state.NewFileBackend(cfg.Store.DataFile), nop, nil
	case config.BackendSQLite:
		if db == nil {
			return nil, nop, errors.New("sqlite backend requires database.path")
		}
		return state.NewSQLiteBackend(db.DB), nop, nil
	case config.BackendRedis:
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, nop, fmt.Errorf("connecting to Redis: %w", err)
		}
		return state.NewRedisBackend(client, cfg.Store.RedisKey), func() { client.Close() }, nil
	case config.BackendMemory:
		return state.NewMemoryBackend(), nop, nil
	default:
		return nil, nop, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// startMQTT connects to the broker and wires state publication and the
// command topic.
func startMQTT(cfg *config.Config, log *logging.Logger, store *state.Store, processor *command.Processor) (*mqtt.Client, error) {
	client, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	mqttLog := log.Component("mqtt")
	client.SetLogger(mqttLog)

	publisher := telemetry.NewStatePublisher(client, client.Topics(), client.QoS())
	publisher.SetLogger(mqttLog)
	store.OnCommit(publisher.Commit)

	client.SetOnConnect(func() {
		mqttLog.Info("MQTT reconnected, republishing state")
		publisher.Reset()
	})
	client.SetOnDisconnect(func(err error) {
		mqttLog.Warn("MQTT disconnected", "error", err)
	})

	listener := telemetry.NewCommandListener(processor)
	listener.SetLogger(mqttLog)
	if err := listener.Subscribe(client, client.Topics(), client.QoS()); err != nil {
		client.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("subscribing to commands: %w", err)
	}

	mqttLog.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"command_topic", client.Topics().Command(),
	)
	return client, nil
}

// printConfig logs the effective settings at startup.
func printConfig(log *logging.Logger, cfg *config.Config) {
	log.Info("configuration",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"store", cfg.Store.Backend,
		"data_file", cfg.Store.DataFile,
		"database", cfg.Database.Path,
		"mqtt", cfg.MQTT.Enabled,
		"influxdb", cfg.InfluxDB.Enabled,
		"log_level", cfg.Logging.Level,
	)
}
