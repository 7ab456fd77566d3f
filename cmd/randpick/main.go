package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cuemby/randpick/pkg/config"
	"github.com/cuemby/randpick/pkg/events"
	"github.com/cuemby/randpick/pkg/history"
	"github.com/cuemby/randpick/pkg/log"
	"github.com/cuemby/randpick/pkg/metrics"
	"github.com/cuemby/randpick/pkg/picker"
	"github.com/cuemby/randpick/pkg/roster"
	"github.com/cuemby/randpick/pkg/selection"
	"github.com/cuemby/randpick/pkg/storage"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// App holds the components shared by every command
type App struct {
	Backend storage.Backend
	Config  *config.Resolver
	Roster  *roster.Store
	History *history.Log
	Picker  *picker.Picker
	Broker  *events.Broker

	metricsFile string
	audit       events.Subscriber
	done        chan struct{}
}

var app *App

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if closeErr := teardown(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "randpick",
	Short: "randpick - weighted random student picker",
	Long: `randpick draws students or groups from a class roster.

Each student carries a weight that makes them more or less likely to be
drawn, and every draw is recorded in a history log. The roster, settings and
history live in a data directory as plain JSON and INI files, or in a single
bbolt database.`,
	Version:           Version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"randpick version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("data-dir", defaultDataDir(), "Directory holding the roster, settings and history")
	rootCmd.PersistentFlags().String("backend", "file", "Storage backend (file or bolt)")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")
	rootCmd.PersistentFlags().Uint64("seed", 0, "Seed the random source for reproducible draws (0 seeds from the clock)")
	rootCmd.PersistentFlags().String("metrics-file", "", "Write Prometheus metrics to this file after the command")
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "randpick")
	}
	return "./randpick-data"
}

// setup opens the storage backend and wires the components
func setup(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	dataDir, _ := flags.GetString("data-dir")
	backendKind, _ := flags.GetString("backend")
	logLevel, _ := flags.GetString("log-level")
	logJSON, _ := flags.GetBool("log-json")
	seed, _ := flags.GetUint64("seed")
	metricsFile, _ := flags.GetString("metrics-file")

	log.Init(log.Config{
		Level:      log.ParseLevel(logLevel),
		JSONOutput: logJSON,
	})

	backend, err := storage.Open(backendKind, dataDir)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}

	engine := selection.NewDefault()
	if seed != 0 {
		engine = selection.NewSeeded(seed)
	}

	cfg := config.NewResolver(backend, config.FirstAvailable(
		config.BackendDefaults(backend),
		config.EmbeddedDefaults(),
	))
	store := roster.NewStore(backend)
	hist := history.NewLog(backend, cfg)
	broker := events.NewBroker()

	app = &App{
		Backend: backend,
		Config:  cfg,
		Roster:  store,
		History: hist,
		Picker:  picker.New(cfg, store, hist, engine, broker),
		Broker:  broker,

		metricsFile: metricsFile,
		done:        make(chan struct{}),
	}

	app.audit = broker.Subscribe()
	broker.Start()
	go auditLoop(app.audit, app.done)

	log.Debug(fmt.Sprintf("Using %s backend in %s", backendKind, dataDir))
	return nil
}

// auditLoop writes every published event to the structured log
func auditLoop(sub events.Subscriber, done chan<- struct{}) {
	defer close(done)

	logger := log.WithComponent("audit")
	for ev := range sub {
		e := logger.Info().
			Str("event_id", ev.ID).
			Str("type", string(ev.Type)).
			Time("at", ev.Timestamp)
		for k, v := range ev.Metadata {
			e = e.Str(k, v)
		}
		e.Msg(ev.Message)
	}
}

// teardown flushes events, exports metrics and closes the backend.
// It runs after every command, including failed ones.
func teardown() error {
	if app == nil {
		return nil
	}

	app.Broker.Stop()
	<-app.done

	if app.metricsFile != "" {
		metrics.NewCollector(app.Roster, app.History).Collect()
		if err := metrics.WriteTextfile(app.metricsFile); err != nil {
			log.Errorf("Failed to write metrics file", err)
		}
	}

	if err := app.Backend.Close(); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}
	return nil
}
