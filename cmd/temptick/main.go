// Temptick - temperature monitor firmware core
//
// This is the main entry point for the temptick device. It reads 1-Wire
// temperature probes, drives a relay (simple switch or thermostat) and
// reports to an MQTT broker and a cloud dashboard, optionally deep
// sleeping between short wake cycles.
//
// The device runs a single tick loop. Every manager, the settings store
// and the local HTTP UI are driven from it.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/temptick-core/internal/infrastructure/config"
	"github.com/nerrad567/temptick-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/temptick-core/internal/infrastructure/logging"
	"github.com/nerrad567/temptick-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/temptick-core/internal/storage"
	"github.com/nerrad567/temptick-core/internal/system"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting temptick",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := config.PathFromEnv()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version, cfg.Device.ID)
	log.Info("configuration loaded",
		"path", configPath,
		"level", cfg.Logging.Level,
		"driver", cfg.Hardware.Driver,
	)

	store, err := storage.Open(ctx, storage.Config{
		Backend: cfg.Settings.Backend,
		Path:    cfg.Settings.Path,
	})
	if err != nil {
		return fmt.Errorf("opening settings store: %w", err)
	}
	defer func() {
		log.Info("closing settings store")
		if closeErr := store.Close(); closeErr != nil {
			log.Error("error closing settings store", "error", closeErr)
		}
	}()
	log.Info("settings store opened", "backend", cfg.Settings.Backend, "path", cfg.Settings.Path)

	hw, err := openBoard(cfg.Hardware, log)
	if err != nil {
		return fmt.Errorf("opening hardware: %w", err)
	}

	// The transports outlive a soft restart; each boot reconnects them.
	mqttClient := mqtt.New(cfg.MQTT)
	mqttClient.SetLogger(log.Component("mqtt"))
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()

	cloudClient := influxdb.New(cfg.Cloud, cfg.Device.ID)
	cloudClient.SetLogger(log.Component("cloud"))
	defer func() {
		log.Info("closing cloud connection")
		if closeErr := cloudClient.Close(); closeErr != nil {
			log.Error("error closing cloud connection", "error", closeErr)
		}
	}()

	for boot := 1; ; boot++ {
		dev, err := newDevice(cfg, deviceDeps{
			board:  hw,
			store:  store,
			mqtt:   mqttClient,
			cloud:  cloudClient,
			logger: log,
		})
		if err != nil {
			return fmt.Errorf("assembling device: %w", err)
		}

		log.Info("booting", "boot", boot)
		halt := dev.run(ctx, cfg.TickInterval())
		dev.shutdown()

		switch halt {
		case system.Sleeping:
			d := dev.sys.SleepDuration()
			log.Info("deep sleep", "duration", d.String())
			if !sleep(ctx, d) {
				log.Info("temptick stopped")
				return nil
			}
		case system.Restarting:
			log.Info("soft restart")
		default:
			log.Info("temptick stopped")
			return nil
		}
	}
}

// sleep waits for d or until ctx is done. It reports whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// healthCheck verifies the infrastructure of a running device.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - checks: Named health checks; nil entries are skipped
//
// Returns:
//   - error: Every failing check joined, or nil if all healthy
func healthCheck(ctx context.Context, checks map[string]func(context.Context) error) error {
	var errs []error
	for name, check := range checks {
		if check == nil {
			continue
		}
		if err := check(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
