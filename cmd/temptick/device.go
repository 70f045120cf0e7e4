package main

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/temptick-core/internal/api"
	"github.com/nerrad567/temptick-core/internal/cloud"
	"github.com/nerrad567/temptick-core/internal/infrastructure/config"
	"github.com/nerrad567/temptick-core/internal/infrastructure/logging"
	"github.com/nerrad567/temptick-core/internal/mqttlink"
	"github.com/nerrad567/temptick-core/internal/network"
	"github.com/nerrad567/temptick-core/internal/relay"
	"github.com/nerrad567/temptick-core/internal/sensors"
	"github.com/nerrad567/temptick-core/internal/system"
)

// transport is a link client the device disconnects on every halt.
type transport interface {
	Disconnect()
}

// deviceDeps are the parts that survive a soft restart.
type deviceDeps struct {
	board *board
	store system.Store
	mqtt  mqttlink.Transport
	cloud interface {
		cloud.Transport
		api.CloudWebhook
	}
	logger *logging.Logger
}

// device is one boot: fresh managers over the long-lived hardware and
// transports, with settings reloaded from the store.
type device struct {
	sys    *system.System
	srv    *api.Server // nil when the API is disabled
	links  []transport
	store  system.Store
	logger *logging.Logger
}

// newDevice assembles the managers, the orchestrator and the local UI.
//
// Parameters:
//   - cfg: Application configuration
//   - deps: Hardware, store and transports shared across boots
//
// Returns:
//   - *device: Assembled device, not yet begun
//   - error: If the API server cannot be created
func newDevice(cfg *config.Config, deps deviceDeps) (*device, error) {
	log := deps.logger

	sen := sensors.New(deps.board.driver)
	sen.SetLogger(log.Component("sensors"))

	rel := relay.New(deps.board.pin, sen)
	rel.SetLogger(log.Component("relay"))

	nw := network.New(deps.board.radio)
	nw.SetLogger(log.Component("network"))

	mq := mqttlink.New(deps.mqtt, nw)
	mq.SetLogger(log.Component("mqttlink"))

	cl := cloud.New(deps.cloud, nw)
	cl.SetLogger(log.Component("cloudlink"))

	sys := system.New(system.Config{
		SettingsCapacity: cfg.Settings.Capacity,
	}, system.Deps{
		Sensors:   sen,
		Relay:     rel,
		Network:   nw,
		MQTT:      mq,
		Cloud:     cl,
		Store:     deps.store,
		Suspender: hostPower{log: log},
		Restarter: hostPower{log: log},
		Button:    deps.board.button,
		Logger:    log.Component("system"),
	})

	d := &device{
		sys:    sys,
		links:  []transport{deps.mqtt, deps.cloud},
		store:  deps.store,
		logger: log,
	}

	if cfg.API.Enabled {
		srv, err := api.New(api.Deps{
			Config:  cfg.API,
			Logger:  log,
			System:  sys,
			Cloud:   deps.cloud,
			Device:  cfg.Device.ID,
			Version: version,
		})
		if err != nil {
			return nil, fmt.Errorf("creating API server: %w", err)
		}
		nw.SetUI(srv)
		d.srv = srv
	}
	return d, nil
}

// run begins the device and ticks it until it halts or ctx is done.
//
// Returns:
//   - system.HaltReason: Why the loop stopped; Running when ctx ended it
func (d *device) run(ctx context.Context, interval time.Duration) system.HaltReason {
	d.sys.Begin()
	d.logHealth(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for d.sys.Halted() == system.Running {
		select {
		case <-ctx.Done():
			return system.Running
		case <-ticker.C:
			d.sys.Tick()
		}
	}
	return d.sys.Halted()
}

// logHealth reports infrastructure problems at boot without failing it.
// The links come up on later ticks, so only the local parts are checked.
func (d *device) logHealth(ctx context.Context) {
	checks := map[string]func(context.Context) error{}
	if hc, ok := d.store.(interface{ HealthCheck(context.Context) error }); ok {
		checks["store"] = hc.HealthCheck
	}
	if d.srv != nil && d.srv.Addr() != "" {
		checks["api"] = d.srv.HealthCheck
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := healthCheck(ctx, checks); err != nil {
		d.logger.Warn("boot health check failed", "error", err)
		return
	}
	d.logger.Debug("boot health checks passed", "checks", len(checks))
}

// shutdown flushes pending settings, stops the UI and drops the links.
func (d *device) shutdown() {
	if err := d.sys.Flush(); err != nil {
		d.logger.Error("flushing settings failed", "error", err)
	}
	if d.srv != nil {
		d.srv.Stop()
	}
	for _, l := range d.links {
		l.Disconnect()
	}
}

// hostPower logs halt requests. The boot loop in run acts on them once the
// current tick returns.
type hostPower struct {
	log *logging.Logger
}

func (p hostPower) Suspend(d time.Duration) {
	p.log.Info("suspend requested", "duration", d.String())
}

func (p hostPower) Restart() {
	p.log.Info("restart requested")
}
