package main

import (
	"fmt"

	"github.com/nerrad567/temptick-core/internal/hardware"
	"github.com/nerrad567/temptick-core/internal/infrastructure/config"
	"github.com/nerrad567/temptick-core/internal/infrastructure/logging"
	"github.com/nerrad567/temptick-core/internal/sensors"
)

// board is the hardware that survives a soft restart.
type board struct {
	driver sensors.Driver
	pin    *hardware.Pin
	button *hardware.Button
	radio  *hardware.HostRadio
}

// openBoard selects the probe driver and opens the I/O lines.
//
// Parameters:
//   - cfg: Hardware configuration
//   - log: Logger instance
//
// Returns:
//   - *board: Opened hardware
//   - error: If the driver name is unknown
func openBoard(cfg config.HardwareConfig, log *logging.Logger) (*board, error) {
	hwLog := log.Component("hardware")

	var driver sensors.Driver
	switch cfg.Driver {
	case "w1":
		w1 := hardware.NewW1Driver(cfg.W1Path)
		w1.SetLogger(hwLog)
		driver = w1
	case "sim":
		driver = hardware.NewSimDriver(cfg.SimProbes, cfg.SimBase)
	default:
		return nil, fmt.Errorf("unknown probe driver %q", cfg.Driver)
	}

	pin := hardware.NewPin(cfg.RelayGPIO)
	pin.SetLogger(hwLog)

	radio := hardware.NewHostRadio()
	radio.SetLogger(hwLog)

	log.Info("hardware opened",
		"driver", cfg.Driver,
		"relay_gpio", cfg.RelayGPIO,
		"button_gpio", cfg.ButtonGPIO,
	)
	return &board{
		driver: driver,
		pin:    pin,
		button: hardware.NewButton(cfg.ButtonGPIO, cfg.WakeHeld),
		radio:  radio,
	}, nil
}
