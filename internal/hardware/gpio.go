package hardware

import (
	"os"
	"strings"
)

// Pin drives the relay output. With a path it writes "1"/"0" to a sysfs
// GPIO value file; without one it only logs level changes.
type Pin struct {
	path   string
	level  bool
	wrote  bool
	logger Logger
}

// NewPin creates a relay pin. Empty path gives a log-only pin.
func NewPin(path string) *Pin {
	return &Pin{path: path, logger: noopLogger{}}
}

// SetLogger sets the logger.
func (p *Pin) SetLogger(logger Logger) { p.logger = logger }

// Write sets the pin level. Repeated writes of the same level only touch
// the value file.
func (p *Pin) Write(level bool) {
	if !p.wrote || level != p.level {
		p.logger.Info("relay pin changed", "level", level)
	}
	p.level, p.wrote = level, true

	if p.path == "" {
		return
	}
	v := "0"
	if level {
		v = "1"
	}
	if err := os.WriteFile(p.path, []byte(v), sysfsPerm); err != nil {
		p.logger.Error("writing relay gpio failed", "path", p.path, "error", err)
	}
}

// Level returns the last written level.
func (p *Pin) Level() bool { return p.level }

// Button reads the wake button. With a path it reads a sysfs GPIO value
// file (active low, as wired on the board); otherwise it reports the fixed
// held state.
type Button struct {
	path string
	held bool
}

// NewButton creates a wake button.
func NewButton(path string, held bool) *Button {
	return &Button{path: path, held: held}
}

// Pressed reports whether the button is held.
func (b *Button) Pressed() bool {
	if b.path == "" {
		return b.held
	}
	raw, err := os.ReadFile(b.path)
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(raw)) == "0"
}
