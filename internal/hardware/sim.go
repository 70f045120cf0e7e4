package hardware

import (
	"math"
	"sync"

	"github.com/nerrad567/temptick-core/internal/sensors"
)

type simProbe struct {
	base       float32
	resolution uint8
	present    bool
	current    float32
}

// SimDriver is an in-memory probe bus for hosts without 1-Wire hardware.
// Each conversion moves every probe along a slow sine around its base
// temperature.
type SimDriver struct {
	mu     sync.Mutex
	order  []sensors.Address
	probes map[sensors.Address]*simProbe
	step   int
}

// NewSimDriver creates n probes with bases starting at base and 0.5 °C
// apart.
func NewSimDriver(n int, base float32) *SimDriver {
	d := &SimDriver{probes: make(map[sensors.Address]*simProbe)}
	for i := 0; i < n; i++ {
		addr := SimAddress(i)
		t := base + float32(i)*0.5
		d.order = append(d.order, addr)
		d.probes[addr] = &simProbe{
			base:       t,
			resolution: sensors.DefaultResolution,
			present:    true,
			current:    sensors.PowerOnValue,
		}
	}
	return d
}

// SimAddress returns the deterministic ROM address of simulated probe i.
func SimAddress(i int) sensors.Address {
	addr := sensors.Address{FamilyDS18B20, byte(i + 1), 0x5e, 0x1a, 0x00, 0x00, 0x00}
	addr[7] = CRC8(addr[:7])
	return addr
}

// RequestConversion advances every present probe.
func (d *SimDriver) RequestConversion() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.step++
	for _, p := range d.probes {
		if p.present {
			p.current = p.base + 0.5*float32(math.Sin(float64(d.step)/10))
		}
	}
}

// ReadTemperature returns the last conversion, the power-on value before
// the first conversion, or the fault sentinel for a missing probe.
func (d *SimDriver) ReadTemperature(addr sensors.Address) float32 {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.probes[addr]
	if !ok || !p.present {
		return sensors.FaultSentinel
	}
	return p.current
}

// Discover lists present probes in creation order.
func (d *SimDriver) Discover() []sensors.Address {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []sensors.Address
	for _, a := range d.order {
		if d.probes[a].present {
			out = append(out, a)
		}
	}
	return out
}

// SetResolution records the resolution.
func (d *SimDriver) SetResolution(addr sensors.Address, bits uint8) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.probes[addr]; ok {
		p.resolution = bits
	}
}

// Resolution returns the recorded resolution, or 0 for unknown probes.
func (d *SimDriver) Resolution(addr sensors.Address) uint8 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.probes[addr]; ok {
		return p.resolution
	}
	return 0
}

// SetPresent attaches or detaches a simulated probe.
func (d *SimDriver) SetPresent(addr sensors.Address, present bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.probes[addr]; ok {
		p.present = present
	}
}
