package hardware

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/nerrad567/temptick-core/internal/sensors"
)

// sysfsPerm applies only when the attribute file does not exist yet.
const sysfsPerm = 0o644

// DefaultW1Path is where the kernel exposes 1-Wire slaves.
const DefaultW1Path = "/sys/bus/w1/devices"

// FamilyDS18B20 is the ROM family code of a DS18B20.
const FamilyDS18B20 = 0x28

// W1Driver reads DS18B20 probes through the w1_therm sysfs interface.
type W1Driver struct {
	root   string
	logger Logger
}

// NewW1Driver creates a driver rooted at path. Empty path means
// DefaultW1Path.
func NewW1Driver(path string) *W1Driver {
	if path == "" {
		path = DefaultW1Path
	}
	return &W1Driver{root: path, logger: noopLogger{}}
}

// SetLogger sets the logger.
func (d *W1Driver) SetLogger(logger Logger) { d.logger = logger }

// RequestConversion triggers a bulk conversion on every bus master that
// supports it. Masters without therm_bulk_read convert on each read.
func (d *W1Driver) RequestConversion() {
	masters, _ := filepath.Glob(filepath.Join(d.root, "w1_bus_master*", "therm_bulk_read"))
	for _, m := range masters {
		if err := os.WriteFile(m, []byte("trigger\n"), sysfsPerm); err != nil {
			d.logger.Debug("bulk conversion trigger failed", "path", m, "error", err)
		}
	}
}

// ReadTemperature returns the probe temperature in °C, or
// sensors.FaultSentinel if it cannot be read.
func (d *W1Driver) ReadTemperature(addr sensors.Address) float32 {
	t, err := d.readTemperature(addr)
	if err != nil {
		d.logger.Debug("probe read failed", "address", addr.String(), "error", err)
		return sensors.FaultSentinel
	}
	return t
}

func (d *W1Driver) readTemperature(addr sensors.Address) (float32, error) {
	dir := filepath.Join(d.root, DeviceName(addr))

	raw, err := os.ReadFile(filepath.Join(dir, "temperature"))
	if err == nil {
		return parseMilli(strings.TrimSpace(string(raw)))
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("reading temperature: %w", err)
	}

	raw, err = os.ReadFile(filepath.Join(dir, "w1_slave"))
	if errors.Is(err, fs.ErrNotExist) {
		return 0, ErrNoProbe
	}
	if err != nil {
		return 0, fmt.Errorf("reading w1_slave: %w", err)
	}
	return parseW1Slave(string(raw))
}

// parseW1Slave parses the two-line w1_slave format:
//
//	72 01 4b 46 7f ff 0e 10 57 : crc=57 YES
//	72 01 4b 46 7f ff 0e 10 57 t=23125
func parseW1Slave(s string) (float32, error) {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) < 2 {
		return 0, ErrMalformed
	}
	if !strings.HasSuffix(strings.TrimSpace(lines[0]), "YES") {
		return 0, ErrCRC
	}
	_, milli, ok := strings.Cut(lines[1], "t=")
	if !ok {
		return 0, ErrMalformed
	}
	return parseMilli(strings.TrimSpace(milli))
}

func parseMilli(s string) (float32, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	return float32(n) / 1000, nil
}

// Discover lists the DS18B20 probes present, sorted by address.
func (d *W1Driver) Discover() []sensors.Address {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		d.logger.Warn("1-wire scan failed", "path", d.root, "error", err)
		return nil
	}

	var addrs []sensors.Address
	for _, e := range entries {
		addr, err := ParseDeviceName(e.Name())
		if err != nil || addr[0] != FamilyDS18B20 {
			continue
		}
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return addrs[i].String() < addrs[j].String()
	})
	return addrs
}

// SetResolution writes the conversion resolution. The kernel requires
// root for this; failures are logged.
func (d *W1Driver) SetResolution(addr sensors.Address, bits uint8) {
	p := filepath.Join(d.root, DeviceName(addr), "resolution")
	if err := os.WriteFile(p, []byte(strconv.Itoa(int(bits))+"\n"), sysfsPerm); err != nil {
		d.logger.Warn("setting probe resolution failed", "address", addr.String(), "bits", bits, "error", err)
	}
}

// Resolution reads the conversion resolution, or 0 when unknown.
func (d *W1Driver) Resolution(addr sensors.Address) uint8 {
	raw, err := os.ReadFile(filepath.Join(d.root, DeviceName(addr), "resolution"))
	if err != nil {
		return 0
	}
	n, err := strconv.ParseUint(strings.TrimSpace(string(raw)), 10, 8)
	if err != nil {
		return 0
	}
	return uint8(n)
}

// DeviceName returns the sysfs directory name of a ROM address.
func DeviceName(addr sensors.Address) string {
	serial := make([]byte, 6)
	for i := range serial {
		serial[i] = addr[6-i]
	}
	return fmt.Sprintf("%02x-%s", addr[0], hex.EncodeToString(serial))
}

// ParseDeviceName rebuilds the ROM address from a sysfs directory name
// such as "28-0316a1b2c3ff", computing the CRC byte.
func ParseDeviceName(name string) (sensors.Address, error) {
	var addr sensors.Address

	family, serialHex, ok := strings.Cut(name, "-")
	if !ok || len(family) != 2 || len(serialHex) != 12 {
		return addr, fmt.Errorf("%w: device name %q", ErrMalformed, name)
	}
	f, err := hex.DecodeString(family)
	if err != nil {
		return addr, fmt.Errorf("%w: device name %q", ErrMalformed, name)
	}
	serial, err := hex.DecodeString(serialHex)
	if err != nil {
		return addr, fmt.Errorf("%w: device name %q", ErrMalformed, name)
	}

	addr[0] = f[0]
	for i, b := range serial {
		addr[6-i] = b
	}
	addr[7] = CRC8(addr[:7])
	return addr, nil
}

// CRC8 computes the Dallas/Maxim 1-Wire CRC (polynomial x^8+x^5+x^4+1,
// reflected).
func CRC8(data []byte) byte {
	var crc byte
	for _, b := range data {
		for i := 0; i < 8; i++ {
			mix := (crc ^ b) & 0x01
			crc >>= 1
			if mix != 0 {
				crc ^= 0x8c
			}
			b >>= 1
		}
	}
	return crc
}
