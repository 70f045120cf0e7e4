package system

import (
	"context"
	"errors"
	"time"

	"github.com/nerrad567/temptick-core/internal/settings"
	"github.com/nerrad567/temptick-core/internal/storage"
)

// Settings keys.
const (
	keySleepFlag = "SSsf"
	keySleepTime = "SSst"
)

// RequestSave marks settings dirty. The save scheduler writes them.
func (s *System) RequestSave() { s.saveRequest = true }

// SavePending reports whether a save is queued.
func (s *System) SavePending() bool { return s.saveRequest }

// Flush writes pending settings now. The boot loop calls it on shutdown.
func (s *System) Flush() error {
	if !s.saveRequest {
		return nil
	}
	return s.write(s.now())
}

// Render serializes every component's settings into one buffer.
func (s *System) Render() *settings.Buffer {
	b := settings.New(s.cfg.SettingsCapacity)
	b.SetBool(keySleepFlag, s.sleepFlag)
	b.SetUint8(keySleepTime, s.sleepTime)

	s.sensors.WriteSettings(b)
	s.relay.WriteSettings(b)
	s.network.WriteSettings(b)
	s.mqtt.WriteSettings(b)
	s.cloud.WriteSettings(b)
	return b
}

// Apply loads every component's settings from a buffer. Missing keys
// keep their current values.
func (s *System) Apply(b *settings.Buffer) {
	var flag bool
	if b.GetBool(keySleepFlag, &flag) {
		s.SetSleepFlag(flag)
	}
	var t uint8
	if b.GetUint8(keySleepTime, &t) {
		s.SetSleepTime(t)
	}

	s.sensors.ReadSettings(b)
	s.relay.ReadSettings(b)
	s.network.ReadSettings(b)
	s.mqtt.ReadSettings(b)
	s.cloud.ReadSettings(b)
}

// SaveNow writes settings immediately.
func (s *System) SaveNow() error {
	return s.write(s.now())
}

func (s *System) readSettings() {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	data, err := s.store.Load(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.logger.Info("no saved settings, writing defaults")
		if err := s.write(s.now()); err != nil {
			s.logger.Error("writing default settings failed", "error", err)
		}
		return
	case err != nil:
		s.logger.Error("loading settings failed, using defaults", "error", err)
		return
	}

	b := settings.New(s.cfg.SettingsCapacity)
	b.Load(data)
	if b.Truncated() {
		s.logger.Warn("saved settings exceed buffer capacity, tail ignored",
			"size", len(data), "capacity", b.Cap())
	}
	s.Apply(b)
	s.logger.Debug("settings loaded", "bytes", len(data))
}

func (s *System) saveSettings(now time.Time, force bool) {
	if !force {
		if !s.saveRequest || now.Sub(s.lastSave) < s.cfg.SaveInterval {
			return
		}
	}
	if err := s.write(now); err != nil {
		// Stay dirty; the next interval retries.
		s.lastSave = now
		s.logger.Error("saving settings failed", "error", err)
	}
}

func (s *System) write(now time.Time) error {
	b := s.Render()
	if b.Truncated() {
		s.logger.Warn("settings exceed buffer capacity, saved truncated", "capacity", b.Cap())
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if err := s.store.Save(ctx, b.Bytes()); err != nil {
		return err
	}
	s.saveRequest = false
	s.lastSave = now
	s.logger.Debug("settings saved", "bytes", b.Size())
	return nil
}
