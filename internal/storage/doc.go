// Package storage persists the device settings buffer.
//
// A Store holds exactly one blob: the rendered key=value; settings text.
// Load returns ErrNotFound until the first Save, which the orchestrator
// treats as a first boot. Three backends are available:
//
//   - file: a single file replaced atomically (write temp, fsync, rename),
//     the host equivalent of the firmware's flash file
//   - sqlite: a single-row device_settings table, schema applied through
//     the embedded migrations
//   - bolt: one key in a bbolt bucket
//
// Open picks the backend from Config.Backend.
package storage
