// Package logging provides structured logging for the temptick daemon.
//
// It wraps log/slog with the configured format and level and stamps every
// entry with service, version and device fields. Managers accept a small
// Debug/Info/Warn/Error interface, which *Logger satisfies through the
// embedded *slog.Logger; Component returns a child logger tagged with the
// component name.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version, cfg.Device.ID)
//	sensorsMgr.SetLogger(logger.Component("sensors"))
//
// Never log credentials. Wi-Fi and MQTT passwords and the cloud auth token
// are settings values and must not appear in log fields.
package logging
