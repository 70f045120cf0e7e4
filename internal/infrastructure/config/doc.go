// Package config loads the process configuration of the temptick daemon.
//
// Process configuration describes the host: where settings are stored,
// which probe driver to use, where the dashboard lives and how the local
// API listens. Device behaviour (probe names, relay rules, broker address,
// sleep) is not here; it lives in the persisted settings buffer and is
// edited at runtime.
//
// Loading order:
//  1. Default values
//  2. YAML file values
//  3. TEMPTICK_* environment variables
//  4. Validate, reporting every problem at once
//
// Usage:
//
//	cfg, err := config.Load(config.PathFromEnv())
//	if err != nil {
//	    return err
//	}
package config
