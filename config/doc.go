// Package config loads and validates the service configuration.
//
// Configuration layers three sources with Viper: a YAML config file, an
// optional environment overlay (config.<environment>.yml next to the
// base file), and ADKIT_-prefixed environment variables, which win over
// both files. A .env file, when found, enters the process environment
// before binding.
//
// The config file resolves from, in order: an explicit WithConfigFile
// path, the ADKIT_CONFIG_PATH variable, then a search of
// ./cmd/<service>/, ./config/, the working directory and
// /etc/<service>/.
//
//	cfg, err := config.Load("adkit")
//
// Environment variables address nested keys by underscore splitting:
// ADKIT_MONITOR_AUTH_SECRET sets monitor.auth_secret.
package config
