// Package config loads and validates application configuration.
//
// Configuration is layered: built-in defaults, then an optional YAML file
// (config.yaml or configs/config.yaml), then CITYSCOPE_-prefixed
// environment variables. Environment variables always win.
package config
