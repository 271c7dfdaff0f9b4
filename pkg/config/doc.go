// Package config loads fluxdns configuration from YAML and the environment.
package config
