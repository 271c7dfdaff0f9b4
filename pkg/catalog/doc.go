// Package catalog reads the global Flux application catalog, narrows it to
// the applications fluxdns should publish, and keeps the tracked-application
// store in step with it.
package catalog
