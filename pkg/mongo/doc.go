// Package mongo wires the official MongoDB driver into the application:
// environment-driven configuration, a retrying connection factory and a
// healthcheck helper for probes.
package mongo
