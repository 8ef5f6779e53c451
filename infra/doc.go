// Package infra groups the technical adapters of the pipeline: CSV
// persistence, metrics sinks, the MQTT publisher and the zerolog logger.
// These packages depend on the interfaces defined under core, never the
// other way around.
package infra
