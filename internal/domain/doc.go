// Package domain defines the core business entities of the question
// generation system: generated questions, generation requests, per-batch
// telemetry, and the persisted generation record.
package domain
