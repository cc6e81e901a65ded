// Package credential manages a pool of interchangeable provider API keys.
// The pool tracks per-key health, places keys into time-bounded cooldown
// after failures, and selects usable keys under a configurable rotation
// strategy. It is the only shared mutable resource of the generation core;
// all health-state mutations are serialized by an internal mutex that is
// never held across a network call.
package credential
