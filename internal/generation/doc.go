// Package generation defines the provider-facing contract for producing
// test questions and implements the credential-rotating call engine on top
// of it: sequential retries, fast-failover racing, batched dispatch, and
// tolerant decoding of structured provider output into domain questions.
package generation
