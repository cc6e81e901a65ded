// Package gemini implements the generation.Backend contract against the
// Google Gemini API. It performs exactly one structured-output call per
// Invoke; retries, credential rotation, and failover live in the
// generation package.
package gemini
