// Package task manages background job queuing, processing, and lifecycle.
// It provides mechanisms for asynchronous execution of long-running
// operations like batch question generation, ensuring they don't block
// HTTP request handling.
package task
