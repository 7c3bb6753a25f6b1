// Package control
// Author: momentics <momentics@gmail.com>
//
// Client configuration and runtime metrics shared by the HTTP and WebSocket clients.
//
// Provides:
//   - Config with defaults, functional options and validation
//   - MetricsRegistry, a concurrent-safe counter set with snapshot reads
package control
