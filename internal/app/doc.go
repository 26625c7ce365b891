// Package app provides application initialization and lifecycle
// management for the dashboard server.
//
// # Initialization Flow
//
// The typical initialization sequence:
//
//	1. Load configuration from files and environment
//	2. Initialize logging and OpenTelemetry metrics
//	3. Create the dataset loader over the data directory
//	4. Initialize services with their dependencies
//	5. Set up HTTP handlers and the middleware chain
//	6. Configure and start the HTTP server
//
// # Graceful Shutdown
//
// The package handles SIGINT and SIGTERM so active requests complete
// before the process exits. All initialization errors are returned to
// the caller; the package never calls os.Exit directly.
package app
