// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// # Port Interfaces
//
//   - [OutputStore]: Opens output files for a session, guarding names
//   - [OutputFile]: An open output file being appended to
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them against the
// local file system.
package ports
