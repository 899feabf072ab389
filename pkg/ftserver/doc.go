// Package ftserver provides an embeddable receiver for the line-oriented file
// transfer protocol.
//
// A sender connects over TCP, is answered with an unframed "Accepted" or
// "Failed" token depending on the connection cap, and then streams frames:
// each frame is a 10-byte ASCII header (decimal payload length left-justified
// in 9 bytes, then '1' for a new file name or '0' for content) followed by the
// payload. Content frames "done" and "exit" end the current file and the
// session respectively.
//
// # Basic Usage
//
//	cfg := ftserver.Config{
//	    ListenAddr:     ":5555",
//	    MaxConnections: 8,
//	    OutputDir:      "/srv/incoming",
//	}
//
//	srv, err := ftserver.New(cfg, ftserver.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	// ... run until shutdown signal ...
//
//	if err := srv.Stop(); err != nil {
//	    log.Printf("shutdown error: %v", err)
//	}
//
// Stop closes the listener and waits up to [Config.DrainTimeout] for running
// sessions. It never interrupts them.
//
// # Output Files
//
// A file announced as "name" is written to OutputDir/name+OutputSuffix. Names
// that are absolute or climb out of OutputDir end the session with
// [ErrInvalidFileName]. The first content frame for a name in a session
// truncates the file; later ones append. Only one session may write a given
// file at a time; a second one ends with [ErrFileInUse].
//
// # Event Handling
//
// Implement [EventHandler] (or embed [BaseEventHandler]) and pass it via
// [WithEventHandler] to observe state changes, sessions, completed files and
// rejected connections.
//
// # Plugins
//
// Plugins are registered with [WithPlugin], initialized in order by Start and
// shut down in reverse order by Stop. They receive a [Controller] for runtime
// adjustments:
//
//	import "github.com/faadiallop/FileTransferServer/plugins/configwatcher"
//
//	srv, err := ftserver.New(cfg, configwatcher.WithConfigWatcher(configwatcher.DefaultConfig()))
//
// # Lifecycle States
//
// A Server is in one of [StateStopped], [StateStarting], [StateListening],
// [StateShuttingDown] or [StateCrashed]. Use [Server.Status] to query it.
package ftserver
