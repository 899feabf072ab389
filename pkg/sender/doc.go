// Package sender is the sending side of the file transfer protocol.
//
// A Client dials a receiver, waits for its admission token and then streams
// files one line per frame:
//
//	c, err := sender.Dial(ctx, "localhost:5555")
//	if errors.Is(err, sender.ErrRejected) {
//	    // receiver is at capacity
//	}
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	if err := c.SendFile(ctx, "notes.txt"); err != nil {
//	    return err
//	}
//
// Close sends the exit sentinel before closing the connection.
//
// # Version
//
// Current version: 2.0.0
// Minimum compatible version: 2.0.0
package sender
