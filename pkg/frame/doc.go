// Package frame implements the length-prefixed framing used on the wire
// between a sender and a receiver.
//
// Every message is a fixed 10-byte ASCII header followed by the payload:
//
//	bytes 0-8  payload length in decimal, left-justified, space-padded
//	byte  9    '1' if the payload names a new file, '0' otherwise
//	bytes 10-  payload (exactly length bytes)
//
// Content frames whose payload is "done" or "exit" are sentinels: "done"
// marks the end of the file currently being transferred and "exit" ends the
// session.
//
// # Usage
//
// Encode a frame on the sending side:
//
//	if err := frame.Write(conn, []byte("a.txt"), true); err != nil {
//	    return err
//	}
//
// Decode a byte stream on the receiving side, one read at a time:
//
//	r := frame.NewReassembler()
//	for {
//	    n, err := conn.Read(buf)
//	    frames, ferr := r.Feed(buf[:n])
//	    // handle frames, ferr, err
//	}
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package frame
