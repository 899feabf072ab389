package frame

import (
	"errors"
	"io"
	"strings"
)

// Admission tokens. The receiver writes exactly one of them, unframed, as the
// first bytes of every accepted connection.
const (
	TokenAccepted = "Accepted"
	TokenFailed   = "Failed"
)

// ReadToken reads an admission token from r. It stops as soon as the bytes
// read form a complete token or can no longer become one, and returns what
// it has read. A non-token result comes back with a nil error unless the
// read itself failed.
func ReadToken(r io.Reader) (string, error) {
	buf := make([]byte, len(TokenAccepted))
	got := 0
	for got < len(buf) {
		n, err := r.Read(buf[got:])
		got += n
		tok := string(buf[:got])
		if tok == TokenAccepted || tok == TokenFailed {
			return tok, nil
		}
		if !strings.HasPrefix(TokenAccepted, tok) && !strings.HasPrefix(TokenFailed, tok) {
			return tok, nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return tok, nil
			}
			return tok, err
		}
	}
	return string(buf[:got]), nil
}
