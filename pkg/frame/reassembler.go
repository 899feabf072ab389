package frame

import (
	"errors"
	"fmt"
)

// ErrFrameTooLarge is returned when a header declares a payload larger than
// the reassembler is configured to buffer.
var ErrFrameTooLarge = errors.New("frame: declared payload exceeds limit")

// Phase is the reassembler's position within the current frame.
type Phase int

const (
	// AwaitingHeader means the next bytes belong to a header.
	AwaitingHeader Phase = iota
	// AccumulatingPayload means a header was decoded and its payload is incomplete.
	AccumulatingPayload
)

// String returns a human-readable representation of the phase.
func (p Phase) String() string {
	switch p {
	case AwaitingHeader:
		return "AwaitingHeader"
	case AccumulatingPayload:
		return "AccumulatingPayload"
	default:
		return "Unknown"
	}
}

// ReassemblerOption configures a Reassembler.
type ReassemblerOption func(*Reassembler)

// WithMaxPayload bounds the payload length the reassembler accepts.
// Values <= 0 or above MaxPayloadSize mean MaxPayloadSize.
func WithMaxPayload(n int) ReassemblerOption {
	return func(r *Reassembler) {
		if n > 0 && n <= MaxPayloadSize {
			r.maxPayload = n
		}
	}
}

// Reassembler turns an arbitrarily chunked byte stream into complete Frames.
// It is not safe for concurrent use; each connection owns one.
type Reassembler struct {
	// buf[off:] holds bytes received but not yet consumed.
	buf []byte
	off int

	phase   Phase
	length  int
	newFile bool

	maxPayload int
	err        error
}

// NewReassembler creates a reassembler in the AwaitingHeader phase.
func NewReassembler(opts ...ReassemblerOption) *Reassembler {
	r := &Reassembler{maxPayload: MaxPayloadSize}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Feed consumes chunk and returns every frame it completes, in order.
//
// A decoding error is fatal: frames completed earlier in the same chunk are
// returned alongside it, and every later call returns the same error.
func (r *Reassembler) Feed(chunk []byte) ([]Frame, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.buf = append(r.buf, chunk...)

	var frames []Frame
	for {
		avail := len(r.buf) - r.off

		if r.phase == AwaitingHeader {
			if avail < HeaderSize {
				break
			}
			length, newFile, err := DecodeHeader(r.buf[r.off : r.off+HeaderSize])
			if err == nil && length > r.maxPayload {
				err = fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, length, r.maxPayload)
			}
			if err != nil {
				r.fail(err)
				return frames, err
			}
			r.off += HeaderSize
			r.length = length
			r.newFile = newFile
			r.phase = AccumulatingPayload
			continue
		}

		if avail < r.length {
			break
		}
		payload := make([]byte, r.length)
		copy(payload, r.buf[r.off:r.off+r.length])
		r.off += r.length
		frames = append(frames, Frame{Length: r.length, NewFile: r.newFile, Payload: payload})
		r.phase = AwaitingHeader
		r.length = 0
		r.newFile = false
	}

	r.compact()
	return frames, nil
}

// Phase returns the current phase.
func (r *Reassembler) Phase() Phase {
	return r.phase
}

// Buffered returns the number of bytes retained for an incomplete header or
// payload. A non-zero value at end of stream means a truncated frame.
func (r *Reassembler) Buffered() int {
	n := len(r.buf) - r.off
	if r.phase == AccumulatingPayload {
		// The consumed header counts as pending too.
		n += HeaderSize
	}
	return n
}

// Err returns the sticky decoding error, if any.
func (r *Reassembler) Err() error {
	return r.err
}

// Reset discards all buffered state and any sticky error.
func (r *Reassembler) Reset() {
	r.buf = r.buf[:0]
	r.off = 0
	r.phase = AwaitingHeader
	r.length = 0
	r.newFile = false
	r.err = nil
}

func (r *Reassembler) fail(err error) {
	r.err = err
	r.buf = nil
	r.off = 0
}

// compact moves unconsumed bytes to the front of buf so it does not grow
// without bound across calls.
func (r *Reassembler) compact() {
	if r.off == 0 {
		return
	}
	n := copy(r.buf, r.buf[r.off:])
	r.buf = r.buf[:n]
	r.off = 0
}
