package frame

import (
	"errors"
	"fmt"
	"io"
	"strconv"
)

const (
	// HeaderSize is the size of the fixed frame header in bytes.
	HeaderSize = 10

	// LengthFieldSize is the width of the decimal length field.
	LengthFieldSize = HeaderSize - 1

	// MaxPayloadSize is the largest payload length the header can express.
	MaxPayloadSize = 999_999_999

	// SentinelDone marks the end of the current file.
	SentinelDone = "done"

	// SentinelExit ends the session.
	SentinelExit = "exit"
)

const (
	flagNewFile = '1'
	flagContent = '0'
)

var (
	// ErrPayloadTooLarge is returned when a payload cannot be represented in
	// the 9-digit length field.
	ErrPayloadTooLarge = errors.New("frame: payload too large to encode")

	// ErrMalformedHeader is returned when header bytes do not parse as a
	// length followed by a '0' or '1' flag.
	ErrMalformedHeader = errors.New("frame: malformed header")
)

// Frame is one length-delimited application message.
type Frame struct {
	// Length is the declared payload size. Always equal to len(Payload).
	Length int

	// NewFile is true when Payload is the name of a new output file.
	NewFile bool

	// Payload holds the frame body.
	Payload []byte
}

// IsExit reports whether the frame is the session-ending sentinel.
func (f Frame) IsExit() bool {
	return !f.NewFile && string(f.Payload) == SentinelExit
}

// IsDone reports whether the frame is the end-of-file sentinel.
func (f Frame) IsDone() bool {
	return !f.NewFile && string(f.Payload) == SentinelDone
}

// EncodeHeader builds the 10-byte header for a payload of the given length.
func EncodeHeader(length int, newFile bool) ([HeaderSize]byte, error) {
	var h [HeaderSize]byte
	if length < 0 || length > MaxPayloadSize {
		return h, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, length)
	}

	for i := 0; i < LengthFieldSize; i++ {
		h[i] = ' '
	}
	copy(h[:LengthFieldSize], strconv.Itoa(length))

	h[LengthFieldSize] = flagContent
	if newFile {
		h[LengthFieldSize] = flagNewFile
	}
	return h, nil
}

// Encode returns the header followed by payload.
func Encode(payload []byte, newFile bool) ([]byte, error) {
	h, err := EncodeHeader(len(payload), newFile)
	if err != nil {
		return nil, err
	}
	out := make([]byte, HeaderSize+len(payload))
	copy(out, h[:])
	copy(out[HeaderSize:], payload)
	return out, nil
}

// Write encodes a frame and writes it to w with a single Write call.
func Write(w io.Writer, payload []byte, newFile bool) error {
	b, err := Encode(payload, newFile)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// DecodeHeader parses a 10-byte header.
// Padding spaces around the length digits are ignored.
func DecodeHeader(h []byte) (length int, newFile bool, err error) {
	if len(h) != HeaderSize {
		return 0, false, fmt.Errorf("%w: got %d bytes, want %d", ErrMalformedHeader, len(h), HeaderSize)
	}

	field := trimSpaces(h[:LengthFieldSize])
	if len(field) == 0 {
		return 0, false, fmt.Errorf("%w: empty length field", ErrMalformedHeader)
	}
	for _, c := range field {
		if c < '0' || c > '9' {
			return 0, false, fmt.Errorf("%w: length field %q", ErrMalformedHeader, h[:LengthFieldSize])
		}
		length = length*10 + int(c-'0')
	}

	switch h[LengthFieldSize] {
	case flagNewFile:
		newFile = true
	case flagContent:
		newFile = false
	default:
		return 0, false, fmt.Errorf("%w: flag byte %q", ErrMalformedHeader, h[LengthFieldSize])
	}

	return length, newFile, nil
}

func trimSpaces(b []byte) []byte {
	for len(b) > 0 && b[0] == ' ' {
		b = b[1:]
	}
	for len(b) > 0 && b[len(b)-1] == ' ' {
		b = b[:len(b)-1]
	}
	return b
}
