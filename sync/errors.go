package sync

import (
	"github.com/teranos/syncproto/errors"
)

// Sentinel errors for the typed decode/session failure kinds this package
// raises. Check with errors.Is; structured detail (expected/found bytes,
// field names, declared vs. available lengths) is attached via
// errors.WithDetailf at the call site rather than encoded into the message
// string.
var (
	// ErrWrongMessageType is returned when the first byte of an encoded
	// message is not MessageTypeSync (0x42).
	ErrWrongMessageType = errors.New("wrong message type")

	// ErrTruncatedInput is returned when the decoder runs out of bytes
	// mid-field, or a length prefix exceeds the remaining input.
	ErrTruncatedInput = errors.New("not enough input")

	// ErrMalformedBloom is returned when a bloom filter's declared bit
	// count is inconsistent with the bytes available to back it.
	ErrMalformedBloom = errors.New("malformed bloom filter")

	// ErrBadChangeHash is returned when a decoded hash is not exactly 32
	// bytes.
	ErrBadChangeHash = errors.New("bad change hash length")
)

// MessageTypeSync is the wire format's leading version/type discriminator.
// Decode must reject any other value.
const MessageTypeSync byte = 0x42
