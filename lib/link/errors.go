package link

import "github.com/samber/oops"

// Error taxonomy for the link layer. Every one of these is
// terminal at the session boundary: on any of them the session closes and
// the upper router is told only that the session went away, never why.
var (
	ErrProtoVersionMismatch = oops.Errorf("link: protocol version mismatch")
	ErrHandshakeTooShort    = oops.Errorf("link: handshake delivery too short")
	ErrHandshakeParseFailed = oops.Errorf("link: failed to parse LinkIntro")
	ErrSignatureInvalid     = oops.Errorf("link: router contact signature invalid")
	ErrKeyExchangeFailed    = oops.Errorf("link: key exchange failed")
	ErrIntegrityFailed      = oops.Errorf("link: fragment MAC mismatch")
	ErrLengthInvalid        = oops.Errorf("link: fragment LEN out of range")
	ErrReassemblyOverflow   = oops.Errorf("link: reassembly would exceed MAX_LINK_MSG")
	ErrTransportWriteError  = oops.Errorf("link: transport write error")
	ErrTransportEOF         = oops.Errorf("link: transport EOF")
	ErrSessionTimeout       = oops.Errorf("link: session timed out")

	// ErrNotReady is returned by QueueWriteBuffers/SendMessageBuffer when the
	// session has not yet reached SessionReady.
	ErrNotReady = oops.Errorf("link: session not ready")
	// ErrSessionClosed is returned by operations attempted after Close.
	ErrSessionClosed = oops.Errorf("link: session closed")
	// ErrMessageTooLarge is returned when a caller submits a buffer larger
	// than MAX_LINK_MSG to QueueWriteBuffers.
	ErrMessageTooLarge = oops.Errorf("link: message exceeds MAX_LINK_MSG")
)
