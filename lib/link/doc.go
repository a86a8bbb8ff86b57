// Package link implements the secure link layer of an onion-routing node:
// the per-peer session protocol that turns a reliable ordered uTP stream
// carried over UDP into a bidirectional channel of authenticated, encrypted,
// length-bounded link messages.
//
// # Components
//
// Manager owns the uTP transport context, demultiplexes inbound UDP
// datagrams, and indexes Sessions by remote address and remote public key.
// Session runs the per-peer handshake and state machine: it derives a
// shared session key from a single Curve25519 DH, fragments outbound
// messages, seals each fragment with the fragment codec, and reassembles
// inbound fragments into complete messages for the upstream Router.
//
// The fragment codec (Seal/Open) and the send queue are the lowest layer:
// fixed 576-byte fragments, encrypted then authenticated, queued against
// transport backpressure. Everything above that is session bookkeeping.
//
// # Wire format
//
// Exactly one plaintext LinkIntro frame is exchanged per session before any
// ciphertext; every fragment after that is 576 bytes, MAC then nonce then
// encrypted body. See wire.go and fragment.go for the exact byte layout.
package link
