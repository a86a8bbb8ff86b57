package link

// Fixed, wire-exact sizes for the fragment transport. Changing any of these
// breaks interoperability with every peer still running the old values.
const (
	// FragMAC is the width of the keyed digest at the front of every fragment.
	FragMAC = 32
	// FragNonce is the width of the in-band random nonce following the MAC.
	FragNonce = 24
	// FragOverhead is FragMAC+FragNonce: bytes of a fragment that aren't body.
	FragOverhead = FragMAC + FragNonce

	// FragBodyHdr is two big-endian u32 fields: CONT_FLAG and LEN.
	FragBodyHdr = 8
	// FragBodyPayload is the maximum plaintext payload carried per fragment.
	FragBodyPayload = 512
	// FragBody is FragBodyHdr+FragBodyPayload.
	FragBody = FragBodyHdr + FragBodyPayload

	// FragBuf is the total number of bytes a fragment occupies on the wire.
	FragBuf = FragOverhead + FragBody

	// fragBodyOffset is where the encrypted body begins within a fragment.
	fragBodyOffset = FragMAC + FragNonce
	// fragContFlagOffset is where CONT_FLAG sits within a fragment.
	fragContFlagOffset = fragBodyOffset
	// fragLenOffset is where LEN sits within a fragment.
	fragLenOffset = fragContFlagOffset + 4
	// fragPayloadOffset is where PAYLOAD begins within a fragment.
	fragPayloadOffset = fragLenOffset + 4
)

// DefaultMaxLinkMsg is the implementation-defined upper bound on a single
// reassembled logical message. Reassembly that would exceed it fails with
// ErrReassemblyOverflow. Overridable by config for deployments that need a
// different ceiling; this is the package default.
const DefaultMaxLinkMsg = 65536

// ProtoVersion is the fixed, nonzero link protocol version both peers must
// agree on exactly. A LinkIntro carrying any other value is rejected.
const ProtoVersion uint32 = 1

// minLIMBodySize is a lower bound on a syntactically valid LinkIntroMessage
// body: two Ed25519 keys, a Curve25519 key, a signature, and a 24-byte
// nonce can't encode smaller than this even in msgpack's compact form. A
// declared LIMSIZE below this can never decode successfully, so the
// handshake reader fails fast instead of buffering forever for bytes that
// will never complete a valid LIM.
const minLIMBodySize = 150

// SessionTimeout is the default wall-clock idle period after which a
// session with no send or receive activity is considered dead.
const SessionTimeout = 30_000 // milliseconds

// contFlag values embedded (encrypted) in a fragment's body header.
const (
	contFlagLast = 0
	contFlagMore = 1
)
