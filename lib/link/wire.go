package link

import (
	"encoding/binary"

	"github.com/go-i2p/linklayer/lib/crypto"
	"github.com/samber/oops"
	"github.com/vmihailenco/msgpack/v5"
)

// RouterContact is the signed descriptor a peer presents in its LinkIntro:
// a long-term Ed25519 signing key, a long-term X25519 transport (encryption)
// key, and a signature over both binding them together. This is a trimmed
// stand-in for the full I2P RouterContact/RouterInfo structure; the link
// layer only needs enough to authenticate the handshake and run the DH.
type RouterContact struct {
	SigningKey   crypto.Ed25519PublicKey
	TransportKey crypto.Curve25519PublicKey
	Signature    []byte
}

// SignRouterContact builds a RouterContact for the given keys and signs the
// binding of SigningKey||TransportKey with signingPriv.
func SignRouterContact(signingPub crypto.Ed25519PublicKey, transportPub crypto.Curve25519PublicKey, signingPriv crypto.Ed25519PrivateKey) (RouterContact, error) {
	signer, err := signingPriv.NewSigner()
	if err != nil {
		return RouterContact{}, oops.Wrapf(err, "creating router contact signer")
	}
	sig, err := signer.Sign(rcSignedBytes(signingPub, transportPub))
	if err != nil {
		return RouterContact{}, oops.Wrapf(err, "signing router contact")
	}
	return RouterContact{
		SigningKey:   signingPub,
		TransportKey: transportPub,
		Signature:    sig,
	}, nil
}

// Verify checks rc's signature over its own key material.
func (rc RouterContact) Verify() error {
	verifier, err := rc.SigningKey.NewVerifier()
	if err != nil {
		return oops.Wrapf(ErrSignatureInvalid, "building verifier: %s", err.Error())
	}
	if err := verifier.Verify(rcSignedBytes(rc.SigningKey, rc.TransportKey), rc.Signature); err != nil {
		return oops.Wrapf(ErrSignatureInvalid, "%s", err.Error())
	}
	return nil
}

func rcSignedBytes(signingPub crypto.Ed25519PublicKey, transportPub crypto.Curve25519PublicKey) []byte {
	out := make([]byte, 0, len(signingPub)+len(transportPub.Bytes()))
	out = append(out, signingPub...)
	out = append(out, transportPub.Bytes()...)
	return out
}

type rcWire struct {
	S []byte `msgpack:"s"`
	E []byte `msgpack:"e"`
	G []byte `msgpack:"g"`
}

func (rc RouterContact) toWire() rcWire {
	return rcWire{S: rc.SigningKey.Bytes(), E: rc.TransportKey.Bytes(), G: rc.Signature}
}

func (w rcWire) toRC() (RouterContact, error) {
	if len(w.S) == 0 || len(w.E) != crypto.Curve25519PublicKeySize {
		return RouterContact{}, ErrHandshakeParseFailed
	}
	tk, err := crypto.NewCurve25519PublicKey(w.E)
	if err != nil {
		return RouterContact{}, oops.Wrapf(ErrHandshakeParseFailed, "%s", err.Error())
	}
	return RouterContact{
		SigningKey:   crypto.Ed25519PublicKey(w.S),
		TransportKey: tk,
		Signature:    w.G,
	}, nil
}

// LinkIntroMessage is the one-shot plaintext handshake frame: the sender's
// RouterContact plus the 24-byte nonce N the initiator chose for the DH.
type LinkIntroMessage struct {
	RC    RouterContact
	Nonce [24]byte
}

type limWire struct {
	RC rcWire `msgpack:"rc"`
	N  []byte `msgpack:"n"`
}

// EncodeLIM produces the canonical dictionary encoding of the LIM body
// (the part of the LinkIntro frame after the VERSION/LIMSIZE header).
func EncodeLIM(lim LinkIntroMessage) ([]byte, error) {
	w := limWire{RC: lim.RC.toWire(), N: lim.Nonce[:]}
	b, err := msgpack.Marshal(&w)
	if err != nil {
		return nil, oops.Wrapf(err, "encoding LIM")
	}
	return b, nil
}

// DecodeLIM parses a LIM body previously produced by EncodeLIM.
func DecodeLIM(body []byte) (LinkIntroMessage, error) {
	var w limWire
	if err := msgpack.Unmarshal(body, &w); err != nil {
		return LinkIntroMessage{}, oops.Wrapf(ErrHandshakeParseFailed, "%s", err.Error())
	}
	if len(w.N) != 24 {
		return LinkIntroMessage{}, ErrHandshakeParseFailed
	}
	rc, err := w.RC.toRC()
	if err != nil {
		return LinkIntroMessage{}, err
	}
	var lim LinkIntroMessage
	lim.RC = rc
	copy(lim.Nonce[:], w.N)
	return lim, nil
}

// EncodeLinkIntroFrame wraps a LIM body with the wire header placed in
// front of it: a plaintext 4-byte big endian protocol version followed by
// a 4-byte big endian body length.
func EncodeLinkIntroFrame(lim LinkIntroMessage) ([]byte, error) {
	body, err := EncodeLIM(lim)
	if err != nil {
		return nil, err
	}
	frame := make([]byte, 8+len(body))
	binary.BigEndian.PutUint32(frame[0:4], ProtoVersion)
	binary.BigEndian.PutUint32(frame[4:8], uint32(len(body)))
	copy(frame[8:], body)
	return frame, nil
}

// DiscardMessage is an empty dictionary used only as keepalive filler; its
// encoding carries no information beyond "this message exists".
type DiscardMessage struct{}

// EncodeDiscard returns the canonical (near-empty) encoding of a
// DiscardMessage.
func EncodeDiscard() ([]byte, error) {
	b, err := msgpack.Marshal(&struct{}{})
	if err != nil {
		return nil, oops.Wrapf(err, "encoding DiscardMessage")
	}
	return b, nil
}

// IsDiscard reports whether a reassembled message is (or parses as) the
// keepalive filler, so the receive path can drop it rather than deliver it
// to the router.
func IsDiscard(buf []byte) bool {
	var v struct{}
	return msgpack.Unmarshal(buf, &v) == nil && len(buf) <= 2
}
