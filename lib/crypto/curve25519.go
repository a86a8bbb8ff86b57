package crypto

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"io"

	"github.com/samber/oops"
	"golang.org/x/crypto/curve25519"
)

const (
	Curve25519PublicKeySize  = 32
	Curve25519PrivateKeySize = 32
	// SessionKeySize is the width of the symmetric key derived from a DH
	// exchange; it doubles as the XChaCha20 key and the HMAC key.
	SessionKeySize = 32
)

var (
	ErrInvalidCurve25519KeySize = oops.Errorf("invalid Curve25519 key size")
	ErrKeyExchangeFailed        = oops.Errorf("curve25519 key exchange failed")
)

// Curve25519PublicKey is a 32-byte X25519 public key.
type Curve25519PublicKey [Curve25519PublicKeySize]byte

// Curve25519PrivateKey is a 32-byte X25519 private (clamped) scalar.
type Curve25519PrivateKey [Curve25519PrivateKeySize]byte

func (k Curve25519PublicKey) Bytes() []byte  { return k[:] }
func (k Curve25519PrivateKey) Bytes() []byte { return k[:] }

// PublicKey derives the public counterpart of a clamped private scalar,
// for the case where only the private half survived a restart (e.g. a
// private key loaded back out of an identity file).
func (k Curve25519PrivateKey) PublicKey() (Curve25519PublicKey, error) {
	var pub Curve25519PublicKey
	pubBytes, err := curve25519.X25519(k[:], curve25519.Basepoint)
	if err != nil {
		return pub, oops.Wrapf(err, "deriving curve25519 public key")
	}
	copy(pub[:], pubBytes)
	return pub, nil
}

// GenerateCurve25519Keypair produces a fresh clamped X25519 keypair using the
// provided randomness source (normally crypto/rand.Reader).
func GenerateCurve25519Keypair(randReader io.Reader) (priv Curve25519PrivateKey, pub Curve25519PublicKey, err error) {
	if randReader == nil {
		randReader = rand.Reader
	}
	if _, err = io.ReadFull(randReader, priv[:]); err != nil {
		return priv, pub, oops.Wrapf(err, "generating curve25519 private key")
	}
	// Clamp the private key per X25519 spec.
	priv[0] &= 248
	priv[31] &= 127
	priv[31] |= 64

	pubBytes, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return priv, pub, oops.Wrapf(err, "deriving curve25519 public key")
	}
	copy(pub[:], pubBytes)
	return priv, pub, nil
}

// deriveSessionKey performs the raw X25519 DH between localSecret and
// remotePublic, then binds the resulting shared point to nonce using
// HMAC-SHA256 so that two peers who exchange the same nonce N converge on
// the same 32-byte session key regardless of which side is "client" or
// "server" in the DH. Nothing here is logged.
func deriveSessionKey(localSecret Curve25519PrivateKey, remotePublic Curve25519PublicKey, nonce [24]byte) ([SessionKeySize]byte, error) {
	var out [SessionKeySize]byte
	shared, err := curve25519.X25519(localSecret[:], remotePublic[:])
	if err != nil {
		return out, oops.Wrapf(ErrKeyExchangeFailed, "%s", err.Error())
	}
	mac := hmac.New(sha256.New, shared)
	mac.Write(nonce[:])
	copy(out[:], mac.Sum(nil))
	return out, nil
}

// DHClient derives the session key for the session initiator: the local
// transport/encryption secret combined with the remote peer's long-term
// transport public key (learned out of band, e.g. from its RouterContact),
// keyed by the nonce N the initiator generated and placed in the LinkIntro.
func DHClient(localSecret Curve25519PrivateKey, remoteTransportPublic Curve25519PublicKey, nonce [24]byte) ([SessionKeySize]byte, error) {
	return deriveSessionKey(localSecret, remoteTransportPublic, nonce)
}

// DHServer derives the session key for the session responder: the local
// (long-term) transport secret combined with the sender's encryption public
// key carried in the inbound LinkIntro, keyed by the same nonce N the
// initiator chose. Because X25519 DH is commutative, DHServer and DHClient
// converge on an identical key when fed the corresponding counterpart keys.
func DHServer(localTransportSecret Curve25519PrivateKey, senderEncPublic Curve25519PublicKey, nonce [24]byte) ([SessionKeySize]byte, error) {
	return deriveSessionKey(localTransportSecret, senderEncPublic, nonce)
}

// NewCurve25519PublicKey validates and wraps a 32-byte public key.
func NewCurve25519PublicKey(data []byte) (Curve25519PublicKey, error) {
	var k Curve25519PublicKey
	if len(data) != Curve25519PublicKeySize {
		return k, ErrInvalidCurve25519KeySize
	}
	copy(k[:], data)
	return k, nil
}
