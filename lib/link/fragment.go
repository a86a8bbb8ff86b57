package link

import (
	"crypto/rand"
	"encoding/binary"
	"io"

	fraghmac "github.com/go-i2p/linklayer/lib/crypto/hmac"
	"golang.org/x/crypto/chacha20"
)

// SessionKey is the 32-byte symmetric key derived from one Curve25519 DH,
// used as both the XChaCha20 key and the HMAC key for every fragment in a
// session. See lib/crypto.DHClient/DHServer for derivation.
type SessionKey [32]byte

// Seal encrypts and authenticates plaintext into dst, a caller-provided
// FragBuf-byte buffer:
//
//  1. overwrite the entire buffer with fresh random bytes (this both
//     produces the in-band nonce and randomizes the payload padding before
//     it's overwritten by real plaintext and before encryption, so padding
//     ends up as random ciphertext over random plaintext);
//  2. write CONT_FLAG and LEN into the (still plaintext) body header;
//  3. copy plaintext into the body;
//  4. encrypt bytes [56:576) in place with XChaCha20(key, nonce);
//  5. MAC bytes [32:576) and write the digest into bytes [0:32).
//
// len(plaintext) must be <= FragBodyPayload and len(dst) must be == FragBuf.
func Seal(dst []byte, key SessionKey, plaintext []byte, isLast bool) error {
	if len(dst) != FragBuf {
		return ErrLengthInvalid
	}
	if len(plaintext) > FragBodyPayload || len(plaintext) == 0 {
		return ErrLengthInvalid
	}

	if _, err := io.ReadFull(rand.Reader, dst); err != nil {
		return err
	}

	contFlag := uint32(contFlagMore)
	if isLast {
		contFlag = contFlagLast
	}
	binary.BigEndian.PutUint32(dst[fragContFlagOffset:], contFlag)
	binary.BigEndian.PutUint32(dst[fragLenOffset:], uint32(len(plaintext)))
	copy(dst[fragPayloadOffset:], plaintext)

	nonce := dst[FragMAC : FragMAC+FragNonce]
	cipher, err := chacha20.NewUnauthenticatedCipher(key[:], nonce)
	if err != nil {
		return err
	}
	cipher.XORKeyStream(dst[fragBodyOffset:], dst[fragBodyOffset:])

	digest := fraghmac.FragmentMAC(dst[FragMAC:], fraghmac.FragmentMACKey(key))
	copy(dst[0:FragMAC], digest[:])
	return nil
}

// Open verifies and decrypts a FragBuf-byte fragment in place.
// reassemblyOffset is the number of bytes already placed into
// the caller's reassembly buffer; Open rejects a fragment that would push
// the reassembly past maxLinkMsg. On success it returns the slice of src
// holding the decrypted payload (LEN bytes, inside the now-decrypted src
// buffer) and whether this was the last fragment of the message.
func Open(src []byte, key SessionKey, reassemblyOffset, maxLinkMsg int) (payload []byte, isLast bool, err error) {
	if len(src) != FragBuf {
		return nil, false, ErrLengthInvalid
	}

	digest := fraghmac.FragmentMAC(src[FragMAC:], fraghmac.FragmentMACKey(key))
	if !fraghmac.EqualFragmentMAC(digest, fraghmac.FragmentMACDigest(arr32(src[0:FragMAC]))) {
		return nil, false, ErrIntegrityFailed
	}

	nonce := src[FragMAC : FragMAC+FragNonce]
	cipher, cerr := chacha20.NewUnauthenticatedCipher(key[:], nonce)
	if cerr != nil {
		return nil, false, cerr
	}
	cipher.XORKeyStream(src[fragBodyOffset:], src[fragBodyOffset:])

	contFlag := binary.BigEndian.Uint32(src[fragContFlagOffset:])
	length := binary.BigEndian.Uint32(src[fragLenOffset:])

	if length == 0 || length > FragBodyPayload {
		return nil, false, ErrLengthInvalid
	}
	if reassemblyOffset+int(length) > maxLinkMsg {
		return nil, false, ErrReassemblyOverflow
	}

	payload = src[fragPayloadOffset : fragPayloadOffset+int(length)]
	isLast = contFlag == contFlagLast
	return payload, isLast, nil
}

func arr32(b []byte) [32]byte {
	var a [32]byte
	copy(a[:], b)
	return a
}
