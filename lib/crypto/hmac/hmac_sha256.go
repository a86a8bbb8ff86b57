package hmac

import (
	"crypto/hmac"
	"crypto/sha256"
)

// FragmentMACKey is a 32-byte key used to authenticate link layer fragments.
// The fragment codec requires a full 32-byte digest, hence HMAC-SHA256.
type FragmentMACKey [32]byte

// FragmentMACDigest is the 32-byte keyed digest covering a sealed fragment.
type FragmentMACDigest [32]byte

// FragmentMAC computes HMAC-SHA256 over data using k. It is used by the link
// layer fragment codec to authenticate the nonce, flag, length and payload
// of every outbound fragment (encrypt-then-MAC).
func FragmentMAC(data []byte, k FragmentMACKey) (d FragmentMACDigest) {
	mac := hmac.New(sha256.New, k[:])
	mac.Write(data)
	copy(d[:], mac.Sum(nil))
	return
}

// EqualFragmentMAC performs a constant-time comparison of two digests.
func EqualFragmentMAC(a, b FragmentMACDigest) bool {
	return hmac.Equal(a[:], b[:])
}
