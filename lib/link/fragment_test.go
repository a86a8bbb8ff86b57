package link

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomSessionKey(t *testing.T) SessionKey {
	t.Helper()
	var k SessionKey
	_, err := rand.Read(k[:])
	require.NoError(t, err)
	return k
}

func TestSealOpenRoundTrip(t *testing.T) {
	key := randomSessionKey(t)
	plaintext := []byte("hello onion router")

	frag := make([]byte, FragBuf)
	require.NoError(t, Seal(frag, key, plaintext, true))

	payload, isLast, err := Open(frag, key, 0, DefaultMaxLinkMsg)
	require.NoError(t, err)
	assert.True(t, isLast)
	assert.Equal(t, plaintext, payload)
}

func TestSealOpenContFlag(t *testing.T) {
	key := randomSessionKey(t)
	frag := make([]byte, FragBuf)
	require.NoError(t, Seal(frag, key, []byte("more to come"), false))

	_, isLast, err := Open(frag, key, 0, DefaultMaxLinkMsg)
	require.NoError(t, err)
	assert.False(t, isLast)
}

func TestOpenDetectsTamperedCiphertext(t *testing.T) {
	key := randomSessionKey(t)
	frag := make([]byte, FragBuf)
	require.NoError(t, Seal(frag, key, []byte("payload"), true))
	frag[FragBuf-1] ^= 0xFF

	_, _, err := Open(frag, key, 0, DefaultMaxLinkMsg)
	assert.ErrorIs(t, err, ErrIntegrityFailed)
}

func TestOpenDetectsTamperedMAC(t *testing.T) {
	key := randomSessionKey(t)
	frag := make([]byte, FragBuf)
	require.NoError(t, Seal(frag, key, []byte("payload"), true))
	frag[0] ^= 0xFF

	_, _, err := Open(frag, key, 0, DefaultMaxLinkMsg)
	assert.ErrorIs(t, err, ErrIntegrityFailed)
}

func TestOpenRejectsWrongKey(t *testing.T) {
	key := randomSessionKey(t)
	wrongKey := randomSessionKey(t)
	frag := make([]byte, FragBuf)
	require.NoError(t, Seal(frag, key, []byte("payload"), true))

	_, _, err := Open(frag, wrongKey, 0, DefaultMaxLinkMsg)
	assert.ErrorIs(t, err, ErrIntegrityFailed)
}

func TestSealRejectsOversizedPlaintext(t *testing.T) {
	key := randomSessionKey(t)
	frag := make([]byte, FragBuf)
	oversized := make([]byte, FragBodyPayload+1)
	assert.ErrorIs(t, Seal(frag, key, oversized, true), ErrLengthInvalid)
}

func TestSealRejectsEmptyPlaintext(t *testing.T) {
	key := randomSessionKey(t)
	frag := make([]byte, FragBuf)
	assert.ErrorIs(t, Seal(frag, key, nil, true), ErrLengthInvalid)
}

func TestSealRejectsWrongBufferSize(t *testing.T) {
	key := randomSessionKey(t)
	frag := make([]byte, FragBuf-1)
	assert.ErrorIs(t, Seal(frag, key, []byte("x"), true), ErrLengthInvalid)
}

func TestOpenRejectsReassemblyOverflow(t *testing.T) {
	key := randomSessionKey(t)
	frag := make([]byte, FragBuf)
	require.NoError(t, Seal(frag, key, make([]byte, 100), true))

	_, _, err := Open(frag, key, DefaultMaxLinkMsg-50, DefaultMaxLinkMsg)
	assert.ErrorIs(t, err, ErrReassemblyOverflow)
}

func TestSealProducesFreshNonceEachTime(t *testing.T) {
	key := randomSessionKey(t)
	a := make([]byte, FragBuf)
	b := make([]byte, FragBuf)
	require.NoError(t, Seal(a, key, []byte("same payload"), true))
	require.NoError(t, Seal(b, key, []byte("same payload"), true))

	nonceA := a[FragMAC : FragMAC+FragNonce]
	nonceB := b[FragMAC : FragMAC+FragNonce]
	assert.NotEqual(t, nonceA, nonceB, "two Seal calls produced the same nonce")
	assert.NotEqual(t, a, b, "two Seal calls of identical plaintext produced identical ciphertext")
}

func TestFragmentAndSealChunking(t *testing.T) {
	key := randomSessionKey(t)
	msg := bytes.Repeat([]byte("x"), FragBodyPayload*2+37)

	frags, err := fragmentAndSeal(key, msg)
	require.NoError(t, err)
	require.Len(t, frags, 3)

	var reassembled []byte
	for i, f := range frags {
		payload, isLast, err := Open(f, key, len(reassembled), DefaultMaxLinkMsg)
		require.NoErrorf(t, err, "Open frag %d", i)
		reassembled = append(reassembled, payload...)
		assert.Equalf(t, i == len(frags)-1, isLast, "frag %d isLast", i)
	}
	assert.Equal(t, msg, reassembled)
}

func TestFragmentAndSealRejectsEmpty(t *testing.T) {
	key := randomSessionKey(t)
	_, err := fragmentAndSeal(key, nil)
	assert.ErrorIs(t, err, ErrLengthInvalid)
}
