package link

import (
	"testing"

	"github.com/go-i2p/linklayer/lib/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRouterContact(t *testing.T) (RouterContact, crypto.Ed25519PrivateKey) {
	t.Helper()

	var signingPriv crypto.Ed25519PrivateKey
	_, err := signingPriv.Generate()
	require.NoError(t, err)

	signingPub, err := signingPriv.Public()
	require.NoError(t, err)

	_, transportPub, err := crypto.GenerateCurve25519Keypair(nil)
	require.NoError(t, err)

	rc, err := SignRouterContact(signingPub.(crypto.Ed25519PublicKey), transportPub, signingPriv)
	require.NoError(t, err)
	return rc, signingPriv
}

func TestRouterContactSignAndVerify(t *testing.T) {
	rc, _ := testRouterContact(t)
	assert.NoError(t, rc.Verify())
}

func TestRouterContactVerifyRejectsTamperedKey(t *testing.T) {
	rc, _ := testRouterContact(t)
	rc.TransportKey[0] ^= 0xFF
	assert.Error(t, rc.Verify())
}

func TestEncodeDecodeLIM(t *testing.T) {
	rc, _ := testRouterContact(t)
	var nonce [24]byte
	copy(nonce[:], []byte("0123456789abcdefghijklmn"))

	lim := LinkIntroMessage{RC: rc, Nonce: nonce}
	body, err := EncodeLIM(lim)
	require.NoError(t, err)

	decoded, err := DecodeLIM(body)
	require.NoError(t, err)
	assert.Equal(t, nonce[:], decoded.Nonce[:])
	assert.NoError(t, decoded.RC.Verify())
}

func TestEncodeLinkIntroFrameHeader(t *testing.T) {
	rc, _ := testRouterContact(t)
	var nonce [24]byte
	lim := LinkIntroMessage{RC: rc, Nonce: nonce}

	frame, err := EncodeLinkIntroFrame(lim)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(frame), 8)

	version := uint32(frame[0])<<24 | uint32(frame[1])<<16 | uint32(frame[2])<<8 | uint32(frame[3])
	assert.Equal(t, ProtoVersion, version)

	limSize := uint32(frame[4])<<24 | uint32(frame[5])<<16 | uint32(frame[6])<<8 | uint32(frame[7])
	assert.Equal(t, len(frame)-8, int(limSize))

	decoded, err := DecodeLIM(frame[8:])
	require.NoError(t, err)
	assert.NoError(t, decoded.RC.Verify())
}

func TestDecodeLIMRejectsTruncatedNonce(t *testing.T) {
	_, err := DecodeLIM([]byte{0x80})
	assert.Error(t, err)
}

func TestDiscardRoundTrip(t *testing.T) {
	body, err := EncodeDiscard()
	require.NoError(t, err)
	assert.True(t, IsDiscard(body))
	assert.False(t, IsDiscard([]byte("not a discard message, much too long to be one")))
}
