package crypto

import "github.com/go-i2p/linklayer/lib/crypto/types"

// Local aliases so the rest of this package can refer to the signing
// interfaces without qualifying every reference with the types package name.
type (
	Verifier          = types.Verifier
	SigningPublicKey  = types.SigningPublicKey
	Signer            = types.Signer
	SigningPrivateKey = types.SigningPrivateKey
)

var (
	ErrBadSignatureSize = types.ErrBadSignatureSize
	ErrInvalidKeyFormat = types.ErrInvalidKeyFormat
	ErrInvalidSignature = types.ErrInvalidSignature
)
