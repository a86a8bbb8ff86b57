package types

import "github.com/samber/oops"

var (
	ErrBadSignatureSize = oops.Errorf("bad signature size")
	ErrInvalidKeyFormat = oops.Errorf("invalid key format")
	ErrInvalidSignature = oops.Errorf("invalid signature")
)

// Verifier checks signatures made by a SigningPrivateKey's counterpart.
type Verifier interface {
	// VerifyHash verifies a signature over an already-hashed message.
	VerifyHash(h, sig []byte) error
	// Verify hashes data and verifies the signature over the hash.
	Verify(data, sig []byte) error
}

// SigningPublicKey is a public key used to verify signatures.
type SigningPublicKey interface {
	NewVerifier() (Verifier, error)
	Len() int
	Bytes() []byte
}

// Signer signs data with a private key.
type Signer interface {
	Sign(data []byte) (sig []byte, err error)
	SignHash(h []byte) (sig []byte, err error)
}

// SigningPrivateKey is a private key used to produce signatures.
type SigningPrivateKey interface {
	NewSigner() (Signer, error)
	Len() int
	Public() (SigningPublicKey, error)
	Generate() (SigningPrivateKey, error)
}
