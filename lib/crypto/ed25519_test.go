package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"io"
	"testing"
)

func TestEd25519(t *testing.T) {
	var pubKey Ed25519PublicKey

	signer := new(Ed25519Signer)
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Log("Failed to generate ed25519 test key")
		t.Fail()
	}
	pubKey = []byte(pub)
	signer.k = priv

	message := make([]byte, 123)
	io.ReadFull(rand.Reader, message)

	sig, err := signer.Sign(message)
	if err != nil {
		t.Log("Failed to sign message")
		t.Fail()
	}

	verifier, err := pubKey.NewVerifier()
	if err != nil {
		t.Logf("Error from verifier: %s", err)
		t.Fail()
	}

	err = verifier.Verify(message, sig)
	if err != nil {
		t.Log("Failed to verify message")
		t.Fail()
	}
}

// TestEd25519KeyGeneration tests the generation of Ed25519 private and public keys.
func TestEd25519KeyGeneration(t *testing.T) {
	var privKey Ed25519PrivateKey
	_, err := privKey.Generate()
	if err != nil {
		t.Fatalf("Failed to generate Ed25519 private key: %v", err)
	}

	if privKey.Len() != ed25519.PrivateKeySize {
		t.Errorf("Private key length mismatch: expected %d, got %d", ed25519.PrivateKeySize, privKey.Len())
	}

	pubKey, err := privKey.Public()
	if err != nil {
		t.Fatalf("Failed to derive Ed25519 public key: %v", err)
	}

	edPubKey, ok := pubKey.(Ed25519PublicKey)
	if !ok {
		t.Fatalf("Failed to assert type to Ed25519PublicKey")
	}

	if len(edPubKey) != ed25519.PublicKeySize {
		t.Errorf("Public key length mismatch: expected %d, got %d", ed25519.PublicKeySize, len(edPubKey))
	}
}

// TestEd25519SigningVerification tests signing data and verifying the signature.
func TestEd25519SigningVerification(t *testing.T) {
	var privKey Ed25519PrivateKey
	_, err := privKey.Generate()
	if err != nil {
		t.Fatalf("Failed to generate Ed25519 private key: %v", err)
	}

	pubKey, err := privKey.Public()
	if err != nil {
		t.Fatalf("Failed to derive Ed25519 public key: %v", err)
	}

	edPubKey, ok := pubKey.(Ed25519PublicKey)
	if !ok {
		t.Fatalf("Failed to assert type to Ed25519PublicKey")
	}

	signer, err := privKey.NewSigner()
	if err != nil {
		t.Fatalf("Failed to create Ed25519 signer: %v", err)
	}

	verifier, err := edPubKey.NewVerifier()
	if err != nil {
		t.Fatalf("Failed to create Ed25519 verifier: %v", err)
	}

	message := []byte("This is a test message for signing.")
	signature, err := signer.Sign(message)
	if err != nil {
		t.Fatalf("Failed to sign message: %v", err)
	}

	err = verifier.Verify(message, signature)
	if err != nil {
		t.Fatalf("Failed to verify signature: %v", err)
	}
}

// TestEd25519InvalidSignature tests verification with an invalid signature.
func TestEd25519InvalidSignature(t *testing.T) {
	var privKey Ed25519PrivateKey
	_, err := privKey.Generate()
	if err != nil {
		t.Fatalf("Failed to generate Ed25519 private key: %v", err)
	}

	pubKey, err := privKey.Public()
	if err != nil {
		t.Fatalf("Failed to derive Ed25519 public key: %v", err)
	}

	edPubKey, ok := pubKey.(Ed25519PublicKey)
	if !ok {
		t.Fatalf("Failed to assert type to Ed25519PublicKey")
	}

	verifier, err := edPubKey.NewVerifier()
	if err != nil {
		t.Fatalf("Failed to create Ed25519 verifier: %v", err)
	}

	message := []byte("Another test message.")
	invalidSig := make([]byte, ed25519.SignatureSize)
	_, err = rand.Read(invalidSig)
	if err != nil {
		t.Fatalf("Failed to generate random invalid signature: %v", err)
	}

	err = verifier.Verify(message, invalidSig)
	if err == nil {
		t.Fatalf("Verification should have failed with invalid signature, but it passed")
	}
}

// TestEd25519CreatePublicKeyFromBytes tests creating a public key from bytes.
func TestEd25519CreatePublicKeyFromBytes(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate Ed25519 key pair: %v", err)
	}

	edPubKey, err := CreateEd25519PublicKeyFromBytes(pub)
	if err != nil {
		t.Fatalf("Failed to create Ed25519 public key from bytes: %v", err)
	}

	if len(edPubKey) != ed25519.PublicKeySize {
		t.Errorf("Public key length mismatch: expected %d, got %d", ed25519.PublicKeySize, len(edPubKey))
	}

	invalidPub := make([]byte, ed25519.PublicKeySize-1)
	_, err = CreateEd25519PublicKeyFromBytes(invalidPub)
	if err == nil {
		t.Fatalf("Creation should have failed with invalid public key size, but it succeeded")
	}
}

// TestEd25519SignerSignAndVerifyHash tests signing a hash and verifying it.
func TestEd25519SignerSignAndVerifyHash(t *testing.T) {
	var privKey Ed25519PrivateKey
	_, err := privKey.Generate()
	if err != nil {
		t.Fatalf("Failed to generate Ed25519 private key: %v", err)
	}

	signer, err := privKey.NewSigner()
	if err != nil {
		t.Fatalf("Failed to create Ed25519 signer: %v", err)
	}

	pubKey, err := privKey.Public()
	if err != nil {
		t.Fatalf("Failed to derive Ed25519 public key: %v", err)
	}

	edPubKey, ok := pubKey.(Ed25519PublicKey)
	if !ok {
		t.Fatalf("Failed to assert type to Ed25519PublicKey")
	}

	verifier, err := edPubKey.NewVerifier()
	if err != nil {
		t.Fatalf("Failed to create Ed25519 verifier: %v", err)
	}

	data := []byte("Data to be hashed and signed.")
	hash := sha256.Sum256(data)

	signature, err := signer.SignHash(hash[:])
	if err != nil {
		t.Fatalf("Failed to sign hash: %v", err)
	}

	err = verifier.VerifyHash(hash[:], signature)
	if err != nil {
		t.Fatalf("Failed to verify signed hash: %v", err)
	}
}

// TestEd25519VerifierVerifyInvalidData tests verifying a signature with altered data.
func TestEd25519VerifierVerifyInvalidData(t *testing.T) {
	var privKey Ed25519PrivateKey
	_, err := privKey.Generate()
	if err != nil {
		t.Fatalf("Failed to generate Ed25519 private key: %v", err)
	}

	signer, err := privKey.NewSigner()
	if err != nil {
		t.Fatalf("Failed to create Ed25519 signer: %v", err)
	}

	pubKey, err := privKey.Public()
	if err != nil {
		t.Fatalf("Failed to derive Ed25519 public key: %v", err)
	}

	edPubKey, ok := pubKey.(Ed25519PublicKey)
	if !ok {
		t.Fatalf("Failed to assert type to Ed25519PublicKey")
	}

	verifier, err := edPubKey.NewVerifier()
	if err != nil {
		t.Fatalf("Failed to create Ed25519 verifier: %v", err)
	}

	data := []byte("Original data for signing.")
	signature, err := signer.Sign(data)
	if err != nil {
		t.Fatalf("Failed to sign data: %v", err)
	}

	alteredData := []byte("Altered data for signing.")

	err = verifier.Verify(alteredData, signature)
	if err == nil {
		t.Fatalf("Verification should have failed with altered data, but it succeeded")
	}
}

// TestEd25519VerifierInvalidKeySize tests verifier creation with an invalid public key size.
func TestEd25519VerifierInvalidKeySize(t *testing.T) {
	invalidPubKey := make([]byte, ed25519.PublicKeySize-1)

	verifier, err := CreateEd25519PublicKeyFromBytes(invalidPubKey)
	if err == nil {
		_, err := verifier.NewVerifier()
		if err == nil {
			t.Fatalf("Verifier creation should have failed with invalid public key size, but it succeeded")
		}
	}
}

// TestEd25519SignerInvalidKeySize tests signer creation with invalid private key sizes.
func TestEd25519SignerInvalidKeySize(t *testing.T) {
	var invalidPrivKey Ed25519PrivateKey
	copy(invalidPrivKey[:], make([]byte, ed25519.PrivateKeySize-1))

	_, err := invalidPrivKey.NewSigner()
	if err == nil {
		t.Fatalf("Signer creation should have failed with invalid private key size, but it succeeded")
	}
}

// TestEd25519VerifierVerifyWithTamperedSignature tests verification with tampered signatures.
func TestEd25519VerifierVerifyWithTamperedSignature(t *testing.T) {
	var privKey Ed25519PrivateKey
	_, err := privKey.Generate()
	if err != nil {
		t.Fatalf("Failed to generate Ed25519 private key: %v", err)
	}

	signer, err := privKey.NewSigner()
	if err != nil {
		t.Fatalf("Failed to create Ed25519 signer: %v", err)
	}

	pubKey, err := privKey.Public()
	if err != nil {
		t.Fatalf("Failed to derive Ed25519 public key: %v", err)
	}

	edPubKey, ok := pubKey.(Ed25519PublicKey)
	if !ok {
		t.Fatalf("Failed to assert type to Ed25519PublicKey")
	}

	verifier, err := edPubKey.NewVerifier()
	if err != nil {
		t.Fatalf("Failed to create Ed25519 verifier: %v", err)
	}

	message := []byte("Original message for testing.")
	signature, err := signer.Sign(message)
	if err != nil {
		t.Fatalf("Failed to sign message: %v", err)
	}

	tamperedSig := make([]byte, len(signature))
	copy(tamperedSig, signature)
	tamperedSig[0] ^= 0xFF

	err = verifier.Verify(message, tamperedSig)
	if err == nil {
		t.Fatalf("Verification should have failed with tampered signature, but it succeeded")
	}
}

// TestEd25519VerifierVerifyWithDifferentMessage tests verification with a different message.
func TestEd25519VerifierVerifyWithDifferentMessage(t *testing.T) {
	var privKey Ed25519PrivateKey
	_, err := privKey.Generate()
	if err != nil {
		t.Fatalf("Failed to generate Ed25519 private key: %v", err)
	}

	signer, err := privKey.NewSigner()
	if err != nil {
		t.Fatalf("Failed to create Ed25519 signer: %v", err)
	}

	pubKey, err := privKey.Public()
	if err != nil {
		t.Fatalf("Failed to derive Ed25519 public key: %v", err)
	}

	edPubKey, ok := pubKey.(Ed25519PublicKey)
	if !ok {
		t.Fatalf("Failed to assert type to Ed25519PublicKey")
	}

	verifier, err := edPubKey.NewVerifier()
	if err != nil {
		t.Fatalf("Failed to create Ed25519 verifier: %v", err)
	}

	originalMessage := []byte("Original message.")
	signature, err := signer.Sign(originalMessage)
	if err != nil {
		t.Fatalf("Failed to sign original message: %v", err)
	}

	differentMessage := []byte("Different message.")

	err = verifier.Verify(differentMessage, signature)
	if err == nil {
		t.Fatalf("Verification should have failed with different message, but it succeeded")
	}
}
