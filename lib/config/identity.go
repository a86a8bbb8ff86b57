package config

import (
	"bytes"
	"crypto/rand"
	"io"
	"os"
	"path/filepath"

	"github.com/go-i2p/linklayer/lib/crypto"
	"github.com/go-i2p/linklayer/lib/util"
	"github.com/samber/oops"
)

// identityFileSize is the on-disk layout of an identity file: a 64-byte
// Ed25519 private key followed by a 32-byte Curve25519 private key.
const identityFileSize = 64 + 32

// Identity holds a node's long-term keypairs: Ed25519 for signing its
// RouterContact, Curve25519 for the link layer's session-key handshake.
type Identity struct {
	SigningKey   crypto.Ed25519PrivateKey
	TransportKey crypto.Curve25519PrivateKey
}

// LoadOrGenerateIdentity reads path (resolved against cfg.WorkingDir if
// relative), validating its size, or generates and persists a fresh
// Identity if the file doesn't exist yet. Mirrors the transport layer's
// load-or-generate pattern for its own per-peer persistent state.
func (c *LinkConfig) LoadOrGenerateIdentity() (*Identity, error) {
	path := c.IdentityFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.WorkingDir, path)
	}

	if !util.CheckFileExists(path) {
		return generateAndStoreIdentity(path)
	}
	return loadIdentity(path)
}

func loadIdentity(path string) (*Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) != identityFileSize {
		return nil, oops.Errorf("identity file %s has wrong size: expected %d bytes, got %d", path, identityFileSize, len(data))
	}

	var signingKey crypto.Ed25519PrivateKey
	signingKey = append(crypto.Ed25519PrivateKey{}, data[:64]...)

	var transportKey crypto.Curve25519PrivateKey
	copy(transportKey[:], data[64:96])

	return &Identity{SigningKey: signingKey, TransportKey: transportKey}, nil
}

func generateAndStoreIdentity(path string) (*Identity, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, oops.Wrapf(err, "creating identity directory")
	}

	var signingKey crypto.Ed25519PrivateKey
	if _, err := signingKey.Generate(); err != nil {
		return nil, oops.Wrapf(err, "generating signing key")
	}
	transportKey, _, err := crypto.GenerateCurve25519Keypair(rand.Reader)
	if err != nil {
		return nil, oops.Wrapf(err, "generating transport key")
	}

	data := make([]byte, 0, identityFileSize)
	data = append(data, signingKey...)
	data = append(data, transportKey[:]...)

	if err := writeFileAtomic(path, data, 0o600); err != nil {
		return nil, oops.Wrapf(err, "storing identity")
	}

	log.Debugf("generated new identity at %s", path)
	return &Identity{SigningKey: signingKey, TransportKey: transportKey}, nil
}

// writeFileAtomic writes data to path via a temp file in the same
// directory plus a rename, so a crash mid-write never leaves a truncated
// identity file behind.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".identity-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
