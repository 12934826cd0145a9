package custody

import "crypto/ed25519"

// KeyPair is the wallet's signing key pair. It lives for one request and must be wiped after use.
type KeyPair struct {
	PublicKey  ed25519.PublicKey
	PrivateKey ed25519.PrivateKey
}

// Wipe clears the private key from memory.
func (k *KeyPair) Wipe() {
	if k == nil {
		return
	}
	for i := range k.PrivateKey {
		k.PrivateKey[i] = 0
	}
	k.PrivateKey = nil
}

// Custody derives key pairs from a recovery phrase.
type Custody interface {
	// DeriveKeyPair derives the wallet key pair. The caller owns the result and must Wipe it.
	DeriveKeyPair(words []string) (*KeyPair, error)
}
