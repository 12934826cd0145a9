package custody

import (
	"crypto/ed25519"
	"strings"

	"github.com/tyler-smith/go-bip39/wordlists"
	"github.com/xssnick/tonutils-go/ton/wallet"
	"github/chapool/jetton-signer/internal/wallet/failure"
)

// PhraseLength is the number of words of a TON recovery phrase.
const PhraseLength = 24

var wordIndex = func() map[string]struct{} {
	m := make(map[string]struct{}, len(wordlists.English))
	for _, w := range wordlists.English {
		m[w] = struct{}{}
	}
	return m
}()

type service struct{}

// NewService creates the key custody service
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService() Custody {
	return &service{}
}

// DeriveKeyPair converts a TON recovery phrase (no password) to an ed25519 key pair.
// The private key shares its backing array with the derived wallet, so Wipe clears both.
func (s *service) DeriveKeyPair(words []string) (*KeyPair, error) {
	normalized, err := normalize(words)
	if err != nil {
		return nil, err
	}

	// no ledger access: the wallet is only used for its key
	w, err := wallet.FromSeed(nil, normalized, wallet.V4R2)
	if err != nil {
		return nil, failure.Wrap(failure.KindInvalidPhrase, err, "invalid recovery phrase: checksum mismatch")
	}

	privateKey := w.PrivateKey()
	publicKey, ok := privateKey.Public().(ed25519.PublicKey)
	if !ok {
		return nil, failure.New(failure.KindInternal, "failed to cast public key to ed25519")
	}

	return &KeyPair{
		PublicKey:  publicKey,
		PrivateKey: privateKey,
	}, nil
}

// SplitPhrase splits a space separated phrase as it is stored in the environment.
func SplitPhrase(phrase string) []string {
	return strings.Fields(phrase)
}

// NewPhrase generates a new random recovery phrase accepted by DeriveKeyPair.
func NewPhrase() ([]string, error) {
	return wallet.NewSeed(), nil
}

func normalize(words []string) ([]string, error) {
	if len(words) != PhraseLength {
		return nil, failure.Newf(failure.KindInvalidPhrase, "invalid recovery phrase: expected %d words, got %d", PhraseLength, len(words))
	}

	normalized := make([]string, len(words))
	for i, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if _, ok := wordIndex[w]; !ok {
			return nil, failure.Newf(failure.KindInvalidPhrase, "invalid recovery phrase: word %d is not in the wordlist", i+1)
		}
		normalized[i] = w
	}

	return normalized, nil
}
