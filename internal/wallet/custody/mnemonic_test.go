package custody_test

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha512"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tyler-smith/go-bip39/wordlists"
	"github/chapool/jetton-signer/internal/wallet/custody"
	"github/chapool/jetton-signer/internal/wallet/failure"
	"golang.org/x/crypto/pbkdf2"
)

// referenceKey derives the key the way TON wallets do: entropy = HMAC-SHA512(phrase, ""),
// basic seed check byte = PBKDF2(entropy, "TON seed version", 390)[0] == 0,
// seed = PBKDF2(entropy, "TON default seed", 100000)[:32].
func referenceKey(t *testing.T, words []string) ed25519.PrivateKey {
	t.Helper()

	mac := hmac.New(sha512.New, []byte(strings.Join(words, " ")))
	entropy := mac.Sum(nil)

	check := pbkdf2.Key(entropy, []byte("TON seed version"), 100000/256, 64, sha512.New)
	require.Zero(t, check[0], "phrase is not a basic TON seed")

	seed := pbkdf2.Key(entropy, []byte("TON default seed"), 100000, 64, sha512.New)
	return ed25519.NewKeyFromSeed(seed[:ed25519.SeedSize])
}

func TestDeriveKeyPairDeterministic(t *testing.T) {
	words, err := custody.NewPhrase()
	require.NoError(t, err)
	require.Len(t, words, custody.PhraseLength)

	svc := custody.NewService()

	first, err := svc.DeriveKeyPair(words)
	require.NoError(t, err)
	second, err := svc.DeriveKeyPair(words)
	require.NoError(t, err)

	assert.Equal(t, first.PublicKey, second.PublicKey)
	assert.Equal(t, first.PrivateKey, second.PrivateKey)
	assert.Len(t, first.PublicKey, ed25519.PublicKeySize)

	msg := []byte("seqno")
	assert.True(t, ed25519.Verify(first.PublicKey, msg, ed25519.Sign(first.PrivateKey, msg)))
}

func TestDeriveKeyPairMatchesTONScheme(t *testing.T) {
	svc := custody.NewService()

	for i := 0; i < 3; i++ {
		words, err := custody.NewPhrase()
		require.NoError(t, err)

		expected := referenceKey(t, words)

		kp, err := svc.DeriveKeyPair(words)
		require.NoError(t, err)
		assert.Equal(t, []byte(expected), []byte(kp.PrivateKey))
		assert.Equal(t, []byte(expected.Public().(ed25519.PublicKey)), []byte(kp.PublicKey))
	}
}

func TestDeriveKeyPairNormalizesWords(t *testing.T) {
	words, err := custody.NewPhrase()
	require.NoError(t, err)

	shouted := make([]string, len(words))
	for i, w := range words {
		shouted[i] = "  " + strings.ToUpper(w) + " "
	}

	svc := custody.NewService()
	expected, err := svc.DeriveKeyPair(words)
	require.NoError(t, err)
	actual, err := svc.DeriveKeyPair(shouted)
	require.NoError(t, err)

	assert.Equal(t, expected.PublicKey, actual.PublicKey)
}

func TestDeriveKeyPairInvalidPhrase(t *testing.T) {
	svc := custody.NewService()

	_, err := svc.DeriveKeyPair([]string{"abandon", "ability"})
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.KindInvalidPhrase))

	words, err := custody.NewPhrase()
	require.NoError(t, err)
	words[3] = "notaword"
	_, err = svc.DeriveKeyPair(words)
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.KindInvalidPhrase))
	assert.Contains(t, err.Error(), "word 4")
}

func TestDeriveKeyPairChecksumMismatch(t *testing.T) {
	words, err := custody.NewPhrase()
	require.NoError(t, err)

	svc := custody.NewService()
	found := false
	for _, candidate := range wordlists.English {
		words[custody.PhraseLength-1] = candidate
		_, err := svc.DeriveKeyPair(words)
		if err != nil {
			assert.True(t, failure.Is(err, failure.KindInvalidPhrase))
			assert.Contains(t, err.Error(), "checksum")
			found = true
			break
		}
	}

	assert.True(t, found, "expected at least one word to break the checksum")
}

func TestKeyPairWipe(t *testing.T) {
	words, err := custody.NewPhrase()
	require.NoError(t, err)

	kp, err := custody.NewService().DeriveKeyPair(words)
	require.NoError(t, err)

	priv := kp.PrivateKey
	kp.Wipe()

	assert.Nil(t, kp.PrivateKey)
	for _, b := range priv {
		require.Zero(t, b)
	}

	var nilPair *custody.KeyPair
	assert.NotPanics(t, nilPair.Wipe)
}

func TestSplitPhrase(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, custody.SplitPhrase(" a  b\tc\n"))
}
