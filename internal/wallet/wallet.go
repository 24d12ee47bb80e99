package wallet

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// Wallet holds the fee-payer keypair and signs transactions with it.
type Wallet struct {
	priv solana.PrivateKey
	pub  solana.PublicKey
}

// NewWallet parses a base58-encoded 64-byte key or a solana-keygen JSON array.
func NewWallet(privateKey string) (*Wallet, error) {
	if strings.TrimSpace(privateKey) == "" {
		return nil, fmt.Errorf("wallet: private key is required")
	}

	priv, err := parsePrivateKey(privateKey)
	if err != nil {
		return nil, err
	}
	return FromPrivateKey(priv), nil
}

// FromPrivateKey wraps an already-decoded key.
func FromPrivateKey(priv solana.PrivateKey) *Wallet {
	return &Wallet{priv: priv, pub: priv.PublicKey()}
}

func (w *Wallet) Address() string             { return w.pub.String() }
func (w *Wallet) PublicKey() solana.PublicKey { return w.pub }

// SignTx signs a transaction with the wallet's private key
func (w *Wallet) SignTx(tx *solana.Transaction) error {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(w.pub) {
			return &w.priv
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}
	return nil
}

func parsePrivateKey(s string) (solana.PrivateKey, error) {
	s = strings.TrimSpace(s)

	var raw []byte
	if strings.HasPrefix(s, "[") {
		var ints []int
		if err := json.Unmarshal([]byte(s), &ints); err != nil {
			return nil, fmt.Errorf("wallet: invalid JSON private key: %w", err)
		}
		raw = make([]byte, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("wallet: invalid byte at %d: %d", i, v)
			}
			raw[i] = byte(v)
		}
	} else {
		var err error
		raw, err = base58.Decode(s)
		if err != nil {
			return nil, fmt.Errorf("wallet: invalid base58 private key: %w", err)
		}
	}

	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("wallet: expected %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}
	// The trailing half must be the public key of the seed.
	if !bytes.Equal(ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize]), raw) {
		return nil, fmt.Errorf("wallet: public key half does not match seed")
	}
	return solana.PrivateKey(ed25519.PrivateKey(raw)), nil
}
