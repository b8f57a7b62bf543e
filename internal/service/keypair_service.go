package service

import (
	"fmt"
	"strings"

	"github.com/dafibh/piflow/piflow-backend/internal/domain"
	"github.com/stellar/go/tools/stellar-hd-wallet/crypto/derivation"
	"github.com/stellar/go/keypair"
	"github.com/tyler-smith/go-bip39"
)

// accountDerivationPath is the SLIP-0010 path for the first account of the
// Pi network wallet (coin type 314159).
const accountDerivationPath = "m/44'/314159'/0'"

// KeypairService derives signing keypairs from user-supplied credentials.
// Derivation is pure: the same credential always yields the same keypair,
// and nothing is ever persisted.
type KeypairService struct{}

// NewKeypairService creates a new KeypairService
func NewKeypairService() *KeypairService {
	return &KeypairService{}
}

// Derive resolves a credential to a full keypair. Two forms are accepted:
// a raw secret seed ("S..." strkey) or a BIP39 mnemonic phrase, which is
// derived at the network's account path. Malformed credentials return
// domain.ErrInvalidSeed.
func (s *KeypairService) Derive(seed string) (*keypair.Full, error) {
	trimmed := strings.TrimSpace(seed)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty credential", domain.ErrInvalidSeed)
	}

	// Single-word credentials starting with S are strkey secret seeds.
	if !strings.ContainsAny(trimmed, " \t") && strings.HasPrefix(trimmed, "S") {
		kp, err := keypair.ParseFull(trimmed)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSeed, err)
		}
		return kp, nil
	}

	return s.deriveFromMnemonic(trimmed)
}

func (s *KeypairService) deriveFromMnemonic(mnemonic string) (*keypair.Full, error) {
	// Collapse whitespace so copy-pasted phrases validate.
	normalized := strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(normalized) {
		return nil, fmt.Errorf("%w: malformed mnemonic phrase", domain.ErrInvalidSeed)
	}

	binarySeed := bip39.NewSeed(normalized, "")
	key, err := derivation.DeriveForPath(accountDerivationPath, binarySeed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSeed, err)
	}

	var raw [32]byte
	copy(raw[:], key.Key)
	kp, err := keypair.FromRawSeed(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSeed, err)
	}
	return kp, nil
}
