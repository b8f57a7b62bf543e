package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/dafibh/piflow/piflow-backend/internal/domain"
	"github.com/stellar/go/keypair"
)

// Standard BIP39 test vector mnemonic
const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestDerive_SecretSeed(t *testing.T) {
	svc := NewKeypairService()
	kp := keypair.MustRandom()

	derived, err := svc.Derive(kp.Seed())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if derived.Address() != kp.Address() {
		t.Errorf("Expected address %s, got %s", kp.Address(), derived.Address())
	}
}

func TestDerive_MnemonicIsDeterministic(t *testing.T) {
	svc := NewKeypairService()

	first, err := svc.Derive(testMnemonic)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	second, err := svc.Derive(testMnemonic)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if first.Address() != second.Address() {
		t.Errorf("Derivation not deterministic: %s vs %s", first.Address(), second.Address())
	}

	if !strings.HasPrefix(first.Address(), "G") || len(first.Address()) != 56 {
		t.Errorf("Expected a well-formed public address, got %s", first.Address())
	}
}

func TestDerive_MnemonicWhitespaceNormalized(t *testing.T) {
	svc := NewKeypairService()

	clean, err := svc.Derive(testMnemonic)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	messy, err := svc.Derive("  " + strings.ReplaceAll(testMnemonic, " ", "   ") + "  ")
	if err != nil {
		t.Fatalf("Expected no error for padded mnemonic, got %v", err)
	}

	if clean.Address() != messy.Address() {
		t.Errorf("Whitespace changed derivation: %s vs %s", clean.Address(), messy.Address())
	}
}

func TestDerive_InvalidCredentials(t *testing.T) {
	svc := NewKeypairService()

	cases := []struct {
		name string
		seed string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"bad secret seed", "SINVALIDINVALIDINVALIDINVALIDINVALIDINVALIDINVALIDINVAL"},
		{"bad mnemonic", "these words are not a valid mnemonic phrase at all really"},
		{"garbage", "xyzzy"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Derive(tc.seed)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !errors.Is(err, domain.ErrInvalidSeed) {
				t.Errorf("Expected ErrInvalidSeed, got %v", err)
			}
		})
	}
}
