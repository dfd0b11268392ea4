// Package mint turns confirmed artwork into an NFT. Minting is either mocked
// for demos or executed on Solana as a Metaplex master edition.
package mint

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"

	"github.com/nfrund/mintari/internal/domain"
)

const (
	StatusSealed  = "sealed"
	StatusPending = "pending"
)

var (
	ErrInvalidRecipient = errors.New("invalid recipient address")
	ErrMintFailed       = errors.New("minting failed")
)

// Result is the outcome of a mint transaction.
type Result struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
	MintAddress   string `json:"mintAddress,omitempty"`
}

// Minter is the chain-facing side of minting.
type Minter interface {
	// CheckCollection reports whether address can receive NFTs without setup.
	CheckCollection(ctx context.Context, address string) (bool, error)
	// SetupCollection prepares address to receive NFTs and returns the tx id.
	SetupCollection(ctx context.Context, address string) (string, error)
	Mint(ctx context.Context, req domain.MintRequest) (Result, error)
}

// mockTxID returns "0x" followed by 16 lowercase hex digits.
func mockTxID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return "0x" + hex.EncodeToString(b[:])
}
