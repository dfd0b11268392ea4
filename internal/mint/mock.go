package mint

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/nfrund/mintari/internal/domain"
)

// MockMinter simulates chain latency and always succeeds. No network calls
// are made.
type MockMinter struct {
	MintDelay  time.Duration
	SetupDelay time.Duration
}

var _ Minter = (*MockMinter)(nil)

func NewMockMinter() *MockMinter {
	return &MockMinter{MintDelay: 2 * time.Second, SetupDelay: 500 * time.Millisecond}
}

func (m *MockMinter) CheckCollection(ctx context.Context, address string) (bool, error) {
	if strings.TrimSpace(address) == "" {
		return false, ErrInvalidRecipient
	}
	return true, nil
}

func (m *MockMinter) SetupCollection(ctx context.Context, address string) (string, error) {
	if err := sleep(ctx, m.SetupDelay); err != nil {
		return "", err
	}
	txID := mockTxID()
	slog.DebugContext(ctx, "Mock collection setup", "address", address, "tx_id", txID)
	return txID, nil
}

func (m *MockMinter) Mint(ctx context.Context, req domain.MintRequest) (Result, error) {
	if strings.TrimSpace(req.Recipient) == "" {
		return Result{}, ErrInvalidRecipient
	}
	if err := sleep(ctx, m.MintDelay); err != nil {
		return Result{}, err
	}
	txID := mockTxID()
	slog.DebugContext(ctx, "Mock NFT mint", "recipient", req.Recipient, "name", req.Metadata.Name, "tx_id", txID)
	return Result{TransactionID: txID, Status: StatusSealed}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
