package database

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/surrealdb/surrealdb.go"

	"github.com/nfrund/mintari/internal/config"
	"github.com/nfrund/mintari/internal/domain"
)

func record(tx, recipient string, at time.Time) *domain.MintRecord {
	return &domain.MintRecord{
		TransactionID: tx,
		Recipient:     recipient,
		Name:          "Totoro",
		Description:   "Forest spirit",
		Creator:       "Mei",
		Image:         "https://img/" + tx,
		Status:        "sealed",
		MintedAt:      at,
	}
}

// exerciseRepository runs the shared repository contract.
func exerciseRepository(t *testing.T, repo domain.MintRepository, recipient string) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	_, err := repo.FindByTransaction(ctx, "0xmissing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.Save(ctx, record("0x01", recipient, base)))
	require.NoError(t, repo.Save(ctx, record("0x02", recipient, base.Add(time.Hour))))
	require.NoError(t, repo.Save(ctx, record("0x03", recipient, base.Add(2*time.Hour))))
	require.NoError(t, repo.Save(ctx, record("0x04", recipient+"-other", base)))

	got, err := repo.FindByTransaction(ctx, "0x02")
	require.NoError(t, err)
	assert.Equal(t, "Totoro", got.Name)
	assert.Equal(t, recipient, got.Recipient)
	assert.True(t, got.MintedAt.Equal(base.Add(time.Hour)))

	list, err := repo.ListByRecipient(ctx, recipient, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "0x03", list[0].TransactionID, "newest first")
	assert.Equal(t, "0x02", list[1].TransactionID)

	updated := record("0x01", recipient, base)
	updated.Status = "pending"
	require.NoError(t, repo.Save(ctx, updated))
	got, err = repo.FindByTransaction(ctx, "0x01")
	require.NoError(t, err)
	assert.Equal(t, "pending", got.Status, "save upserts by transaction id")
}

func TestMemoryMintStore(t *testing.T) {
	exerciseRepository(t, NewMemoryMintStore(), "0xabc")
}

func TestMintStore_Surreal(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	url := os.Getenv("MINTARI_TEST_SURREAL_URL")
	if url == "" {
		t.Skip("MINTARI_TEST_SURREAL_URL not set")
	}

	ctx := context.Background()
	db, err := NewDB(ctx, config.SurrealConfig{URL: url, NS: "mintari_test", DB: "mintari_test", User: "root", Pass: "root"})
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = surrealdb.Query[any](context.Background(), db, "DELETE nft_mint", nil)
		db.Close(context.Background())
	})

	exerciseRepository(t, NewMintStore(db), "0xsurreal")
}

func TestHasLimitClause(t *testing.T) {
	assert.True(t, hasLimitClause("SELECT * FROM nft_mint limit 5"))
	assert.False(t, hasLimitClause("SELECT * FROM nft_mint WHERE name = 'unlimited'"))
}

func TestRetryer(t *testing.T) {
	r := &Retryer{maxRetries: 2, baseDelay: time.Millisecond, maxDelay: time.Millisecond, multiplier: 2}

	calls := 0
	err := r.Retry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = r.Retry(context.Background(), func() error {
		calls++
		return errors.New("down")
	})
	assert.ErrorContains(t, err, "after 3 attempts")
	assert.Equal(t, 3, calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, r.Retry(ctx, func() error { return nil }), context.Canceled)
}
