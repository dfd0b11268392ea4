package database

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/nfrund/mintari/internal/domain"
)

const mintTable = "nft_mint"

// mintRow is the nft_mint record layout. The record id is derived from the
// transaction id so repeated saves upsert.
type mintRow struct {
	ID            *models.RecordID      `json:"id,omitempty"`
	TransactionID string                `json:"tx_id"`
	MintAddress   string                `json:"mint_address,omitempty"`
	Recipient     string                `json:"recipient"`
	Name          string                `json:"name"`
	Description   string                `json:"description"`
	Creator       string                `json:"creator"`
	Image         string                `json:"image"`
	OriginalImage string                `json:"original_image,omitempty"`
	MetadataURI   string                `json:"metadata_uri,omitempty"`
	Status        string                `json:"status"`
	MintedAt      models.CustomDateTime `json:"minted_at"`
}

func toRow(rec *domain.MintRecord) mintRow {
	return mintRow{
		TransactionID: rec.TransactionID,
		MintAddress:   rec.MintAddress,
		Recipient:     rec.Recipient,
		Name:          rec.Name,
		Description:   rec.Description,
		Creator:       rec.Creator,
		Image:         rec.Image,
		OriginalImage: rec.OriginalImage,
		MetadataURI:   rec.MetadataURI,
		Status:        rec.Status,
		MintedAt:      models.CustomDateTime{Time: rec.MintedAt.UTC()},
	}
}

func (r mintRow) toRecord() *domain.MintRecord {
	return &domain.MintRecord{
		TransactionID: r.TransactionID,
		MintAddress:   r.MintAddress,
		Recipient:     r.Recipient,
		Name:          r.Name,
		Description:   r.Description,
		Creator:       r.Creator,
		Image:         r.Image,
		OriginalImage: r.OriginalImage,
		MetadataURI:   r.MetadataURI,
		Status:        r.Status,
		MintedAt:      r.MintedAt.Time,
	}
}

// MintStore implements domain.MintRepository on SurrealDB.
type MintStore struct {
	db *surrealdb.DB
}

var _ domain.MintRepository = (*MintStore)(nil)

func NewMintStore(db *surrealdb.DB) *MintStore {
	return &MintStore{db: db}
}

// Save upserts rec keyed by its transaction id.
func (s *MintStore) Save(ctx context.Context, rec *domain.MintRecord) error {
	ctx, cancel := withTimeout(ctx, defaultExecuteTimeout, ContextKeyExecuteTimeout)
	defer cancel()

	err := Execute(ctx, s.db, "UPSERT type::thing($tb, $tx) CONTENT $data", map[string]any{
		"tb":   mintTable,
		"tx":   rec.TransactionID,
		"data": toRow(rec),
	})
	if err != nil {
		return fmt.Errorf("save mint %s: %w", rec.TransactionID, err)
	}
	return nil
}

func (s *MintStore) FindByTransaction(ctx context.Context, txID string) (*domain.MintRecord, error) {
	ctx, cancel := withTimeout(ctx, defaultQueryTimeout, ContextKeyQueryTimeout)
	defer cancel()

	row, err := QueryOne[mintRow](ctx, s.db, "SELECT * FROM type::table($tb) WHERE tx_id = $tx", map[string]any{
		"tb": mintTable,
		"tx": txID,
	})
	if err != nil {
		return nil, fmt.Errorf("find mint %s: %w", txID, err)
	}
	if row == nil {
		return nil, domain.ErrNotFound
	}
	return row.toRecord(), nil
}

func (s *MintStore) ListByRecipient(ctx context.Context, recipient string, limit int) ([]*domain.MintRecord, error) {
	ctx, cancel := withTimeout(ctx, defaultQueryTimeout, ContextKeyQueryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}
	rows, err := Query[mintRow](ctx, s.db,
		"SELECT * FROM type::table($tb) WHERE recipient = $recipient ORDER BY minted_at DESC LIMIT $limit",
		map[string]any{"tb": mintTable, "recipient": recipient, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("list mints for %s: %w", recipient, err)
	}
	out := make([]*domain.MintRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toRecord())
	}
	return out, nil
}
