package mint

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nfrund/mintari/internal/domain"
	"github.com/nfrund/mintari/internal/ipfs"
	"github.com/nfrund/mintari/internal/metrics"
)

// MetadataUploader stores the off-chain NFT metadata document.
type MetadataUploader interface {
	UploadJSON(ctx context.Context, v any, filename string) (ipfs.Result, error)
}

// Service runs the full mint sequence: collection check and setup, metadata
// upload, the mint itself and persistence of the resulting record.
type Service struct {
	minter   Minter
	repo     domain.MintRepository
	metadata MetadataUploader
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewService wires a Service. metadata may be nil, in which case the image
// URL is used as the token URI.
func NewService(minter Minter, repo domain.MintRepository, metadata MetadataUploader, m *metrics.Metrics) *Service {
	return &Service{minter: minter, repo: repo, metadata: metadata, metrics: m, now: time.Now}
}

// Minter exposes the underlying minter for the collection endpoints.
func (s *Service) Minter() Minter {
	return s.minter
}

// TokenMetadata is the JSON document referenced by the token URI.
type TokenMetadata struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Image       string            `json:"image"`
	Creator     string            `json:"creator"`
	Attributes  []TokenAttribute  `json:"attributes"`
	Properties  map[string]string `json:"properties,omitempty"`
}

type TokenAttribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// BuildTokenMetadata renders the metadata document for req.
func BuildTokenMetadata(req domain.MintRequest) TokenMetadata {
	props := map[string]string{}
	if req.OriginalImage != "" {
		props["originalImage"] = req.OriginalImage
	}
	if req.Thumbnail != "" {
		props["thumbnail"] = req.Thumbnail
	}
	return TokenMetadata{
		Name:        req.Metadata.Name,
		Description: req.Metadata.Description,
		Image:       req.TransformedImage,
		Creator:     req.Metadata.Creator,
		Attributes: []TokenAttribute{
			{TraitType: "style", Value: "ghibli"},
			{TraitType: "creator", Value: req.Metadata.Creator},
		},
		Properties: props,
	}
}

// Mint validates req, mints it and stores the record. Validation errors wrap
// domain.ErrInvalidMetadata; chain errors are returned as-is.
func (s *Service) Mint(ctx context.Context, req domain.MintRequest) (*domain.MintRecord, error) {
	req.Metadata = req.Metadata.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	logger := slog.Default().With("recipient", req.Recipient, "name", req.Metadata.Name)

	hasCollection, err := s.minter.CheckCollection(ctx, req.Recipient)
	if err != nil {
		s.metrics.ObserveMint("error")
		return nil, fmt.Errorf("check collection: %w", err)
	}
	if !hasCollection {
		logger.InfoContext(ctx, "Setting up collection")
		if _, err := s.minter.SetupCollection(ctx, req.Recipient); err != nil {
			s.metrics.ObserveMint("error")
			return nil, fmt.Errorf("failed to setup collection: %w", err)
		}
	}

	if req.Thumbnail == "" {
		req.Thumbnail = req.TransformedImage
	}
	if s.metadata != nil && req.MetadataURI == "" {
		res, err := s.metadata.UploadJSON(ctx, BuildTokenMetadata(req), "metadata.json")
		if err != nil {
			logger.WarnContext(ctx, "Metadata upload failed, minting with image uri", "error", err)
		} else {
			req.MetadataURI = res.URL
		}
	}

	res, err := s.minter.Mint(ctx, req)
	if err != nil {
		s.metrics.ObserveMint("error")
		return nil, err
	}
	s.metrics.ObserveMint("success")

	rec := &domain.MintRecord{
		TransactionID: res.TransactionID,
		MintAddress:   res.MintAddress,
		Recipient:     req.Recipient,
		Name:          req.Metadata.Name,
		Description:   req.Metadata.Description,
		Creator:       req.Metadata.Creator,
		Image:         req.TransformedImage,
		OriginalImage: req.OriginalImage,
		MetadataURI:   req.MetadataURI,
		Status:        res.Status,
		MintedAt:      s.now().UTC(),
	}
	if s.repo != nil {
		if err := s.repo.Save(ctx, rec); err != nil {
			logger.ErrorContext(ctx, "Failed to save mint record", "tx_id", rec.TransactionID, "error", err)
		}
	}
	logger.InfoContext(ctx, "NFT minted", "tx_id", rec.TransactionID, "status", rec.Status)
	return rec, nil
}
