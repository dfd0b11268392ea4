package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/mintari/internal/domain"
	"github.com/nfrund/mintari/internal/flow"
	"github.com/nfrund/mintari/internal/middleware"
	"github.com/nfrund/mintari/internal/mint"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// MintHandler exposes minting, collection setup, the contract registry and
// mint history.
type MintHandler struct {
	service  *mint.Service
	registry *mint.ContractRegistry
	repo     domain.MintRepository
	sessions *flow.SessionStore
	links    Links
}

// NewMintHandler creates a new MintHandler.
func NewMintHandler(service *mint.Service, registry *mint.ContractRegistry, repo domain.MintRepository, sessions *flow.SessionStore, links Links) *MintHandler {
	return &MintHandler{
		service:  service,
		registry: registry,
		repo:     repo,
		sessions: sessions,
		links:    links,
	}
}

func newMintResponse(rec *domain.MintRecord, links Links) MintResponse {
	return MintResponse{
		Success:       true,
		TransactionID: rec.TransactionID,
		Transaction: TransactionInfo{
			ID:          rec.TransactionID,
			Status:      rec.Status,
			MintAddress: rec.MintAddress,
		},
		ExplorerURL: links.Explorer(rec.TransactionID),
		ShareURL:    links.Share(rec.TransactionID),
	}
}

// mintError maps mint failures: bad input is a 400, the rest a 502.
func mintError(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidMetadata):
		return validationError(err)
	case errors.Is(err, mint.ErrInvalidRecipient):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadGateway, ErrorResponse{
			Error:   "Minting failed",
			Details: []string{err.Error()},
		}).SetInternal(err)
	}
}

// Mint handles POST /api/mint. With recipient and transformedImage in the
// body it mints directly; with neither it mints the session flow's artwork.
func (h *MintHandler) Mint(c echo.Context) error {
	var req MintRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format.")
	}

	if (req.Recipient == "") != (req.TransformedImage == "") {
		return echo.NewHTTPError(http.StatusBadRequest, "recipient and transformedImage must be given together")
	}
	if req.Recipient == "" {
		f, err := h.sessions.Load(c)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Could not load session").SetInternal(err)
		}
		if f.WalletAddress == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Connect a wallet first")
		}
		return mintFlow(c, h.sessions, h.service, h.links, f, req.MetadataRequest)
	}

	rec, err := h.service.Mint(c.Request().Context(), domain.MintRequest{
		Recipient: req.Recipient,
		Metadata: domain.NFTMetadata{
			Name:        req.Name,
			Description: req.Description,
			Creator:     req.Creator,
		},
		OriginalImage:    req.OriginalImage,
		TransformedImage: req.TransformedImage,
	})
	if err != nil {
		middleware.FromContext(c.Request().Context()).Error("Minting error", "recipient", req.Recipient, "error", err)
		return mintError(err)
	}
	return c.JSON(http.StatusOK, newMintResponse(rec, h.links))
}

// Collection handles GET /api/mint/collection/:address.
func (h *MintHandler) Collection(c echo.Context) error {
	address := c.Param("address")
	ok, err := h.service.Minter().CheckCollection(c.Request().Context(), address)
	if err != nil {
		return mintError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"address": address, "hasCollection": ok})
}

// SetupCollection handles POST /api/mint/collection/:address/setup.
func (h *MintHandler) SetupCollection(c echo.Context) error {
	address := c.Param("address")
	txID, err := h.service.Minter().SetupCollection(c.Request().Context(), address)
	if err != nil {
		return mintError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "address": address, "transactionId": txID})
}

// Contract handles GET /api/contract.
func (h *MintHandler) Contract(c echo.Context) error {
	addr, ok, err := h.registry.Address(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "Could not verify contract").SetInternal(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"deployed": ok, "contractAddress": addr})
}

// DeployContract handles POST /api/contract/deploy.
func (h *MintHandler) DeployContract(c echo.Context) error {
	d, err := h.registry.EnsureDeployed(c.Request().Context())
	if err != nil {
		middleware.FromContext(c.Request().Context()).Error("Contract deployment error", "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, ErrorResponse{
			Error:   "Deployment failed",
			Details: []string{err.Error()},
		}).SetInternal(err)
	}
	return c.JSON(http.StatusOK, DeploymentResponse{Success: true, Deployment: d})
}

// NFT handles GET /api/nfts/:tx.
func (h *MintHandler) NFT(c echo.Context) error {
	rec, err := h.repo.FindByTransaction(c.Request().Context(), c.Param("tx"))
	if errors.Is(err, domain.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "NFT not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rec)
}

// NFTs handles GET /api/nfts?owner=&limit=, newest first.
func (h *MintHandler) NFTs(c echo.Context) error {
	owner := c.QueryParam("owner")
	if owner == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "owner is required")
	}
	limit := defaultListLimit
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = min(n, maxListLimit)
	}
	recs, err := h.repo.ListByRecipient(c.Request().Context(), owner, limit)
	if err != nil {
		return err
	}
	if recs == nil {
		recs = []*domain.MintRecord{}
	}
	return c.JSON(http.StatusOK, map[string]any{"owner": owner, "nfts": recs})
}
