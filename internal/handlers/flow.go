package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/mintari/internal/domain"
	"github.com/nfrund/mintari/internal/flow"
	"github.com/nfrund/mintari/internal/middleware"
	"github.com/nfrund/mintari/internal/mint"
	"github.com/nfrund/mintari/internal/transform"
)

// FlowHandler drives the per-session create-and-mint flow.
type FlowHandler struct {
	sessions    *flow.SessionStore
	transformer transform.Transformer
	originals   *Originals
	mints       *mint.Service
	links       Links
	maxBytes    int64
}

// NewFlowHandler creates a new FlowHandler.
func NewFlowHandler(sessions *flow.SessionStore, t transform.Transformer, originals *Originals, mints *mint.Service, links Links, maxBytes int64) *FlowHandler {
	return &FlowHandler{
		sessions:    sessions,
		transformer: t,
		originals:   originals,
		mints:       mints,
		links:       links,
		maxBytes:    maxBytes,
	}
}

// RewardResponse is returned after claiming a reward.
type RewardResponse struct {
	Success bool          `json:"success"`
	Reward  domain.Reward `json:"reward"`
	Flow    FlowResponse  `json:"flow"`
}

// FlowMintResponse is returned after a successful mint from the flow.
type FlowMintResponse struct {
	MintResponse
	Flow FlowResponse `json:"flow"`
}

// flowError maps flow and domain errors onto HTTP errors.
func flowError(err error) error {
	switch {
	case errors.Is(err, flow.ErrInvalidTransition),
		errors.Is(err, flow.ErrNoCredits),
		errors.Is(err, flow.ErrNoOriginal),
		errors.Is(err, flow.ErrRewardClaimed):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, flow.ErrMissingAddress):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidMetadata):
		return validationError(err)
	case errors.Is(err, domain.ErrUnknownReward):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return err
	}
}

// validationError splits a wrapped ErrInvalidMetadata into per-field details.
func validationError(err error) error {
	msg := strings.TrimPrefix(err.Error(), domain.ErrInvalidMetadata.Error()+": ")
	return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{
		Error:   "Invalid NFT metadata",
		Details: strings.Split(msg, "; "),
	})
}

func (h *FlowHandler) respond(c echo.Context, f *flow.Flow) error {
	if err := h.sessions.Save(c, f); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newFlowResponse(f))
}

// load is used by the routes that run without RequireWallet.
func (h *FlowHandler) load(c echo.Context) (*flow.Flow, error) {
	f, err := h.sessions.Load(c)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Could not load session").SetInternal(err)
	}
	return f, nil
}

// Get handles GET /api/flow.
func (h *FlowHandler) Get(c echo.Context) error {
	f, err := h.load(c)
	if err != nil {
		return err
	}
	return h.respond(c, f)
}

// ConnectWallet handles POST /api/flow/wallet.
func (h *FlowHandler) ConnectWallet(c echo.Context) error {
	var req WalletRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format.")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, flow.ErrMissingAddress.Error())
	}
	f, err := h.load(c)
	if err != nil {
		return err
	}
	if err := f.ConnectWallet(req.Address); err != nil {
		return flowError(err)
	}
	middleware.FromContext(c.Request().Context()).Info("Wallet connected", "session_id", f.SessionID, "address", f.WalletAddress)
	return h.respond(c, f)
}

// Transform handles POST /api/flow/transform with a multipart "image".
func (h *FlowHandler) Transform(c echo.Context) error {
	ctx := c.Request().Context()
	f := middleware.FlowFrom(c)

	img, err := readImage(c, "image", h.maxBytes)
	if err != nil {
		return err
	}
	ref, err := h.originals.Save(ctx, f.SessionID, img)
	if err != nil {
		return err
	}
	if err := f.BeginTransform(ref); err != nil {
		if derr := h.originals.Delete(ctx, ref); derr != nil {
			middleware.FromContext(ctx).Warn("Failed to remove unused original", "session_id", f.SessionID, "error", derr)
		}
		return flowError(err)
	}
	return h.runTransform(c, f, img)
}

// Regenerate handles POST /api/flow/regenerate: one credit buys a fresh
// transformation of the stored original.
func (h *FlowHandler) Regenerate(c echo.Context) error {
	f := middleware.FlowFrom(c)
	if err := f.Regenerate(); err != nil {
		return flowError(err)
	}
	img, err := h.originals.Load(c.Request().Context(), f.OriginalImage)
	if err != nil {
		_ = f.FailTransform()
		if serr := h.sessions.Save(c, f); serr != nil {
			return serr
		}
		return flowError(err)
	}
	img.Fresh = true
	return h.runTransform(c, f, img)
}

func (h *FlowHandler) runTransform(c echo.Context, f *flow.Flow, img transform.Image) error {
	logger := middleware.FromContext(c.Request().Context())

	res, err := h.transformer.Transform(c.Request().Context(), img)
	if err != nil {
		logger.Error("Transformation error", "session_id", f.SessionID, "error", err)
		_ = f.FailTransform()
		if serr := h.sessions.Save(c, f); serr != nil {
			return serr
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Image transformation failed").SetInternal(err)
	}
	if err := f.CompleteTransform(res.URL); err != nil {
		return flowError(err)
	}
	logger.Info("Image transformed", "session_id", f.SessionID, "provider", res.Provider, "cached", res.Cached, "credits", f.Credits)
	return h.respond(c, f)
}

// Confirm handles POST /api/flow/confirm.
func (h *FlowHandler) Confirm(c echo.Context) error {
	f := middleware.FlowFrom(c)
	if err := f.ConfirmMint(); err != nil {
		return flowError(err)
	}
	return h.respond(c, f)
}

// Cancel handles POST /api/flow/cancel.
func (h *FlowHandler) Cancel(c echo.Context) error {
	f := middleware.FlowFrom(c)
	if err := f.CancelMetadata(); err != nil {
		return flowError(err)
	}
	return h.respond(c, f)
}

// Mint handles POST /api/flow/mint with the metadata form.
func (h *FlowHandler) Mint(c echo.Context) error {
	var req MetadataRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format.")
	}
	return mintFlow(c, h.sessions, h.mints, h.links, middleware.FlowFrom(c), req)
}

// mintFlow submits meta, mints the session's artwork and records the
// outcome in the flow.
func mintFlow(c echo.Context, sessions *flow.SessionStore, mints *mint.Service, links Links, f *flow.Flow, req MetadataRequest) error {
	ctx := c.Request().Context()
	logger := middleware.FromContext(ctx)

	meta := domain.NFTMetadata{Name: req.Name, Description: req.Description, Creator: req.Creator}
	if err := f.SubmitMetadata(meta); err != nil {
		return flowError(err)
	}

	rec, err := mints.Mint(ctx, domain.MintRequest{
		Recipient:        f.WalletAddress,
		Metadata:         *f.Metadata,
		OriginalImage:    f.OriginalImage,
		TransformedImage: f.TransformedImage,
	})
	if err != nil {
		logger.Error("Minting error", "session_id", f.SessionID, "error", err)
		_ = f.MintFailed(err)
		if serr := sessions.Save(c, f); serr != nil {
			return serr
		}
		return mintError(err)
	}

	_ = f.MintSucceeded(rec.TransactionID)
	if err := sessions.Save(c, f); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, FlowMintResponse{
		MintResponse: newMintResponse(rec, links),
		Flow:         newFlowResponse(f),
	})
}

// Another handles POST /api/flow/another.
func (h *FlowHandler) Another(c echo.Context) error {
	f := middleware.FlowFrom(c)
	if err := f.CreateAnother(); err != nil {
		return flowError(err)
	}
	return h.respond(c, f)
}

// Disconnect handles POST /api/flow/disconnect.
func (h *FlowHandler) Disconnect(c echo.Context) error {
	f, err := h.load(c)
	if err != nil {
		return err
	}
	f.Disconnect()
	return h.respond(c, f)
}

// ClaimReward handles POST /api/flow/rewards/:id.
func (h *FlowHandler) ClaimReward(c echo.Context) error {
	f := middleware.FlowFrom(c)
	reward, err := f.ClaimReward(c.Param("id"))
	if err != nil {
		return flowError(err)
	}
	if err := h.sessions.Save(c, f); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, RewardResponse{Success: true, Reward: reward, Flow: newFlowResponse(f)})
}

// Rewards handles GET /api/rewards.
func (h *FlowHandler) Rewards(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"rewards": domain.Rewards()})
}
