package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/skip2/go-qrcode"

	"github.com/nfrund/mintari/internal/domain"
	"github.com/nfrund/mintari/internal/view"
)

const qrSize = 256

// ShareHandler serves the public page for a minted NFT.
type ShareHandler struct {
	repo  domain.MintRepository
	links Links
}

// NewShareHandler creates a new ShareHandler. Pages are rendered through
// the echo Renderer, which must accept gomponents nodes.
func NewShareHandler(repo domain.MintRepository, links Links) *ShareHandler {
	return &ShareHandler{repo: repo, links: links}
}

// Page handles GET /nft/:tx.
func (h *ShareHandler) Page(c echo.Context) error {
	tx := c.Param("tx")
	rec, err := h.repo.FindByTransaction(c.Request().Context(), tx)
	if errors.Is(err, domain.ErrNotFound) {
		return c.Render(http.StatusNotFound, "", view.NotFoundPage(tx))
	}
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "", view.SharePage(rec, view.ShareLinks{
		Page:     h.links.Share(tx),
		Explorer: h.links.Explorer(tx),
		QRCode:   h.links.QRCode(tx),
	}))
}

// QRCode handles GET /nft/:tx/qr.png, a QR code of the explorer link.
func (h *ShareHandler) QRCode(c echo.Context) error {
	tx := c.Param("tx")
	if _, err := h.repo.FindByTransaction(c.Request().Context(), tx); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "NFT not found")
		}
		return err
	}

	qr, err := qrcode.New(h.links.Explorer(tx), qrcode.Medium)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create QR code").SetInternal(err)
	}
	png, err := qr.PNG(qrSize)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate PNG").SetInternal(err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=86400")
	return c.Blob(http.StatusOK, "image/png", png)
}
