package handlers

import (
	"net/url"
	"strings"
)

// Links builds the public URLs handed out for a mint.
type Links struct {
	BaseURL       string
	ExplorerTxURL string
}

// Explorer returns the block explorer URL for txID.
func (l Links) Explorer(txID string) string {
	return l.ExplorerTxURL + url.PathEscape(txID)
}

// Share returns the share page URL for txID.
func (l Links) Share(txID string) string {
	return strings.TrimRight(l.BaseURL, "/") + "/nft/" + url.PathEscape(txID)
}

// QRCode returns the share page's QR code image URL for txID.
func (l Links) QRCode(txID string) string {
	return l.Share(txID) + "/qr.png"
}
