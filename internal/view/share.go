// Package view holds the server-rendered pages.
package view

import (
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/nfrund/mintari/internal/domain"
)

// ShareLinks are the absolute URLs shown on a share page.
type ShareLinks struct {
	Page     string
	Explorer string
	QRCode   string
}

// SharePage renders the public page for a minted NFT, with Open Graph tags
// so links unfurl in chat apps.
func SharePage(rec *domain.MintRecord, links ShareLinks) g.Node {
	title := rec.Name + " by " + rec.Creator
	return layout(title,
		[]g.Node{
			h.Meta(g.Attr("property", "og:title"), h.Content(title)),
			h.Meta(g.Attr("property", "og:description"), h.Content(rec.Description)),
			g.If(!isDataURL(rec.Image), h.Meta(g.Attr("property", "og:image"), h.Content(rec.Image))),
			h.Meta(g.Attr("property", "og:url"), h.Content(links.Page)),
		},
		h.Main(h.Class("share"),
			h.H1(g.Text(rec.Name)),
			h.P(h.Class("creator"), g.Text("Created by "+rec.Creator)),
			h.Img(h.Src(rec.Image), h.Alt(rec.Name), h.Width("512")),
			g.If(rec.Description != "", h.P(h.Class("description"), g.Text(rec.Description))),
			h.Dl(
				h.Dt(g.Text("Transaction")),
				h.Dd(h.Code(g.Text(rec.TransactionID))),
				h.Dt(g.Text("Owner")),
				h.Dd(h.Code(g.Text(rec.Recipient))),
				h.Dt(g.Text("Minted")),
				h.Dd(h.Time(g.Attr("datetime", rec.MintedAt.UTC().Format("2006-01-02T15:04:05Z")), g.Text(rec.MintedAt.UTC().Format("Jan 2, 2006")))),
			),
			h.P(h.Class("links"),
				h.A(h.Href(links.Explorer), h.Target("_blank"), h.Rel("noopener"), g.Text("View on explorer")),
				g.Text(" · "),
				h.A(h.Class("share-link"), h.Href(links.Page), g.Text(links.Page)),
			),
			h.Img(h.Class("qr"), h.Src(links.QRCode), h.Alt("QR code for the transaction"), h.Width("256"), h.Height("256")),
		),
	)
}

// NotFoundPage is shown for unknown transactions.
func NotFoundPage(txID string) g.Node {
	return layout("NFT not found", nil,
		h.Main(h.Class("share"),
			h.H1(g.Text("NFT not found")),
			h.P(g.Text("No minted NFT matches transaction "), h.Code(g.Text(txID)), g.Text(".")),
		),
	)
}

func layout(title string, meta []g.Node, body g.Node) g.Node {
	return h.Doctype(
		h.HTML(h.Lang("en"),
			h.Head(
				h.Meta(h.Charset("utf-8")),
				h.Meta(h.Name("viewport"), h.Content("width=device-width, initial-scale=1")),
				h.TitleEl(g.Text(title+" · Mintari")),
				g.Group(meta),
			),
			h.Body(body),
		),
	)
}

func isDataURL(s string) bool {
	return len(s) >= 5 && s[:5] == "data:"
}
