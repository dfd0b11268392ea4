package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/mintari/internal/handlers"
	"github.com/nfrund/mintari/internal/middleware"
	"github.com/nfrund/mintari/internal/mint"
	"github.com/nfrund/mintari/internal/websocket"
)

// RegisterRoutes sets up all the application routes.
func (s *Server) RegisterRoutes() {
	maxBytes := s.Cfg.UploadMaxBytes
	rateLimiter := middleware.RateLimiter(s.Cfg.RateLimitPerMinute)

	var metadata mint.MetadataUploader
	if w := s.uploader.Walrus(); w != nil {
		metadata = w
	}

	transformHandler := handlers.NewTransformHandler(s.transformer, s.originals, s.sessions, maxBytes)
	flowHandler := handlers.NewFlowHandler(s.sessions, s.transformer, s.originals, s.service, s.links, maxBytes)
	mintHandler := handlers.NewMintHandler(s.service, s.registry, s.repo, s.sessions, s.links)
	uploadHandler := handlers.NewUploadHandler(s.uploader, metadata, maxBytes)
	analyticsHandler := handlers.NewAnalyticsHandler(s.tracker)
	shareHandler := handlers.NewShareHandler(s.repo, s.links)
	feed := websocket.NewFeed(s.hub, s.Cfg.WSOriginPatterns)

	s.E.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
	s.E.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))

	api := s.E.Group("/api")

	api.POST("/ghibli", transformHandler.Ghibli, rateLimiter)
	s.E.GET(handlers.OriginalsRoute+"*", s.originals.Serve)

	api.GET("/flow", flowHandler.Get)
	api.POST("/flow/wallet", flowHandler.ConnectWallet)
	api.POST("/flow/disconnect", flowHandler.Disconnect)
	api.GET("/rewards", flowHandler.Rewards)

	f := api.Group("/flow", middleware.RequireWallet(s.sessions))
	f.POST("/transform", flowHandler.Transform, rateLimiter)
	f.POST("/regenerate", flowHandler.Regenerate, rateLimiter)
	f.POST("/confirm", flowHandler.Confirm)
	f.POST("/cancel", flowHandler.Cancel)
	f.POST("/mint", flowHandler.Mint, rateLimiter)
	f.POST("/another", flowHandler.Another)
	f.POST("/rewards/:id", flowHandler.ClaimReward)

	api.POST("/mint", mintHandler.Mint, rateLimiter)
	api.GET("/mint/collection/:address", mintHandler.Collection)
	api.POST("/mint/collection/:address/setup", mintHandler.SetupCollection, rateLimiter)
	api.GET("/contract", mintHandler.Contract)
	api.POST("/contract/deploy", mintHandler.DeployContract, rateLimiter)
	api.GET("/nfts", mintHandler.NFTs)
	api.GET("/nfts/:tx", mintHandler.NFT)

	api.POST("/upload", uploadHandler.Upload, rateLimiter)
	api.POST("/upload/metadata", uploadHandler.UploadMetadata, rateLimiter)
	api.GET("/upload/providers", uploadHandler.Providers)

	api.POST("/analytics/sponsor", analyticsHandler.Track)
	api.GET("/analytics/summary", analyticsHandler.Summary)
	api.GET("/analytics/sponsors/:id/events", analyticsHandler.SponsorEvents)
	api.DELETE("/analytics/events", analyticsHandler.ClearOld)
	api.GET("/sponsors", analyticsHandler.Sponsors)
	api.GET("/topics", analyticsHandler.Topics)

	s.E.GET("/ws/analytics", feed.Handle)

	s.E.GET("/nft/:tx", shareHandler.Page)
	s.E.GET("/nft/:tx/qr.png", shareHandler.QRCode)
}
