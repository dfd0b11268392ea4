package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/afero"
	"github.com/surrealdb/surrealdb.go"

	"github.com/nfrund/mintari/internal/analytics"
	"github.com/nfrund/mintari/internal/config"
	"github.com/nfrund/mintari/internal/database"
	"github.com/nfrund/mintari/internal/domain"
	"github.com/nfrund/mintari/internal/flow"
	"github.com/nfrund/mintari/internal/handlers"
	"github.com/nfrund/mintari/internal/hub"
	"github.com/nfrund/mintari/internal/ipfs"
	"github.com/nfrund/mintari/internal/kv"
	"github.com/nfrund/mintari/internal/metrics"
	"github.com/nfrund/mintari/internal/middleware"
	"github.com/nfrund/mintari/internal/mint"
	"github.com/nfrund/mintari/internal/pubsub"
	"github.com/nfrund/mintari/internal/rendering"
	"github.com/nfrund/mintari/internal/storage"
	"github.com/nfrund/mintari/internal/transform"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	E   *echo.Echo
	Cfg *config.Config

	ctx    context.Context
	cancel context.CancelFunc

	metrics      *metrics.Metrics
	kv           kv.Store
	db           *surrealdb.DB
	bus          *pubsub.WatermillBridge
	shutdownOTel func()
	tracker      *analytics.Tracker
	pruner       *analytics.Pruner
	hub          *hub.Hub
	transformer  transform.Transformer
	uploader     *ipfs.Uploader
	repo         domain.MintRepository
	sessions     *flow.SessionStore
	originals    *handlers.Originals
	service      *mint.Service
	registry     *mint.ContractRegistry
	links        handlers.Links
}

// New wires every service from cfg. Backends that are not configured fall
// back to local ones: the file KV store, in-memory mint history, the mock
// transformer and the mock minter.
func New(cfg *config.Config) (*Server, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		Cfg:     cfg,
		ctx:     ctx,
		cancel:  cancel,
		metrics: metrics.New(),
		links:   handlers.Links{BaseURL: cfg.AppBaseURL, ExplorerTxURL: cfg.Mint.ExplorerTxURL},
	}

	if err := s.init(); err != nil {
		// Release whatever was set up before the failure.
		_ = s.Shutdown(context.Background())
		return nil, err
	}
	s.E = s.newEcho()
	return s, nil
}

func (s *Server) init() error {
	cfg := s.Cfg

	if cfg.Redis.Addr != "" {
		store, err := kv.NewRedisStore(s.ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		s.kv = store
	} else {
		store, err := kv.NewFileStore(afero.NewOsFs(), cfg.KVDir)
		if err != nil {
			return fmt.Errorf("failed to open kv store: %w", err)
		}
		s.kv = store
	}

	tracer, shutdownOTel, err := pubsub.SetupOTel(s.ctx, cfg.Tracing, config.Version)
	if err != nil {
		return err
	}
	s.shutdownOTel = shutdownOTel
	s.bus = pubsub.NewWatermillBridgeWithTracer(tracer)

	s.tracker = analytics.NewTracker(s.ctx, s.kv, s.bus, s.metrics)
	if cfg.Analytics.Endpoint != "" {
		fwd := analytics.NewForwarder(cfg.Analytics.Endpoint, s.tracker.SessionID())
		if err := fwd.Start(s.ctx, s.bus); err != nil {
			return fmt.Errorf("failed to start analytics forwarder: %w", err)
		}
	}
	s.pruner, err = analytics.NewPruner(s.tracker, cfg.Analytics.PruneSchedule, cfg.Analytics.RetentionDays)
	if err != nil {
		return err
	}
	s.pruner.Start()

	s.hub = hub.NewHub()
	go s.hub.Run(s.ctx)
	if err := s.hub.Relay(s.ctx, s.bus, analytics.SponsorEventTopic.Name()); err != nil {
		return fmt.Errorf("failed to relay sponsor events: %w", err)
	}

	s.transformer, err = transform.NewFromConfig(s.ctx, cfg.Transform, s.metrics)
	if err != nil {
		return err
	}
	s.uploader = ipfs.NewFromConfig(cfg.Storage, s.metrics)

	if cfg.Surreal.URL != "" {
		s.db, err = database.NewDB(s.ctx, cfg.Surreal)
		if err != nil {
			return err
		}
		s.repo = database.NewMintStore(s.db)
	} else {
		slog.Info("SURREAL_URL not set, keeping mint history in memory")
		s.repo = database.NewMemoryMintStore()
	}

	var (
		minter   mint.Minter
		deployer mint.Deployer
	)
	switch cfg.Mint.Mode {
	case "solana":
		sm, err := mint.NewSolanaMinter(cfg.Mint.SolanaRPCURL, cfg.Mint.SolanaKeypair, cfg.Mint.Symbol, cfg.Mint.SellerFeeBps)
		if err != nil {
			return err
		}
		minter = sm
		deployer = mint.NewSolanaDeployer(sm, cfg.Mint.CollectionName, cfg.AppBaseURL)
	default:
		minter = mint.NewMockMinter()
		deployer = mint.NewMockDeployer(cfg.Mint.ContractOwner)
	}

	var metadata mint.MetadataUploader
	if w := s.uploader.Walrus(); w != nil && cfg.Mint.UploadMetadata {
		metadata = w
	}
	s.service = mint.NewService(minter, s.repo, metadata, s.metrics)
	s.registry = mint.NewContractRegistry(s.kv, deployer)

	s.sessions = flow.NewSessionStore(cfg.FlowCredits)
	s.originals = handlers.NewOriginals(storage.NewAferoStore(afero.NewOsFs(), cfg.UploadDir), cfg.AppBaseURL)

	slog.Info("Services initialized",
		"transform_mode", cfg.Transform.Mode,
		"mint_mode", cfg.Mint.Mode,
		"redis", cfg.Redis.Addr != "",
		"surreal", cfg.Surreal.URL != "",
	)
	return nil
}

func (s *Server) newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewValidator()
	e.Renderer = rendering.NewRenderer()
	setupErrorHandling(e)

	e.Use(echomw.RequestID())
	e.Use(middleware.Logger)
	e.Use(echomw.Recover())
	e.Use(middleware.Metrics(s.metrics))
	// Multipart overhead on top of the largest accepted image.
	e.Use(echomw.BodyLimit(fmt.Sprintf("%dK", s.Cfg.UploadMaxBytes/1024+64)))

	store := sessions.NewCookieStore([]byte(s.Cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
	}
	e.Use(session.Middleware(store))
	return e
}

// Tracker exposes the analytics tracker, useful for testing.
func (s *Server) Tracker() *analytics.Tracker {
	return s.tracker
}
