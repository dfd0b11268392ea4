package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/mintari/internal/analytics"
	"github.com/nfrund/mintari/internal/database"
	"github.com/nfrund/mintari/internal/domain"
	"github.com/nfrund/mintari/internal/flow"
	"github.com/nfrund/mintari/internal/handlers"
	"github.com/nfrund/mintari/internal/kv"
	"github.com/nfrund/mintari/internal/middleware"
	"github.com/nfrund/mintari/internal/mint"
	"github.com/nfrund/mintari/internal/rendering"
	"github.com/nfrund/mintari/internal/storage"
	"github.com/nfrund/mintari/internal/transform"
)

const (
	testBaseURL = "http://localhost:8080"
	testWallet  = "0xf8d6e0586b0a20c7"
	testMaxSize = 1024
)

var pngData = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)

// stubTransformer records the images it receives.
type stubTransformer struct {
	mu    sync.Mutex
	res   transform.Result
	err   error
	calls []transform.Image
}

func (s *stubTransformer) Transform(ctx context.Context, img transform.Image) (transform.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, img)
	if s.err != nil {
		return transform.Result{}, s.err
	}
	return s.res, nil
}

func (s *stubTransformer) last() transform.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[len(s.calls)-1]
}

// failingMinter accepts every recipient but never mints.
type failingMinter struct{}

func (failingMinter) CheckCollection(ctx context.Context, address string) (bool, error) {
	return true, nil
}

func (failingMinter) SetupCollection(ctx context.Context, address string) (string, error) {
	return "", nil
}

func (failingMinter) Mint(ctx context.Context, req domain.MintRequest) (mint.Result, error) {
	return mint.Result{}, fmt.Errorf("chain unavailable")
}

// testApp wires the handlers the way the server does, on in-memory stores.
type testApp struct {
	e           *echo.Echo
	transformer *stubTransformer
	repo        *database.MemoryMintStore
	tracker     *analytics.Tracker
	uploader    *fakeUploader
	uploads     afero.Fs
	cookies     map[string]*http.Cookie
}

// originalCount returns how many originals are stored.
func (a *testApp) originalCount(t *testing.T) int {
	t.Helper()
	n := 0
	err := afero.Walk(a.uploads, "uploads", func(p string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			n++
		}
		return nil
	})
	require.NoError(t, err)
	return n
}

func newTestApp(t *testing.T, minter mint.Minter) *testApp {
	t.Helper()
	ctx := context.Background()

	kvStore, err := kv.NewFileStore(afero.NewMemMapFs(), "kv")
	require.NoError(t, err)

	app := &testApp{
		transformer: &stubTransformer{res: transform.Result{URL: "https://ghibli.example/out.png", Provider: "mock"}},
		repo:        database.NewMemoryMintStore(),
		tracker:     analytics.NewTracker(ctx, kvStore, nil, nil),
		uploader:    &fakeUploader{},
		uploads:     afero.NewMemMapFs(),
		cookies:     map[string]*http.Cookie{},
	}

	links := handlers.Links{BaseURL: testBaseURL, ExplorerTxURL: "https://flowscan.org/transaction/"}
	flows := flow.NewSessionStore(flow.DefaultCredits)
	originals := handlers.NewOriginals(storage.NewAferoStore(app.uploads, "uploads"), testBaseURL)
	service := mint.NewService(minter, app.repo, nil, nil)
	registry := mint.NewContractRegistry(kvStore, mint.NewMockDeployer(testWallet))

	transformHandler := handlers.NewTransformHandler(app.transformer, originals, flows, testMaxSize)
	flowHandler := handlers.NewFlowHandler(flows, app.transformer, originals, service, links, testMaxSize)
	mintHandler := handlers.NewMintHandler(service, registry, app.repo, flows, links)
	uploadHandler := handlers.NewUploadHandler(app.uploader, app.uploader, testMaxSize)
	analyticsHandler := handlers.NewAnalyticsHandler(app.tracker)
	shareHandler := handlers.NewShareHandler(app.repo, links)

	e := echo.New()
	e.Validator = handlers.NewValidator()
	e.Renderer = rendering.NewRenderer()
	e.HTTPErrorHandler = handlers.WriteError
	e.Use(echomw.RequestID())
	e.Use(middleware.Logger)
	e.Use(session.Middleware(sessions.NewCookieStore([]byte("test-secret"))))

	e.POST("/api/ghibli", transformHandler.Ghibli)
	e.GET(handlers.OriginalsRoute+"*", originals.Serve)

	e.GET("/api/flow", flowHandler.Get)
	e.POST("/api/flow/wallet", flowHandler.ConnectWallet)
	e.POST("/api/flow/disconnect", flowHandler.Disconnect)
	e.GET("/api/rewards", flowHandler.Rewards)
	g := e.Group("/api/flow", middleware.RequireWallet(flows))
	g.POST("/transform", flowHandler.Transform)
	g.POST("/regenerate", flowHandler.Regenerate)
	g.POST("/confirm", flowHandler.Confirm)
	g.POST("/cancel", flowHandler.Cancel)
	g.POST("/mint", flowHandler.Mint)
	g.POST("/another", flowHandler.Another)
	g.POST("/rewards/:id", flowHandler.ClaimReward)

	e.POST("/api/mint", mintHandler.Mint)
	e.GET("/api/mint/collection/:address", mintHandler.Collection)
	e.POST("/api/mint/collection/:address/setup", mintHandler.SetupCollection)
	e.GET("/api/contract", mintHandler.Contract)
	e.POST("/api/contract/deploy", mintHandler.DeployContract)
	e.GET("/api/nfts", mintHandler.NFTs)
	e.GET("/api/nfts/:tx", mintHandler.NFT)

	e.POST("/api/upload", uploadHandler.Upload)
	e.POST("/api/upload/metadata", uploadHandler.UploadMetadata)
	e.GET("/api/upload/providers", uploadHandler.Providers)

	e.POST("/api/analytics/sponsor", analyticsHandler.Track)
	e.GET("/api/analytics/summary", analyticsHandler.Summary)
	e.GET("/api/analytics/sponsors/:id/events", analyticsHandler.SponsorEvents)
	e.DELETE("/api/analytics/events", analyticsHandler.ClearOld)
	e.GET("/api/sponsors", analyticsHandler.Sponsors)
	e.GET("/api/topics", analyticsHandler.Topics)

	e.GET("/nft/:tx", shareHandler.Page)
	e.GET("/nft/:tx/qr.png", shareHandler.QRCode)

	app.e = e
	return app
}

// do sends a request carrying the cookies collected so far.
func (a *testApp) do(method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	for _, c := range a.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		a.cookies[c.Name] = c
	}
	return rec
}

func (a *testApp) doJSON(method, target string, v any) *httptest.ResponseRecorder {
	var body io.Reader
	if v != nil {
		b, _ := json.Marshal(v)
		body = bytes.NewReader(b)
	}
	return a.do(method, target, body, echo.MIMEApplicationJSON)
}

func (a *testApp) doFile(target, field, filename, contentType string, data []byte, fields map[string]string) *httptest.ResponseRecorder {
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, filename))
	h.Set("Content-Type", contentType)
	part, _ := w.CreatePart(h)
	_, _ = part.Write(data)
	_ = w.Close()
	return a.do(http.MethodPost, target, body, w.FormDataContentType())
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func localPath(url string) string {
	return strings.TrimPrefix(url, testBaseURL)
}
