package ipfs

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nfrund/mintari/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name       string
	configured bool
	err        error
	calls      int
}

func (f *fakeProvider) Name() string     { return f.name }
func (f *fakeProvider) Configured() bool { return f.configured }
func (f *fakeProvider) Upload(ctx context.Context, file File) (Result, error) {
	f.calls++
	if f.err != nil {
		return Result{}, f.err
	}
	return Result{URL: "https://" + f.name + "/x", Hash: f.name + "-hash"}, nil
}

func TestUploader_Upload(t *testing.T) {
	ctx := context.Background()
	file := File{Name: "a.jpg", Data: []byte("jpg")}

	t.Run("first success wins and later providers are not called", func(t *testing.T) {
		walrus := &fakeProvider{name: "Walrus", configured: true, err: errors.New("boom")}
		pinata := &fakeProvider{name: "Pinata", configured: true}
		web3 := &fakeProvider{name: "Web3Storage", configured: true}

		m := metrics.New()
		res, err := NewUploader(m, walrus, pinata, web3).Upload(ctx, file)
		require.NoError(t, err)
		assert.Equal(t, "Pinata", res.Provider)
		assert.Equal(t, "Pinata-hash", res.Hash)
		assert.Equal(t, 1, walrus.calls)
		assert.Equal(t, 0, web3.calls)

		count, err := testutil.GatherAndCount(m.Registry(), "mintari_storage_uploads_total")
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("unconfigured providers are skipped", func(t *testing.T) {
		pinata := &fakeProvider{name: "Pinata"}
		nft := &fakeProvider{name: "NFTStorage", configured: true}
		res, err := NewUploader(nil, pinata, nft).Upload(ctx, file)
		require.NoError(t, err)
		assert.Equal(t, "NFTStorage", res.Provider)
		assert.Equal(t, 0, pinata.calls)
	})

	t.Run("all providers fail", func(t *testing.T) {
		a := &fakeProvider{name: "Walrus", configured: true, err: errors.New("walrus down")}
		b := &fakeProvider{name: "Pinata"}
		_, err := NewUploader(nil, a, b).Upload(ctx, file)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrAllProvidersFailed)
		assert.ErrorIs(t, err, ErrNotConfigured)
		assert.Contains(t, err.Error(), "walrus down")
	})

	t.Run("local fallback", func(t *testing.T) {
		a := &fakeProvider{name: "Walrus", configured: true, err: errors.New("down")}
		u := NewUploader(nil, a)
		u.now = func() time.Time { return time.UnixMilli(1700000000000) }

		res, err := u.UploadWithLocalFallback(ctx, File{Data: []byte("hello")})
		require.NoError(t, err)
		assert.Equal(t, LocalProviderName, res.Provider)
		assert.Equal(t, "local_1700000000000", res.Hash)
		assert.Equal(t, "data:image/jpeg;base64,"+base64.StdEncoding.EncodeToString([]byte("hello")), res.URL)
	})

	t.Run("canceled context stops the chain", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		a := &fakeProvider{name: "Walrus", configured: true}
		_, err := NewUploader(nil, a).UploadWithLocalFallback(canceled, file)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, a.calls)
	})
}

func TestUploader_Providers(t *testing.T) {
	u := NewUploader(nil, NewWalrusClient("", "", ""), NewPinata("k", ""), NewWeb3Storage("t"), NewNFTStorage(""))
	assert.Equal(t, []ProviderStatus{
		{Name: "Walrus", Configured: true},
		{Name: "Pinata", Configured: false},
		{Name: "Web3Storage", Configured: true},
		{Name: "NFTStorage", Configured: false},
	}, u.Providers())
	assert.NotNil(t, u.Walrus())
}

func TestPinningServices(t *testing.T) {
	ctx := context.Background()
	file := File{Name: "a.jpg", Data: []byte("jpg")}

	serve := func(t *testing.T, check func(r *http.Request), body string) *httptest.Server {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			check(r)
			_, _ = io.WriteString(w, body)
		}))
		t.Cleanup(srv.Close)
		return srv
	}

	t.Run("pinata", func(t *testing.T) {
		p := NewPinata("key", "secret")
		p.endpoint = serve(t, func(r *http.Request) {
			assert.Equal(t, "key", r.Header.Get("pinata_api_key"))
			assert.Equal(t, "secret", r.Header.Get("pinata_secret_api_key"))
			assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		}, `{"IpfsHash":"QmPin","PinSize":3}`).URL

		res, err := p.Upload(ctx, file)
		require.NoError(t, err)
		assert.Equal(t, "https://gateway.pinata.cloud/ipfs/QmPin", res.URL)
		assert.Equal(t, "QmPin", res.Hash)
	})

	t.Run("web3.storage", func(t *testing.T) {
		p := NewWeb3Storage("tok")
		p.endpoint = serve(t, func(r *http.Request) {
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		}, `{"cid":"bafyweb3"}`).URL

		res, err := p.Upload(ctx, file)
		require.NoError(t, err)
		assert.Equal(t, "https://w3s.link/ipfs/bafyweb3", res.URL)
	})

	t.Run("nft.storage", func(t *testing.T) {
		p := NewNFTStorage("tok")
		p.endpoint = serve(t, func(r *http.Request) {}, `{"ok":true,"value":{"cid":"bafynft"}}`).URL

		res, err := p.Upload(ctx, file)
		require.NoError(t, err)
		assert.Equal(t, "https://nftstorage.link/ipfs/bafynft", res.URL)
	})

	t.Run("not configured", func(t *testing.T) {
		_, err := NewNFTStorage("").Upload(ctx, file)
		assert.ErrorIs(t, err, ErrNotConfigured)
		assert.Contains(t, err.Error(), "NFTStorage")
	})

	t.Run("error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		}))
		defer srv.Close()
		p := NewWeb3Storage("bad")
		p.endpoint = srv.URL

		_, err := p.Upload(ctx, file)
		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	})
}
