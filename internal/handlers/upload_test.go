package handlers_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/mintari/internal/ipfs"
	"github.com/nfrund/mintari/internal/mint"
)

// fakeUploader stands in for the provider chain and the metadata store.
type fakeUploader struct {
	fail     bool
	lastFile ipfs.File
	lastJSON any
}

func (f *fakeUploader) Upload(ctx context.Context, file ipfs.File) (ipfs.Result, error) {
	f.lastFile = file
	if f.fail {
		return ipfs.Result{}, errors.Join(ipfs.ErrAllProvidersFailed, fmt.Errorf("Walrus: %w", errors.New("503")))
	}
	return ipfs.Result{URL: "https://aggregator/v1/blob-1", Hash: "blob-1", Provider: "Walrus"}, nil
}

func (f *fakeUploader) UploadWithLocalFallback(ctx context.Context, file ipfs.File) (ipfs.Result, error) {
	res, err := f.Upload(ctx, file)
	if err != nil {
		return ipfs.LocalFallback(file, testNow), nil
	}
	return res, nil
}

func (f *fakeUploader) Providers() []ipfs.ProviderStatus {
	return []ipfs.ProviderStatus{{Name: "Walrus", Configured: true}, {Name: "Pinata", Configured: false}}
}

func (f *fakeUploader) UploadJSON(ctx context.Context, v any, filename string) (ipfs.Result, error) {
	f.lastJSON = v
	if f.fail {
		return ipfs.Result{}, errors.New("walrus down")
	}
	return ipfs.Result{URL: "https://aggregator/v1/meta-1", Hash: "meta-1", Provider: "Walrus"}, nil
}

func TestUploadHandler_Upload(t *testing.T) {
	t.Run("first provider wins", func(t *testing.T) {
		app := newTestApp(t, &mint.MockMinter{})
		rec := app.doFile("/api/upload", "file", "art.png", "image/png", pngData, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := decode(t, rec)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "https://aggregator/v1/blob-1", body["url"])
		assert.Equal(t, "blob-1", body["hash"])
		assert.Equal(t, "Walrus", body["provider"])
		assert.Equal(t, "art.png", app.uploader.lastFile.Name)
		assert.Equal(t, "image/png", app.uploader.lastFile.ContentType)
	})

	t.Run("all providers failed", func(t *testing.T) {
		app := newTestApp(t, &mint.MockMinter{})
		app.uploader.fail = true
		rec := app.doFile("/api/upload", "file", "art.png", "image/png", pngData, nil)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, "All IPFS providers failed", decode(t, rec)["error"])
	})

	t.Run("local fallback", func(t *testing.T) {
		app := newTestApp(t, &mint.MockMinter{})
		app.uploader.fail = true
		rec := app.doFile("/api/upload", "file", "art.png", "image/png", pngData, map[string]string{"local_fallback": "true"})
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, ipfs.LocalProviderName, body["provider"])
		assert.Contains(t, body["url"], "data:image/png;base64,")
	})

	t.Run("missing and oversized files", func(t *testing.T) {
		app := newTestApp(t, &mint.MockMinter{})
		rec := app.doFile("/api/upload", "image", "art.png", "image/png", pngData, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = app.doFile("/api/upload", "file", "art.png", "image/png", make([]byte, testMaxSize+1), nil)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}

func TestUploadHandler_Metadata(t *testing.T) {
	app := newTestApp(t, &mint.MockMinter{})

	rec := app.doJSON(http.MethodPost, "/api/upload/metadata", map[string]any{
		"name":  "Totoro",
		"image": "https://aggregator/v1/blob-1",
		"attributes": []map[string]string{
			{"trait_type": "style", "value": "ghibli"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "https://aggregator/v1/meta-1", decode(t, rec)["url"])
	require.NotNil(t, app.uploader.lastJSON)

	rec = app.doJSON(http.MethodPost, "/api/upload/metadata", map[string]any{"name": "Totoro"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.doJSON(http.MethodPost, "/api/upload/metadata", map[string]any{"name": "   ", "image": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "blank name")

	app.uploader.fail = true
	rec = app.doJSON(http.MethodPost, "/api/upload/metadata", map[string]any{"name": "Totoro", "image": "x"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestUploadHandler_Providers(t *testing.T) {
	app := newTestApp(t, &mint.MockMinter{})
	rec := app.do(http.MethodGet, "/api/upload/providers", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	providers := decode(t, rec)["providers"].([]any)
	require.Len(t, providers, 2)
	assert.Equal(t, "Walrus", providers[0].(map[string]any)["name"])
	assert.Equal(t, false, providers[1].(map[string]any)["configured"])
}
