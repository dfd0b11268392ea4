package ipfs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	DefaultWalrusPublisher  = "https://publisher-devnet.walrus.space"
	DefaultWalrusAggregator = "https://aggregator-devnet.walrus.space"

	walrusMaxSize    = 50 * 1024 * 1024
	walrusMaxRetries = 3
)

// WalrusClient talks to a Walrus publisher for writes and an aggregator for
// reads. Walrus needs no credentials; the API key is optional.
type WalrusClient struct {
	publisherURL  string
	aggregatorURL string
	apiKey        string
	client        *http.Client
	retryDelay    time.Duration
}

var _ Provider = (*WalrusClient)(nil)

// NewWalrusClient creates a client. Empty URLs fall back to the public devnet.
func NewWalrusClient(publisherURL, aggregatorURL, apiKey string) *WalrusClient {
	if publisherURL == "" {
		publisherURL = DefaultWalrusPublisher
	}
	if aggregatorURL == "" {
		aggregatorURL = DefaultWalrusAggregator
	}
	return &WalrusClient{
		publisherURL:  strings.TrimRight(publisherURL, "/"),
		aggregatorURL: strings.TrimRight(aggregatorURL, "/"),
		apiKey:        apiKey,
		client:        newHTTPClient(),
		retryDelay:    time.Second,
	}
}

func (w *WalrusClient) Name() string     { return "Walrus" }
func (w *WalrusClient) Configured() bool { return true }

// BlobURL is the public aggregator URL of a blob.
func (w *WalrusClient) BlobURL(blobID string) string {
	return fmt.Sprintf("%s/v1/%s", w.aggregatorURL, blobID)
}

// Upload stores f, retrying up to three times with a linearly growing delay.
func (w *WalrusClient) Upload(ctx context.Context, f File) (Result, error) {
	if len(f.Data) > walrusMaxSize {
		return Result{}, fmt.Errorf("%w: %d bytes, max %d bytes", ErrFileTooLarge, len(f.Data), walrusMaxSize)
	}

	logger := slog.Default().With("provider", w.Name(), "file", f.filename())
	var lastErr error
	for attempt := 1; attempt <= walrusMaxRetries; attempt++ {
		res, err := w.store(ctx, f)
		if err == nil {
			logger.Debug("Walrus upload succeeded", "blob_id", res.Hash, "attempt", attempt)
			return res, nil
		}
		lastErr = err
		logger.Warn("Walrus upload attempt failed", "attempt", attempt, "error", err)

		if attempt < walrusMaxRetries {
			select {
			case <-ctx.Done():
				return Result{}, ctx.Err()
			case <-time.After(w.retryDelay * time.Duration(attempt)):
			}
		}
	}
	return Result{}, fmt.Errorf("upload failed after %d attempts: %w", walrusMaxRetries, lastErr)
}

// UploadJSON stores v as a pretty-printed JSON document.
func (w *WalrusClient) UploadJSON(ctx context.Context, v any, filename string) (Result, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return Result{}, fmt.Errorf("encode json: %w", err)
	}
	if filename == "" {
		filename = "metadata.json"
	}
	return w.Upload(ctx, File{Name: filename, ContentType: "application/json", Data: data})
}

func (w *WalrusClient) store(ctx context.Context, f File) (Result, error) {
	headers := map[string]string{}
	if w.apiKey != "" {
		headers["Authorization"] = "Bearer " + w.apiKey
	}

	body, err := postMultipart(ctx, w.client, w.Name(), w.publisherURL+"/v1/store", headers, f)
	if err != nil {
		return Result{}, err
	}

	blob := gjson.GetBytes(body, "newlyCreated.blobObject")
	if !blob.Exists() {
		blob = gjson.GetBytes(body, "alreadyCertified")
	}
	blobID := blob.Get("blobId").String()
	if blobID == "" {
		return Result{}, errors.New("no blob ID returned from Walrus")
	}

	contentType := blob.Get("contentType").String()
	if contentType == "" {
		contentType = f.contentType()
	}
	size := blob.Get("size").Int()
	if size == 0 {
		size = int64(len(f.Data))
	}

	url := w.BlobURL(blobID)
	w.verify(ctx, url)

	return Result{
		URL:         url,
		Hash:        blobID,
		Provider:    w.Name(),
		Size:        size,
		ContentType: contentType,
	}, nil
}

// verify checks the aggregator can serve the blob. Failures only log; freshly
// stored blobs can take a moment to propagate.
func (w *WalrusClient) verify(ctx context.Context, url string) {
	ok, err := w.head(ctx, url)
	if err != nil {
		slog.Warn("Could not verify uploaded content", "url", url, "error", err)
		return
	}
	if !ok {
		slog.Warn("Uploaded content not immediately accessible via aggregator", "url", url)
	}
}

func (w *WalrusClient) head(ctx context.Context, url string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return false, err
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode <= 299, nil
}

// GetContent fetches a blob from the aggregator. The caller closes the body.
func (w *WalrusClient) GetContent(ctx context.Context, blobID string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.BlobURL(blobID), nil)
	if err != nil {
		return nil, err
	}
	return w.client.Do(req)
}

// BlobExists reports whether the aggregator serves blobID. Network errors
// count as "does not exist".
func (w *WalrusClient) BlobExists(ctx context.Context, blobID string) bool {
	ok, err := w.head(ctx, w.BlobURL(blobID))
	return err == nil && ok
}
