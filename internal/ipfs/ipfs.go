// Package ipfs uploads files to decentralized storage. Providers are tried in a
// fixed order (Walrus, Pinata, Web3.Storage, NFT.Storage) and the first success
// wins.
package ipfs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"
)

var (
	// ErrNotConfigured is returned by a provider whose credentials are missing.
	ErrNotConfigured = errors.New("provider not configured")
	// ErrAllProvidersFailed is returned when no provider accepted the file.
	ErrAllProvidersFailed = errors.New("all IPFS providers failed")
	// ErrFileTooLarge is returned before any network call for oversized files.
	ErrFileTooLarge = errors.New("file too large")
)

const defaultFilename = "ghibli-nft.jpg"

// File is an in-memory upload payload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f File) filename() string {
	if f.Name == "" {
		return defaultFilename
	}
	return f.Name
}

func (f File) contentType() string {
	if f.ContentType == "" {
		return "image/jpeg"
	}
	return f.ContentType
}

// Result describes where an uploaded file can be fetched from.
type Result struct {
	URL         string `json:"url"`
	Hash        string `json:"hash"`
	Provider    string `json:"provider"`
	Size        int64  `json:"size,omitempty"`
	ContentType string `json:"contentType,omitempty"`
}

// Provider is one storage backend. Implementations hold no per-upload state.
type Provider interface {
	Name() string
	// Configured reports whether the provider has the credentials it needs.
	Configured() bool
	Upload(ctx context.Context, f File) (Result, error)
}

// StatusError carries a non-2xx HTTP response from a provider.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s upload failed: HTTP %d: %s", e.Provider, e.StatusCode, e.Body)
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}

// postMultipart sends f as the multipart field "file" and returns the
// response body of a 2xx reply.
func postMultipart(ctx context.Context, client *http.Client, provider, endpoint string, headers map[string]string, f File) ([]byte, error) {
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, f.filename()))
	h.Set("Content-Type", f.contentType())
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(f.Data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s upload failed: %w", provider, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%s upload failed: read response: %w", provider, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Provider: provider, StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
	}
	return data, nil
}
