package transform

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// HTTPTransformer forwards images to a hosted image model. The request is a
// JSON document with the base64 image; the response carries the result URL in
// "imageUrl" or, for prediction-style APIs, in "output[0]".
type HTTPTransformer struct {
	endpoint string
	apiKey   string
	client   *http.Client
	limiter  *rate.Limiter
}

// NewHTTPTransformer throttles outbound calls to ratePerSec (no limit when <= 0).
func NewHTTPTransformer(endpoint, apiKey string, ratePerSec float64, timeout time.Duration) *HTTPTransformer {
	limit := rate.Inf
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPTransformer{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(limit, 1),
	}
}

type transformRequest struct {
	Image    string `json:"image"`
	MIMEType string `json:"mimeType"`
	Style    string `json:"style"`
}

func (h *HTTPTransformer) Transform(ctx context.Context, img Image) (Result, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrTransformFailed, err)
	}

	payload, err := json.Marshal(transformRequest{
		Image:    base64.StdEncoding.EncodeToString(img.Data),
		MIMEType: img.MIMEType,
		Style:    Style,
	})
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrTransformFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("%w: read response: %w", ErrTransformFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("%w: HTTP %d: %s", ErrTransformFailed, resp.StatusCode, bytes.TrimSpace(body))
	}

	url := gjson.GetBytes(body, "imageUrl").String()
	if url == "" {
		url = gjson.GetBytes(body, "output.0").String()
	}
	if url == "" {
		return Result{}, fmt.Errorf("%w: no image url in response", ErrTransformFailed)
	}
	return Result{URL: url, Provider: "http"}, nil
}
