package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/mintari/internal/ipfs"
	"github.com/nfrund/mintari/internal/middleware"
	"github.com/nfrund/mintari/internal/mint"
)

// FileUploader is the storage provider chain.
type FileUploader interface {
	Upload(ctx context.Context, f ipfs.File) (ipfs.Result, error)
	UploadWithLocalFallback(ctx context.Context, f ipfs.File) (ipfs.Result, error)
	Providers() []ipfs.ProviderStatus
}

// UploadHandler pushes files to decentralized storage.
type UploadHandler struct {
	uploader FileUploader
	metadata mint.MetadataUploader
	maxBytes int64
}

// NewUploadHandler creates a new UploadHandler. metadata may be nil, which
// disables POST /api/upload/metadata.
func NewUploadHandler(uploader FileUploader, metadata mint.MetadataUploader, maxBytes int64) *UploadHandler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &UploadHandler{uploader: uploader, metadata: metadata, maxBytes: maxBytes}
}

// Upload handles POST /api/upload with a multipart "file" and an optional
// local_fallback=true form value.
func (h *UploadHandler) Upload(c echo.Context) error {
	ctx := c.Request().Context()
	logger := middleware.FromContext(ctx)

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "No file provided")
	}
	if fh.Size > h.maxBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "File too large")
	}
	src, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Could not read uploaded file").SetInternal(err)
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, h.maxBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Could not read uploaded file").SetInternal(err)
	}
	if int64(len(data)) > h.maxBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "File too large")
	}

	file := ipfs.File{
		Name:        fh.Filename,
		ContentType: detectMIME(fh.Header.Get(echo.HeaderContentType), data),
		Data:        data,
	}
	localFallback, _ := strconv.ParseBool(c.FormValue("local_fallback"))

	var res ipfs.Result
	if localFallback {
		res, err = h.uploader.UploadWithLocalFallback(ctx, file)
	} else {
		res, err = h.uploader.Upload(ctx, file)
	}
	switch {
	case errors.Is(err, ipfs.ErrFileTooLarge):
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "File too large")
	case errors.Is(err, ipfs.ErrAllProvidersFailed):
		logger.Error("All IPFS providers failed", "filename", file.Name, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "All IPFS providers failed").SetInternal(err)
	case err != nil:
		return err
	}

	logger.Info("File uploaded", "provider", res.Provider, "url", res.URL, "size", len(data))
	return c.JSON(http.StatusOK, UploadResponse{Success: true, Result: res})
}

// UploadMetadata handles POST /api/upload/metadata.
func (h *UploadHandler) UploadMetadata(c echo.Context) error {
	if h.metadata == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Metadata storage is not configured")
	}
	var req UploadMetadataRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format.")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := h.metadata.UploadJSON(c.Request().Context(), req, "metadata.json")
	if err != nil {
		middleware.FromContext(c.Request().Context()).Error("Metadata upload failed", "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "JSON upload failed").SetInternal(err)
	}
	return c.JSON(http.StatusOK, UploadResponse{Success: true, Result: res})
}

// Providers handles GET /api/upload/providers.
func (h *UploadHandler) Providers(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"providers": h.uploader.Providers()})
}
