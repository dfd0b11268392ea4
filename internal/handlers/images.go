package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/mintari/internal/flow"
	"github.com/nfrund/mintari/internal/storage"
	"github.com/nfrund/mintari/internal/transform"
)

const (
	// OriginalsRoute is where stored originals are served from.
	OriginalsRoute = "/api/originals/"
	// DefaultMaxUploadBytes applies when no limit is configured.
	DefaultMaxUploadBytes = 10 << 20
)

// readImage reads and checks the multipart image in field.
func readImage(c echo.Context, field string, maxBytes int64) (transform.Image, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	fh, err := c.FormFile(field)
	if err != nil {
		return transform.Image{}, echo.NewHTTPError(http.StatusBadRequest, "No image file provided")
	}
	tooLarge := echo.NewHTTPError(http.StatusRequestEntityTooLarge,
		fmt.Sprintf("Image must be at most %d bytes", maxBytes))
	if fh.Size > maxBytes {
		return transform.Image{}, tooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return transform.Image{}, echo.NewHTTPError(http.StatusBadRequest, "Could not read uploaded file").SetInternal(err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return transform.Image{}, echo.NewHTTPError(http.StatusBadRequest, "Could not read uploaded file").SetInternal(err)
	}
	if int64(len(data)) > maxBytes {
		return transform.Image{}, tooLarge
	}
	if len(data) == 0 {
		return transform.Image{}, echo.NewHTTPError(http.StatusBadRequest, "No image file provided")
	}

	mimeType := detectMIME(fh.Header.Get(echo.HeaderContentType), data)
	if !strings.HasPrefix(mimeType, "image/") {
		return transform.Image{}, echo.NewHTTPError(http.StatusUnsupportedMediaType, "File must be an image")
	}
	return transform.Image{Data: data, MIMEType: mimeType, Filename: fh.Filename}, nil
}

// detectMIME trusts the declared type unless it is missing or generic.
func detectMIME(declared string, data []byte) string {
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil || mediaType == "" || mediaType == "application/octet-stream" {
		mediaType, _, _ = mime.ParseMediaType(http.DetectContentType(data))
	}
	return mediaType
}

// Originals keeps uploaded source images so they can be transformed again
// and linked from NFT metadata.
type Originals struct {
	store   storage.Store
	baseURL string
}

// NewOriginals serves files from store; references are absolute URLs under
// baseURL.
func NewOriginals(store storage.Store, baseURL string) *Originals {
	return &Originals{store: store, baseURL: strings.TrimRight(baseURL, "/")}
}

// Save stores img for a session and returns its public URL.
func (o *Originals) Save(ctx context.Context, sessionID string, img transform.Image) (string, error) {
	p := storage.OriginalPath(sessionID, img.MIMEType, img.Filename)
	if _, err := o.store.Save(ctx, p, bytes.NewReader(img.Data)); err != nil {
		return "", fmt.Errorf("save original %s: %w", p, err)
	}
	return o.baseURL + OriginalsRoute + p, nil
}

// Delete removes an image saved by Save. Unknown references are ignored.
func (o *Originals) Delete(ctx context.Context, ref string) error {
	p, ok := strings.CutPrefix(ref, o.baseURL+OriginalsRoute)
	if !ok || p == "" {
		return nil
	}
	if err := o.store.Delete(ctx, p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete original %s: %w", p, err)
	}
	return nil
}

// Load reads back an image saved by Save. Unknown references wrap
// flow.ErrNoOriginal.
func (o *Originals) Load(ctx context.Context, ref string) (transform.Image, error) {
	p, ok := strings.CutPrefix(ref, o.baseURL+OriginalsRoute)
	if !ok || ref == "" {
		return transform.Image{}, flow.ErrNoOriginal
	}
	rc, err := o.store.Get(ctx, p)
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, storage.ErrInvalidPath) {
		return transform.Image{}, fmt.Errorf("%w: %s", flow.ErrNoOriginal, p)
	}
	if err != nil {
		return transform.Image{}, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return transform.Image{}, err
	}
	return transform.Image{
		Data:     data,
		MIMEType: detectMIME(mime.TypeByExtension(path.Ext(p)), data),
		Filename: path.Base(p),
	}, nil
}

// Serve handles GET /api/originals/*.
func (o *Originals) Serve(c echo.Context) error {
	p, err := storage.Clean(c.Param("*"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Image not found")
	}
	rc, err := o.store.Get(c.Request().Context(), p)
	if errors.Is(err, fs.ErrNotExist) {
		return echo.NewHTTPError(http.StatusNotFound, "Image not found")
	}
	if err != nil {
		return err
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(p))
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=31536000, immutable")
	return c.Stream(http.StatusOK, contentType, rc)
}
