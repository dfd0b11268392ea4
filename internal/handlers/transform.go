package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/mintari/internal/flow"
	"github.com/nfrund/mintari/internal/middleware"
	"github.com/nfrund/mintari/internal/transform"
)

// TransformHandler is the stateless transformation proxy.
type TransformHandler struct {
	transformer transform.Transformer
	originals   *Originals
	sessions    *flow.SessionStore
	maxBytes    int64
	now         func() time.Time
}

// NewTransformHandler creates a new TransformHandler.
func NewTransformHandler(t transform.Transformer, originals *Originals, sessions *flow.SessionStore, maxBytes int64) *TransformHandler {
	return &TransformHandler{
		transformer: t,
		originals:   originals,
		sessions:    sessions,
		maxBytes:    maxBytes,
		now:         time.Now,
	}
}

// Ghibli handles POST /api/ghibli with a multipart "image" field.
func (h *TransformHandler) Ghibli(c echo.Context) error {
	ctx := c.Request().Context()
	logger := middleware.FromContext(ctx)

	img, err := readImage(c, "image", h.maxBytes)
	if err != nil {
		return err
	}

	// The original is kept under the browser's flow session so a later
	// regenerate can find it. Failing to keep it does not fail the request.
	var originalURL string
	f, err := h.sessions.Load(c)
	if err == nil {
		originalURL, err = h.originals.Save(ctx, f.SessionID, img)
	}
	if err == nil {
		err = h.sessions.Save(c, f)
	}
	if err != nil {
		logger.Warn("Failed to keep original image", "error", err)
	}

	res, err := h.transformer.Transform(ctx, img)
	if err != nil {
		logger.Error("Ghibli transformation error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Image transformation failed").SetInternal(err)
	}

	return c.JSON(http.StatusOK, TransformResponse{
		Success:          true,
		TransformedImage: res.URL,
		Metadata: TransformMetadata{
			OriginalSize:  len(img.Data),
			OriginalType:  img.MIMEType,
			TransformedAt: h.now().UTC().Format(time.RFC3339),
			Style:         transform.Style,
			Provider:      res.Provider,
			Cached:        res.Cached,
			OriginalImage: originalURL,
		},
	})
}
