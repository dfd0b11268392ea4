package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/mintari/internal/flow"
	"github.com/nfrund/mintari/internal/ipfs"
	"github.com/nfrund/mintari/internal/mint"
)

// ErrorResponse is the standard format for API error responses.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// TransformMetadata describes a completed transformation.
type TransformMetadata struct {
	OriginalSize  int    `json:"originalSize"`
	OriginalType  string `json:"originalType"`
	TransformedAt string `json:"transformedAt"`
	Style         string `json:"style"`
	Provider      string `json:"provider"`
	Cached        bool   `json:"cached"`
	OriginalImage string `json:"originalImage,omitempty"`
}

type TransformResponse struct {
	Success          bool              `json:"success"`
	TransformedImage string            `json:"transformedImage"`
	Metadata         TransformMetadata `json:"metadata"`
}

type UploadResponse struct {
	Success bool `json:"success"`
	ipfs.Result
}

// TransactionInfo mirrors the chain transaction summary.
type TransactionInfo struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	MintAddress string `json:"mintAddress,omitempty"`
}

type MintResponse struct {
	Success       bool            `json:"success"`
	TransactionID string          `json:"transactionId"`
	Transaction   TransactionInfo `json:"transaction"`
	ExplorerURL   string          `json:"explorerUrl,omitempty"`
	ShareURL      string          `json:"shareUrl,omitempty"`
}

// FlowResponse is the session flow plus the derived progress step.
type FlowResponse struct {
	*flow.Flow
	Step int `json:"step"`
}

func newFlowResponse(f *flow.Flow) FlowResponse {
	return FlowResponse{Flow: f, Step: f.Step()}
}

type DeploymentResponse struct {
	Success bool `json:"success"`
	mint.Deployment
}

// WriteError renders err as an ErrorResponse. An *echo.HTTPError keeps its
// code and message; anything else becomes a 500.
func WriteError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	resp := ErrorResponse{Error: "Internal server error"}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		switch m := he.Message.(type) {
		case ErrorResponse:
			resp = m
		case string:
			resp.Error = m
		default:
			resp.Error = fmt.Sprint(m)
		}
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(code)
	} else {
		werr = c.JSON(code, resp)
	}
	if werr != nil {
		slog.ErrorContext(c.Request().Context(), "Failed to write error response", "error", werr)
	}
}
