package handlers_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/mintari/internal/mint"
)

func TestFlowHandler_CreateAndMint(t *testing.T) {
	app := newTestApp(t, &mint.MockMinter{})

	rec := app.do(http.MethodGet, "/api/flow", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "wallet", body["state"])
	assert.Equal(t, float64(1), body["step"])
	assert.Equal(t, float64(5), body["credits"])
	sessionID := body["sessionId"]

	// Everything past the wallet step needs a connected wallet.
	rec = app.doFile("/api/flow/transform", "image", "cat.png", "image/png", pngData, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.doJSON(http.MethodPost, "/api/flow/wallet", map[string]string{"address": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.doJSON(http.MethodPost, "/api/flow/wallet", map[string]string{"address": testWallet})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = decode(t, rec)
	assert.Equal(t, "upload", body["state"])
	assert.Equal(t, sessionID, body["sessionId"])

	rec = app.doFile("/api/flow/transform", "image", "cat.png", "image/png", pngData, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = decode(t, rec)
	assert.Equal(t, "transform", body["state"])
	assert.Equal(t, float64(2), body["step"])
	assert.Equal(t, "https://ghibli.example/out.png", body["transformedImage"])
	original := body["originalImage"].(string)
	assert.True(t, strings.HasPrefix(original, testBaseURL+"/api/originals/"))

	// Regenerate spends a credit and bypasses the transform cache.
	app.transformer.res.URL = "https://ghibli.example/out-2.png"
	rec = app.do(http.MethodPost, "/api/flow/regenerate", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = decode(t, rec)
	assert.Equal(t, float64(4), body["credits"])
	assert.Equal(t, "https://ghibli.example/out-2.png", body["transformedImage"])
	assert.True(t, app.transformer.last().Fresh)
	assert.Equal(t, pngData, app.transformer.last().Data)

	rec = app.do(http.MethodPost, "/api/flow/confirm", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "metadata", decode(t, rec)["state"])

	rec = app.doJSON(http.MethodPost, "/api/flow/mint", map[string]string{"name": " ", "description": "d", "creator": ""})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "Invalid NFT metadata", body["error"])
	assert.ElementsMatch(t, []any{"name is required", "creator is required"}, body["details"])

	rec = app.doJSON(http.MethodPost, "/api/flow/mint", map[string]string{
		"name": "Forest Spirit", "description": "A walk in the woods", "creator": "Mei",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = decode(t, rec)
	txID := body["transactionId"].(string)
	assert.Regexp(t, `^0x[0-9a-f]{16}$`, txID)
	assert.Equal(t, "sealed", body["transaction"].(map[string]any)["status"])
	assert.Equal(t, "https://flowscan.org/transaction/"+txID, body["explorerUrl"])
	assert.Equal(t, testBaseURL+"/nft/"+txID, body["shareUrl"])
	assert.Equal(t, "success", body["flow"].(map[string]any)["state"])

	// The record is stored and shareable.
	rec = app.do(http.MethodGet, "/api/nfts/"+txID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Forest Spirit", decode(t, rec)["name"])

	rec = app.do(http.MethodGet, "/nft/"+txID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Forest Spirit")
	assert.Contains(t, rec.Body.String(), "https://ghibli.example/out-2.png")

	rec = app.do(http.MethodGet, "/nft/"+txID+"/qr.png", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))

	// Rewards can be claimed once each.
	rec = app.do(http.MethodPost, "/api/flow/rewards/credits", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(9), decode(t, rec)["flow"].(map[string]any)["credits"])

	rec = app.do(http.MethodPost, "/api/flow/rewards/credits", nil, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = app.do(http.MethodPost, "/api/flow/rewards/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.do(http.MethodPost, "/api/flow/another", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "upload", body["state"])
	assert.Equal(t, testWallet, body["walletAddress"])
	assert.Nil(t, body["transformedImage"])
	assert.Equal(t, float64(9), body["credits"])

	rec = app.do(http.MethodPost, "/api/flow/disconnect", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "wallet", body["state"])
	assert.Nil(t, body["walletAddress"])
	assert.Equal(t, sessionID, body["sessionId"])
}

func TestFlowHandler_InvalidTransitions(t *testing.T) {
	app := newTestApp(t, &mint.MockMinter{})
	require.Equal(t, http.StatusOK, app.doJSON(http.MethodPost, "/api/flow/wallet", map[string]string{"address": testWallet}).Code)

	for _, path := range []string{"/api/flow/confirm", "/api/flow/cancel", "/api/flow/regenerate", "/api/flow/another"} {
		rec := app.do(http.MethodPost, path, nil, "")
		assert.Equal(t, http.StatusConflict, rec.Code, path)
	}

	rec := app.doJSON(http.MethodPost, "/api/flow/wallet", map[string]string{"address": testWallet})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestFlowHandler_TransformInWrongStateKeepsNoOriginal(t *testing.T) {
	app := newTestApp(t, &mint.MockMinter{})
	require.Equal(t, http.StatusOK, app.doJSON(http.MethodPost, "/api/flow/wallet", map[string]string{"address": testWallet}).Code)

	rec := app.doFile("/api/flow/transform", "image", "cat.png", "image/png", pngData, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, 1, app.originalCount(t))

	rec = app.doFile("/api/flow/transform", "image", "dog.png", "image/png", pngData, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 1, app.originalCount(t))
}

func TestFlowHandler_TransformFailureReturnsToUpload(t *testing.T) {
	app := newTestApp(t, &mint.MockMinter{})
	require.Equal(t, http.StatusOK, app.doJSON(http.MethodPost, "/api/flow/wallet", map[string]string{"address": testWallet}).Code)

	app.transformer.err = errors.New("model offline")
	rec := app.doFile("/api/flow/transform", "image", "cat.png", "image/png", pngData, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = app.do(http.MethodGet, "/api/flow", nil, "")
	body := decode(t, rec)
	assert.Equal(t, "upload", body["state"])
	assert.Nil(t, body["originalImage"])
}

func TestFlowHandler_RegenerateWithoutCredits(t *testing.T) {
	app := newTestApp(t, &mint.MockMinter{})
	require.Equal(t, http.StatusOK, app.doJSON(http.MethodPost, "/api/flow/wallet", map[string]string{"address": testWallet}).Code)
	require.Equal(t, http.StatusOK, app.doFile("/api/flow/transform", "image", "cat.png", "image/png", pngData, nil).Code)

	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, app.do(http.MethodPost, "/api/flow/regenerate", nil, "").Code)
	}
	rec := app.do(http.MethodPost, "/api/flow/regenerate", nil, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "credits")
}

func TestFlowHandler_MintFailureReturnsToMetadata(t *testing.T) {
	app := newTestApp(t, failingMinter{})
	require.Equal(t, http.StatusOK, app.doJSON(http.MethodPost, "/api/flow/wallet", map[string]string{"address": testWallet}).Code)
	require.Equal(t, http.StatusOK, app.doFile("/api/flow/transform", "image", "cat.png", "image/png", pngData, nil).Code)
	require.Equal(t, http.StatusOK, app.do(http.MethodPost, "/api/flow/confirm", nil, "").Code)

	rec := app.doJSON(http.MethodPost, "/api/flow/mint", map[string]string{"name": "n", "description": "d", "creator": "c"})
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Minting failed", decode(t, rec)["error"])

	body := decode(t, app.do(http.MethodGet, "/api/flow", nil, ""))
	assert.Equal(t, "metadata", body["state"])
	assert.Equal(t, "chain unavailable", body["mintError"])
}

func TestFlowHandler_Rewards(t *testing.T) {
	app := newTestApp(t, &mint.MockMinter{})
	rec := app.do(http.MethodGet, "/api/rewards", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["rewards"], 4)
}
