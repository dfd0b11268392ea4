package handlers

import (
	"github.com/go-playground/validator/v10"

	"github.com/nfrund/mintari/internal/domain"
)

// CustomValidator wraps the go-playground/validator library to implement Echo's Validator interface.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new CustomValidator on the domain's validator, so
// request structs can use its custom tags such as "notblank".
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: domain.Validator()}
}

// Validate implements the echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// WalletRequest connects a wallet to the session flow.
type WalletRequest struct {
	Address string `json:"address" form:"address" validate:"required"`
}

// MetadataRequest is the NFT details form. Validation of the content itself
// happens in the domain so the same rules apply to every entry point.
type MetadataRequest struct {
	Name        string `json:"name" form:"name"`
	Description string `json:"description" form:"description"`
	Creator     string `json:"creator" form:"creator"`
}

// MintRequest mints either the session's artwork or, when Recipient and
// TransformedImage are given, an explicit one.
type MintRequest struct {
	MetadataRequest
	Recipient        string `json:"recipient"`
	TransformedImage string `json:"transformedImage"`
	OriginalImage    string `json:"originalImage"`
}

// UploadMetadataRequest is an NFT metadata document to store off-chain.
type UploadMetadataRequest struct {
	Name        string            `json:"name" validate:"notblank"`
	Description string            `json:"description"`
	Image       string            `json:"image" validate:"required"`
	Creator     string            `json:"creator"`
	Attributes  []AttributeDTO    `json:"attributes" validate:"dive"`
	Properties  map[string]string `json:"properties"`
}

type AttributeDTO struct {
	TraitType string `json:"trait_type" validate:"required"`
	Value     string `json:"value"`
}
