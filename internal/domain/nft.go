package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// validatorInstance is a package-level validator instance.
// Using a single instance is more efficient as it caches struct information.
var validatorInstance = validator.New()

// init registers custom validation functions with the validator instance.
func init() {
	_ = validatorInstance.RegisterValidation("notblank", validateNotBlank)
}

// Validator returns the shared validator with the custom tags registered.
func Validator() *validator.Validate {
	return validatorInstance
}

// validateNotBlank rejects strings that are empty after trimming whitespace.
func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// NFTMetadata is the user-entered description of the artwork being minted.
type NFTMetadata struct {
	Name        string `json:"name" validate:"notblank,max=64"`
	Description string `json:"description" validate:"notblank,max=1000"`
	Creator     string `json:"creator" validate:"notblank,max=64"`
}

// Normalize trims surrounding whitespace from every field.
func (m NFTMetadata) Normalize() NFTMetadata {
	return NFTMetadata{
		Name:        strings.TrimSpace(m.Name),
		Description: strings.TrimSpace(m.Description),
		Creator:     strings.TrimSpace(m.Creator),
	}
}

// Validate checks the metadata and returns an error wrapping ErrInvalidMetadata
// that names the offending fields.
func (m NFTMetadata) Validate() error {
	err := validatorInstance.Struct(m)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	return fmt.Errorf("%w: %s", ErrInvalidMetadata, strings.Join(FieldErrors(verrs), "; "))
}

// FieldErrors turns validator errors into short, user-facing messages.
func FieldErrors(verrs validator.ValidationErrors) []string {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "notblank", "required":
			msgs = append(msgs, field+" is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return msgs
}

// MintRequest carries everything needed to mint one NFT.
type MintRequest struct {
	Recipient        string      `json:"recipient" validate:"required"`
	Metadata         NFTMetadata `json:"metadata"`
	OriginalImage    string      `json:"originalImage"`
	TransformedImage string      `json:"transformedImage" validate:"required"`
	Thumbnail        string      `json:"thumbnail,omitempty"`
	MetadataURI      string      `json:"metadataUri,omitempty"`
}

// Validate checks the request fields and the nested metadata.
func (r MintRequest) Validate() error {
	if err := r.Metadata.Validate(); err != nil {
		return err
	}
	if err := validatorInstance.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("%w: %s", ErrInvalidMetadata, strings.Join(FieldErrors(verrs), "; "))
		}
		return err
	}
	return nil
}

// MintRecord is the persisted outcome of a successful mint.
type MintRecord struct {
	TransactionID string    `json:"transactionId"`
	MintAddress   string    `json:"mintAddress,omitempty"`
	Recipient     string    `json:"recipient"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Creator       string    `json:"creator"`
	Image         string    `json:"image"`
	OriginalImage string    `json:"originalImage,omitempty"`
	MetadataURI   string    `json:"metadataUri,omitempty"`
	Status        string    `json:"status"`
	MintedAt      time.Time `json:"mintedAt"`
}

// MintRepository stores mint history.
type MintRepository interface {
	Save(ctx context.Context, rec *MintRecord) error
	// FindByTransaction returns ErrNotFound when no record matches.
	FindByTransaction(ctx context.Context, txID string) (*MintRecord, error)
	// ListByRecipient returns records newest first.
	ListByRecipient(ctx context.Context, recipient string, limit int) ([]*MintRecord, error)
}
